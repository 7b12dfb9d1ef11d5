package clock

// Virtual is a Clock for tests: SleepMs advances the virtual timebase
// instantly instead of blocking, so state-machine tests that exercise
// multi-second backoffs and listen windows run in microseconds of wall
// time. Advancing time via SleepMs mirrors how the teacher's simulation
// dispatcher advances a virtual CurTime instead of calling time.Sleep.
type Virtual struct {
	now uint64
}

// NewVirtual creates a Virtual clock starting at the given millisecond.
func NewVirtual(startMs uint64) *Virtual {
	return &Virtual{now: startMs}
}

func (v *Virtual) NowMs() uint64 {
	return v.now
}

func (v *Virtual) SleepMs(ms uint64) {
	v.now += ms
}

// Advance moves the virtual clock forward without going through a sleep,
// e.g. to simulate time passing while a test injects a radio event.
func (v *Virtual) Advance(ms uint64) {
	v.now += ms
}
