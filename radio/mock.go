package radio

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/badgenet/loramac/clock"
)

// ErrNoPacket is returned by ReadPacket when no reception has completed.
var ErrNoPacket = errors.New("radio: no packet available")

// scheduledRx is an RX delivery queued to arrive at a given point on the
// mock's Clock, mirroring how the teacher's alarm-driven dispatcher
// schedules a future event rather than delivering it inline.
type scheduledRx struct {
	atMs uint64
	ev   RxEvent
}

// Mock is an in-memory Interface used by tests and the simulation
// harness. It never touches real hardware or wall-clock time: CAD
// results and received packets are injected by the test, and SendPacket
// is bookkept for assertions rather than actually transmitted anywhere.
type Mock struct {
	mu sync.Mutex

	clk clock.Clock

	cadBusy   []bool // queue of CAD results; repeats the last entry once drained
	rxQueue   []scheduledRx
	lastRx    *RxEvent
	listening bool

	Sent [][]byte // every frame passed to SendPacket, for assertions
}

// NewMock creates a Mock radio sharing clk with the mac.Core under test,
// so that scheduled receptions line up with the state machine's own
// notion of elapsed time.
func NewMock(clk clock.Clock) *Mock {
	return &Mock{clk: clk}
}

// QueueCAD appends a CAD result to be returned by successive CAD calls.
func (m *Mock) QueueCAD(busy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cadBusy = append(m.cadBusy, busy)
}

// ScheduleRX arranges for ev to be deliverable once the clock reaches
// atMs, simulating a neighbor's transmission landing mid-listen-window.
func (m *Mock) ScheduleRX(atMs uint64, ev RxEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rxQueue = append(m.rxQueue, scheduledRx{atMs: atMs, ev: ev})
}

func (m *Mock) CAD(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cadBusy) == 0 {
		return false, nil
	}
	busy := m.cadBusy[0]
	if len(m.cadBusy) > 1 {
		m.cadBusy = m.cadBusy[1:]
	}
	return busy, nil
}

func (m *Mock) StartRX(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.listening = true
	m.mu.Unlock()
	return nil
}

// PollRX checks the scheduled queue against the shared clock once, without
// blocking or advancing time itself.
func (m *Mock) PollRX() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.listening {
		return false, nil
	}
	now := m.clk.NowMs()
	for i, sr := range m.rxQueue {
		if sr.atMs <= now {
			m.rxQueue = append(m.rxQueue[:i], m.rxQueue[i+1:]...)
			ev := sr.ev
			m.lastRx = &ev
			return true, nil
		}
	}
	return false, nil
}

func (m *Mock) ReadPacket() (RxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastRx == nil {
		return RxEvent{}, ErrNoPacket
	}
	ev := *m.lastRx
	m.lastRx = nil
	return ev, nil
}

func (m *Mock) SendPacket(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	m.Sent = append(m.Sent, cp)
	m.mu.Unlock()
	return nil
}
