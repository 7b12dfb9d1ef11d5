package entropy

import "time"

// realSeedFromTime produces a non-reproducible root seed from wall-clock
// time, used only when the caller passes rootSeed==0 to NewReal.
func realSeedFromTime() uint64 {
	return uint64(time.Now().UnixNano())
}
