package mac

import "math"

// PrimeOffsets decorrelate nodes whose backoff windows happen to coincide:
// added atop every backoff and NAV computation so that synchronized
// stampedes triggered by the same observed event don't recur identically
// across nodes (§4.3).
var PrimeOffsets = [5]int{5, 7, 11, 13, 17}

// navMultiplier is the congestion-responsive exponential backoff cap:
// min(1 + 0.3*k, 2.5), where k is consecutiveNavs *before* the increment
// for the deferral currently being computed. Saturates at 2.5x after
// roughly 5 consecutive deferrals (B3).
func navMultiplier(consecutiveNavs int) float64 {
	m := 1 + 0.3*float64(consecutiveNavs)
	if m > 2.5 {
		return 2.5
	}
	return m
}

// drawBackoff implements the shared backoff construction used before both
// the RTS emission and the DATA emission:
//
//	backoff_ms = U{0..W}·difs_ms + PrimeOffsets[U{0..4}]
func (c *Core) drawBackoff() uint64 {
	slot := c.entropy.BackoffSlot(c.cfg.BackoffWindow)
	prime := PrimeOffsets[c.entropy.PrimeIndex(len(PrimeOffsets))]
	return uint64(slot)*c.cfg.DifsMs + uint64(prime)
}

// enterNavFromRTS arms NAV from an observed RTS carrying dataLen (§4.3).
// The jitter floor is what spreads listeners of the same RTS apart in
// time; without it every node in earshot would exit NAV simultaneously and
// restart the stampede the RTS was meant to prevent.
func (c *Core) enterNavFromRTS(dataLen uint8) {
	dataToA := c.airtime.ToAMs(int(dataLen))
	base := c.phase1DurationMs() + uint64(c.cfg.BackoffWindow)*c.cfg.DifsMs + dataToA
	base += uint64(PrimeOffsets[c.entropy.PrimeIndex(len(PrimeOffsets))])

	jitterLo := int(math.Floor(0.05 * float64(base)))
	jitterHi := int(math.Floor(0.15 * float64(base)))
	jitter := c.entropy.JitterRange(jitterLo, jitterHi)

	nav := base + uint64(jitter)
	c.armNav(nav)
}

// enterNavRandom arms NAV as if an unexpected DATA frame of unknown,
// potentially maximum, length had just been observed (§4.3).
func (c *Core) enterNavRandom() {
	maxToA := c.airtime.ToAMs(255)
	lo := int(math.Floor(0.8 * float64(maxToA)))
	hi := int(math.Floor(1.2 * float64(maxToA)))
	nav := uint64(c.entropy.JitterRange(lo, hi))
	nav += uint64(PrimeOffsets[c.entropy.PrimeIndex(len(PrimeOffsets))])
	c.armNav(nav)
}

// deferRandom arms NAV after a positive CAD reading, before any RTS/DATA
// has actually been observed (§4.3).
func (c *Core) deferRandom() {
	p1 := c.phase1DurationMs()
	nav := uint64(c.entropy.JitterRange(int(p1), int(3*p1)))
	nav += uint64(PrimeOffsets[c.entropy.PrimeIndex(len(PrimeOffsets))])
	c.armNav(nav)
}

// armNav applies the exponential multiplier, increments consecutiveNavs,
// sets navUntil, transitions to PhaseNav, and updates stats (I3). It is
// the single path every deferral route (RTS-heard, unexpected-DATA-heard,
// CAD-detected) funnels through.
func (c *Core) armNav(nav uint64) {
	if c.state.ConsecutiveNavs > 0 {
		nav = uint64(float64(nav) * navMultiplier(c.state.ConsecutiveNavs))
	}
	c.state.ConsecutiveNavs++
	c.state.NavUntil = c.clock.NowMs() + nav
	c.state.Phase = PhaseNav
	c.state.Stats.NavCount++
}
