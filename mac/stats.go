package mac

// Stats are the flat, monotonically non-decreasing counters mac.Core
// accumulates (§3, §4.3). A plain record rather than an abstract metrics
// framework, per the Design Notes: "Statistics counters → a flat record of
// named counters; no abstract metrics framework" — grounded on the
// teacher's own dispatcher/stats.go, which takes the same shape for
// simulation-wide counters.
type Stats struct {
	TxData       uint64
	TxRts        uint64
	RxData       uint64
	RxRts        uint64
	NavCount     uint64
	CadDetected  uint64
	BackoffCount uint64
}

// Efficiency is tx_data / (tx_data + nav_count), the fraction of
// transmission attempts that resulted in delivered DATA frames rather than
// being deferred by NAV. Reports 0 when the denominator is 0 rather than
// NaN, since "no attempts yet" is not meaningfully "0% efficient".
func (s Stats) Efficiency() float64 {
	denom := s.TxData + s.NavCount
	if denom == 0 {
		return 0
	}
	return float64(s.TxData) / float64(denom)
}

// Reset zeroes every counter. Stats are otherwise monotonically
// non-decreasing (§3); this is the only explicit reset path.
func (s *Stats) Reset() {
	*s = Stats{}
}
