package radio

import "github.com/pkg/errors"

// SX1262Config carries the register-level parameters a real driver would
// program onto the chip: spreading factor, bandwidth, coding rate, and TX
// power. It is the same shape as config.RadioParams; it lives here rather
// than importing the config package so this file stays a standalone seam
// with no dependency beyond the radio package itself.
type SX1262Config struct {
	FreqMHz         float64
	SpreadingFactor int
	BandwidthKHz    int
	CodingRate      int
	TxPowerDbm      int
}

// SX1262Adapter is the documented seam where a real SPI-attached SX1262
// driver plugs into Interface. It is declared, not implemented: the
// physical register protocol (CMD_SET_CAD, CMD_SET_RX, polling
// IRQ_VALID_HEADER, CMD_GET_RX_BUFFER_STATUS) is out of scope, per §1 of
// the spec this module implements.
//
// A concrete implementation of CAD/StartRX/PollRX/ReadPacket/SendPacket
// MUST program the modulation airtime.Model is calibrated for (SF12/BW125
// by default, see airtime.DefaultModel), or construct its airtime.Model
// via airtime.NewModel with matching Params — otherwise mac.Core's NAV
// and listen-window durations will not match the radio's actual
// time-on-air and the deferral invariants in §4 no longer hold.
type SX1262Adapter struct {
	cfg SX1262Config
}

// NewSX1262Adapter records cfg for a future concrete driver; it performs
// no SPI I/O and does not implement Interface.
func NewSX1262Adapter(cfg SX1262Config) *SX1262Adapter {
	return &SX1262Adapter{cfg: cfg}
}

// Config reports the register parameters this adapter was constructed
// with, so a caller can derive a matching airtime.Model via
// airtime.NewModel before wiring this adapter to a mac.Core.
func (a *SX1262Adapter) Config() SX1262Config {
	return a.cfg
}

// errNotImplemented names the missing register-level implementation.
// SX1262Adapter defines none of Interface's operations, so nothing in this
// package returns it.
var errNotImplemented = errors.New("radio: SX1262Adapter has no register-level implementation")
