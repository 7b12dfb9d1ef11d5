// Package mac implements the three-phase listen/announce/transmit MAC
// state machine (§4.3): phase tracking, NAV arming, RTS emission, backoff
// generation, RX dispatch, and statistics. It is grounded on the
// teacher's dispatcher/dispatcher.go, generalized from "many simulated
// Thread nodes advanced by an external event loop" to "one cooperative
// Core instance stepped by its own blocking Send call," with Clock and
// entropy.Source injected exactly as the Design Notes prescribe ("Global
// random/time → inject Clock and Entropy as explicit collaborators").
package mac

import (
	"context"

	"github.com/badgenet/loramac/airtime"
	"github.com/badgenet/loramac/clock"
	"github.com/badgenet/loramac/config"
	"github.com/badgenet/loramac/entropy"
	"github.com/badgenet/loramac/logger"
	"github.com/badgenet/loramac/radio"
)

// Phase is one of the five MAC states (§4.3). Idle is the zero value and
// the initial state; there is no terminal state.
type Phase int

const (
	PhaseIdle Phase = iota
	Phase1Listen
	Phase2Rts
	Phase3Data
	PhaseNav
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case Phase1Listen:
		return "Phase1Listen"
	case Phase2Rts:
		return "Phase2Rts"
	case Phase3Data:
		return "Phase3Data"
	case PhaseNav:
		return "Nav"
	default:
		return "Unknown"
	}
}

// SendResult is Send's outcome (§6).
type SendResult int

const (
	// Sent means exactly one RTS frame and one DATA frame were emitted,
	// in that order (P1).
	Sent SendResult = iota
	// Deferred means the channel was judged unavailable by some path
	// (NAV already armed, CAD positive, a competing RTS or unexpected
	// DATA observed) and zero DATA frames were emitted (P2).
	Deferred
)

func (r SendResult) String() string {
	if r == Sent {
		return "Sent"
	}
	return "Deferred"
}

// ReceiveCallback is the application handler registered via OnReceive,
// invoked with a decoded DATA frame's payload and the radio's reported
// signal quality.
type ReceiveCallback func(payload []byte, rssi int, snr float64)

// MacState is the mutable state mac.Core owns exclusively (§3). phase may
// lag reality for PhaseNav (I1): InNav is the ground truth, recomputed
// from NavUntil against the clock rather than trusted from the cached
// field, the same pattern the teacher uses for FailureCtrl.IsFailed
// versus its own cached recovery timestamp.
type MacState struct {
	Phase           Phase
	NavUntil        uint64
	ConsecutiveNavs int
	Stats           Stats
	rxCallback      ReceiveCallback
}

// Core is the MAC state machine. It exclusively owns MacState; the radio
// is shared by reference, and Core is the sole caller into its transmit
// and RX-control operations while a Send is in progress.
type Core struct {
	radio   radio.Interface
	clock   clock.Clock
	entropy entropy.Source
	airtime airtime.Model
	cfg     config.MacConfig
	state   MacState
	log     logger.Named

	sending bool // non-reentrancy guard: Send must not be called from the RX callback
}

// New constructs a Core. cfg is validated per §7; an invalid config fails
// construction with ErrInvalidConfig and the system does not start. name
// is used to prefix this instance's log lines (useful when a harness runs
// many Core instances at once).
func New(r radio.Interface, cfg config.MacConfig, clk clock.Clock, ent entropy.Source, model airtime.Model, name string) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errorsWrapInvalidConfig(err)
	}
	c := &Core{
		radio:   r,
		clock:   clk,
		entropy: ent,
		airtime: model,
		cfg:     cfg,
		log:     logger.NewNamed(name),
	}
	c.log.Infof("mac.Core initialized: P=%v W=%d DIFS=%dms CAD=%v", cfg.Phase2Probability, cfg.BackoffWindow, cfg.DifsMs, cfg.UseCAD)
	return c, nil
}

// phase1DurationMs is I4: W·difs_ms + toa(5), the fixed-for-a-config
// duration of a Phase 1 listen window (5 bytes = the RTS payload length).
func (c *Core) phase1DurationMs() uint64 {
	return uint64(c.cfg.BackoffWindow)*c.cfg.DifsMs + c.airtime.ToAMs(radio.EncodedRtsLen-1)
}

// InNav is the ground-truth deferral check (I1): phase==PhaseNav is a
// hint only, this recomputes from NavUntil against the clock.
func (c *Core) InNav() bool {
	return c.state.Phase == PhaseNav && c.clock.NowMs() < c.state.NavUntil
}

// Phase reports the cached phase field. Per I1 it may lag reality while
// PhaseNav; callers that need the ground truth should use InNav.
func (c *Core) Phase() Phase {
	return c.state.Phase
}

// NavUntilMs reports the currently armed NAV deadline, for
// introspection/testing.
func (c *Core) NavUntilMs() uint64 {
	return c.state.NavUntil
}

// ConsecutiveNavs reports the current exponential-backoff counter, for
// introspection/testing.
func (c *Core) ConsecutiveNavs() int {
	return c.state.ConsecutiveNavs
}

// GetStats returns a snapshot copy of the accumulated counters.
func (c *Core) GetStats() Stats {
	return c.state.Stats
}

// ResetStats zeroes all counters (the only explicit reset path, §3).
func (c *Core) ResetStats() {
	c.state.Stats.Reset()
}

// PrintStats logs a human-readable dump including derived efficiency
// (§6).
func (c *Core) PrintStats() {
	s := c.state.Stats
	c.log.Infof("stats: tx_rts=%d tx_data=%d rx_rts=%d rx_data=%d nav=%d cad=%d backoffs=%d efficiency=%.3f",
		s.TxRts, s.TxData, s.RxRts, s.RxData, s.NavCount, s.CadDetected, s.BackoffCount, s.Efficiency())
}

// OnReceive registers the single application callback for DATA frames
// observed outside an active Send. Re-registration replaces it (§3).
func (c *Core) OnReceive(cb ReceiveCallback) {
	c.state.rxCallback = cb
}

// StartListening arms continuous receive (§4.4). PollReceive must then be
// called periodically by the application's own loop to actually drain
// decoded DATA frames to the callback; this is the "explicit state-machine
// step function... outer driver calls it in a loop" re-architecture from
// §9, applied to continuous receive exactly as it is applied to Send's
// listen windows.
func (c *Core) StartListening(ctx context.Context) error {
	return c.radio.StartRX(ctx)
}

// PollReceive is one non-blocking step of the continuous-receive loop:
// if a DATA frame has been decoded, it is delivered to the registered
// callback. It must not be called while a Send is in progress (Send
// drives its own listen windows directly against the radio).
func (c *Core) PollReceive() error {
	ready, err := c.radio.PollRX()
	if err != nil || !ready {
		return err
	}
	ev, err := c.radio.ReadPacket()
	if err != nil {
		// CRC failure or empty buffer: silently dropped, no stat incremented (§7).
		return nil
	}
	if ev.Type == radio.FrameTypeDATA {
		c.state.Stats.RxData++
		if c.state.rxCallback != nil {
			c.state.rxCallback(ev.Payload, ev.RSSI, ev.SNR)
		}
	}
	// An RTS observed outside an active Send carries no actionable
	// deadline for us (we are not mid-contention); it is silently
	// dropped rather than arming NAV, since only Send's listen windows
	// treat an overheard RTS as a deferral trigger (§4.3 transition
	// table applies only to Phase1Listen/Phase2Rts).
	return nil
}
