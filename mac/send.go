package mac

import (
	"context"

	"github.com/badgenet/loramac/logger"
	"github.com/badgenet/loramac/radio"
)

// pollIntervalMs implements the adaptive polling cadence from §5: start
// at ~11ms, relax to ~23ms after 3 idle polls, then ~41ms after 7, to
// reduce the SPI duty cycle of repeatedly calling PollRX without
// materially affecting responsiveness at LoRa symbol times.
func pollIntervalMs(idleCount int) uint64 {
	switch {
	case idleCount < 3:
		return 11
	case idleCount < 7:
		return 23
	default:
		return 41
	}
}

// listenOutcome is what a bounded listen window observed before it timed
// out, if anything.
type listenOutcome struct {
	timedOut bool
	rts      *radio.RtsFrame
	data     *radio.RxEvent
}

// listenWindow polls the radio against c.clock for up to durationMs,
// using the adaptive polling cadence, and classifies whatever arrives.
// This is the "explicit state-machine step function... outer driver calls
// it in a loop" pattern from §9 applied internally: Send itself is the
// outer driver for its own listen windows.
func (c *Core) listenWindow(ctx context.Context, durationMs uint64) (listenOutcome, error) {
	deadline := c.clock.NowMs() + durationMs
	idle := 0
	for {
		now := c.clock.NowMs()
		if now >= deadline {
			return listenOutcome{timedOut: true}, nil
		}

		ready, err := c.radio.PollRX()
		if err != nil {
			c.log.Debugf("PollRX error, treating as non-event: %v", err)
			ready = false
		}
		if ready {
			ev, err := c.radio.ReadPacket()
			if err != nil {
				// CRC failure or empty buffer: silently dropped (§7).
				idle++
			} else if ev.Type == radio.FrameTypeRTS {
				if rts, ok := radio.DecodeRtsFrame(ev.Payload); ok {
					return listenOutcome{rts: &rts}, nil
				}
				idle++
			} else {
				evCopy := ev
				return listenOutcome{data: &evCopy}, nil
			}
		} else {
			idle++
		}

		remaining := deadline - c.clock.NowMs()
		sleep := pollIntervalMs(idle)
		if sleep > remaining {
			sleep = remaining
		}
		c.clock.SleepMs(sleep)
	}
}

// deliverData hands an unexpectedly-observed DATA frame to the
// application callback and records rx_data, independent of the NAV path
// that also fires for the same event (§4.4 Open Question: "may
// double-count statistics across rx_data and the NAV path; keep them as
// independent counters").
func (c *Core) deliverData(ev *radio.RxEvent) {
	c.state.Stats.RxData++
	if c.state.rxCallback != nil {
		c.state.rxCallback(ev.Payload, ev.RSSI, ev.SNR)
	}
}

// Send transmits payload, or defers if the channel is judged unavailable
// (§4.3 transition table). It must not be called from the RX callback
// (§5); a violation panics via the same assertion helpers that guard
// other MAC invariants, rather than silently corrupting state.
func (c *Core) Send(ctx context.Context, payload []byte, priority Priority) (SendResult, error) {
	logger.AssertFalse(c.sending, "mac: Send called re-entrantly (from the RX callback?)")
	c.sending = true
	defer func() { c.sending = false }()

	if len(payload) > radio.MaxPayloadLen {
		return Deferred, ErrPayloadTooLarge
	}

	if c.InNav() {
		return Deferred, nil
	}

	if c.cfg.UseCAD {
		busy, err := c.radio.CAD(ctx)
		if err != nil {
			c.log.Debugf("CAD error, treating as inconclusive: %v", err)
		} else if busy {
			c.state.Stats.CadDetected++
			c.deferRandom()
			return Deferred, nil
		}
	}

	skipListen := priority == PriorityHigh || c.entropy.CoinFlip() < c.cfg.Phase2Probability

	if !skipListen {
		c.state.Phase = Phase1Listen
		if err := c.radio.StartRX(ctx); err != nil {
			c.log.Debugf("StartRX error during Phase1Listen: %v", err)
		}
		outcome, err := c.listenWindow(ctx, c.phase1DurationMs())
		if err != nil {
			c.log.Debugf("listenWindow error during Phase1Listen: %v", err)
		}
		switch {
		case outcome.rts != nil:
			c.state.Stats.RxRts++
			c.enterNavFromRTS(outcome.rts.DataLen)
			return Deferred, nil
		case outcome.data != nil:
			c.deliverData(outcome.data)
			c.enterNavRandom()
			return Deferred, nil
		}
		// timeout: fall through to Phase2Rts
	}

	return c.runPhase2AndPhase3(ctx, payload)
}

// runPhase2AndPhase3 emits the RTS, re-listens, and on timeout emits
// DATA. Split from Send for readability; it is always reached either by
// skipping Phase 1 (coin flip / high priority) or by Phase 1 timing out.
func (c *Core) runPhase2AndPhase3(ctx context.Context, payload []byte) (SendResult, error) {
	c.state.Phase = Phase2Rts
	backoff := c.drawBackoff()
	c.clock.SleepMs(backoff)
	c.state.Stats.BackoffCount++

	rtsFrame := radio.EncodeRtsPacket(uint8(len(payload)))
	if err := c.radio.SendPacket(ctx, rtsFrame); err != nil {
		c.log.Debugf("SendPacket(RTS) timed out: %v", err)
	}
	c.state.Stats.TxRts++

	if err := c.radio.StartRX(ctx); err != nil {
		c.log.Debugf("StartRX error during Phase2Rts: %v", err)
	}
	outcome, err := c.listenWindow(ctx, c.phase1DurationMs())
	if err != nil {
		c.log.Debugf("listenWindow error during Phase2Rts: %v", err)
	}
	switch {
	case outcome.rts != nil:
		c.state.Stats.RxRts++
		c.enterNavFromRTS(outcome.rts.DataLen)
		return Deferred, nil
	case outcome.data != nil:
		c.deliverData(outcome.data)
		c.enterNavRandom()
		return Deferred, nil
	}

	// timeout: Phase3Data
	c.state.Phase = Phase3Data
	backoff = c.drawBackoff()
	c.clock.SleepMs(backoff)
	c.state.Stats.BackoffCount++

	dataFrame := radio.EncodeDataFrame(payload)
	if err := c.radio.SendPacket(ctx, dataFrame); err != nil {
		c.log.Debugf("SendPacket(DATA) timed out: %v", err)
	}
	c.state.Stats.TxData++
	c.state.ConsecutiveNavs = 0
	c.state.Phase = PhaseIdle
	return Sent, nil
}
