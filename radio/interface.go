package radio

import "context"

// Interface is the capability surface mac.Core requires of a radio,
// modeled on the SX1262 operations the firmware driver exposes: channel
// activity detection, listen-then-receive, and send. A production
// SX1262Adapter would wrap the SPI register protocol (CMD_SET_CAD,
// CMD_SET_RX, IRQ_VALID_HEADER polling, CMD_GET_RX_BUFFER_STATUS) behind
// this same seam; that driver is out of scope here; only mac.Core's view
// of it is.
type Interface interface {
	// CAD performs a Channel Activity Detection scan and reports whether
	// energy was found on the channel.
	CAD(ctx context.Context) (busy bool, err error)

	// StartRX puts the radio into continuous receive mode.
	StartRX(ctx context.Context) error

	// PollRX performs one non-blocking check for a completed reception.
	// mac.Core drives listen-window timeouts itself (against its Clock),
	// calling PollRX repeatedly rather than handing the radio a deadline,
	// so that a virtual clock in tests and the real clock in production
	// behave identically from the radio's point of view.
	PollRX() (ready bool, err error)

	// ReadPacket returns the reception PollRX most recently reported
	// ready, consuming it.
	ReadPacket() (RxEvent, error)

	// SendPacket transmits framed bytes and blocks until on-air time
	// completes.
	SendPacket(ctx context.Context, frame []byte) error
}
