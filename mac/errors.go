package mac

import "github.com/pkg/errors"

// ErrInvalidConfig is returned by New when the supplied config.MacConfig
// fails validation (§7: "W < 0, P ∉ (0,1], difs_ms ≤ 0 ... fails at
// construction"). New wraps the validation failure's message under this
// sentinel, so its error matches mac.ErrInvalidConfig with errors.Is; it
// does not match config.ErrInvalidConfig.
var ErrInvalidConfig = errors.New("mac: invalid configuration")

// ErrRadioInitFailed marks a radio that failed to initialize. mac.Core
// never constructs itself against such a radio (§7); a RadioInterface
// implementation's constructor is expected to return this (or a wrapped
// form of it) rather than letting New proceed.
var ErrRadioInitFailed = errors.New("mac: radio initialization failed")

// ErrPayloadTooLarge is returned by Send when payload exceeds
// radio.MaxPayloadLen (B4), before any radio operation is attempted.
var ErrPayloadTooLarge = errors.New("mac: payload exceeds maximum frame length")

// errorsWrapInvalidConfig wraps a config.MacConfig validation failure as
// this package's ErrInvalidConfig, so callers depending only on the mac
// package can still errors.Is against a single sentinel.
func errorsWrapInvalidConfig(cause error) error {
	return errors.Wrap(ErrInvalidConfig, cause.Error())
}
