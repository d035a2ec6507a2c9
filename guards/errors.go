package guards

import "errors"

var (
	// ErrTradingDisabled rejects transfers before trading opens.
	ErrTradingDisabled = errors.New("guards: trading not enabled")

	// ErrTradingEnabled rejects a second attempt to open trading.
	ErrTradingEnabled = errors.New("guards: trading already enabled")

	// ErrLaunchRestricted rejects transfers during the launch window that
	// originate from unapproved contract callers or proxied calls.
	ErrLaunchRestricted = errors.New("guards: restricted during launch window")

	// ErrExceedsMaxTx rejects ordinary transfers above the fixed
	// per-transaction cap.
	ErrExceedsMaxTx = errors.New("guards: amount exceeds max transaction")

	// ErrExceedsPairLimit rejects pair-to-pair transfers above the
	// configured cap.
	ErrExceedsPairLimit = errors.New("guards: amount exceeds pair-to-pair limit")

	// ErrCooldownActive rejects a pair-to-pair transfer from a source that
	// moved too recently.
	ErrCooldownActive = errors.New("guards: pair-to-pair cooldown active")
)
