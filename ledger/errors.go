package ledger

import "errors"

var (
	// ErrInvalidAccount is returned when an operation names the null
	// account as an endpoint.
	ErrInvalidAccount = errors.New("ledger: invalid account")

	// ErrInsufficientBalance is returned when a debit exceeds the source
	// account's balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrInsufficientAllowance is returned when a delegated spend exceeds
	// the spender's remaining allowance.
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")

	// ErrConservationBroken is returned by CheckConservation when the sum
	// of balances no longer equals the recorded total supply. It signals
	// internal corruption and is never recoverable.
	ErrConservationBroken = errors.New("ledger: balance sum diverged from total supply")
)
