package distribute

import "errors"

var (
	// ErrBadShares rejects a share table that is empty, names the null
	// account, repeats an account, or does not sum to 10000 bps.
	ErrBadShares = errors.New("distribute: invalid share table")

	// ErrNotConfigured is returned by Queue before any share table is set.
	ErrNotConfigured = errors.New("distribute: no share table configured")

	// ErrAlreadyQueued rejects queueing or reconfiguring while a
	// distribution cycle is still pending settlement.
	ErrAlreadyQueued = errors.New("distribute: distribution already queued")

	// ErrTooSoon rejects a queue attempt before the minimum block delay
	// since the previous one.
	ErrTooSoon = errors.New("distribute: queue delay not elapsed")

	// ErrNothingToDistribute is returned when the available amount splits
	// to nothing.
	ErrNothingToDistribute = errors.New("distribute: nothing to distribute")

	// ErrNothingPending is returned by Settle for a beneficiary with no
	// queued amount.
	ErrNothingPending = errors.New("distribute: nothing pending for account")

	// ErrPayFailed wraps a payment failure during Settle. The pending
	// amount is already zeroed and is not restored; reconciliation
	// recovers the stranded funds.
	ErrPayFailed = errors.New("distribute: settlement payment failed")
)
