package exchange

import "errors"

var (
	// ErrPairAlreadySet is returned when the primary pair is bound twice.
	ErrPairAlreadySet = errors.New("exchange: primary pair already set")

	// ErrInvalidPair is returned when registering the null account as a
	// pair.
	ErrInvalidPair = errors.New("exchange: invalid pair address")

	// ErrQuoteUnavailable is returned when the gateway cannot price a
	// trade.
	ErrQuoteUnavailable = errors.New("exchange: quote unavailable")

	// ErrSwapFailed is returned when a swap cannot execute. No balances
	// move on failure.
	ErrSwapFailed = errors.New("exchange: swap failed")

	// ErrSlippage is returned when a swap's output falls below the
	// caller's minimum.
	ErrSlippage = errors.New("exchange: output below minimum")

	// ErrDeadlineExpired is returned when a swap or liquidity operation
	// arrives past its absolute deadline.
	ErrDeadlineExpired = errors.New("exchange: deadline expired")

	// ErrLiquidityFailed is returned when adding liquidity cannot
	// execute. No balances move on failure.
	ErrLiquidityFailed = errors.New("exchange: add liquidity failed")

	// ErrInsufficientExternal is returned when an external-asset debit
	// exceeds the account's holdings.
	ErrInsufficientExternal = errors.New("exchange: insufficient external balance")
)
