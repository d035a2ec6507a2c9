package token

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10000

// unlimited is the allowance sentinel: the maximum representable amount.
var unlimited = new(uint256.Int).SetAllOne()

// ParseAmount decodes a non-negative decimal string into an amount.
// Amounts are carried as decimal strings in configuration and journal
// records to avoid scientific-notation loss in JSON.
func ParseAmount(s string) (*uint256.Int, error) {
	v := new(uint256.Int)
	if err := v.SetFromDecimal(s); err != nil {
		return nil, fmt.Errorf("token: amount %q: %w", s, err)
	}
	return v, nil
}

// MustAmount is ParseAmount for literals known to be valid. It panics on
// malformed input.
func MustAmount(s string) *uint256.Int {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Bps returns floor(amount * bps / 10000) as a fresh value. This is the
// rounding rule for every tax computation: the dust always stays with the
// payer side of the split.
func Bps(amount *uint256.Int, bps uint16) *uint256.Int {
	if amount == nil || amount.IsZero() || bps == 0 {
		return new(uint256.Int)
	}
	prod, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(uint64(bps)))
	if overflow {
		// Amounts are bounded by the total supply in practice; reaching this
		// means an upstream invariant is already broken.
		panic("token: basis-point product overflow")
	}
	return prod.Div(prod, uint256.NewInt(BpsDenominator))
}

// Percent returns floor(amount * pct / 100) as a fresh value.
func Percent(amount *uint256.Int, pct uint8) *uint256.Int {
	if amount == nil || amount.IsZero() || pct == 0 {
		return new(uint256.Int)
	}
	prod, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(uint64(pct)))
	if overflow {
		panic("token: percent product overflow")
	}
	return prod.Div(prod, uint256.NewInt(100))
}

// Halves splits an amount into two parts whose sum is exactly the input:
// floor(amount/2) and the remainder. Odd amounts put the extra unit in the
// second half.
func Halves(amount *uint256.Int) (first, second *uint256.Int) {
	first = new(uint256.Int).Div(amount, uint256.NewInt(2))
	second = new(uint256.Int).Sub(amount, first)
	return first, second
}

// Unlimited returns the allowance sentinel meaning "never decremented".
func Unlimited() *uint256.Int {
	return unlimited.Clone()
}

// IsUnlimited reports whether v is the unlimited-allowance sentinel.
func IsUnlimited(v *uint256.Int) bool {
	return v != nil && v.Eq(unlimited)
}
