// Package policy decides how much tax a transfer owes and where the tax
// goes. Classification depends only on whether the endpoints are registered
// exchange pairs; the split divides each tax take into burn, treasury, and
// liquidity shares. The package holds no balances and moves no tokens.
package policy

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Kind classifies a transfer for tax purposes.
type Kind int

const (
	// KindNone: exempt endpoint, or taxes permanently removed.
	KindNone Kind = iota
	// KindBuy: from a pair to a non-pair account.
	KindBuy
	// KindSell: from a non-pair account to a pair.
	KindSell
	// KindWallet: neither endpoint is a pair.
	KindWallet
	// KindPairToPair: both endpoints are pairs. Never taxed; admitted
	// separately by the anti-abuse guards.
	KindPairToPair
)

// String returns the journal name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBuy:
		return "buy"
	case KindSell:
		return "sell"
	case KindWallet:
		return "wallet"
	case KindPairToPair:
		return "pair_to_pair"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PairSet answers whether an account is a registered exchange pair.
type PairSet interface {
	IsPair(addr token.Address) bool
}

// Shares is one tax take divided three ways. Burn and Treasury round down;
// Liquidity absorbs the remainder, so the three always sum to the tax.
type Shares struct {
	Burn      *uint256.Int
	Treasury  *uint256.Int
	Liquidity *uint256.Int
}

// Engine classifies transfers and computes taxes. Not safe for concurrent
// use.
type Engine struct {
	pairs       PairSet
	monitor     *Monitor
	exempt      map[token.Address]bool
	buyBps      uint16
	sellBps     uint16
	walletBps   uint16
	burnPct     uint8
	treasuryPct uint8
}

// NewEngine builds a tax engine over the given pair set and burn monitor.
func NewEngine(pairs PairSet, monitor *Monitor, buyBps, sellBps, walletBps uint16, burnPct, treasuryPct uint8) (*Engine, error) {
	e := &Engine{
		pairs:   pairs,
		monitor: monitor,
		exempt:  make(map[token.Address]bool),
	}
	if err := e.SetRates(buyBps, sellBps, walletBps); err != nil {
		return nil, err
	}
	if err := e.SetSplit(burnPct, treasuryPct); err != nil {
		return nil, err
	}
	return e, nil
}

// Classify determines the tax kind of a transfer. Exemption of either
// endpoint, or permanent removal, wins over everything else.
func (e *Engine) Classify(from, to token.Address) Kind {
	if e.monitor.Removed() || e.exempt[from] || e.exempt[to] {
		return KindNone
	}
	fromPair, toPair := e.pairs.IsPair(from), e.pairs.IsPair(to)
	switch {
	case fromPair && toPair:
		return KindPairToPair
	case fromPair:
		return KindBuy
	case toPair:
		return KindSell
	default:
		return KindWallet
	}
}

// Rate returns the basis-point rate currently charged for a kind. All rates
// read as zero once taxes are removed.
func (e *Engine) Rate(k Kind) uint16 {
	if e.monitor.Removed() {
		return 0
	}
	switch k {
	case KindBuy:
		return e.buyBps
	case KindSell:
		return e.sellBps
	case KindWallet:
		return e.walletBps
	default:
		return 0
	}
}

// TaxFor classifies a transfer and returns the tax owed on amount:
// floor(amount * rate / 10000).
func (e *Engine) TaxFor(from, to token.Address, amount *uint256.Int) (*uint256.Int, Kind) {
	kind := e.Classify(from, to)
	return token.Bps(amount, e.Rate(kind)), kind
}

// Split divides a tax take into burn, treasury, and liquidity shares.
func (e *Engine) Split(tax *uint256.Int) Shares {
	burn := token.Percent(tax, e.burnPct)
	treasury := token.Percent(tax, e.treasuryPct)
	liquidity := new(uint256.Int).Sub(tax, burn)
	liquidity.Sub(liquidity, treasury)
	return Shares{Burn: burn, Treasury: treasury, Liquidity: liquidity}
}

// SetRates replaces the buy, sell, and wallet tax rates.
func (e *Engine) SetRates(buyBps, sellBps, walletBps uint16) error {
	if e.monitor.Removed() {
		return ErrTaxesRemoved
	}
	for _, r := range []uint16{buyBps, sellBps, walletBps} {
		if r > token.BpsDenominator {
			return fmt.Errorf("%w: %d", ErrBadRate, r)
		}
	}
	e.buyBps, e.sellBps, e.walletBps = buyBps, sellBps, walletBps
	return nil
}

// SetSplit replaces the burn and treasury percentages. The liquidity share
// is the implicit remainder.
func (e *Engine) SetSplit(burnPct, treasuryPct uint8) error {
	if e.monitor.Removed() {
		return ErrTaxesRemoved
	}
	if int(burnPct)+int(treasuryPct) > 100 {
		return fmt.Errorf("%w: %d + %d", ErrBadSplit, burnPct, treasuryPct)
	}
	e.burnPct, e.treasuryPct = burnPct, treasuryPct
	return nil
}

// SetExempt marks or unmarks an account as tax-exempt.
func (e *Engine) SetExempt(addr token.Address, exempt bool) {
	if exempt {
		e.exempt[addr] = true
	} else {
		delete(e.exempt, addr)
	}
}

// Exempt reports whether an account is tax-exempt.
func (e *Engine) Exempt(addr token.Address) bool {
	return e.exempt[addr]
}

// Rates returns the current buy, sell, and wallet rates as read by TaxFor.
func (e *Engine) Rates() (buyBps, sellBps, walletBps uint16) {
	return e.Rate(KindBuy), e.Rate(KindSell), e.Rate(KindWallet)
}

// SplitPercents returns the configured burn and treasury percentages.
func (e *Engine) SplitPercents() (burnPct, treasuryPct uint8) {
	return e.burnPct, e.treasuryPct
}
