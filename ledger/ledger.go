// Package ledger implements the single-asset balance book: per-account
// balances, delegated-spend allowances, and the total supply. It enforces
// conservation and validity and knows nothing about taxes or trading; those
// policies live above it.
package ledger

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Event types recorded by ledger operations.
const (
	EventTransfer = "transfer"
	EventApproval = "approval"
)

// Ledger is the balance book. It is not safe for concurrent use; the engine
// serializes access.
type Ledger struct {
	supply     *uint256.Int
	balances   map[token.Address]*uint256.Int
	allowances map[token.Address]map[token.Address]*uint256.Int
	rec        journal.Recorder
}

// New returns an empty ledger. Events are emitted through rec; pass nil to
// disable journaling.
func New(rec journal.Recorder) *Ledger {
	if rec == nil {
		rec = journal.NopRecorder{}
	}
	return &Ledger{
		supply:     new(uint256.Int),
		balances:   make(map[token.Address]*uint256.Int),
		allowances: make(map[token.Address]map[token.Address]*uint256.Int),
		rec:        rec,
	}
}

// TotalSupply returns the current total supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	return l.supply.Clone()
}

// BalanceOf returns the balance of addr. Unknown accounts read as zero.
func (l *Ledger) BalanceOf(addr token.Address) *uint256.Int {
	if b, ok := l.balances[addr]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

// Allowance returns what spender may still move from owner's balance.
func (l *Ledger) Allowance(owner, spender token.Address) *uint256.Int {
	if m, ok := l.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a.Clone()
		}
	}
	return new(uint256.Int)
}

// Accounts returns every account that has ever held a balance, in a stable
// order. Accounts are created on first credit and never deleted, even when
// their balance returns to zero.
func (l *Ledger) Accounts() []token.Address {
	out := make([]token.Address, 0, len(l.balances))
	for a := range l.balances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Mint credits newly created tokens to an account, growing the supply.
func (l *Ledger) Mint(to token.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return fmt.Errorf("%w: mint to null account", ErrInvalidAccount)
	}
	supply, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply overflow", ErrConservationBroken)
	}
	l.supply = supply
	l.credit(to, amount)
	l.emitTransfer(token.ZeroAddress, to, amount)
	return nil
}

// Burn destroys tokens from an account, shrinking the supply. This is the
// supply-reducing primitive; the tax policy's burn is a transfer into the
// burn sink and does not pass through here.
func (l *Ledger) Burn(from token.Address, amount *uint256.Int) error {
	if from.IsZero() {
		return fmt.Errorf("%w: burn from null account", ErrInvalidAccount)
	}
	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.supply.Sub(l.supply, amount)
	l.emitTransfer(from, token.ZeroAddress, amount)
	return nil
}

// Transfer moves amount between accounts. A self-transfer is validated and
// recorded but does not change any balance. Zero amounts are valid.
func (l *Ledger) Transfer(from, to token.Address, amount *uint256.Int) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: transfer endpoint is null", ErrInvalidAccount)
	}
	if from == to {
		if l.BalanceOf(from).Lt(amount) {
			return fmt.Errorf("%w: account %s", ErrInsufficientBalance, from)
		}
		l.touch(from)
		l.emitTransfer(from, to, amount)
		return nil
	}
	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	l.emitTransfer(from, to, amount)
	return nil
}

// Approve sets spender's allowance over owner's balance, replacing any
// previous value. The unlimited sentinel marks an allowance that is never
// decremented by spends.
func (l *Ledger) Approve(owner, spender token.Address, amount *uint256.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return fmt.Errorf("%w: approval endpoint is null", ErrInvalidAccount)
	}
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[token.Address]*uint256.Int)
		l.allowances[owner] = m
	}
	m[spender] = amount.Clone()
	l.rec.Emit(EventApproval, map[string]any{
		"owner":   owner.String(),
		"spender": spender.String(),
		"amount":  amount.Dec(),
	})
	return nil
}

// SpendAllowance consumes amount from spender's allowance over owner.
// Unlimited allowances are left untouched.
func (l *Ledger) SpendAllowance(owner, spender token.Address, amount *uint256.Int) error {
	current := l.Allowance(owner, spender)
	if token.IsUnlimited(current) {
		return nil
	}
	if current.Lt(amount) {
		return fmt.Errorf("%w: spender %s over owner %s", ErrInsufficientAllowance, spender, owner)
	}
	if amount.IsZero() {
		return nil
	}
	l.allowances[owner][spender] = current.Sub(current, amount)
	return nil
}

// CheckConservation verifies that the sum of all balances equals the total
// supply. A failure means the book is corrupt.
func (l *Ledger) CheckConservation() error {
	sum := new(uint256.Int)
	for _, b := range l.balances {
		var overflow bool
		sum, overflow = sum.AddOverflow(sum, b)
		if overflow {
			return fmt.Errorf("%w: balance sum overflow", ErrConservationBroken)
		}
	}
	if !sum.Eq(l.supply) {
		return fmt.Errorf("%w: sum %s, supply %s", ErrConservationBroken, sum.Dec(), l.supply.Dec())
	}
	return nil
}

func (l *Ledger) credit(to token.Address, amount *uint256.Int) {
	b, ok := l.balances[to]
	if !ok {
		b = new(uint256.Int)
		l.balances[to] = b
	}
	b.Add(b, amount)
}

func (l *Ledger) debit(from token.Address, amount *uint256.Int) error {
	b, ok := l.balances[from]
	if !ok || b.Lt(amount) {
		return fmt.Errorf("%w: account %s", ErrInsufficientBalance, from)
	}
	b.Sub(b, amount)
	return nil
}

// touch ensures the account exists so self-transfers still create it.
func (l *Ledger) touch(addr token.Address) {
	if _, ok := l.balances[addr]; !ok {
		l.balances[addr] = new(uint256.Int)
	}
}

func (l *Ledger) emitTransfer(from, to token.Address, amount *uint256.Int) {
	l.rec.Emit(EventTransfer, map[string]any{
		"from":        from.String(),
		"to":          to.String(),
		"amount":      amount.Dec(),
		"fromBalance": l.BalanceOf(from).Dec(),
		"toBalance":   l.BalanceOf(to).Dec(),
	})
}
