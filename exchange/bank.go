package exchange

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Bank books holdings of the external asset (the other side of the trading
// pair). It is deliberately dumb: no supply, no allowances, no events. Not
// safe for concurrent use.
type Bank struct {
	balances map[token.Address]*uint256.Int
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{balances: make(map[token.Address]*uint256.Int)}
}

// BalanceOf returns the external-asset holdings of addr.
func (b *Bank) BalanceOf(addr token.Address) *uint256.Int {
	if v, ok := b.balances[addr]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

// Credit adds amount to addr's holdings.
func (b *Bank) Credit(addr token.Address, amount *uint256.Int) {
	v, ok := b.balances[addr]
	if !ok {
		v = new(uint256.Int)
		b.balances[addr] = v
	}
	v.Add(v, amount)
}

// Debit removes amount from addr's holdings.
func (b *Bank) Debit(addr token.Address, amount *uint256.Int) error {
	v, ok := b.balances[addr]
	if !ok || v.Lt(amount) {
		return fmt.Errorf("%w: account %s", ErrInsufficientExternal, addr)
	}
	v.Sub(v, amount)
	return nil
}

// Pay moves amount between holders. Nothing moves on failure.
func (b *Bank) Pay(from, to token.Address, amount *uint256.Int) error {
	if err := b.Debit(from, amount); err != nil {
		return err
	}
	b.Credit(to, amount)
	return nil
}
