package exchange

import (
	"fmt"
	"sort"

	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// PairRegistry tracks which accounts are exchange pairs. The primary pair
// is write-once; additional pairs may be registered freely.
type PairRegistry struct {
	pairs      map[token.Address]bool
	primary    token.Address
	primarySet bool
}

// NewPairRegistry returns an empty registry.
func NewPairRegistry() *PairRegistry {
	return &PairRegistry{pairs: make(map[token.Address]bool)}
}

// Register marks an account as a pair. Registering an existing pair is a
// no-op.
func (r *PairRegistry) Register(addr token.Address) error {
	if addr.IsZero() {
		return fmt.Errorf("%w: null account", ErrInvalidPair)
	}
	r.pairs[addr] = true
	return nil
}

// IsPair reports whether the account is a registered pair.
func (r *PairRegistry) IsPair(addr token.Address) bool { return r.pairs[addr] }

// SetPrimary binds the primary pair exactly once and registers it. A second
// bind fails even with the same address.
func (r *PairRegistry) SetPrimary(addr token.Address) error {
	if r.primarySet {
		return fmt.Errorf("%w: %s", ErrPairAlreadySet, r.primary)
	}
	if err := r.Register(addr); err != nil {
		return err
	}
	r.primary = addr
	r.primarySet = true
	return nil
}

// Primary returns the primary pair, if bound.
func (r *PairRegistry) Primary() (token.Address, bool) {
	return r.primary, r.primarySet
}

// AdoptFrom binds the primary pair from the gateway's resolution the first
// time it resolves. Returns whether an adoption happened.
func (r *PairRegistry) AdoptFrom(gw Gateway) bool {
	if r.primarySet || gw == nil {
		return false
	}
	addr, ok := gw.ResolvePair()
	if !ok || addr.IsZero() {
		return false
	}
	return r.SetPrimary(addr) == nil
}

// Pairs returns all registered pairs in a stable order.
func (r *PairRegistry) Pairs() []token.Address {
	out := make([]token.Address, 0, len(r.pairs))
	for a := range r.pairs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
