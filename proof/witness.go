package proof

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// TransferWitness carries one applied transfer's amounts in base units.
// Gross, Net, and Tax become the proof's public inputs; the rest stays
// private.
type TransferWitness struct {
	Gross          *uint256.Int
	Net            *uint256.Int
	Tax            *uint256.Int
	BurnShare      *uint256.Int
	TreasuryShare  *uint256.Int
	LiquidityShare *uint256.Int
	SenderBefore   *uint256.Int
	SenderAfter    *uint256.Int
}

// FromEvent builds a witness from a transfer_applied journal record and the
// sender's balance before the transfer. Untaxed records omit the share
// fields; those default to zero. The post-balance is derived, so a record
// inconsistent with the given balance fails here rather than at proving
// time.
func FromEvent(e *journal.Event, senderBefore *uint256.Int) (*TransferWitness, error) {
	if e == nil || e.Data == nil {
		return nil, fmt.Errorf("proof: event carries no data")
	}
	if senderBefore == nil {
		senderBefore = new(uint256.Int)
	}

	w := &TransferWitness{SenderBefore: senderBefore.Clone()}
	var err error
	if w.Gross, err = amountField(e, "gross"); err != nil {
		return nil, err
	}
	if w.Net, err = amountField(e, "net"); err != nil {
		return nil, err
	}
	if w.Tax, err = amountField(e, "tax"); err != nil {
		return nil, err
	}
	if w.BurnShare, err = optionalField(e, "burnShare"); err != nil {
		return nil, err
	}
	if w.TreasuryShare, err = optionalField(e, "treasuryShare"); err != nil {
		return nil, err
	}
	if w.LiquidityShare, err = optionalField(e, "liquidityShare"); err != nil {
		return nil, err
	}

	if senderBefore.Lt(w.Gross) {
		return nil, fmt.Errorf("proof: sender balance %s below gross %s", senderBefore.Dec(), w.Gross.Dec())
	}
	w.SenderAfter = new(uint256.Int).Sub(senderBefore, w.Gross)
	return w, nil
}

// assignment converts the witness into circuit form. It only checks that
// every value is present and fits the circuit's amount range; whether the
// amounts actually balance is the circuit's verdict.
func (w *TransferWitness) assignment() (*ConservationCircuit, error) {
	fields := []struct {
		name string
		v    *uint256.Int
	}{
		{"gross", w.Gross},
		{"net", w.Net},
		{"tax", w.Tax},
		{"burnShare", w.BurnShare},
		{"treasuryShare", w.TreasuryShare},
		{"liquidityShare", w.LiquidityShare},
		{"senderBefore", w.SenderBefore},
		{"senderAfter", w.SenderAfter},
	}
	for _, f := range fields {
		if f.v == nil {
			return nil, fmt.Errorf("proof: %s is unset", f.name)
		}
		if f.v.BitLen() > AmountBits {
			return nil, fmt.Errorf("proof: %s does not fit %d bits", f.name, AmountBits)
		}
	}
	return &ConservationCircuit{
		Gross:          w.Gross.ToBig(),
		Net:            w.Net.ToBig(),
		Tax:            w.Tax.ToBig(),
		BurnShare:      w.BurnShare.ToBig(),
		TreasuryShare:  w.TreasuryShare.ToBig(),
		LiquidityShare: w.LiquidityShare.ToBig(),
		SenderBefore:   w.SenderBefore.ToBig(),
		SenderAfter:    w.SenderAfter.ToBig(),
	}, nil
}

func amountField(e *journal.Event, key string) (*uint256.Int, error) {
	s, ok := e.Data[key].(string)
	if !ok {
		return nil, fmt.Errorf("proof: event %q lacks amount %q", e.Type, key)
	}
	v, err := token.ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("proof: %s: %w", key, err)
	}
	return v, nil
}

func optionalField(e *journal.Event, key string) (*uint256.Int, error) {
	if _, ok := e.Data[key]; !ok {
		return new(uint256.Int), nil
	}
	return amountField(e, key)
}
