// Package proof turns recorded transfers into Groth16 attestations of value
// conservation. A proof convinces a verifier holding only the journal's
// public amounts that the transfer created and destroyed nothing: the gross
// amount equals the net delivered plus the tax, the tax equals its three
// shares, and the sender paid exactly the gross.
package proof

import (
	"github.com/consensys/gnark/frontend"
)

// AmountBits bounds every amount in the circuit. 128 bits covers any
// realistic supply at 18 decimals while staying far inside the BN254
// scalar field.
const AmountBits = 128

// ConservationCircuit is the arithmetic statement proven per transfer.
// Gross, Net, and Tax are public: a verifier reads them off the journal.
// The split and the sender's balances stay private.
type ConservationCircuit struct {
	Gross frontend.Variable `gnark:",public"`
	Net   frontend.Variable `gnark:",public"`
	Tax   frontend.Variable `gnark:",public"`

	BurnShare      frontend.Variable
	TreasuryShare  frontend.Variable
	LiquidityShare frontend.Variable
	SenderBefore   frontend.Variable
	SenderAfter    frontend.Variable
}

// Define encodes the conservation constraints. Together the three
// equalities pin every unit of the gross amount to exactly one
// destination, so total supply cannot drift inside a transfer.
func (c *ConservationCircuit) Define(api frontend.API) error {
	// gross = net + tax
	api.AssertIsEqual(c.Gross, api.Add(c.Net, c.Tax))

	// tax = burn + treasury + liquidity
	api.AssertIsEqual(c.Tax, api.Add(c.BurnShare, c.TreasuryShare, c.LiquidityShare))

	// The sender's balance dropped by exactly the gross amount.
	api.AssertIsEqual(c.SenderBefore, api.Add(c.SenderAfter, c.Gross))

	// Range checks: field elements wrap, so equality alone would accept
	// negative-looking values. Binary decomposition proves each amount is
	// a genuine non-negative integer below 2^AmountBits.
	for _, v := range []frontend.Variable{
		c.Gross, c.Net, c.Tax,
		c.BurnShare, c.TreasuryShare, c.LiquidityShare,
		c.SenderBefore, c.SenderAfter,
	} {
		api.ToBinary(v, AmountBits)
	}
	return nil
}
