package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/ledger"
	"github.com/VaultonCrypto/vaulton-token-sub001/policy"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Transfer moves amount from the caller to recipient, applying guards and
// tax policy. The caller identity comes from the environment.
func (t *Token) Transfer(to token.Address, amount *uint256.Int) error {
	from := t.env.Caller()
	amount = norm(amount)
	if err := t.admitTransfer(from, to, amount); err != nil {
		return err
	}
	return t.applyTransfer(from, to, amount)
}

// TransferFrom moves amount from owner to recipient on the caller's
// allowance. The allowance is spent only after the transfer is admitted, so
// a rejected transfer costs the spender nothing.
func (t *Token) TransferFrom(from, to token.Address, amount *uint256.Int) error {
	spender := t.env.Caller()
	amount = norm(amount)
	if err := t.admitTransfer(from, to, amount); err != nil {
		return err
	}
	if err := t.led.SpendAllowance(from, spender, amount); err != nil {
		return err
	}
	return t.applyTransfer(from, to, amount)
}

// Approve sets spender's allowance over the caller's balance. Pass
// token.Unlimited for an allowance that spends never decrement.
func (t *Token) Approve(spender token.Address, amount *uint256.Int) error {
	return t.led.Approve(t.env.Caller(), spender, norm(amount))
}

// admitTransfer runs every check that can reject the transfer. It mutates
// nothing, so a rejection leaves no partial state anywhere.
func (t *Token) admitTransfer(from, to token.Address, amount *uint256.Int) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: transfer endpoint is null", ledger.ErrInvalidAccount)
	}
	fromPair, toPair := t.reg.IsPair(from), t.reg.IsPair(to)
	exempt := t.pol.Exempt(from) || t.pol.Exempt(to)
	privileged := from == t.admin || to == t.admin || from == t.self || to == t.self
	if err := t.grd.CheckTransfer(t.env, from, to, amount, fromPair, toPair, exempt, privileged); err != nil {
		return err
	}
	// The sender pays the gross amount: net plus every tax share.
	if t.led.BalanceOf(from).Lt(amount) {
		return fmt.Errorf("%w: account %s", ledger.ErrInsufficientBalance, from)
	}
	return nil
}

// applyTransfer performs the admitted transfer: the net move, the tax
// moves, burn accounting, and finally the conversion scheduler. Callers
// must have run admitTransfer first.
func (t *Token) applyTransfer(from, to token.Address, amount *uint256.Int) error {
	if from == to {
		if err := t.led.Transfer(from, to, amount); err != nil {
			return err
		}
		t.emitTransferApplied(from, to, amount, amount, new(uint256.Int), policy.KindNone, policy.Shares{})
		return nil
	}

	fromPair, toPair := t.reg.IsPair(from), t.reg.IsPair(to)
	tax, kind := t.pol.TaxFor(from, to, amount)
	shares := t.pol.Split(tax)
	net := new(uint256.Int).Sub(amount, tax)

	if err := t.led.Transfer(from, to, net); err != nil {
		return err
	}
	if !shares.Burn.IsZero() {
		if err := t.led.Transfer(from, token.BurnAddress, shares.Burn); err != nil {
			return err
		}
	}
	retained := new(uint256.Int).Add(shares.Treasury, shares.Liquidity)
	if !retained.IsZero() {
		if err := t.led.Transfer(from, t.self, retained); err != nil {
			return err
		}
	}

	t.treasuryTokens.Add(t.treasuryTokens, shares.Treasury)
	t.liquidityTokens.Add(t.liquidityTokens, shares.Liquidity)

	t.emitTransferApplied(from, to, amount, net, tax, kind, shares)

	t.recordBurn(shares.Burn, "tax")
	if to == token.BurnAddress {
		// Voluntary transfers into the sink count toward the threshold too.
		t.recordBurn(net, "transfer")
	}

	// Cooldown tracking keys off the registry, not the tax kind: pair flows
	// stay guarded after taxes are removed.
	if fromPair && toPair {
		t.grd.MarkPairTransfer(from, t.env.Now())
	}

	t.maybeConvert(fromPair)
	return nil
}

// maybeConvert fires at most one deferred conversion once an earmark
// reaches the trigger. Never during another conversion, never while a pair
// is the sender (a buy would reenter the pool mid-trade), and never before
// trading opens. Conversion failures are journaled, not returned: the
// triggering transfer already succeeded.
func (t *Token) maybeConvert(fromPair bool) {
	if t.inSwap || fromPair || !t.grd.TradingEnabled() || t.swapTrigger.IsZero() {
		return
	}
	switch {
	case !t.liquidityTokens.Lt(t.swapTrigger):
		_ = t.convertAndReinvest(t.liquidityTokens.Clone())
	case !t.treasuryTokens.Lt(t.swapTrigger):
		_ = t.convertTreasury(t.treasuryTokens.Clone())
	}
}

func (t *Token) emitTransferApplied(from, to token.Address, gross, net, tax *uint256.Int, kind policy.Kind, shares policy.Shares) {
	data := map[string]any{
		"from":  from.String(),
		"to":    to.String(),
		"gross": gross.Dec(),
		"net":   net.Dec(),
		"tax":   tax.Dec(),
		"kind":  kind.String(),
	}
	if shares.Burn != nil {
		data["burnShare"] = shares.Burn.Dec()
		data["treasuryShare"] = shares.Treasury.Dec()
		data["liquidityShare"] = shares.Liquidity.Dec()
	}
	t.rec.Emit(EventTransferApplied, data)
}

func norm(amount *uint256.Int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	return amount
}
