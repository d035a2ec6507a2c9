package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/distribute"
	"github.com/VaultonCrypto/vaulton-token-sub001/exchange"
	"github.com/VaultonCrypto/vaulton-token-sub001/ledger"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

func (t *Token) requireAdmin() error {
	if t.renounced {
		return fmt.Errorf("%w: admin renounced", ErrNotAdmin)
	}
	if caller := t.env.Caller(); caller != t.admin {
		return fmt.Errorf("%w: caller %s", ErrNotAdmin, caller)
	}
	return nil
}

// EnableTrading opens trading at the current block, starting the launch
// window. Irreversible; enabling twice is an error.
func (t *Token) EnableTrading() error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if err := t.grd.EnableTrading(t.env.Block()); err != nil {
		return err
	}
	t.reg.AdoptFrom(t.gw)
	t.rec.Emit(EventTradingEnabled, map[string]any{"block": t.env.Block()})
	return nil
}

// SetGateway binds the exchange gateway used for conversions and adopts
// its pair if one resolves. Rebinding replaces the venue for future
// conversions only.
func (t *Token) SetGateway(gw exchange.Gateway) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	t.gw = gw
	t.reg.AdoptFrom(gw)
	data := map[string]any{"bound": gw != nil}
	if gw != nil {
		if pair, ok := gw.ResolvePair(); ok {
			data["pair"] = pair.String()
		}
	}
	t.rec.Emit(EventGatewayBound, data)
	return nil
}

// RegisterPair marks an account as an exchange pair for tax classification.
func (t *Token) RegisterPair(pair token.Address) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if err := t.reg.Register(pair); err != nil {
		return err
	}
	t.rec.Emit(EventPairRegistered, map[string]any{"pair": pair.String()})
	return nil
}

// SetPrimaryPair registers pair and binds it as the primary pool. The
// primary binding is write-once.
func (t *Token) SetPrimaryPair(pair token.Address) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if err := t.reg.Register(pair); err != nil {
		return err
	}
	if err := t.reg.SetPrimary(pair); err != nil {
		return err
	}
	t.rec.Emit(EventPrimaryPairSet, map[string]any{"pair": pair.String()})
	return nil
}

// SetTaxRates replaces the buy, sell, and wallet rates, in basis points.
func (t *Token) SetTaxRates(buyBps, sellBps, walletBps uint16) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if err := t.pol.SetRates(buyBps, sellBps, walletBps); err != nil {
		return err
	}
	t.rec.Emit(EventRatesChanged, map[string]any{
		"buyBps":    buyBps,
		"sellBps":   sellBps,
		"walletBps": walletBps,
	})
	return nil
}

// SetTaxSplit replaces the burn and treasury percentages of each tax take.
func (t *Token) SetTaxSplit(burnPct, treasuryPct uint8) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if err := t.pol.SetSplit(burnPct, treasuryPct); err != nil {
		return err
	}
	t.rec.Emit(EventSplitChanged, map[string]any{
		"burnPercent":     burnPct,
		"treasuryPercent": treasuryPct,
	})
	return nil
}

// SetExempt marks or unmarks an account as tax-exempt.
func (t *Token) SetExempt(addr token.Address, exempt bool) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	t.pol.SetExempt(addr, exempt)
	t.rec.Emit(EventExemptionChanged, map[string]any{
		"account": addr.String(),
		"exempt":  exempt,
	})
	return nil
}

// SetMaxPairToPair replaces the pair-to-pair transfer cap. Nil disables it.
func (t *Token) SetMaxPairToPair(amount *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	t.grd.SetMaxPairToPair(amount)
	data := map[string]any{"setting": "maxPairToPair"}
	if amount != nil {
		data["value"] = amount.Dec()
	}
	t.rec.Emit(EventGuardsChanged, data)
	return nil
}

// SetCooldown replaces the pair-to-pair cooldown, in seconds.
func (t *Token) SetCooldown(seconds uint64) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	t.grd.SetCooldown(seconds)
	t.rec.Emit(EventGuardsChanged, map[string]any{
		"setting": "cooldown",
		"value":   seconds,
	})
	return nil
}

// AllowDuringLaunch approves a contract account for the launch window.
func (t *Token) AllowDuringLaunch(addr token.Address, allowed bool) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	t.grd.SetAllowed(addr, allowed)
	t.rec.Emit(EventGuardsChanged, map[string]any{
		"setting": "launchAllow",
		"account": addr.String(),
		"value":   allowed,
	})
	return nil
}

// SetSwapTrigger replaces the earmark level at which transfers trigger a
// conversion. Zero disables automatic conversion.
func (t *Token) SetSwapTrigger(amount *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if amount == nil {
		t.swapTrigger = new(uint256.Int)
	} else {
		t.swapTrigger = amount.Clone()
	}
	t.rec.Emit(EventSwapTriggerSet, map[string]any{"trigger": t.swapTrigger.Dec()})
	return nil
}

// ConfigureShares replaces the distribution table. Rejected while a cycle
// is open.
func (t *Token) ConfigureShares(shares []distribute.Share) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	return t.book.Configure(shares)
}

// ManualConvert runs the liquidity conversion immediately. A nil amount
// converts the full liquidity earmark.
func (t *Token) ManualConvert(amount *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if amount == nil {
		amount = t.liquidityTokens.Clone()
	}
	return t.convertAndReinvest(amount)
}

// ConvertTreasury swaps the treasury earmark into external asset. A nil
// amount converts the full earmark.
func (t *Token) ConvertTreasury(amount *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if amount == nil {
		amount = t.treasuryTokens.Clone()
	}
	return t.convertTreasury(amount)
}

// BuybackAndBurn spends external asset from the buyback reserve on tokens
// delivered to the burn sink. A nil amount spends the whole reserve.
func (t *Token) BuybackAndBurn(external *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if external == nil {
		external = t.buybackReserve.Clone()
	}
	return t.buybackAndBurn(external)
}

// FundBuyback moves external asset from the distributable accumulation
// into the buyback reserve.
func (t *Token) FundBuyback(amount *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return ErrNothingToConvert
	}
	if t.accumulatedExternal.Lt(amount) {
		return fmt.Errorf("%w: accumulated %s, requested %s", exchange.ErrInsufficientExternal, t.accumulatedExternal.Dec(), amount.Dec())
	}
	t.accumulatedExternal.Sub(t.accumulatedExternal, amount)
	t.buybackReserve.Add(t.buybackReserve, amount)
	t.rec.Emit(EventBuybackFunded, map[string]any{
		"amount":  amount.Dec(),
		"reserve": t.buybackReserve.Dec(),
	})
	return nil
}

// SetBuybackBudget replaces the token-denominated buyback budget. Buybacks
// stop once the budget is spent.
func (t *Token) SetBuybackBudget(tokens *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if tokens == nil {
		t.buybackBudget = new(uint256.Int)
	} else {
		t.buybackBudget = tokens.Clone()
	}
	t.rec.Emit(EventBuybackBudget, map[string]any{"budget": t.buybackBudget.Dec()})
	return nil
}

// ManualBurn destroys tokens from the admin's own balance. Unlike policy
// burns this reduces total supply.
func (t *Token) ManualBurn(amount *uint256.Int) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	amount = norm(amount)
	if err := t.led.Burn(t.admin, amount); err != nil {
		return err
	}
	t.recordBurn(amount, "manual")
	return nil
}

// QueueDistribution opens a distribution cycle over the accumulated
// external asset. Callable by anyone: the cycle guards, not the caller
// identity, are the protection, and distributions survive admin
// renouncement this way.
func (t *Token) QueueDistribution() (*uint256.Int, error) {
	total, err := t.book.Queue(t.env.Block(), t.accumulatedExternal.Clone())
	if err != nil {
		return nil, err
	}
	t.accumulatedExternal.Sub(t.accumulatedExternal, total)
	return total, nil
}

// Settle pays out a beneficiary's pending claim. Callable by anyone; the
// claim is cleared before payment and a failed payment does not restore it.
func (t *Token) Settle(beneficiary token.Address) error {
	return t.book.Settle(beneficiary)
}

// ReconcileExternal folds external asset held by the engine account but
// tracked by no earmark back into the distributable accumulation. This is
// the recovery path after a failed settlement. Returns the amount folded.
func (t *Token) ReconcileExternal() (*uint256.Int, error) {
	if err := t.requireAdmin(); err != nil {
		return nil, err
	}
	held := t.bank.BalanceOf(t.self)
	tracked := new(uint256.Int).Add(t.buybackReserve, t.book.Outstanding())
	tracked.Add(tracked, t.accumulatedExternal)
	if held.Lt(tracked) {
		return nil, fmt.Errorf("%w: held %s < tracked %s", ErrAccountingBroken, held.Dec(), tracked.Dec())
	}
	free := new(uint256.Int).Sub(held, tracked)
	if !free.IsZero() {
		t.accumulatedExternal.Add(t.accumulatedExternal, free)
		t.rec.Emit(EventReconciled, map[string]any{
			"recovered":   free.Dec(),
			"accumulated": t.accumulatedExternal.Dec(),
		})
	}
	return free, nil
}

// TransferAdmin hands the admin role to another account. The new admin
// becomes tax-exempt; the old admin's exemption is left in place.
func (t *Token) TransferAdmin(newAdmin token.Address) error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return fmt.Errorf("%w: new admin is null; renounce instead", ledger.ErrInvalidAccount)
	}
	old := t.admin
	t.admin = newAdmin
	t.pol.SetExempt(newAdmin, true)
	t.rec.Emit(EventAdminTransferred, map[string]any{
		"from": old.String(),
		"to":   newAdmin.String(),
	})
	return nil
}

// RenounceAdmin permanently gives up the admin role. Every admin-gated
// method fails afterwards; ongoing mechanics (taxes, conversions via
// transfers, distributions) keep running.
func (t *Token) RenounceAdmin() error {
	if err := t.requireAdmin(); err != nil {
		return err
	}
	old := t.admin
	t.admin = token.ZeroAddress
	t.renounced = true
	t.rec.Emit(EventAdminRenounced, map[string]any{"from": old.String()})
	return nil
}
