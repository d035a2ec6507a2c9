package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/exchange"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// lockSwap enters the conversion critical section. Every path that calls
// into the gateway holds this lock; a gateway that reenters the engine
// finds it taken and fails fast instead of recursing.
func (t *Token) lockSwap() error {
	if t.inSwap {
		return ErrSwapLocked
	}
	t.inSwap = true
	return nil
}

func (t *Token) unlockSwap() { t.inSwap = false }

// SwapLocked reports whether a conversion is in flight. Only a reentrant
// call can ever observe true.
func (t *Token) SwapLocked() bool { return t.inSwap }

// convertAndReinvest sells half of amount for external asset and pairs the
// proceeds with the other half as new pool liquidity. The swap leg is
// slippage-bounded; the liquidity leg is best-effort. A failed swap mutates
// nothing. A failed liquidity add keeps the unsold half earmarked and folds
// the received external into the distributable accumulation, so value is
// never stranded.
func (t *Token) convertAndReinvest(amount *uint256.Int) error {
	if err := t.lockSwap(); err != nil {
		return err
	}
	defer t.unlockSwap()

	if t.gw == nil {
		return ErrNoGateway
	}
	amount = t.capAtEngineBalance(amount)
	if amount.IsZero() {
		return ErrNothingToConvert
	}
	t.rec.Emit(EventConversionStarted, map[string]any{
		"purpose": "liquidity",
		"amount":  amount.Dec(),
	})

	sellHalf, keepHalf := token.Halves(amount)

	before := t.bank.BalanceOf(t.self)
	out, err := t.gw.SwapTokensForExternal(sellHalf, t.minOut(sellHalf, exchange.TokenToExternal), t.self, t.deadline())
	if err != nil {
		t.rec.Emit(EventConversionFailed, map[string]any{
			"stage":  "swap",
			"amount": sellHalf.Dec(),
			"cause":  err.Error(),
		})
		return fmt.Errorf("conversion swap: %w", err)
	}
	received := new(uint256.Int).Sub(t.bank.BalanceOf(t.self), before)
	subClamped(t.liquidityTokens, sellHalf)

	// Full slippage acceptance on the liquidity leg.
	if err := t.gw.AddLiquidity(keepHalf, received, nil, nil, t.self, t.deadline()); err != nil {
		t.accumulatedExternal.Add(t.accumulatedExternal, received)
		t.rec.Emit(EventLiquidityFailed, map[string]any{
			"tokens":   keepHalf.Dec(),
			"external": received.Dec(),
			"cause":    err.Error(),
		})
		return fmt.Errorf("liquidity add: %w", err)
	}
	subClamped(t.liquidityTokens, keepHalf)
	t.rec.Emit(EventLiquidityAdded, map[string]any{
		"tokens":   keepHalf.Dec(),
		"external": received.Dec(),
	})
	t.rec.Emit(EventConverted, map[string]any{
		"purpose":  "liquidity",
		"sold":     sellHalf.Dec(),
		"paired":   keepHalf.Dec(),
		"received": received.Dec(),
		"returned": out.Dec(),
	})
	return nil
}

// convertTreasury sells amount entirely for external asset, crediting the
// measured proceeds to the distributable accumulation.
func (t *Token) convertTreasury(amount *uint256.Int) error {
	if err := t.lockSwap(); err != nil {
		return err
	}
	defer t.unlockSwap()

	if t.gw == nil {
		return ErrNoGateway
	}
	amount = t.capAtEngineBalance(amount)
	if amount.IsZero() {
		return ErrNothingToConvert
	}
	t.rec.Emit(EventConversionStarted, map[string]any{
		"purpose": "treasury",
		"amount":  amount.Dec(),
	})

	before := t.bank.BalanceOf(t.self)
	out, err := t.gw.SwapTokensForExternal(amount, t.minOut(amount, exchange.TokenToExternal), t.self, t.deadline())
	if err != nil {
		t.rec.Emit(EventConversionFailed, map[string]any{
			"stage":  "treasury",
			"amount": amount.Dec(),
			"cause":  err.Error(),
		})
		return fmt.Errorf("treasury swap: %w", err)
	}
	received := new(uint256.Int).Sub(t.bank.BalanceOf(t.self), before)
	subClamped(t.treasuryTokens, amount)
	t.accumulatedExternal.Add(t.accumulatedExternal, received)
	t.rec.Emit(EventTreasuryConverted, map[string]any{
		"tokens":   amount.Dec(),
		"received": received.Dec(),
		"returned": out.Dec(),
	})
	return nil
}

// buybackAndBurn spends external asset from the buyback reserve to buy
// tokens delivered straight to the burn sink. Burn accounting uses the
// sink's measured balance delta, not the swap's return value. The reserve
// is decremented before the gateway call; a reentrant caller never sees it
// still funded.
func (t *Token) buybackAndBurn(external *uint256.Int) error {
	if err := t.lockSwap(); err != nil {
		return err
	}
	defer t.unlockSwap()

	if t.gw == nil {
		return ErrNoGateway
	}
	if external == nil || external.IsZero() {
		return ErrNothingToConvert
	}
	if t.buybackReserve.Lt(external) {
		return fmt.Errorf("%w: reserve %s, requested %s", ErrInsufficientReserve, t.buybackReserve.Dec(), external.Dec())
	}
	if t.buybackBudget.IsZero() {
		return ErrBuybackExhausted
	}
	t.buybackReserve.Sub(t.buybackReserve, external)

	sinkBefore := t.led.BalanceOf(token.BurnAddress)
	out, err := t.gw.SwapExternalForTokens(external, t.minOut(external, exchange.ExternalToToken), token.BurnAddress, t.deadline())
	if err != nil {
		// Nothing moved; the reserve is safe to restore in our own frame.
		t.buybackReserve.Add(t.buybackReserve, external)
		t.rec.Emit(EventConversionFailed, map[string]any{
			"stage":    "buyback",
			"external": external.Dec(),
			"cause":    err.Error(),
		})
		return fmt.Errorf("buyback swap: %w", err)
	}
	delta := new(uint256.Int).Sub(t.led.BalanceOf(token.BurnAddress), sinkBefore)
	subClamped(t.buybackBudget, delta)
	t.rec.Emit(EventBuyback, map[string]any{
		"external":     external.Dec(),
		"tokensBurned": delta.Dec(),
		"returned":     out.Dec(),
		"budgetLeft":   t.buybackBudget.Dec(),
	})
	t.recordBurn(delta, "buyback")
	return nil
}

// minOut applies the configured slippage bound to a fresh quote. When the
// venue cannot quote, the bound is waived rather than blocking conversion.
func (t *Token) minOut(amountIn *uint256.Int, dir exchange.Direction) *uint256.Int {
	quoted, err := t.gw.Quote(amountIn, dir)
	if err != nil {
		return nil
	}
	return new(uint256.Int).Sub(quoted, token.Bps(quoted, t.slippageBps))
}

// deadline returns the absolute timestamp the gateway must finish by.
func (t *Token) deadline() uint64 { return t.env.Now() + t.deadlineSecs }

// capAtEngineBalance bounds a conversion request by what the engine account
// actually holds.
func (t *Token) capAtEngineBalance(amount *uint256.Int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	if bal := t.led.BalanceOf(t.self); bal.Lt(amount) {
		return bal
	}
	return amount.Clone()
}
