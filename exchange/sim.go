package exchange

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/chain"
	"github.com/VaultonCrypto/vaulton-token-sub001/ledger"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// SimGateway is a constant-product market over one pool account, trading
// the ledger's token against the bank's external asset. It implements
// Gateway for tests and simulations, including the unpleasant venue
// behaviors the engine must survive: injected failures, dead quotes, and
// under-delivery on outbound legs.
type SimGateway struct {
	led    *ledger.Ledger
	bank   *Bank
	env    chain.Env
	pool   token.Address
	trader token.Address

	feeBps  uint16
	skimBps uint16

	failSwaps     int
	failLiquidity int
	quotesDown    bool
}

// NewSimGateway builds a gateway over the pool account. trader is the
// account swaps draw inputs from, normally the engine's own account.
// Seed the pool by transferring both assets to it before trading.
func NewSimGateway(led *ledger.Ledger, bank *Bank, env chain.Env, pool, trader token.Address) *SimGateway {
	return &SimGateway{
		led:    led,
		bank:   bank,
		env:    env,
		pool:   pool,
		trader: trader,
		feeBps: 30,
	}
}

// SetFee sets the venue's trading fee in basis points.
func (g *SimGateway) SetFee(bps uint16) { g.feeBps = bps }

// SetTransferSkim makes outbound legs under-deliver by bps, emulating a
// fee-on-transfer venue: the swap return value stays at the quoted amount
// while the recipient receives less.
func (g *SimGateway) SetTransferSkim(bps uint16) { g.skimBps = bps }

// FailNextSwaps makes the next n swaps fail before moving anything.
func (g *SimGateway) FailNextSwaps(n int) { g.failSwaps = n }

// FailNextLiquidity makes the next n liquidity adds fail before moving
// anything.
func (g *SimGateway) FailNextLiquidity(n int) { g.failLiquidity = n }

// SetQuotesDown makes Quote fail until re-enabled.
func (g *SimGateway) SetQuotesDown(down bool) { g.quotesDown = down }

// Quote prices amountIn against current reserves without executing.
func (g *SimGateway) Quote(amountIn *uint256.Int, dir Direction) (*uint256.Int, error) {
	if g.quotesDown {
		return nil, fmt.Errorf("%w: venue offline", ErrQuoteUnavailable)
	}
	rIn, rOut, err := g.reserves(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	return g.amountOut(amountIn, rIn, rOut), nil
}

// SwapTokensForExternal sells amountIn tokens from the trader account,
// crediting external asset to recipient.
func (g *SimGateway) SwapTokensForExternal(amountIn, minOut *uint256.Int, recipient token.Address, deadline uint64) (*uint256.Int, error) {
	if err := g.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if g.failSwaps > 0 {
		g.failSwaps--
		return nil, fmt.Errorf("%w: injected failure", ErrSwapFailed)
	}
	out, err := g.prepare(amountIn, minOut, TokenToExternal)
	if err != nil {
		return nil, err
	}
	if err := g.led.Transfer(g.trader, g.pool, amountIn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	// Delivery never fails here: the formula keeps out below the reserve.
	if err := g.bank.Pay(g.pool, recipient, g.skimmed(out)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	return out, nil
}

// SwapExternalForTokens spends externalIn from the trader account,
// delivering tokens to recipient.
func (g *SimGateway) SwapExternalForTokens(externalIn, minOut *uint256.Int, recipient token.Address, deadline uint64) (*uint256.Int, error) {
	if err := g.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if g.failSwaps > 0 {
		g.failSwaps--
		return nil, fmt.Errorf("%w: injected failure", ErrSwapFailed)
	}
	out, err := g.prepare(externalIn, minOut, ExternalToToken)
	if err != nil {
		return nil, err
	}
	if err := g.bank.Pay(g.trader, g.pool, externalIn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	if err := g.led.Transfer(g.pool, recipient, g.skimmed(out)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	return out, nil
}

// AddLiquidity moves both sides from the trader account into the pool.
// Pool share accounting is not modeled.
func (g *SimGateway) AddLiquidity(tokenAmount, externalAmount, minToken, minExternal *uint256.Int, recipient token.Address, deadline uint64) error {
	if err := g.checkDeadline(deadline); err != nil {
		return err
	}
	if g.failLiquidity > 0 {
		g.failLiquidity--
		return fmt.Errorf("%w: injected failure", ErrLiquidityFailed)
	}
	if tokenAmount == nil || externalAmount == nil || tokenAmount.IsZero() || externalAmount.IsZero() {
		return fmt.Errorf("%w: zero-sided deposit", ErrLiquidityFailed)
	}
	if minToken != nil && tokenAmount.Lt(minToken) {
		return fmt.Errorf("%w: token side below minimum", ErrLiquidityFailed)
	}
	if minExternal != nil && externalAmount.Lt(minExternal) {
		return fmt.Errorf("%w: external side below minimum", ErrLiquidityFailed)
	}
	// Validate both legs before moving either; a failed add must leave no
	// partial deposit.
	if g.led.BalanceOf(g.trader).Lt(tokenAmount) {
		return fmt.Errorf("%w: %v", ErrLiquidityFailed, ledger.ErrInsufficientBalance)
	}
	if g.bank.BalanceOf(g.trader).Lt(externalAmount) {
		return fmt.Errorf("%w: %v", ErrLiquidityFailed, ErrInsufficientExternal)
	}
	if err := g.led.Transfer(g.trader, g.pool, tokenAmount); err != nil {
		return fmt.Errorf("%w: %v", ErrLiquidityFailed, err)
	}
	if err := g.bank.Pay(g.trader, g.pool, externalAmount); err != nil {
		return fmt.Errorf("%w: %v", ErrLiquidityFailed, err)
	}
	return nil
}

// ResolvePair returns the pool account.
func (g *SimGateway) ResolvePair() (token.Address, bool) {
	return g.pool, !g.pool.IsZero()
}

func (g *SimGateway) checkDeadline(deadline uint64) error {
	if g.env.Now() > deadline {
		return fmt.Errorf("%w: now %d, deadline %d", ErrDeadlineExpired, g.env.Now(), deadline)
	}
	return nil
}

// prepare validates input and reserves and prices the trade.
func (g *SimGateway) prepare(amountIn, minOut *uint256.Int, dir Direction) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, fmt.Errorf("%w: zero input", ErrSwapFailed)
	}
	rIn, rOut, err := g.reserves(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}
	out := g.amountOut(amountIn, rIn, rOut)
	if out.IsZero() {
		return nil, fmt.Errorf("%w: output rounds to zero", ErrSwapFailed)
	}
	if minOut != nil && out.Lt(minOut) {
		return nil, fmt.Errorf("%w: %s < %s", ErrSlippage, out.Dec(), minOut.Dec())
	}
	return out, nil
}

func (g *SimGateway) reserves(dir Direction) (rIn, rOut *uint256.Int, err error) {
	rToken := g.led.BalanceOf(g.pool)
	rExternal := g.bank.BalanceOf(g.pool)
	if rToken.IsZero() || rExternal.IsZero() {
		return nil, nil, fmt.Errorf("pool %s has no liquidity", g.pool)
	}
	if dir == TokenToExternal {
		return rToken, rExternal, nil
	}
	return rExternal, rToken, nil
}

// amountOut is the constant-product price with the venue fee taken on the
// input side: out = rOut*in*(10000-fee) / (rIn*10000 + in*(10000-fee)).
func (g *SimGateway) amountOut(in, rIn, rOut *uint256.Int) *uint256.Int {
	inFee := new(uint256.Int).Mul(in, uint256.NewInt(uint64(token.BpsDenominator-g.feeBps)))
	num := new(uint256.Int).Mul(inFee, rOut)
	den := new(uint256.Int).Mul(rIn, uint256.NewInt(token.BpsDenominator))
	den.Add(den, inFee)
	return num.Div(num, den)
}

func (g *SimGateway) skimmed(out *uint256.Int) *uint256.Int {
	if g.skimBps == 0 {
		return out
	}
	return new(uint256.Int).Sub(out, token.Bps(out, g.skimBps))
}
