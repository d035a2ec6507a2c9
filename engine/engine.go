// Package engine composes the ledger, tax policy, guards, exchange, and
// distribution book into the token's public surface. Every mutation enters
// through a Token method; the engine serializes them and owns all
// cross-component accounting.
package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/chain"
	"github.com/VaultonCrypto/vaulton-token-sub001/distribute"
	"github.com/VaultonCrypto/vaulton-token-sub001/exchange"
	"github.com/VaultonCrypto/vaulton-token-sub001/guards"
	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
	"github.com/VaultonCrypto/vaulton-token-sub001/ledger"
	"github.com/VaultonCrypto/vaulton-token-sub001/policy"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Stream is the journal stream engine events are appended under.
const Stream = "vaulton"

// Event types recorded by the engine, on top of the ledger's own.
const (
	EventInitialized       = "initialized"
	EventTransferApplied   = "transfer_applied"
	EventBurned            = "burned"
	EventTaxesRemoved      = "taxes_removed"
	EventConversionStarted = "conversion_started"
	EventConversionFailed  = "conversion_failed"
	EventConverted         = "conversion_completed"
	EventLiquidityAdded    = "liquidity_added"
	EventLiquidityFailed   = "liquidity_failed"
	EventTreasuryConverted = "treasury_converted"
	EventBuyback           = "buyback_executed"
	EventBuybackFunded     = "buyback_funded"
	EventBuybackBudget     = "buyback_budget_set"
	EventReconciled        = "external_reconciled"
	EventTradingEnabled    = "trading_enabled"
	EventGatewayBound      = "gateway_bound"
	EventPairRegistered    = "pair_registered"
	EventPrimaryPairSet    = "primary_pair_set"
	EventRatesChanged      = "tax_rates_changed"
	EventSplitChanged      = "tax_split_changed"
	EventExemptionChanged  = "exemption_changed"
	EventGuardsChanged     = "guards_changed"
	EventSwapTriggerSet    = "swap_trigger_changed"
	EventAdminTransferred  = "admin_transferred"
	EventAdminRenounced    = "admin_renounced"
)

// Token is the assembled engine. All methods must be called from a single
// goroutine; the engine models a serialized transaction environment.
type Token struct {
	name     string
	symbol   string
	decimals uint8

	env  chain.Env
	led  *ledger.Ledger
	mon  *policy.Monitor
	pol  *policy.Engine
	grd  *guards.Guards
	reg  *exchange.PairRegistry
	gw   exchange.Gateway
	bank *exchange.Bank
	book *distribute.Book
	rec  *journal.Writer

	admin     token.Address
	self      token.Address
	renounced bool

	inSwap bool

	// Earmarks over the engine's own holdings. Token earmarks partition
	// tax accumulation on the self account; external earmarks partition
	// the self account's bank balance.
	treasuryTokens      *uint256.Int
	liquidityTokens     *uint256.Int
	accumulatedExternal *uint256.Int
	buybackReserve      *uint256.Int
	buybackBudget       *uint256.Int

	swapTrigger  *uint256.Int
	slippageBps  uint16
	deadlineSecs uint64
}

// NewToken builds and initializes the engine: the full supply is minted to
// admin, the configured initial burn moves to the burn sink, and admin and
// the engine account itself start tax-exempt. store may be nil to run
// without a journal; gw may be nil and bound later with SetGateway, since a
// venue trading this ledger can only be built once the ledger exists.
func NewToken(cfg *Config, env chain.Env, admin, self token.Address, gw exchange.Gateway, bank *exchange.Bank, store journal.Store) (*Token, error) {
	p, err := cfg.parse()
	if err != nil {
		return nil, err
	}
	if admin.IsZero() || self.IsZero() {
		return nil, fmt.Errorf("%w: admin and engine accounts are required", ErrBadConfig)
	}
	if admin == self {
		return nil, fmt.Errorf("%w: admin and engine accounts must differ", ErrBadConfig)
	}

	var rec *journal.Writer
	if store != nil {
		rec = journal.NewWriter(store, env, Stream)
	}

	mon := policy.NewMonitor(p.burnThreshold)
	reg := exchange.NewPairRegistry()
	pol, err := policy.NewEngine(reg, mon, cfg.BuyTaxBps, cfg.SellTaxBps, cfg.WalletTaxBps, cfg.BurnPercent, cfg.TreasuryPercent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}

	t := &Token{
		name:     cfg.Name,
		symbol:   cfg.Symbol,
		decimals: cfg.Decimals,
		env:      env,
		led:      ledger.New(rec),
		mon:      mon,
		pol:      pol,
		grd:      guards.New(p.maxTx, p.maxPairToPair, cfg.CooldownSeconds, cfg.LaunchWindowBlocks, cfg.StrictLaunch),
		reg:      reg,
		gw:       gw,
		bank:     bank,
		rec:      rec,
		admin:    admin,
		self:     self,

		treasuryTokens:      new(uint256.Int),
		liquidityTokens:     new(uint256.Int),
		accumulatedExternal: new(uint256.Int),
		buybackReserve:      new(uint256.Int),
		buybackBudget:       new(uint256.Int),

		swapTrigger:  p.swapTrigger,
		slippageBps:  cfg.SlippageBps,
		deadlineSecs: cfg.GatewayDeadlineSeconds,
	}

	t.book = distribute.New(bank, self, cfg.MinQueueDelayBlocks, rec)
	if len(p.shares) > 0 {
		if err := t.book.Configure(p.shares); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
		}
	}

	t.pol.SetExempt(admin, true)
	t.pol.SetExempt(self, true)

	if err := t.led.Mint(admin, p.totalSupply); err != nil {
		return nil, err
	}
	if !p.initialBurn.IsZero() {
		if err := t.led.Transfer(admin, token.BurnAddress, p.initialBurn); err != nil {
			return nil, err
		}
		t.recordBurn(p.initialBurn, "initial")
	}

	t.reg.AdoptFrom(gw)

	t.rec.Emit(EventInitialized, map[string]any{
		"name":          cfg.Name,
		"symbol":        cfg.Symbol,
		"totalSupply":   p.totalSupply.Dec(),
		"initialBurn":   p.initialBurn.Dec(),
		"burnThreshold": p.burnThreshold.Dec(),
		"admin":         admin.String(),
		"engine":        self.String(),
	})
	return t, nil
}

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the display decimals. Amounts in the engine are always
// base units.
func (t *Token) Decimals() uint8 { return t.decimals }

// Admin returns the current admin account, or the null account after
// renouncement.
func (t *Token) Admin() token.Address { return t.admin }

// EngineAccount returns the engine's own account, where taxed tokens
// accumulate.
func (t *Token) EngineAccount() token.Address { return t.self }

// TotalSupply returns the ledger's total supply.
func (t *Token) TotalSupply() *uint256.Int { return t.led.TotalSupply() }

// Ledger exposes the underlying balance book, for wiring venues and
// offline tools over the same state. Mutate balances only through Token
// methods or a Gateway.
func (t *Token) Ledger() *ledger.Ledger { return t.led }

// BalanceOf returns addr's token balance.
func (t *Token) BalanceOf(addr token.Address) *uint256.Int { return t.led.BalanceOf(addr) }

// Allowance returns what spender may move from owner.
func (t *Token) Allowance(owner, spender token.Address) *uint256.Int {
	return t.led.Allowance(owner, spender)
}

// BurnedTotal returns the cumulative burned amount across tax burns,
// buybacks, manual burns, and direct transfers to the sink.
func (t *Token) BurnedTotal() *uint256.Int { return t.mon.BurnedTotal() }

// TaxesRemoved reports whether the burn threshold has been crossed.
func (t *Token) TaxesRemoved() bool { return t.mon.Removed() }

// TradingEnabled reports whether trading has opened.
func (t *Token) TradingEnabled() bool { return t.grd.TradingEnabled() }

// IsPair reports whether addr is a registered exchange pair.
func (t *Token) IsPair(addr token.Address) bool { return t.reg.IsPair(addr) }

// PendingDistribution returns a beneficiary's unsettled claim.
func (t *Token) PendingDistribution(addr token.Address) *uint256.Int {
	return t.book.Pending(addr)
}

// AccumulatedExternal returns the external asset available to distribute.
func (t *Token) AccumulatedExternal() *uint256.Int { return t.accumulatedExternal.Clone() }

// CheckConservation verifies the ledger's supply invariant.
func (t *Token) CheckConservation() error { return t.led.CheckConservation() }

// JournalErr surfaces the first event-persistence failure, if any.
func (t *Token) JournalErr() error { return t.rec.Err() }

// Status is a point-in-time snapshot for operators.
type Status struct {
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	Decimals           uint8  `json:"decimals"`
	Admin              string `json:"admin"`
	TotalSupply        string `json:"totalSupply"`
	BurnedTotal        string `json:"burnedTotal"`
	BurnThreshold      string `json:"burnThreshold"`
	TaxesRemoved       bool   `json:"taxesRemoved"`
	TradingEnabled     bool   `json:"tradingEnabled"`
	PrimaryPair        string `json:"primaryPair,omitempty"`
	BuyTaxBps          uint16 `json:"buyTaxBps"`
	SellTaxBps         uint16 `json:"sellTaxBps"`
	WalletTaxBps       uint16 `json:"walletTaxBps"`
	BurnPercent        uint8  `json:"burnPercent"`
	TreasuryPercent    uint8  `json:"treasuryPercent"`
	TreasuryTokens     string `json:"treasuryTokens"`
	LiquidityTokens    string `json:"liquidityTokens"`
	AccumulatedExt     string `json:"accumulatedExternal"`
	BuybackReserve     string `json:"buybackReserve"`
	BuybackBudget      string `json:"buybackBudget"`
	DistributionQueued bool   `json:"distributionQueued"`
	OutstandingClaims  string `json:"outstandingClaims"`
}

// Status reports the engine's current state.
func (t *Token) Status() Status {
	buy, sell, wallet := t.pol.Rates()
	burnPct, treasuryPct := t.pol.SplitPercents()
	s := Status{
		Name:               t.name,
		Symbol:             t.symbol,
		Decimals:           t.decimals,
		Admin:              t.admin.String(),
		TotalSupply:        t.led.TotalSupply().Dec(),
		BurnedTotal:        t.mon.BurnedTotal().Dec(),
		BurnThreshold:      t.mon.Threshold().Dec(),
		TaxesRemoved:       t.mon.Removed(),
		TradingEnabled:     t.grd.TradingEnabled(),
		BuyTaxBps:          buy,
		SellTaxBps:         sell,
		WalletTaxBps:       wallet,
		BurnPercent:        burnPct,
		TreasuryPercent:    treasuryPct,
		TreasuryTokens:     t.treasuryTokens.Dec(),
		LiquidityTokens:    t.liquidityTokens.Dec(),
		AccumulatedExt:     t.accumulatedExternal.Dec(),
		BuybackReserve:     t.buybackReserve.Dec(),
		BuybackBudget:      t.buybackBudget.Dec(),
		DistributionQueued: t.book.Queued(),
		OutstandingClaims:  t.book.Outstanding().Dec(),
	}
	if pair, ok := t.reg.Primary(); ok {
		s.PrimaryPair = pair.String()
	}
	return s
}

// recordBurn feeds the monitor, journals the burn, and journals the
// permanent removal when this burn crosses the threshold.
func (t *Token) recordBurn(amount *uint256.Int, source string) {
	if amount == nil || amount.IsZero() {
		return
	}
	crossed := t.mon.RecordBurn(amount)
	t.rec.Emit(EventBurned, map[string]any{
		"amount": amount.Dec(),
		"source": source,
		"total":  t.mon.BurnedTotal().Dec(),
	})
	if crossed {
		t.rec.Emit(EventTaxesRemoved, map[string]any{
			"burnedTotal": t.mon.BurnedTotal().Dec(),
			"threshold":   t.mon.Threshold().Dec(),
		})
	}
}

// subClamped shrinks an earmark, flooring at zero. Earmarks are advisory
// partitions; conversions may legitimately consume more than one earmark
// tracked.
func subClamped(earmark, amount *uint256.Int) {
	if earmark.Lt(amount) {
		earmark.Clear()
		return
	}
	earmark.Sub(earmark, amount)
}
