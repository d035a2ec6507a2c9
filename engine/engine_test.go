package engine

import (
	"context"
	"errors"
	"testing"

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

var (
	admin = token.HexToAddress("0x00000000000000000000000000000000000000ad")
	vault = token.HexToAddress("0x00000000000000000000000000000000000000cc")
	alice = token.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = token.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol = token.HexToAddress("0x00000000000000000000000000000000000000c3")
	pool  = token.HexToAddress("0x00000000000000000000000000000000000000d1")
	pairB = token.HexToAddress("0x00000000000000000000000000000000000000d2")
	team  = token.HexToAddress("0x00000000000000000000000000000000000000e1")
	ops   = token.HexToAddress("0x00000000000000000000000000000000000000e2")
)

// testConfig uses small round numbers so every expected balance below can
// be checked by hand. Automatic conversion is off unless a test turns the
// trigger on.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.TotalSupply = "1000000"
	cfg.InitialBurn = "0"
	cfg.BurnThreshold = "100000"
	cfg.BuyTaxBps = 500
	cfg.SellTaxBps = 500
	cfg.WalletTaxBps = 100
	cfg.BurnPercent = 60
	cfg.TreasuryPercent = 25
	cfg.MaxTxAmount = "10000"
	cfg.MaxPairToPairAmount = "5000"
	cfg.CooldownSeconds = 30
	cfg.LaunchWindowBlocks = 3
	cfg.StrictLaunch = true
	cfg.SwapTrigger = "0"
	cfg.SlippageBps = 500
	cfg.MinQueueDelayBlocks = 5
	cfg.Beneficiaries = nil
	return cfg
}

type fixture struct {
	t     *testing.T
	env   *chain.SimEnv
	bank  *exchange.Bank
	store *journal.MemoryStore
	tok   *Token
	gw    *exchange.SimGateway
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	env := chain.NewSimEnv()
	bank := exchange.NewBank()
	store := journal.NewMemoryStore()
	tok, err := NewToken(cfg, env, admin, vault, nil, bank, store)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	return &fixture{t: t, env: env, bank: bank, store: store, tok: tok}
}

func (f *fixture) transfer(from, to token.Address, amount string) error {
	f.env.SetCaller(from)
	return f.tok.Transfer(to, token.MustAmount(amount))
}

func (f *fixture) mustTransfer(from, to token.Address, amount string) {
	f.t.Helper()
	if err := f.transfer(from, to, amount); err != nil {
		f.t.Fatalf("transfer %s -> %s %s: %v", from, to, amount, err)
	}
}

func (f *fixture) asAdmin() *Token {
	f.env.SetCaller(admin)
	return f.tok
}

func (f *fixture) checkBalance(addr token.Address, want string) {
	f.t.Helper()
	if got := f.tok.BalanceOf(addr).Dec(); got != want {
		f.t.Errorf("balance of %s = %s, want %s", addr, got, want)
	}
}

func (f *fixture) checkConservation() {
	f.t.Helper()
	if err := f.tok.CheckConservation(); err != nil {
		f.t.Errorf("conservation: %v", err)
	}
}

func (f *fixture) events(types ...string) []*journal.Event {
	f.t.Helper()
	evs, err := f.store.ReadAll(context.Background(), journal.Filter{Stream: Stream, Types: types})
	if err != nil {
		f.t.Fatalf("read journal: %v", err)
	}
	return evs
}

// openMarket wires a constant-product venue over the pool account, seeds
// both reserves, enables trading, and advances past the launch window.
func (f *fixture) openMarket(tokenReserve, externalReserve string) *exchange.SimGateway {
	f.t.Helper()
	gw := exchange.NewSimGateway(f.tok.Ledger(), f.bank, f.env, pool, vault)
	if err := f.asAdmin().SetGateway(gw); err != nil {
		f.t.Fatalf("set gateway: %v", err)
	}
	f.mustTransfer(admin, pool, tokenReserve)
	f.bank.Credit(pool, token.MustAmount(externalReserve))
	if err := f.asAdmin().EnableTrading(); err != nil {
		f.t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)
	f.gw = gw
	return gw
}

func TestInitialBurnKeepsSupply(t *testing.T) {
	cfg := testConfig()
	cfg.TotalSupply = "50000000"
	cfg.InitialBurn = "15000000"
	cfg.BurnThreshold = "25000000"
	f := newFixture(t, cfg)

	if got := f.tok.TotalSupply().Dec(); got != "50000000" {
		t.Errorf("total supply = %s, want 50000000", got)
	}
	f.checkBalance(admin, "35000000")
	f.checkBalance(token.BurnAddress, "15000000")
	if got := f.tok.BurnedTotal().Dec(); got != "15000000" {
		t.Errorf("burned total = %s, want 15000000", got)
	}
	if f.tok.TaxesRemoved() {
		t.Error("taxes removed below threshold")
	}
	f.checkConservation()
}

func TestConstructorValidation(t *testing.T) {
	env := chain.NewSimEnv()
	bank := exchange.NewBank()

	if _, err := NewToken(testConfig(), env, admin, admin, nil, bank, nil); !errors.Is(err, ErrBadConfig) {
		t.Errorf("admin == engine account: expected ErrBadConfig, got %v", err)
	}
	if _, err := NewToken(testConfig(), env, token.ZeroAddress, vault, nil, bank, nil); !errors.Is(err, ErrBadConfig) {
		t.Errorf("null admin: expected ErrBadConfig, got %v", err)
	}
	bad := testConfig()
	bad.TotalSupply = "0"
	if _, err := NewToken(bad, env, admin, vault, nil, bank, nil); !errors.Is(err, ErrBadConfig) {
		t.Errorf("zero supply: expected ErrBadConfig, got %v", err)
	}
}

func TestPreLaunchLockdown(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "1000")

	if err := f.transfer(alice, bob, "100"); !errors.Is(err, guards.ErrTradingDisabled) {
		t.Fatalf("expected ErrTradingDisabled, got %v", err)
	}

	f.env.SetCaller(alice)
	if err := f.tok.EnableTrading(); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	if err := f.asAdmin().EnableTrading(); !errors.Is(err, guards.ErrTradingEnabled) {
		t.Fatalf("second enable: expected ErrTradingEnabled, got %v", err)
	}

	f.env.AdvanceBlocks(4)
	f.mustTransfer(alice, bob, "100")
	f.checkBalance(bob, "99")
}

func TestLaunchWindowBotExclusion(t *testing.T) {
	f := newFixture(t, nil)
	f.env.MarkContract(carol)
	f.mustTransfer(admin, carol, "1000")
	f.mustTransfer(admin, alice, "1000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}

	if err := f.transfer(carol, bob, "100"); !errors.Is(err, guards.ErrLaunchRestricted) {
		t.Fatalf("contract caller in window: expected ErrLaunchRestricted, got %v", err)
	}
	if err := f.asAdmin().AllowDuringLaunch(carol, true); err != nil {
		t.Fatalf("allow: %v", err)
	}
	f.mustTransfer(carol, bob, "100")
	f.checkBalance(bob, "99")

	// A proxied call (caller != originator) is banned under strict launch.
	f.env.SetCaller(alice)
	f.env.SetOrigin(bob)
	if err := f.tok.Transfer(bob, token.MustAmount("100")); !errors.Is(err, guards.ErrLaunchRestricted) {
		t.Fatalf("proxied call in window: expected ErrLaunchRestricted, got %v", err)
	}

	f.env.AdvanceBlocks(4)
	f.env.SetCaller(alice)
	f.env.SetOrigin(bob)
	if err := f.tok.Transfer(bob, token.MustAmount("100")); err != nil {
		t.Fatalf("proxied call after window: %v", err)
	}
}

func TestMaxTxAppliesToPlainTransfersOnly(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "50000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	if err := f.transfer(alice, bob, "10001"); !errors.Is(err, guards.ErrExceedsMaxTx) {
		t.Fatalf("expected ErrExceedsMaxTx, got %v", err)
	}
	f.mustTransfer(alice, bob, "10000")
	f.checkBalance(bob, "9900")

	// Exempt endpoints are not capped.
	f.mustTransfer(admin, bob, "20000")
	f.checkBalance(bob, "29900")
}

func TestBuyTaxSplit(t *testing.T) {
	f := newFixture(t, nil)
	f.openMarket("100000", "100000")

	f.mustTransfer(pool, alice, "1000")

	f.checkBalance(alice, "950")
	f.checkBalance(token.BurnAddress, "30")
	f.checkBalance(vault, "20")
	if got := f.tok.treasuryTokens.Dec(); got != "12" {
		t.Errorf("treasury earmark = %s, want 12", got)
	}
	if got := f.tok.liquidityTokens.Dec(); got != "8" {
		t.Errorf("liquidity earmark = %s, want 8", got)
	}
	if got := f.tok.BurnedTotal().Dec(); got != "30" {
		t.Errorf("burned total = %s, want 30", got)
	}

	evs := f.events(EventTransferApplied)
	last := evs[len(evs)-1]
	if last.Data["kind"] != "buy" || last.Data["tax"] != "50" || last.Data["net"] != "950" {
		t.Errorf("transfer_applied payload = %v", last.Data)
	}
	f.checkConservation()
}

func TestSellTaxSplit(t *testing.T) {
	f := newFixture(t, nil)
	f.openMarket("100000", "100000")
	f.mustTransfer(admin, alice, "10000")

	f.mustTransfer(alice, pool, "1000")

	f.checkBalance(alice, "9000")
	f.checkBalance(pool, "100950")
	f.checkBalance(token.BurnAddress, "30")
	f.checkBalance(vault, "20")

	evs := f.events(EventTransferApplied)
	if kind := evs[len(evs)-1].Data["kind"]; kind != "sell" {
		t.Errorf("kind = %v, want sell", kind)
	}
	f.checkConservation()
}

func TestWalletTaxEventPayload(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "10000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	f.mustTransfer(alice, bob, "1000")

	f.checkBalance(bob, "990")
	f.checkBalance(token.BurnAddress, "6")
	f.checkBalance(vault, "4")

	evs := f.events(EventTransferApplied)
	data := evs[len(evs)-1].Data
	want := map[string]string{
		"gross":          "1000",
		"net":            "990",
		"tax":            "10",
		"kind":           "wallet",
		"burnShare":      "6",
		"treasuryShare":  "2",
		"liquidityShare": "2",
	}
	for k, v := range want {
		if data[k] != v {
			t.Errorf("payload %s = %v, want %s", k, data[k], v)
		}
	}
}

func TestSelfTransferMovesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "1000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	f.mustTransfer(alice, alice, "500")
	f.checkBalance(alice, "1000")
	if got := f.tok.BurnedTotal().Dec(); got != "0" {
		t.Errorf("self transfer burned %s", got)
	}
}

func TestExemptionSkipsTax(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "10000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	if err := f.asAdmin().SetExempt(alice, true); err != nil {
		t.Fatalf("set exempt: %v", err)
	}
	f.mustTransfer(alice, bob, "1000")
	f.checkBalance(bob, "1000")

	if err := f.asAdmin().SetExempt(alice, false); err != nil {
		t.Fatalf("clear exempt: %v", err)
	}
	f.mustTransfer(alice, bob, "1000")
	f.checkBalance(bob, "1990")
}

func TestThresholdCrossingRemovesTaxes(t *testing.T) {
	cfg := testConfig()
	cfg.BurnThreshold = "100"
	f := newFixture(t, cfg)
	f.mustTransfer(admin, alice, "100000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	// Each 10000 wallet transfer burns 60 of its 100 tax.
	f.mustTransfer(alice, bob, "10000")
	if f.tok.TaxesRemoved() {
		t.Fatal("removed after first transfer, burned 60 < 100")
	}
	f.mustTransfer(alice, bob, "10000")
	if !f.tok.TaxesRemoved() {
		t.Fatal("not removed after second transfer, burned 120 >= 100")
	}

	// Third transfer is untaxed.
	f.mustTransfer(alice, bob, "10000")
	f.checkBalance(bob, "29800")

	if evs := f.events(EventTaxesRemoved); len(evs) != 1 {
		t.Errorf("taxes_removed fired %d times, want exactly once", len(evs))
	}
	st := f.tok.Status()
	if st.BuyTaxBps != 0 || st.SellTaxBps != 0 || st.WalletTaxBps != 0 {
		t.Errorf("rates after removal = %d/%d/%d, want zeros", st.BuyTaxBps, st.SellTaxBps, st.WalletTaxBps)
	}
	if err := f.asAdmin().SetTaxRates(100, 100, 100); !errors.Is(err, policy.ErrTaxesRemoved) {
		t.Errorf("expected ErrTaxesRemoved, got %v", err)
	}
	f.checkConservation()
}

func TestVoluntarySinkTransfersCount(t *testing.T) {
	cfg := testConfig()
	cfg.BurnThreshold = "1000"
	f := newFixture(t, cfg)
	f.mustTransfer(admin, alice, "2000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	// 500 to the sink: 5 tax (3 burn share) plus 495 delivered.
	f.mustTransfer(alice, token.BurnAddress, "500")
	if got := f.tok.BurnedTotal().Dec(); got != "498" {
		t.Errorf("burned total = %s, want 498", got)
	}
	f.checkBalance(token.BurnAddress, "498")
	if f.tok.TaxesRemoved() {
		t.Fatal("removed below threshold")
	}

	f.mustTransfer(alice, token.BurnAddress, "510")
	if got := f.tok.BurnedTotal().Dec(); got != "1006" {
		t.Errorf("burned total = %s, want 1006", got)
	}
	if !f.tok.TaxesRemoved() {
		t.Error("sink transfers crossed the threshold")
	}
}

func TestPairToPairCapAndCooldown(t *testing.T) {
	f := newFixture(t, nil)
	f.openMarket("50000", "50000")
	if err := f.asAdmin().RegisterPair(pairB); err != nil {
		t.Fatalf("register pair: %v", err)
	}
	f.mustTransfer(admin, pairB, "20000")

	if err := f.transfer(pool, pairB, "6000"); !errors.Is(err, guards.ErrExceedsPairLimit) {
		t.Fatalf("expected ErrExceedsPairLimit, got %v", err)
	}

	// Untaxed at exactly the cap.
	f.mustTransfer(pool, pairB, "5000")
	f.checkBalance(pairB, "25000")

	if err := f.transfer(pool, pairB, "100"); !errors.Is(err, guards.ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}
	// The cooldown is per sender; the reverse direction is free.
	f.mustTransfer(pairB, pool, "100")

	f.env.AdvanceTime(30)
	f.mustTransfer(pool, pairB, "100")
	f.checkConservation()
}

func TestAllowanceSpentOnlyOnSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "10000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	f.env.SetCaller(alice)
	if err := f.tok.Approve(bob, token.MustAmount("1000")); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A rejected transfer must not burn allowance.
	f.env.SetCaller(bob)
	if err := f.tok.TransferFrom(alice, carol, token.MustAmount("10001")); !errors.Is(err, guards.ErrExceedsMaxTx) {
		t.Fatalf("expected ErrExceedsMaxTx, got %v", err)
	}
	if got := f.tok.Allowance(alice, bob).Dec(); got != "1000" {
		t.Errorf("allowance after rejection = %s, want 1000", got)
	}

	f.env.SetCaller(bob)
	if err := f.tok.TransferFrom(alice, carol, token.MustAmount("600")); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	f.checkBalance(carol, "594")
	if got := f.tok.Allowance(alice, bob).Dec(); got != "400" {
		t.Errorf("allowance = %s, want 400", got)
	}

	f.env.SetCaller(bob)
	if err := f.tok.TransferFrom(alice, carol, token.MustAmount("500")); !errors.Is(err, ledger.ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestSellTriggersConversion(t *testing.T) {
	cfg := testConfig()
	cfg.SwapTrigger = "100"
	f := newFixture(t, cfg)
	f.openMarket("100000", "100000")
	f.mustTransfer(admin, alice, "30000")

	// First sell accrues 125 treasury / 75 liquidity; the treasury earmark
	// crosses the trigger and converts fully to external asset.
	f.mustTransfer(alice, pool, "10000")
	if got := f.tok.treasuryTokens.Dec(); got != "0" {
		t.Errorf("treasury earmark after first sell = %s, want 0", got)
	}
	if got := f.tok.liquidityTokens.Dec(); got != "75" {
		t.Errorf("liquidity earmark after first sell = %s, want 75", got)
	}
	if f.tok.AccumulatedExternal().IsZero() {
		t.Error("treasury conversion produced no external asset")
	}
	if len(f.events(EventTreasuryConverted)) != 1 {
		t.Error("expected a treasury_converted event")
	}

	// Second sell lifts the liquidity earmark to 150; it converts and the
	// received external pairs straight back into the pool.
	f.mustTransfer(alice, pool, "10000")
	if got := f.tok.liquidityTokens.Dec(); got != "0" {
		t.Errorf("liquidity earmark after second sell = %s, want 0", got)
	}
	if got := f.tok.treasuryTokens.Dec(); got != "125" {
		t.Errorf("treasury earmark after second sell = %s, want 125", got)
	}
	if len(f.events(EventLiquidityAdded)) != 1 {
		t.Error("expected a liquidity_added event")
	}
	if len(f.events(EventConverted)) != 1 {
		t.Error("expected a conversion_completed event")
	}

	// All received external was either accumulated or re-paired; the
	// engine's bank holdings must equal the distributable accumulation.
	if got, want := f.bank.BalanceOf(vault).Dec(), f.tok.AccumulatedExternal().Dec(); got != want {
		t.Errorf("engine bank balance %s != accumulated %s", got, want)
	}
	// The engine account holds exactly its remaining earmarks.
	if got, want := f.tok.BalanceOf(vault).Dec(), "125"; got != want {
		t.Errorf("engine token balance = %s, want %s", got, want)
	}
	if f.tok.SwapLocked() {
		t.Error("swap lock leaked")
	}
	f.checkConservation()
}

func TestConversionFailureNeverBlocksTransfer(t *testing.T) {
	cfg := testConfig()
	cfg.SwapTrigger = "100"
	f := newFixture(t, cfg)
	f.openMarket("100000", "100000")
	f.mustTransfer(admin, alice, "30000")

	f.gw.FailNextSwaps(1)
	f.mustTransfer(alice, pool, "10000")

	// The transfer itself committed.
	f.checkBalance(alice, "20000")
	f.checkBalance(pool, "109500")
	// The failed conversion changed nothing.
	if got := f.tok.treasuryTokens.Dec(); got != "125" {
		t.Errorf("treasury earmark = %s, want 125 untouched", got)
	}
	if got := f.tok.AccumulatedExternal().Dec(); got != "0" {
		t.Errorf("accumulated = %s, want 0", got)
	}
	evs := f.events(EventConversionFailed)
	if len(evs) != 1 {
		t.Fatalf("conversion_failed events = %d, want 1", len(evs))
	}
	if evs[0].Data["stage"] != "treasury" {
		t.Errorf("failure stage = %v, want treasury", evs[0].Data["stage"])
	}
	if f.tok.SwapLocked() {
		t.Error("swap lock leaked after failure")
	}

	// The next transfer retries conversion and succeeds.
	f.mustTransfer(alice, pool, "10000")
	if got := f.tok.liquidityTokens.Dec(); got != "0" {
		t.Errorf("liquidity earmark = %s, want 0 after retry", got)
	}
	f.checkConservation()
}

func TestLiquidityLegFailureKeepsValue(t *testing.T) {
	cfg := testConfig()
	cfg.SwapTrigger = "100"
	// With no burn or treasury cut the whole tax accrues to liquidity.
	cfg.BurnPercent = 0
	cfg.TreasuryPercent = 0
	f := newFixture(t, cfg)
	f.openMarket("100000", "100000")
	f.mustTransfer(admin, alice, "30000")

	f.gw.FailNextLiquidity(1)
	f.mustTransfer(alice, pool, "10000") // 500 tax, all liquidity

	// The swap leg sold half (250); the liquidity leg failed, so the
	// unsold half stays earmarked and the proceeds are distributable.
	if got := f.tok.liquidityTokens.Dec(); got != "250" {
		t.Errorf("liquidity earmark = %s, want 250", got)
	}
	if f.tok.AccumulatedExternal().IsZero() {
		t.Error("swap proceeds were lost")
	}
	if got, want := f.bank.BalanceOf(vault).Dec(), f.tok.AccumulatedExternal().Dec(); got != want {
		t.Errorf("engine bank balance %s != accumulated %s", got, want)
	}
	if len(f.events(EventLiquidityFailed)) != 1 {
		t.Error("expected a liquidity_failed event")
	}
	f.checkConservation()
}

// reentrantGateway calls back into the engine mid-swap, the way a malicious
// venue would.
type reentrantGateway struct {
	tok        *Token
	reentryErr error
}

func (g *reentrantGateway) Quote(amountIn *uint256.Int, dir exchange.Direction) (*uint256.Int, error) {
	return amountIn.Clone(), nil
}

func (g *reentrantGateway) SwapTokensForExternal(amountIn, minOut *uint256.Int, recipient token.Address, deadline uint64) (*uint256.Int, error) {
	g.reentryErr = g.tok.ManualConvert(nil)
	return amountIn.Clone(), nil
}

func (g *reentrantGateway) SwapExternalForTokens(externalIn, minOut *uint256.Int, recipient token.Address, deadline uint64) (*uint256.Int, error) {
	return externalIn.Clone(), nil
}

func (g *reentrantGateway) AddLiquidity(tokenAmount, externalAmount, minToken, minExternal *uint256.Int, recipient token.Address, deadline uint64) error {
	return nil
}

func (g *reentrantGateway) ResolvePair() (token.Address, bool) {
	return token.ZeroAddress, false
}

func TestReentrantConversionRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, alice, "10000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)
	f.mustTransfer(alice, bob, "10000") // accrues 15 liquidity, 25 treasury

	gw := &reentrantGateway{tok: f.tok}
	if err := f.asAdmin().SetGateway(gw); err != nil {
		t.Fatalf("set gateway: %v", err)
	}
	if err := f.asAdmin().ManualConvert(nil); err != nil {
		t.Fatalf("manual convert: %v", err)
	}

	if !errors.Is(gw.reentryErr, ErrSwapLocked) {
		t.Errorf("reentrant call: expected ErrSwapLocked, got %v", gw.reentryErr)
	}
	if f.tok.SwapLocked() {
		t.Error("swap lock leaked")
	}
}

func TestConversionWithoutGateway(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.asAdmin().ManualConvert(nil); !errors.Is(err, ErrNoGateway) {
		t.Errorf("expected ErrNoGateway, got %v", err)
	}
}

func TestDistributionLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.Beneficiaries = []Beneficiary{
		{Account: team.String(), Bps: 6000},
		{Account: ops.String(), Bps: 4000},
	}
	f := newFixture(t, cfg)

	// Fold externally received asset into the distributable accumulation.
	f.bank.Credit(vault, token.MustAmount("1000"))
	free, err := f.asAdmin().ReconcileExternal()
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if free.Dec() != "1000" {
		t.Fatalf("reconciled %s, want 1000", free.Dec())
	}

	// Queueing is permissionless.
	f.env.SetCaller(bob)
	total, err := f.tok.QueueDistribution()
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if total.Dec() != "1000" {
		t.Errorf("queued %s, want 1000", total.Dec())
	}
	if got := f.tok.PendingDistribution(team).Dec(); got != "600" {
		t.Errorf("team pending = %s, want 600", got)
	}
	if got := f.tok.AccumulatedExternal().Dec(); got != "0" {
		t.Errorf("accumulated after queue = %s, want 0", got)
	}

	if err := f.tok.Settle(team); err != nil {
		t.Fatalf("settle team: %v", err)
	}
	if got := f.bank.BalanceOf(team).Dec(); got != "600" {
		t.Errorf("team received %s, want 600", got)
	}
	if err := f.tok.Settle(team); !errors.Is(err, distribute.ErrNothingPending) {
		t.Errorf("second settle: expected ErrNothingPending, got %v", err)
	}
	if !f.tok.Status().DistributionQueued {
		t.Error("cycle closed before all claims settled")
	}
	if err := f.tok.Settle(ops); err != nil {
		t.Fatalf("settle ops: %v", err)
	}
	if f.tok.Status().DistributionQueued {
		t.Error("cycle still open after last settle")
	}

	// Re-queue honors the block delay, then splits with dust retained.
	f.bank.Credit(vault, token.MustAmount("1003"))
	if _, err := f.asAdmin().ReconcileExternal(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, err := f.tok.QueueDistribution(); !errors.Is(err, distribute.ErrTooSoon) {
		t.Fatalf("expected ErrTooSoon, got %v", err)
	}
	f.env.AdvanceBlocks(5)
	total, err = f.tok.QueueDistribution()
	if err != nil {
		t.Fatalf("second queue: %v", err)
	}
	if total.Dec() != "1002" {
		t.Errorf("queued %s, want 1002", total.Dec())
	}
	if got := f.tok.AccumulatedExternal().Dec(); got != "1" {
		t.Errorf("dust retained = %s, want 1", got)
	}
}

func TestSettleFailureStrandsOnlyOneClaim(t *testing.T) {
	cfg := testConfig()
	cfg.Beneficiaries = []Beneficiary{
		{Account: team.String(), Bps: 6000},
		{Account: ops.String(), Bps: 4000},
	}
	f := newFixture(t, cfg)

	f.bank.Credit(vault, token.MustAmount("1000"))
	if _, err := f.asAdmin().ReconcileExternal(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, err := f.tok.QueueDistribution(); err != nil {
		t.Fatalf("queue: %v", err)
	}

	// Drain part of the engine's holdings out from under the claims.
	if err := f.bank.Debit(vault, token.MustAmount("500")); err != nil {
		t.Fatalf("debit: %v", err)
	}

	err := f.tok.Settle(team)
	if !errors.Is(err, distribute.ErrPayFailed) {
		t.Fatalf("expected ErrPayFailed, got %v", err)
	}
	// The claim stays consumed; a retry cannot drain other claims.
	if got := f.tok.PendingDistribution(team).Dec(); got != "0" {
		t.Errorf("failed claim = %s, want 0", got)
	}
	if len(f.events(distribute.EventSettleFailed)) != 1 {
		t.Error("expected a settle_failed event")
	}

	if err := f.tok.Settle(ops); err != nil {
		t.Fatalf("settle ops: %v", err)
	}
	if got := f.bank.BalanceOf(ops).Dec(); got != "400" {
		t.Errorf("ops received %s, want 400", got)
	}
	if f.tok.Status().DistributionQueued {
		t.Error("cycle still open after claims drained")
	}

	// What physically remains flows back for the next cycle.
	free, err := f.asAdmin().ReconcileExternal()
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if free.Dec() != "100" {
		t.Errorf("recovered %s, want 100", free.Dec())
	}
	if got := f.tok.AccumulatedExternal().Dec(); got != "100" {
		t.Errorf("accumulated = %s, want 100", got)
	}
}

func TestBuybackAndBurn(t *testing.T) {
	f := newFixture(t, nil)
	f.openMarket("100000", "100000")

	f.bank.Credit(vault, token.MustAmount("2000"))
	if _, err := f.asAdmin().ReconcileExternal(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if err := f.asAdmin().FundBuyback(token.MustAmount("1500")); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if err := f.asAdmin().FundBuyback(token.MustAmount("1000")); !errors.Is(err, exchange.ErrInsufficientExternal) {
		t.Fatalf("overfund: expected ErrInsufficientExternal, got %v", err)
	}
	if err := f.asAdmin().SetBuybackBudget(token.MustAmount("10000")); err != nil {
		t.Fatalf("budget: %v", err)
	}

	if err := f.asAdmin().BuybackAndBurn(token.MustAmount("1000")); err != nil {
		t.Fatalf("buyback: %v", err)
	}
	// 1000 external against 100000/100000 reserves at 30 bps buys 987.
	f.checkBalance(token.BurnAddress, "987")
	if got := f.tok.BurnedTotal().Dec(); got != "987" {
		t.Errorf("burned total = %s, want 987", got)
	}
	if got := f.tok.buybackReserve.Dec(); got != "500" {
		t.Errorf("reserve = %s, want 500", got)
	}
	if got := f.tok.buybackBudget.Dec(); got != "9013" {
		t.Errorf("budget = %s, want 9013", got)
	}
	if len(f.events(EventBuyback)) != 1 {
		t.Error("expected a buyback_executed event")
	}

	if err := f.asAdmin().BuybackAndBurn(token.MustAmount("600")); !errors.Is(err, ErrInsufficientReserve) {
		t.Errorf("expected ErrInsufficientReserve, got %v", err)
	}
	if err := f.asAdmin().SetBuybackBudget(nil); err != nil {
		t.Fatalf("clear budget: %v", err)
	}
	if err := f.asAdmin().BuybackAndBurn(token.MustAmount("100")); !errors.Is(err, ErrBuybackExhausted) {
		t.Errorf("expected ErrBuybackExhausted, got %v", err)
	}
	f.checkConservation()
}

func TestManualBurnReducesSupply(t *testing.T) {
	cfg := testConfig()
	cfg.BurnThreshold = "30000"
	f := newFixture(t, cfg)

	if err := f.asAdmin().ManualBurn(token.MustAmount("40000")); err != nil {
		t.Fatalf("manual burn: %v", err)
	}
	if got := f.tok.TotalSupply().Dec(); got != "960000" {
		t.Errorf("supply = %s, want 960000", got)
	}
	f.checkBalance(admin, "960000")
	if got := f.tok.BurnedTotal().Dec(); got != "40000" {
		t.Errorf("burned total = %s, want 40000", got)
	}
	if !f.tok.TaxesRemoved() {
		t.Error("manual burn must count toward the threshold")
	}
	f.checkConservation()
}

func TestAdminLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	f.mustTransfer(admin, bob, "10000")
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)

	f.env.SetCaller(alice)
	if err := f.tok.SetTaxRates(300, 300, 50); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	if err := f.asAdmin().SetTaxRates(300, 300, 50); err != nil {
		t.Fatalf("set rates: %v", err)
	}
	if st := f.tok.Status(); st.BuyTaxBps != 300 || st.WalletTaxBps != 50 {
		t.Errorf("rates = %d/%d", st.BuyTaxBps, st.WalletTaxBps)
	}

	if err := f.asAdmin().TransferAdmin(token.ZeroAddress); !errors.Is(err, ledger.ErrInvalidAccount) {
		t.Fatalf("null admin: expected ErrInvalidAccount, got %v", err)
	}
	if err := f.asAdmin().TransferAdmin(alice); err != nil {
		t.Fatalf("transfer admin: %v", err)
	}
	if f.tok.Admin() != alice {
		t.Errorf("admin = %s, want %s", f.tok.Admin(), alice)
	}

	// The old admin lost the role.
	f.env.SetCaller(admin)
	if err := f.tok.SetTaxRates(100, 100, 100); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("old admin: expected ErrNotAdmin, got %v", err)
	}
	f.env.SetCaller(alice)
	if err := f.tok.SetTaxSplit(50, 30); err != nil {
		t.Fatalf("new admin split: %v", err)
	}

	f.env.SetCaller(alice)
	if err := f.tok.RenounceAdmin(); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	if !f.tok.Admin().IsZero() {
		t.Errorf("admin after renounce = %s", f.tok.Admin())
	}
	f.env.SetCaller(alice)
	if err := f.tok.SetTaxRates(100, 100, 100); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("post-renounce: expected ErrNotAdmin, got %v", err)
	}

	// Token mechanics keep running without an admin.
	f.mustTransfer(bob, carol, "1000")
	if f.tok.BalanceOf(carol).IsZero() {
		t.Error("transfers stopped after renouncement")
	}
	f.checkConservation()
}

func TestJournalTrail(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBurn = "1000"
	f := newFixture(t, cfg)
	if err := f.asAdmin().EnableTrading(); err != nil {
		t.Fatalf("enable trading: %v", err)
	}
	f.env.AdvanceBlocks(4)
	f.mustTransfer(admin, alice, "5000")
	f.mustTransfer(alice, bob, "1000")

	evs := f.events()
	if len(evs) == 0 {
		t.Fatal("empty journal")
	}
	if evs[0].Type != ledger.EventTransfer {
		t.Errorf("first event = %s, want the mint transfer", evs[0].Type)
	}
	index := make(map[string]int)
	for i, e := range evs {
		if _, seen := index[e.Type]; !seen {
			index[e.Type] = i
		}
	}
	for _, typ := range []string{EventInitialized, EventBurned, EventTradingEnabled, EventTransferApplied} {
		if _, ok := index[typ]; !ok {
			t.Errorf("journal missing %s", typ)
		}
	}
	if index[EventInitialized] > index[EventTradingEnabled] {
		t.Error("initialized recorded after trading_enabled")
	}
	// Events carry the environment's block at emission time.
	last := evs[len(evs)-1]
	if last.Block != 5 {
		t.Errorf("last event block = %d, want 5", last.Block)
	}
	if err := f.tok.JournalErr(); err != nil {
		t.Errorf("journal error: %v", err)
	}
}

func TestStatusSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	f.openMarket("100000", "100000")
	f.mustTransfer(pool, alice, "1000")

	st := f.tok.Status()
	if st.Name != "Vaulton" || st.Symbol != "VLTN" {
		t.Errorf("identity = %s/%s", st.Name, st.Symbol)
	}
	if st.PrimaryPair != pool.String() {
		t.Errorf("primary pair = %s, want %s", st.PrimaryPair, pool)
	}
	if !st.TradingEnabled || st.TaxesRemoved {
		t.Errorf("flags = trading %v, removed %v", st.TradingEnabled, st.TaxesRemoved)
	}
	if st.TreasuryTokens != "12" || st.LiquidityTokens != "8" {
		t.Errorf("earmarks = %s/%s, want 12/8", st.TreasuryTokens, st.LiquidityTokens)
	}
	if st.BurnedTotal != "30" {
		t.Errorf("burned = %s, want 30", st.BurnedTotal)
	}
}
