package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/VaultonCrypto/vaulton-token-sub001/chain"
	"github.com/VaultonCrypto/vaulton-token-sub001/engine"
	"github.com/VaultonCrypto/vaulton-token-sub001/exchange"
	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

var (
	demoAdmin = token.HexToAddress("0x00000000000000000000000000000000000000a0")
	demoVault = token.HexToAddress("0x00000000000000000000000000000000000000f0")
	demoPool  = token.HexToAddress("0x00000000000000000000000000000000000000d0")
	demoAlice = token.HexToAddress("0x00000000000000000000000000000000000000a1")
	demoBob   = token.HexToAddress("0x00000000000000000000000000000000000000b1")
)

var Demo = cli.Command{
	Name:  "demo",
	Usage: "run a scripted market session against a fresh engine",
	Description: `Stands up a fresh engine with the reference exchange simulator,
opens trading, and runs rounds of buys, sells, and wallet transfers.
Leftover earmarks are swept through conversion, external proceeds fund a
buyback, and configured beneficiaries are paid out. With --db the journal
survives the session for the events and prove commands.`,
	Flags: []cli.Flag{
		configFlag,
		dbFlag,
		&cli.IntFlag{Name: "rounds", Usage: "buy/sell/transfer rounds to run", Value: 5},
	},
	Action: demo,
}

func demo(c *cli.Context) error {
	cfg := engine.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = engine.LoadConfig(path); err != nil {
			return err
		}
	}

	var store journal.Store = journal.NewMemoryStore()
	if path := c.String("db"); path != "" {
		s, err := journal.NewSQLiteStore(path)
		if err != nil {
			return err
		}
		store = s
	}
	defer store.Close()

	env := chain.NewSimEnv()
	bank := exchange.NewBank()
	env.SetCaller(demoAdmin)
	tok, err := engine.NewToken(cfg, env, demoAdmin, demoVault, nil, bank, store)
	if err != nil {
		return err
	}

	fmt.Printf("=== %s (%s) ===\n", tok.Name(), tok.Symbol())
	fmt.Printf("supply %s, admin holds %s after the initial burn\n\n",
		tok.TotalSupply().Dec(), tok.BalanceOf(demoAdmin).Dec())

	// Stand up the venue: token and external reserves, then open trading.
	gw := exchange.NewSimGateway(tok.Ledger(), bank, env, demoPool, demoVault)
	if err := tok.SetGateway(gw); err != nil {
		return fmt.Errorf("bind gateway: %w", err)
	}
	if err := tok.Transfer(demoPool, token.MustAmount("2000000")); err != nil {
		return fmt.Errorf("seed pool: %w", err)
	}
	bank.Credit(demoPool, token.MustAmount("2000000"))
	for _, trader := range []token.Address{demoAlice, demoBob} {
		if err := tok.Transfer(trader, token.MustAmount("200000")); err != nil {
			return fmt.Errorf("seed trader: %w", err)
		}
	}
	if err := tok.EnableTrading(); err != nil {
		return fmt.Errorf("enable trading: %w", err)
	}
	env.AdvanceBlocks(cfg.LaunchWindowBlocks + 1)
	fmt.Printf("trading open, launch window passed (block %d)\n\n", env.Block())

	buyAmt := token.MustAmount("50000")
	sellAmt := token.MustAmount("40000")
	moveAmt := token.MustAmount("10000")
	for i := 1; i <= c.Int("rounds"); i++ {
		env.SetCaller(demoPool)
		if err := tok.Transfer(demoAlice, buyAmt); err != nil {
			return fmt.Errorf("round %d buy: %w", i, err)
		}
		env.AdvanceBlocks(1)

		env.SetCaller(demoBob)
		if err := tok.Transfer(demoPool, sellAmt); err != nil {
			return fmt.Errorf("round %d sell: %w", i, err)
		}
		env.AdvanceBlocks(1)

		env.SetCaller(demoAlice)
		if err := tok.Transfer(demoBob, moveAmt); err != nil {
			return fmt.Errorf("round %d transfer: %w", i, err)
		}
		env.AdvanceBlocks(1)

		st := tok.Status()
		fmt.Printf("round %d: burned %-10s treasury %-8s liquidity %-8s external %s\n",
			i, st.BurnedTotal, st.TreasuryTokens, st.LiquidityTokens, st.AccumulatedExt)
	}

	// Sweep leftover earmarks into the external asset.
	env.SetCaller(demoAdmin)
	sweeps := []struct {
		name string
		run  func() error
	}{
		{"liquidity", func() error { return tok.ManualConvert(nil) }},
		{"treasury", func() error { return tok.ConvertTreasury(nil) }},
	}
	for _, s := range sweeps {
		if err := s.run(); err != nil && !errors.Is(err, engine.ErrNothingToConvert) {
			fmt.Printf("%s sweep: %v\n", s.name, err)
		}
	}

	// Spend half of the proceeds buying tokens back into the burn sink.
	if acc := tok.AccumulatedExternal(); acc.Gt(token.MustAmount("1")) {
		half, _ := token.Halves(acc)
		if err := tok.FundBuyback(half); err != nil {
			return fmt.Errorf("fund buyback: %w", err)
		}
		if err := tok.SetBuybackBudget(tok.TotalSupply()); err != nil {
			return err
		}
		if err := tok.BuybackAndBurn(half); err != nil {
			fmt.Printf("buyback: %v\n", err)
		} else {
			fmt.Printf("\nbuyback spent %s external, burned total now %s\n",
				half.Dec(), tok.BurnedTotal().Dec())
		}
	}

	// Pay out configured beneficiaries from what remains.
	if len(cfg.Beneficiaries) > 0 && !tok.AccumulatedExternal().IsZero() {
		total, err := tok.QueueDistribution()
		if err != nil {
			fmt.Printf("queue distribution: %v\n", err)
		} else {
			fmt.Printf("queued %s external for distribution\n", total.Dec())
			for _, b := range cfg.Beneficiaries {
				addr, err := token.ParseAddress(b.Account)
				if err != nil {
					continue
				}
				if err := tok.Settle(addr); err != nil {
					fmt.Printf("settle %s: %v\n", b.Account, err)
				} else {
					fmt.Printf("settled %s, holds %s external\n", b.Account, bank.BalanceOf(addr).Dec())
				}
			}
		}
	}

	if err := tok.CheckConservation(); err != nil {
		return err
	}

	blob, err := json.MarshalIndent(tok.Status(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\n=== Final status ===\n%s\n", blob)

	evs, err := store.ReadAll(context.Background(), journal.Filter{Stream: engine.Stream})
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, e := range evs {
		counts[e.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Printf("\n=== Journal (%d events) ===\n", len(evs))
	for _, t := range types {
		fmt.Printf("  %-26s %d\n", t, counts[t])
	}
	if path := c.String("db"); path != "" {
		fmt.Printf("\njournal written to %s\n", path)
	}
	return tok.JournalErr()
}
