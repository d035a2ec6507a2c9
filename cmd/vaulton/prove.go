package main

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/VaultonCrypto/vaulton-token-sub001/engine"
	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
	"github.com/VaultonCrypto/vaulton-token-sub001/ledger"
	"github.com/VaultonCrypto/vaulton-token-sub001/proof"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

var Prove = cli.Command{
	Name:  "prove",
	Usage: "attest that recorded transfers conserve value (Groth16 over BN254)",
	Flags: []cli.Flag{
		dbFlag,
		&cli.IntFlag{Name: "workers", Usage: "parallel proving workers", Value: 4},
		&cli.IntFlag{Name: "limit", Usage: "attest at most `N` transfers (0 = all)"},
	},
	Action: prove,
}

func prove(c *cli.Context) error {
	path := c.String("db")
	if path == "" {
		return fmt.Errorf("a journal database is required (--db or VAULTON_DB)")
	}
	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	evs, err := store.ReadAll(context.Background(), journal.Filter{Stream: engine.Stream})
	if err != nil {
		return err
	}
	witnesses, err := collectWitnesses(evs, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(witnesses) == 0 {
		fmt.Println("No applied transfers to attest")
		return nil
	}

	prover := proof.NewProver()
	fmt.Println("compiling conservation circuit...")
	if err := prover.Compile(); err != nil {
		return err
	}
	n, _ := prover.Constraints()
	fmt.Printf("circuit ready: %d constraints, %d transfers, %d workers\n\n",
		n, len(witnesses), c.Int("workers"))

	results := prover.AttestBatch(witnesses, c.Int("workers"))
	failed := 0
	for i, r := range results {
		w := witnesses[i]
		if r.Err != nil {
			failed++
			fmt.Printf("transfer %-4d gross %-12s FAILED: %v\n", i, w.Gross.Dec(), r.Err)
			continue
		}
		fmt.Printf("transfer %-4d gross %-12s tax %-10s proved in %s\n",
			i, w.Gross.Dec(), w.Tax.Dec(), r.Elapsed.Round(time.Millisecond))
	}
	fmt.Printf("\n%d/%d transfers attested\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d transfers failed attestation", failed)
	}
	return nil
}

// collectWitnesses replays the ledger's transfer records to track every
// account's balance, then builds one witness per applied transfer. The
// applied record is appended after all of its balance legs, so the
// sender's pre-balance is the replayed balance plus the gross amount.
func collectWitnesses(evs []*journal.Event, limit int) ([]*proof.TransferWitness, error) {
	balances := make(map[string]*uint256.Int)
	setBalance := func(e *journal.Event, addrKey, balKey string) error {
		addr, ok := e.Data[addrKey].(string)
		if !ok {
			return nil
		}
		dec, ok := e.Data[balKey].(string)
		if !ok {
			return nil
		}
		v, err := token.ParseAmount(dec)
		if err != nil {
			return fmt.Errorf("event seq %d: %w", e.Seq, err)
		}
		balances[addr] = v
		return nil
	}

	var witnesses []*proof.TransferWitness
	for _, e := range evs {
		switch e.Type {
		case ledger.EventTransfer:
			if err := setBalance(e, "from", "fromBalance"); err != nil {
				return nil, err
			}
			if err := setBalance(e, "to", "toBalance"); err != nil {
				return nil, err
			}
		case engine.EventTransferApplied:
			if limit > 0 && len(witnesses) >= limit {
				continue
			}
			from, _ := e.Data["from"].(string)
			grossDec, ok := e.Data["gross"].(string)
			if !ok {
				continue
			}
			gross, err := token.ParseAmount(grossDec)
			if err != nil {
				return nil, fmt.Errorf("event seq %d: %w", e.Seq, err)
			}
			after := balances[from]
			if after == nil {
				after = new(uint256.Int)
			}
			before := new(uint256.Int).Add(after, gross)
			w, err := proof.FromEvent(e, before)
			if err != nil {
				return nil, fmt.Errorf("transfer at block %d: %w", e.Block, err)
			}
			witnesses = append(witnesses, w)
		}
	}
	return witnesses, nil
}
