package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/VaultonCrypto/vaulton-token-sub001/engine"
	"github.com/VaultonCrypto/vaulton-token-sub001/journal"
)

var Events = cli.Command{
	Name:  "events",
	Usage: "show the timeline recorded in a journal database",
	Flags: []cli.Flag{
		dbFlag,
		&cli.StringSliceFlag{Name: "type", Usage: "keep only events of `TYPE` (repeatable)"},
		&cli.Uint64Flag{Name: "from-block", Usage: "drop events below `BLOCK`"},
		&cli.StringFlag{Name: "output", Usage: "export matching events to a JSONL `FILE` instead of printing"},
	},
	Action: listEvents,
}

func listEvents(c *cli.Context) error {
	path := c.String("db")
	if path == "" {
		return fmt.Errorf("a journal database is required (--db or VAULTON_DB)")
	}
	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	evs, err := store.ReadAll(context.Background(), journal.Filter{
		Stream:    engine.Stream,
		Types:     c.StringSlice("type"),
		FromBlock: c.Uint64("from-block"),
	})
	if err != nil {
		return err
	}
	if len(evs) == 0 {
		fmt.Println("No events recorded")
		return nil
	}

	if out := c.String("output"); out != "" {
		if err := journal.WriteJSONLFile(out, evs); err != nil {
			return err
		}
		fmt.Printf("wrote %d events to %s\n", len(evs), out)
		return nil
	}

	fmt.Printf("=== Journal timeline (%d events) ===\n\n", len(evs))
	for _, e := range evs {
		fmt.Printf("block %-5d seq %-5d %s\n", e.Block, e.Seq, e.Type)
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("    %s: %v\n", k, e.Data[k])
		}
	}
	return nil
}
