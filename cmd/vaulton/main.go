// Command vaulton drives the tax-token ledger engine: scripted market
// sessions against the reference exchange simulator, journal inspection,
// and conservation proofs over recorded transfers.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Usage:   "JSON configuration `FILE` overlaid on the defaults",
	EnvVars: []string{"VAULTON_CONFIG"},
}

var dbFlag = &cli.StringFlag{
	Name:    "db",
	Usage:   "SQLite journal `FILE`",
	EnvVars: []string{"VAULTON_DB"},
}

func main() {
	// A local .env may carry VAULTON_CONFIG and VAULTON_DB.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "vaulton",
		Usage:   "single-asset tax-token ledger engine",
		Version: "1.0.0",
		Commands: []*cli.Command{
			&Demo,
			&Events,
			&Prove,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
