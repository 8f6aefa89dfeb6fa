// Command invoicectl works with saved receipts from the shell: totals and
// number formatting for ad-hoc checks, plus list/show/delete/export/import
// against the bot's database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional here as well
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "invoicectl",
		Usage: "inspect, print and move jewelry receipts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database file",
				Value:   "data/invoices.db",
				EnvVars: []string{"DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "aes-key",
				Usage:   "32-byte key the bot encrypts snapshots with",
				EnvVars: []string{"AES_ENCRYPTION_KEY"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "error",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			totalCommand,
			formatCommand,
			listCommand,
			showCommand,
			deleteCommand,
			exportCommand,
			importCommand,
		},
	}
}
