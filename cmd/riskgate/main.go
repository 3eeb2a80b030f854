package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-riskgate/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the riskgate YAML configuration",
		Value:   "riskgate.yaml",
	}
	logLevelFlag := &cli.StringFlag{
		Name:  "log-level",
		Usage: "Override log.level from the configuration (debug, info, warn, error)",
	}

	cmd := &cli.Command{
		Name:    "riskgate",
		Usage:   "Risk gate and order execution engine for trading signals",
		Version: version.GetVersion(),
		Flags:   []cli.Flag{configFlag, logLevelFlag},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Consume signals and trade them through the risk gate",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "signals",
						Aliases: []string{"s"},
						Usage:   "Signal file (.csv, .parquet or .jsonl). Reads JSON lines from stdin when empty",
					},
				},
				Action: runAction,
			},
			{
				Name:  "replay",
				Usage: "Replay a signal file against the paper venue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "signals",
						Aliases:  []string{"s"},
						Usage:    "Signal file (.csv, .parquet or .jsonl)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "ledger-dsn",
						Usage: "SQLite DSN for the replay ledger",
						Value: ":memory:",
					},
				},
				Action: replayAction,
			},
			{
				Name:  "generate",
				Usage: "Write synthetic signals as JSON lines",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "symbols",
						Usage: "Symbols to generate",
						Value: []string{"BTCUSDT"},
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Signals per symbol",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Random seed",
						Value: 42,
					},
					&cli.FloatFlag{
						Name:  "price",
						Usage: "Initial reference price",
						Value: 50000,
					},
					&cli.FloatFlag{
						Name:  "volatility",
						Usage: "Per step volatility",
						Value: 0.002,
					},
				},
				Action: generateAction,
			},
			{
				Name:   "reconcile",
				Usage:  "Repair the ledger after a crash and print what changed",
				Action: reconcileAction,
			},
			{
				Name:  "positions",
				Usage: "List open or closed positions",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "closed",
						Usage: "List closed positions instead of open ones",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum closed positions to list",
						Value: 50,
					},
				},
				Action: positionsAction,
			},
			{
				Name:  "summary",
				Usage: "Print the trading summary of a UTC day",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:  "day",
						Usage: "Day in `YYYY-MM-DD` format, today when omitted",
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
				},
				Action: summaryAction,
			},
			{
				Name:  "export",
				Usage: "Export the ledger to Parquet files (duckdb ledger only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Output directory",
						Required: true,
					},
				},
				Action: exportAction,
			},
			{
				Name:  "schema",
				Usage: "Write the configuration JSON schema and a sample configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory",
						Value: "./config",
					},
				},
				Action: schemaAction,
			},
		},
	}

	return cmd
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
