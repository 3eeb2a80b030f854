package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange/binance"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange/paper"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/signal"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/urfave/cli/v3"
)

// setup loads the configuration named by --config and builds the logger.
func setup(cmd *cli.Command) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	level := cfg.Log.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, log, nil
}

func openLedger(cfg config.LedgerConfig, log *logger.Logger) (*ledger.SQLLedger, error) {
	return ledger.NewSQLLedger(string(cfg.Driver), cfg.DSN, log.Named("ledger"))
}

// newGateway builds the gateway selected by exchange.provider.
func newGateway(cfg config.Config, log *logger.Logger) (exchange.Gateway, error) {
	switch cfg.Exchange.Provider {
	case config.ProviderPaper:
		return paper.NewGateway(cfg.Exchange.Paper, cfg.Execution.QuoteAsset, log.Named("paper")), nil
	case config.ProviderBinancePaper, config.ProviderBinanceLive:
		return binance.NewGateway(cfg.Exchange, cfg.Execution.QuoteAsset, log.Named("binance"))
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedGateway, "unsupported exchange provider: %s", cfg.Exchange.Provider)
	}
}

// openSource picks the reader by file extension.
func openSource(path string, log *logger.Logger) (signal.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return signal.OpenJSONLines(path)
	default:
		return signal.NewFileSource(path, log.Named("signals"))
	}
}

// newRegistry returns a registry carrying the process and Go runtime collectors.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return registry
}

func stdinSource() signal.Source {
	return signal.NewJSONLinesSource(os.Stdin)
}
