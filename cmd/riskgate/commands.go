package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange/paper"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/notifier"
	"github.com/rxtech-lab/argo-riskgate/internal/server"
	signals "github.com/rxtech-lab/argo-riskgate/internal/signal"
	"github.com/rxtech-lab/argo-riskgate/internal/trading/coordinator"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// runAction trades signals until the stream ends or the process is interrupted.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	l, err := openLedger(cfg.Ledger, log)
	if err != nil {
		return err
	}
	defer l.Close()

	gateway, err := newGateway(cfg, log)
	if err != nil {
		return err
	}

	registry := newRegistry()
	m := metrics.New(registry)

	hub := server.NewHub(m, log)
	events := notifier.NewAsyncNotifier(
		notifier.Multi{notifier.NewLogNotifier(log.Named("events")), hub},
		notifier.DefaultQueueSize, m, log,
	)
	defer events.Close()

	coord := coordinator.New(l, gateway, cfg,
		coordinator.WithNotifier(events),
		coordinator.WithMetrics(m),
		coordinator.WithLogger(log),
	)

	if cfg.Server.Enabled {
		admin := server.New(coord, l, hub, registry, log)
		if err := admin.Start(cfg.Server.Addr); err != nil {
			return err
		}

		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := admin.Stop(stopCtx); err != nil {
				log.Warn("Failed to stop admin server", zap.Error(err))
			}
		}()
	}

	source := stdinSource()
	if path := cmd.String("signals"); path != "" {
		source, err = openSource(path, log)
		if err != nil {
			return err
		}
	}
	defer source.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info("Received shutdown signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("Starting riskgate",
		zap.String("provider", string(cfg.Exchange.Provider)),
		zap.String("ledger", string(cfg.Ledger.Driver)),
	)

	if err := coord.Run(ctx, source); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Riskgate stopped")

	return nil
}

// replayAction runs a signal file through a fresh paper venue and an in-memory ledger.
// Signals are handled one at a time and their timestamps drive the clock, so daily
// limits roll over as they would have live.
func replayAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	clock := &replayClock{}

	l, err := ledger.NewSQLLedger(ledger.DriverSQLite, cmd.String("ledger-dsn"), log.Named("ledger"), ledger.WithClock(clock.Now))
	if err != nil {
		return err
	}
	defer l.Close()

	venue := paper.NewGateway(cfg.Exchange.Paper, cfg.Execution.QuoteAsset, log.Named("paper"))

	source, err := openSource(cmd.String("signals"), log)
	if err != nil {
		return err
	}
	defer source.Close()

	cfg.Execution.MaxConcurrentCycles = 1
	cfg.Execution.ExitCheckInterval = 0

	coord := coordinator.New(l, venue, cfg,
		coordinator.WithLogger(log),
		coordinator.WithClock(clock.Now),
	)

	total := int64(-1)
	if counter, ok := source.(signals.Counter); ok {
		total = int64(counter.Count())
	}

	bar := progressbar.Default(total, "replaying")

	var opened, rejected, failed int

	err = coord.RunWithCallback(ctx, clock.Wrap(coordinator.NewPricedSource(source, venue)), func(outcome coordinator.Outcome, err error) {
		switch {
		case err != nil:
			failed++
		case outcome.Opened():
			opened++
		default:
			rejected++
		}

		// Reference prices just moved, so stops and targets may have triggered.
		if _, exitErr := coord.CheckExits(ctx); exitErr != nil {
			log.Warn("Exit check failed", zap.Error(exitErr))
		}

		_ = bar.Add(1)
	})
	_ = bar.Finish()

	if err != nil {
		return err
	}

	closed, err := l.ClosedPositions(ctx, 0)
	if err != nil {
		return err
	}

	var pnl float64
	for _, pos := range closed {
		pnl += pos.RealizedPnl.TakeOr(0)
	}

	return printYAML(replayReport{
		Opened:      opened,
		Rejected:    rejected,
		Failed:      failed,
		Closed:      len(closed),
		RealizedPnl: pnl,
	})
}

type replayReport struct {
	Opened      int     `yaml:"opened"`
	Rejected    int     `yaml:"rejected"`
	Failed      int     `yaml:"failed"`
	Closed      int     `yaml:"closed"`
	RealizedPnl float64 `yaml:"realized_pnl"`
}

// generateAction writes synthetic signals for replays and load tests.
func generateAction(_ context.Context, cmd *cli.Command) error {
	genConfig := signals.DefaultGeneratorConfig()
	genConfig.Count = int(cmd.Int("count"))
	genConfig.InitialPrice = cmd.Float("price")
	genConfig.Volatility = cmd.Float("volatility")

	generated, err := signals.NewGenerator(int64(cmd.Int("seed"))).GenerateMultiSymbol(cmd.StringSlice("symbols"), genConfig)
	if err != nil {
		return err
	}

	output := cmd.String("output")

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer file.Close()

	if err := signals.WriteJSONLines(file, generated); err != nil {
		return err
	}

	log.Printf("Wrote %d signals to %s", len(generated), output)

	return nil
}

func reconcileAction(ctx context.Context, cmd *cli.Command) error {
	coord, l, err := offlineCoordinator(cmd)
	if err != nil {
		return err
	}
	defer l.Close()

	report, err := coord.Executor().Reconcile(ctx)
	if printErr := printYAML(report); printErr != nil {
		return printErr
	}

	return err
}

func positionsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	l, err := openLedger(cfg.Ledger, log)
	if err != nil {
		return err
	}
	defer l.Close()

	if cmd.Bool("closed") {
		closed, err := l.ClosedPositions(ctx, uint64(cmd.Int("limit")))
		if err != nil {
			return err
		}

		return printYAML(closed)
	}

	open, err := l.OpenPositions(ctx)
	if err != nil {
		return err
	}

	return printYAML(open)
}

func summaryAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	l, err := openLedger(cfg.Ledger, log)
	if err != nil {
		return err
	}
	defer l.Close()

	day := cmd.Timestamp("day")
	if day.IsZero() {
		day = time.Now()
	}

	summary, err := l.DailySummary(ctx, day)
	if err != nil {
		return err
	}

	return printYAML(struct {
		Summary any     `yaml:"summary"`
		WinRate float64 `yaml:"win_rate"`
	}{summary, summary.WinRate()})
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	l, err := openLedger(cfg.Ledger, log)
	if err != nil {
		return err
	}
	defer l.Close()

	files, err := l.Export(ctx, cmd.String("dir"))
	if err != nil {
		return err
	}

	for _, f := range files {
		fmt.Println(f)
	}

	return nil
}

// schemaAction writes the configuration schema and, if absent, a sample configuration
// pointing editors at it.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")

	schemaJSON, err := config.Schema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	schemaName := "riskgate-config.json"
	schemaPath := filepath.Join(dir, schemaName)
	samplePath := filepath.Join(dir, "riskgate.yaml")

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0o644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	log.Printf("Schema generated at %s", schemaPath)

	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample := config.Default()
		sample.Risk.ReferenceEquity = sample.Exchange.Paper.InitialBalance

		yamlBytes, err := yaml.Marshal(sample)
		if err != nil {
			return fmt.Errorf("failed to marshal sample config: %w", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

		if err := os.WriteFile(samplePath, yamlBytes, 0o644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}

		log.Printf("Sample config generated at %s", samplePath)
	}

	return nil
}

// offlineCoordinator wires a coordinator for one-shot maintenance commands.
func offlineCoordinator(cmd *cli.Command) (*coordinator.Coordinator, *ledger.SQLLedger, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	l, err := openLedger(cfg.Ledger, log)
	if err != nil {
		return nil, nil, err
	}

	gateway, err := newGateway(cfg, log)
	if err != nil {
		l.Close()

		return nil, nil, err
	}

	return coordinator.New(l, gateway, cfg, coordinator.WithLogger(log)), l, nil
}

func printYAML(v any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)

	if err := encoder.Encode(v); err != nil {
		return err
	}

	return encoder.Close()
}

// replayClock reports the time of the last signal read, or the wall clock before the first one.
type replayClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now.IsZero() {
		return time.Now().UTC()
	}

	return c.now
}

func (c *replayClock) advance(t time.Time) {
	if t.IsZero() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.After(c.now) {
		c.now = t
	}
}

// Wrap advances the clock as signals are read from source.
func (c *replayClock) Wrap(source signals.Source) signals.Source {
	return &clockedSource{Source: source, clock: c}
}

type clockedSource struct {
	signals.Source
	clock *replayClock
}

func (s *clockedSource) Next(ctx context.Context) (types.Signal, error) {
	sig, err := s.Source.Next(ctx)
	if err == nil {
		s.clock.advance(sig.Time)
	}

	return sig, err
}
