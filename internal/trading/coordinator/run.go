package coordinator

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-riskgate/internal/signal"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run reconciles the ledger, then handles every signal from source until the
// stream ends or ctx is done. At most execution.max_concurrent_cycles signals
// are in flight; cycles on one symbol still run one at a time.
// A failed cycle is logged and never stops the loop.
func (c *Coordinator) Run(ctx context.Context, source signal.Source) error {
	return c.RunWithCallback(ctx, source, nil)
}

// RunWithCallback is Run with a callback invoked after every handled signal.
// The callback may be called concurrently.
func (c *Coordinator) RunWithCallback(ctx context.Context, source signal.Source, onOutcome func(Outcome, error)) error {
	if _, err := c.Reconcile(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var monitor sync.WaitGroup

	if c.execution.ExitCheckInterval > 0 {
		monitor.Add(1)

		go func() {
			defer monitor.Done()
			c.monitorExits(ctx, c.execution.ExitCheckInterval)
		}()
	}

	limit := c.execution.MaxConcurrentCycles
	if limit <= 0 {
		limit = 1
	}

	var cycles errgroup.Group
	cycles.SetLimit(limit)

	var runErr error

	for {
		s, err := source.Next(ctx)
		if stderrors.Is(err, signal.ErrEndOfStream) {
			break
		}

		if ctx.Err() != nil {
			runErr = ctx.Err()

			break
		}

		if err != nil {
			c.logger.Warn("Skipping unreadable signal", zap.Error(err))

			continue
		}

		cycles.Go(func() error {
			outcome, err := c.Handle(ctx, s)
			if err != nil {
				c.logger.Error("Cycle failed",
					zap.String("symbol", s.Symbol),
					zap.String("strategy_id", s.StrategyID),
					zap.Error(err),
				)
			}

			if onOutcome != nil {
				onOutcome(outcome, err)
			}

			return nil
		})
	}

	_ = cycles.Wait()

	cancel()
	monitor.Wait()

	return runErr
}

func (c *Coordinator) monitorExits(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.CheckExits(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("Exit check failed", zap.Error(err))
			}
		}
	}
}

// PriceSetter is a simulated venue whose prices are driven by the caller.
type PriceSetter interface {
	SetPrice(symbol string, price float64)
}

// PricedSource sets the venue price to each signal's reference price as the signal is read.
// Replays should run with one concurrent cycle so a price is not overwritten before its signal is handled.
type PricedSource struct {
	signal.Source
	venue PriceSetter
}

func NewPricedSource(source signal.Source, venue PriceSetter) *PricedSource {
	return &PricedSource{Source: source, venue: venue}
}

func (p *PricedSource) Next(ctx context.Context) (types.Signal, error) {
	s, err := p.Source.Next(ctx)
	if err != nil {
		return s, err
	}

	p.venue.SetPrice(s.Symbol, s.ReferencePrice)

	return s, nil
}
