package executor

import (
	"context"
	stderrors "errors"

	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

// reconciledStrategyID is used for positions rebuilt from a trade without a strategy id.
const reconciledStrategyID = "reconciled"

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	OrphansCompleted []string `json:"orphans_completed" yaml:"orphans_completed"`
	ClosingCompleted []string `json:"closing_completed" yaml:"closing_completed"`
	ClosingReverted  []string `json:"closing_reverted" yaml:"closing_reverted"`
	Failures         []string `json:"failures" yaml:"failures"`
}

// Changed reports whether the pass repaired anything.
func (r ReconcileReport) Changed() bool {
	return len(r.OrphansCompleted)+len(r.ClosingCompleted)+len(r.ClosingReverted) > 0
}

// Reconcile repairs the ledger after a crash or a failed write:
// OPEN trades without a position get their position, and positions left in
// CLOSING are completed from their CLOSE trade or reverted to OPEN.
func (e *Executor) Reconcile(ctx context.Context) (ReconcileReport, error) {
	report := ReconcileReport{}

	var errs []error

	fail := func(id string, err error) {
		report.Failures = append(report.Failures, id)
		errs = append(errs, err)
	}

	orphans, err := e.ledger.OrphanTrades(ctx)
	if err != nil {
		return report, err
	}

	for _, trade := range orphans {
		positionID := trade.PositionID.Unwrap()
		if err := e.completeOrphan(ctx, trade); err != nil {
			fail(positionID, err)

			continue
		}

		report.OrphansCompleted = append(report.OrphansCompleted, positionID)
		e.metrics.Reconciliation(metrics.ReconcileOrphanCompleted)
	}

	closing, err := e.ledger.ClosingPositions(ctx)
	if err != nil {
		return report, err
	}

	for _, pos := range closing {
		completed, err := e.resolveClosing(ctx, pos)
		if err != nil {
			fail(pos.ID, err)

			continue
		}

		if completed {
			report.ClosingCompleted = append(report.ClosingCompleted, pos.ID)
			e.metrics.Reconciliation(metrics.ReconcileClosingCompleted)
		} else {
			report.ClosingReverted = append(report.ClosingReverted, pos.ID)
			e.metrics.Reconciliation(metrics.ReconcileClosingReverted)
		}
	}

	e.logger.Info("Reconciliation finished",
		zap.Int("orphans_completed", len(report.OrphansCompleted)),
		zap.Int("closing_completed", len(report.ClosingCompleted)),
		zap.Int("closing_reverted", len(report.ClosingReverted)),
		zap.Int("failures", len(report.Failures)),
	)

	if report.Changed() {
		e.notifier.Notify(types.NewEvent(types.EventReconciled, types.SeverityWarning, "", "ledger reconciled").
			WithField("orphans_completed", len(report.OrphansCompleted)).
			WithField("closing_completed", len(report.ClosingCompleted)).
			WithField("closing_reverted", len(report.ClosingReverted)))
	}

	if len(errs) > 0 {
		err := errors.Wrap(errors.ErrCodeReconciliation, "reconciliation left unresolved records", stderrors.Join(errs...))
		e.notifier.Notify(types.NewEvent(types.EventReconciliationRequired, types.SeverityCritical, "", err.Error()).
			WithField("failures", report.Failures))

		return report, err
	}

	return report, nil
}

func (e *Executor) completeOrphan(ctx context.Context, trade types.TradeRecord) error {
	strategyID := trade.StrategyID
	if strategyID == "" {
		strategyID = reconciledStrategyID
	}

	spec := types.PositionSpec{
		ID:         trade.PositionID.Unwrap(),
		Symbol:     trade.Symbol,
		Side:       trade.Side,
		EntryPrice: trade.Price,
		Quantity:   trade.Quantity,
		StopLoss:   0,
		TakeProfit: 0,
		StrategyID: strategyID,
		OpenedAt:   trade.Timestamp,
	}

	if e.levels != nil {
		spec.StopLoss = e.levels.StopLoss(trade.Price, trade.Side)
		spec.TakeProfit = e.levels.TakeProfit(trade.Price, trade.Side)
	}

	if _, err := e.ledger.CreatePosition(ctx, spec); err != nil {
		return errors.Wrapf(errors.ErrCodeOrphanTrade, err, "failed to create position for trade %s", trade.ID)
	}

	e.logger.Info("Orphan trade completed",
		zap.String("trade_id", trade.ID),
		zap.String("position_id", spec.ID),
		zap.String("symbol", spec.Symbol),
	)

	return nil
}

// resolveClosing reports true when the position was completed from its CLOSE trade.
func (e *Executor) resolveClosing(ctx context.Context, pos types.Position) (bool, error) {
	closeTrade, err := e.ledger.CloseTradeFor(ctx, pos.ID)
	if err != nil {
		return false, errors.Wrapf(errors.ErrCodeUnresolvedClosingState, err, "failed to look up exit of position %s", pos.ID)
	}

	if trade, takeErr := closeTrade.Take(); takeErr == nil {
		if err := e.ledger.MarkClosed(ctx, pos.ID, trade.Price, trade.Pnl, trade.Timestamp); err != nil {
			return false, errors.Wrapf(errors.ErrCodeUnresolvedClosingState, err, "failed to close position %s", pos.ID)
		}

		e.logger.Info("Closing position completed from exit trade", zap.String("position_id", pos.ID))

		return true, nil
	}

	if err := e.ledger.MarkOpen(ctx, pos.ID); err != nil {
		return false, errors.Wrapf(errors.ErrCodeUnresolvedClosingState, err, "failed to reopen position %s", pos.ID)
	}

	e.logger.Warn("Closing position reverted to open", zap.String("position_id", pos.ID))

	return false, nil
}
