package executor

import (
	"context"
	stderrors "errors"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CloseFailure is a position CloseAll could not close.
type CloseFailure struct {
	PositionID string
	Symbol     string
	Err        error
}

// CloseAllResult collects the outcome of every close attempted by CloseAll.
type CloseAllResult struct {
	Closed   []types.ClosedPosition
	Failures []CloseFailure
}

// Err joins the failures, or returns nil when every close succeeded.
func (r CloseAllResult) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}

	return stderrors.Join(errs...)
}

// RealizedPnl is (exit − entry) × quantity for BUY positions and (entry − exit) × quantity for SELL.
func RealizedPnl(side types.Side, entryPrice, exitPrice, quantity float64) float64 {
	diff := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entryPrice))
	if side == types.SideSell {
		diff = diff.Neg()
	}

	return diff.Mul(decimal.NewFromFloat(quantity)).InexactFloat64()
}

// Close exits a position with an opposite-side market order for its full quantity.
// Closing an already CLOSED position returns the stored result without calling the gateway.
func (e *Executor) Close(ctx context.Context, positionID, reason string) (types.ClosedPosition, error) {
	pos, err := e.ledger.GetPosition(ctx, positionID)
	if err != nil {
		return types.ClosedPosition{}, err
	}

	unlock, err := e.locks.LockContext(ctx, pos.Symbol)
	if err != nil {
		return types.ClosedPosition{}, errors.Wrap(errors.ErrCodeCloseFailed, "interrupted waiting for symbol lock", err)
	}
	defer unlock()

	return e.closeLocked(ctx, positionID, reason)
}

func (e *Executor) closeLocked(ctx context.Context, positionID, reason string) (types.ClosedPosition, error) {
	// Re-read under the lock: a concurrent close may have finished.
	pos, err := e.ledger.GetPosition(ctx, positionID)
	if err != nil {
		return types.ClosedPosition{}, err
	}

	switch pos.Status {
	case types.PositionStatusClosed:
		return types.ClosedFromPosition(pos)
	case types.PositionStatusOpen:
	default:
		return types.ClosedPosition{}, errors.Newf(errors.ErrCodeInvalidTransition,
			"position %s is %s; reconcile before closing", positionID, pos.Status)
	}

	if err := e.ledger.MarkClosing(ctx, positionID); err != nil {
		return types.ClosedPosition{}, err
	}

	req := types.OrderRequest{
		ClientOrderID: e.newID(),
		Symbol:        pos.Symbol,
		Side:          pos.Side.Opposite(),
		Type:          types.OrderTypeMarket,
		Quantity:      pos.Quantity,
		Price:         optional.None[float64](),
	}

	result, attempts, err := e.place(ctx, req)
	if err != nil {
		e.metrics.Order(string(req.Side), false)

		return types.ClosedPosition{}, e.closeFailed(ctx, pos, attempts, err)
	}

	e.metrics.Order(string(req.Side), true)

	if result.FilledQty < pos.Quantity {
		e.logger.Warn("Exit order partially filled",
			zap.String("position_id", pos.ID),
			zap.Float64("quantity", pos.Quantity),
			zap.Float64("filled_qty", result.FilledQty),
		)
	}

	// The exit has executed; finish the bookkeeping even if the caller gives up.
	writeCtx := context.WithoutCancel(ctx)
	closedAt := e.clock().UTC()
	pnl := RealizedPnl(pos.Side, pos.EntryPrice, result.AvgPrice, result.FilledQty)

	trade := types.TradeRecord{
		PositionID: optional.Some(pos.ID),
		Kind:       types.TradeKindClose,
		OrderID:    result.OrderID,
		Symbol:     pos.Symbol,
		Side:       req.Side,
		Price:      result.AvgPrice,
		Quantity:   result.FilledQty,
		Commission: result.Commission,
		Pnl:        pnl,
		StrategyID: pos.StrategyID,
		Reason:     reason,
		Timestamp:  closedAt,
	}

	if _, err := e.ledger.RecordTrade(writeCtx, trade); err != nil {
		return types.ClosedPosition{}, e.reconciliationRequired(pos.Symbol, pos.ID,
			errors.Wrapf(errors.ErrCodeUnconfirmedFill, err, "exit order %s filled but its trade was not recorded", result.OrderID))
	}

	if err := e.ledger.MarkClosed(writeCtx, pos.ID, result.AvgPrice, pnl, closedAt); err != nil {
		return types.ClosedPosition{}, e.reconciliationRequired(pos.Symbol, pos.ID,
			errors.Wrapf(errors.ErrCodeUnresolvedClosingState, err, "exit trade recorded but position %s was not marked closed", pos.ID))
	}

	e.metrics.PositionClosed(reason, pnl)
	e.logger.Info("Position closed",
		zap.String("position_id", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.String("reason", reason),
		zap.Float64("exit_price", result.AvgPrice),
		zap.Float64("realized_pnl", pnl),
		zap.Int("attempts", attempts),
	)

	e.notifier.Notify(types.NewEvent(types.EventPositionClosed, types.SeverityInfo, pos.Symbol, "position closed").
		WithPosition(pos.ID).
		WithField("reason", reason).
		WithField("exit_price", result.AvgPrice).
		WithField("realized_pnl", pnl))

	return types.ClosedPosition{
		PositionID:  pos.ID,
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   result.AvgPrice,
		Quantity:    pos.Quantity,
		RealizedPnl: pnl,
		OpenedAt:    pos.OpenedAt,
		ClosedAt:    closedAt,
	}, nil
}

// closeFailed reverts the position to OPEN so the exit can be issued again.
func (e *Executor) closeFailed(ctx context.Context, pos types.Position, attempts int, err error) error {
	if errors.IsReconciliation(err) {
		return e.reconciliationRequired(pos.Symbol, pos.ID, err)
	}

	if revertErr := e.ledger.MarkOpen(context.WithoutCancel(ctx), pos.ID); revertErr != nil {
		e.logger.Error("Failed to revert position after exit failure",
			zap.String("position_id", pos.ID),
			zap.Error(revertErr),
		)
	}

	execErr := errors.NewExecutionError(pos.Symbol, attempts, err)

	e.logger.Warn("Exit order failed",
		zap.String("position_id", pos.ID),
		zap.String("kind", string(execErr.Kind)),
		zap.Error(err),
	)

	e.notifyGatewayFailure(pos.Symbol, pos.ID, execErr)

	return execErr
}

// CloseAll closes every position holding exposure. A failing close is collected and
// does not stop the others; only a failure to list positions is returned as an error.
func (e *Executor) CloseAll(ctx context.Context, reason string) (CloseAllResult, error) {
	positions, err := e.ledger.OpenPositions(ctx)
	if err != nil {
		return CloseAllResult{}, err
	}

	result := CloseAllResult{
		Closed:   make([]types.ClosedPosition, 0, len(positions)),
		Failures: nil,
	}

	for _, pos := range positions {
		closed, err := e.Close(ctx, pos.ID, reason)
		if err != nil {
			result.Failures = append(result.Failures, CloseFailure{PositionID: pos.ID, Symbol: pos.Symbol, Err: err})

			continue
		}

		result.Closed = append(result.Closed, closed)
	}

	e.logger.Info("Close all finished",
		zap.String("reason", reason),
		zap.Int("closed", len(result.Closed)),
		zap.Int("failed", len(result.Failures)),
	)

	return result, nil
}

// CheckExits closes OPEN positions whose last price crossed the stop-loss or take-profit.
func (e *Executor) CheckExits(ctx context.Context) (CloseAllResult, error) {
	positions, err := e.ledger.OpenPositions(ctx)
	if err != nil {
		return CloseAllResult{}, err
	}

	result := CloseAllResult{}
	tickers := make(map[string]types.Ticker)

	for _, pos := range positions {
		if pos.Status != types.PositionStatusOpen {
			continue
		}

		ticker, ok := tickers[pos.Symbol]
		if !ok {
			ticker, err = e.ticker(ctx, pos.Symbol)
			if err != nil {
				result.Failures = append(result.Failures, CloseFailure{PositionID: pos.ID, Symbol: pos.Symbol, Err: err})

				continue
			}

			tickers[pos.Symbol] = ticker
		}

		reason, eventType := exitTrigger(pos, ticker.Last)
		if reason == "" {
			continue
		}

		e.notifier.Notify(types.NewEvent(eventType, types.SeverityWarning, pos.Symbol, reason+" triggered").
			WithPosition(pos.ID).
			WithField("last", ticker.Last))

		closed, err := e.Close(ctx, pos.ID, reason)
		if err != nil {
			result.Failures = append(result.Failures, CloseFailure{PositionID: pos.ID, Symbol: pos.Symbol, Err: err})

			continue
		}

		result.Closed = append(result.Closed, closed)
	}

	return result, nil
}

func (e *Executor) ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	return e.gateway.Ticker(callCtx, symbol)
}

// exitTrigger reports which protective level last has crossed, if any. A zero level is unset.
func exitTrigger(pos types.Position, last float64) (string, types.EventType) {
	if last <= 0 {
		return "", ""
	}

	var hitStop, hitTarget bool

	if pos.Side == types.SideBuy {
		hitStop = pos.StopLoss > 0 && last <= pos.StopLoss
		hitTarget = pos.TakeProfit > 0 && last >= pos.TakeProfit
	} else {
		hitStop = pos.StopLoss > 0 && last >= pos.StopLoss
		hitTarget = pos.TakeProfit > 0 && last <= pos.TakeProfit
	}

	switch {
	case hitStop:
		return types.TradeReasonStopLoss, types.EventStopLossTriggered
	case hitTarget:
		return types.TradeReasonTakeProfit, types.EventTakeProfitTriggered
	default:
		return "", ""
	}
}
