package executor

import (
	"context"

	"github.com/rxtech-lab/argo-riskgate/internal/exchange"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

// place sends req under the retry policy. Every attempt reuses the client order id.
// When any attempt timed out the order may still have executed, whatever the later
// attempts reported, so the venue is asked before the submission is declared failed.
func (e *Executor) place(ctx context.Context, req types.OrderRequest) (types.OrderResult, int, error) {
	var (
		result   types.OrderResult
		timedOut bool
	)

	attempts, err := e.policy.Do(ctx, func(ctx context.Context, _ int) error {
		callCtx, cancel := e.callContext(ctx)
		defer cancel()

		r, err := e.gateway.PlaceOrder(callCtx, req)
		if err != nil {
			err = exchange.Classify(err, "place order failed")
			if errors.IsGatewayKind(err, errors.GatewayNetworkTimeout) {
				timedOut = true
			}

			return err
		}

		result = r

		return nil
	})

	if err != nil {
		if !timedOut {
			return types.OrderResult{}, attempts, err
		}

		confirmed, confirmErr := e.confirm(ctx, req, err)
		if confirmErr != nil {
			return types.OrderResult{}, attempts, confirmErr
		}

		result = confirmed
	}

	if !result.Filled() {
		return types.OrderResult{}, attempts, e.unfilled(ctx, req, result)
	}

	return result, attempts, nil
}

// confirm resolves a timed-out submission by its client order id.
// A venue that never saw the order leaves cause as the failure.
func (e *Executor) confirm(ctx context.Context, req types.OrderRequest, cause error) (types.OrderResult, error) {
	callCtx, cancel := e.callContext(context.WithoutCancel(ctx))
	defer cancel()

	status, err := e.gateway.OrderStatus(callCtx, req.Symbol, req.ClientOrderID)
	if err != nil {
		if errors.IsGatewayKind(err, errors.GatewayOrderNotFound) {
			return types.OrderResult{}, cause
		}

		return types.OrderResult{}, errors.Wrapf(errors.ErrCodeUnconfirmedFill, err,
			"order %s timed out and its status could not be confirmed", req.ClientOrderID)
	}

	e.logger.Info("Timed-out order resolved by status query",
		zap.String("client_order_id", req.ClientOrderID),
		zap.String("status", string(status.Status)),
		zap.Float64("filled_qty", status.FilledQty),
	)

	if !status.Filled() {
		_ = e.unfilled(ctx, req, status)

		return types.OrderResult{}, cause
	}

	return status, nil
}

// unfilled cancels a resting order and reports the submission as rejected.
func (e *Executor) unfilled(ctx context.Context, req types.OrderRequest, result types.OrderResult) error {
	if result.Status == types.OrderStatusNew || result.Status == types.OrderStatusPartiallyFilled {
		callCtx, cancel := e.callContext(context.WithoutCancel(ctx))
		defer cancel()

		if _, err := e.gateway.CancelOrder(callCtx, result.OrderID, req.Symbol); err != nil {
			e.logger.Warn("Failed to cancel unfilled order",
				zap.String("order_id", result.OrderID),
				zap.String("symbol", req.Symbol),
				zap.Error(err),
			)
		}
	}

	return errors.NewGatewayError(errors.GatewayRejected, "order "+req.ClientOrderID+" not filled: "+string(result.Status), nil)
}

func (e *Executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, e.callTimeout)
}
