// Package exchange defines the capability interface every trading venue adapter implements.
//
// The core never branches on venue identity: it talks to a Gateway, and every
// failure a Gateway reports is an *errors.GatewayError.
package exchange

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// Gateway is a trading venue.
type Gateway interface {
	// Ticker returns the top of book and last trade price for symbol.
	Ticker(ctx context.Context, symbol string) (types.Ticker, error)
	// Balance returns the free balance of asset.
	Balance(ctx context.Context, asset string) (float64, error)
	// PlaceOrder submits an order. Submitting the same ClientOrderID twice must not create a second order.
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
	// CancelOrder cancels a resting order and reports whether it was cancelled.
	CancelOrder(ctx context.Context, orderID, symbol string) (bool, error)
	// OrderStatus looks an order up by its client order id. It returns an
	// ORDER_NOT_FOUND gateway error when the venue never saw the order.
	OrderStatus(ctx context.Context, symbol, clientOrderID string) (types.OrderResult, error)
}

// Classify turns err into a *errors.GatewayError. Gateway errors pass through,
// context deadlines become NETWORK_TIMEOUT and anything else is REJECTED.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}

	if _, ok := errors.AsGatewayError(err); ok {
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return errors.NewGatewayError(errors.GatewayNetworkTimeout, message, err)
	}

	return errors.NewGatewayError(errors.GatewayRejected, message, err)
}

// Retryable reports whether err is a transient gateway failure.
func Retryable(err error) bool {
	gwErr, ok := errors.AsGatewayError(err)

	return ok && gwErr.Retryable()
}

// Critical reports whether err is a gateway failure that needs operator attention.
func Critical(err error) bool {
	gwErr, ok := errors.AsGatewayError(err)

	return ok && gwErr.Critical()
}

type timeout interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	var t timeout
	if stderrors.As(err, &t) && t.Timeout() {
		return true
	}

	return strings.Contains(err.Error(), "i/o timeout")
}

// BaseAsset strips quote from the end of symbol, so BTCUSDT with quote USDT is BTC.
func BaseAsset(symbol, quote string) string {
	if quote != "" && strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
		return strings.TrimSuffix(symbol, quote)
	}

	return symbol
}
