// Package paper is an in-memory exchange.Gateway that fills orders against
// prices set by the caller. It backs the paper provider, signal replay and tests.
package paper

import (
	"context"
	"strconv"
	"sync"

	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fault struct {
	err       error
	afterFill bool
}

type restingOrder struct {
	req    types.OrderRequest
	result types.OrderResult
}

// Gateway simulates a spot venue with a single quote asset.
// SELL orders may take the base balance negative so short positions can be opened.
type Gateway struct {
	mu         sync.Mutex
	quoteAsset string
	commission CommissionFee
	logger     *logger.Logger

	balances map[string]float64
	tickers  map[string]types.Ticker
	orders   map[string]types.OrderResult
	resting  map[string]restingOrder
	faults   []fault
	seq      int64
	placed   int
}

// NewGateway creates a paper gateway funded with cfg.InitialBalance of quoteAsset.
func NewGateway(cfg config.PaperConfig, quoteAsset string, log *logger.Logger) *Gateway {
	return &Gateway{
		quoteAsset: quoteAsset,
		commission: NewCommissionFee(cfg.CommissionRate),
		logger:     log.Named("paper"),
		balances:   map[string]float64{quoteAsset: cfg.InitialBalance},
		tickers:    make(map[string]types.Ticker),
		orders:     make(map[string]types.OrderResult),
		resting:    make(map[string]restingOrder),
	}
}

// SetTicker replaces the book of ticker.Symbol.
func (g *Gateway) SetTicker(ticker types.Ticker) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tickers[ticker.Symbol] = ticker
}

// SetPrice sets bid, ask and last of symbol to price.
func (g *Gateway) SetPrice(symbol string, price float64) {
	g.SetTicker(types.Ticker{Symbol: symbol, Bid: price, Ask: price, Last: price})
}

// SetBalance overrides the free balance of asset.
func (g *Gateway) SetBalance(asset string, amount float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.balances[asset] = amount
}

// FailNext makes the next PlaceOrder calls return errs in order without filling.
func (g *Gateway) FailNext(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, err := range errs {
		g.faults = append(g.faults, fault{err: err})
	}
}

// FailNextAfterFill makes the next PlaceOrder fill the order and still return err,
// as a venue does when the response is lost after execution.
func (g *Gateway) FailNextAfterFill(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.faults = append(g.faults, fault{err: err, afterFill: true})
}

// PlacedOrders returns how many PlaceOrder calls reached the matching step.
func (g *Gateway) PlacedOrders() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.placed
}

func (g *Gateway) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	if err := ctx.Err(); err != nil {
		return types.Ticker{}, exchange.Classify(err, "ticker cancelled")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ticker, ok := g.tickers[symbol]
	if !ok {
		return types.Ticker{}, errors.NewGatewayError(errors.GatewayUnsupported, "no price for "+symbol, nil)
	}

	return ticker, nil
}

func (g *Gateway) Balance(ctx context.Context, asset string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, exchange.Classify(err, "balance cancelled")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.balances[asset], nil
}

// PlaceOrder fills MARKET orders at the book and LIMIT orders when the limit crosses it.
// A client order id seen before returns the original result.
func (g *Gateway) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderResult{}, exchange.Classify(err, "order cancelled")
	}

	if err := req.Validate(); err != nil {
		return types.OrderResult{}, errors.NewGatewayError(errors.GatewayRejected, "invalid order request", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	f, hasFault := g.popFault()
	if hasFault && !f.afterFill {
		return types.OrderResult{}, f.err
	}

	if existing, ok := g.orders[req.ClientOrderID]; ok {
		return existing, nil
	}

	result, err := g.match(req)
	if err != nil {
		return types.OrderResult{}, err
	}

	g.placed++

	if hasFault {
		return types.OrderResult{}, f.err
	}

	return result, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, orderID, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, exchange.Classify(err, "cancel cancelled")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.resting[orderID]
	if !ok {
		for _, result := range g.orders {
			if result.OrderID == orderID {
				return false, nil
			}
		}

		return false, errors.NewGatewayError(errors.GatewayOrderNotFound, "unknown order "+orderID, nil)
	}

	delete(g.resting, orderID)

	order.result.Status = types.OrderStatusCanceled
	g.orders[order.req.ClientOrderID] = order.result

	return true, nil
}

func (g *Gateway) OrderStatus(ctx context.Context, _ string, clientOrderID string) (types.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderResult{}, exchange.Classify(err, "order status cancelled")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	result, ok := g.orders[clientOrderID]
	if !ok {
		return types.OrderResult{}, errors.NewGatewayError(errors.GatewayOrderNotFound, "unknown client order id "+clientOrderID, nil)
	}

	return result, nil
}

func (g *Gateway) popFault() (fault, bool) {
	if len(g.faults) == 0 {
		return fault{}, false
	}

	f := g.faults[0]
	g.faults = g.faults[1:]

	return f, true
}

func (g *Gateway) match(req types.OrderRequest) (types.OrderResult, error) {
	ticker, ok := g.tickers[req.Symbol]
	if !ok {
		return types.OrderResult{}, errors.NewGatewayError(errors.GatewayUnsupported, "no price for "+req.Symbol, nil)
	}

	g.seq++
	result := types.OrderResult{
		OrderID:       strconv.FormatInt(g.seq, 10),
		ClientOrderID: req.ClientOrderID,
		Status:        types.OrderStatusNew,
	}

	price := ticker.EntryPrice(req.Side, 0)
	if price <= 0 {
		return types.OrderResult{}, errors.NewGatewayError(errors.GatewayRejected, "no liquidity for "+req.Symbol, nil)
	}

	if req.Type == types.OrderTypeLimit && !crosses(req, price) {
		g.orders[req.ClientOrderID] = result
		g.resting[result.OrderID] = restingOrder{req: req, result: result}

		return result, nil
	}

	if err := g.settle(req, price, &result); err != nil {
		return types.OrderResult{}, err
	}

	g.orders[req.ClientOrderID] = result

	g.logger.Debug("Paper order filled",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Float64("quantity", req.Quantity),
		zap.Float64("price", price),
	)

	return result, nil
}

func crosses(req types.OrderRequest, market float64) bool {
	limit := req.Price.Unwrap()
	if req.Side == types.SideBuy {
		return limit >= market
	}

	return limit <= market
}

func (g *Gateway) settle(req types.OrderRequest, price float64, result *types.OrderResult) error {
	notional := decimal.NewFromFloat(req.Quantity).Mul(decimal.NewFromFloat(price))
	fee := decimal.NewFromFloat(g.commission.Calculate(notional.InexactFloat64()))
	quote := decimal.NewFromFloat(g.balances[g.quoteAsset])
	base := exchange.BaseAsset(req.Symbol, g.quoteAsset)

	if req.Side == types.SideBuy {
		cost := notional.Add(fee)
		if cost.GreaterThan(quote) {
			return errors.NewGatewayError(errors.GatewayInsufficientFunds,
				"insufficient "+g.quoteAsset+" balance for "+req.Symbol, nil)
		}

		g.balances[g.quoteAsset] = quote.Sub(cost).InexactFloat64()
		g.balances[base] += req.Quantity
	} else {
		g.balances[g.quoteAsset] = quote.Add(notional).Sub(fee).InexactFloat64()
		g.balances[base] -= req.Quantity
	}

	result.Status = types.OrderStatusFilled
	result.FilledQty = req.Quantity
	result.AvgPrice = price
	result.Commission = fee.InexactFloat64()

	return nil
}

var _ exchange.Gateway = (*Gateway)(nil)
