// Package binance adapts the Binance spot API to exchange.Gateway.
package binance

import (
	"context"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DecimalPrecision is the number of decimals Binance accepts for quantities.
const DecimalPrecision = 8

// Binance API error codes the gateway classifies.
const (
	codeDisconnected        = -1001
	codeUnauthorized        = -1002
	codeTooManyRequests     = -1003
	codeTimeout             = -1007
	codeTooManyOrders       = -1015
	codeInvalidSignature    = -1022
	codeBadSymbol           = -1121
	codeNewOrderRejected    = -2010
	codeCancelRejected      = -2011
	codeNoSuchOrder         = -2013
	codeBadAPIKeyFormat     = -2014
	codeRejectedMBXKey      = -2015
	insufficientBalanceText = "insufficient balance"
)

// Gateway places orders on Binance spot. It keeps no state of its own.
type Gateway struct {
	client     Client
	precision  int32
	quoteAsset string
	logger     *logger.Logger
}

// NewGateway connects to Binance. The binance-paper provider uses the spot testnet.
// A configured BaseURL takes precedence over the testnet switch.
func NewGateway(cfg config.ExchangeConfig, quoteAsset string, log *logger.Logger) (*Gateway, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "binance gateway requires api_key and secret_key")
	}

	if cfg.Provider == config.ProviderBinancePaper {
		gobinance.UseTestnet = true
	}

	client := gobinance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return newGatewayWithClient(&realClient{client: client}, quoteAsset, log), nil
}

func newGatewayWithClient(client Client, quoteAsset string, log *logger.Logger) *Gateway {
	return &Gateway{
		client:     client,
		precision:  DecimalPrecision,
		quoteAsset: quoteAsset,
		logger:     log.Named("binance"),
	}
}

// Ticker returns the book ticker and last price of symbol.
func (g *Gateway) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	books, err := g.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Ticker{}, classify(err, "failed to get book ticker")
	}

	if len(books) == 0 {
		return types.Ticker{}, errors.NewGatewayError(errors.GatewayUnsupported, "no book ticker for "+symbol, nil)
	}

	prices, err := g.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Ticker{}, classify(err, "failed to get last price")
	}

	ticker := types.Ticker{
		Symbol: symbol,
		Bid:    parseFloat(books[0].BidPrice),
		Ask:    parseFloat(books[0].AskPrice),
		Last:   0,
	}

	for _, p := range prices {
		if p.Symbol == symbol {
			ticker.Last = parseFloat(p.Price)
		}
	}

	return ticker, nil
}

// Balance returns the free balance of asset. An asset the account never held has balance zero.
func (g *Gateway) Balance(ctx context.Context, asset string) (float64, error) {
	account, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, classify(err, "failed to get account")
	}

	for _, balance := range account.Balances {
		if balance.Asset == asset {
			return parseFloat(balance.Free), nil
		}
	}

	return 0, nil
}

// PlaceOrder submits req with its client order id, which Binance deduplicates.
func (g *Gateway) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return types.OrderResult{}, errors.NewGatewayError(errors.GatewayRejected, "invalid order request", err)
	}

	quantity := decimal.NewFromFloat(req.Quantity).Truncate(g.precision)
	if !quantity.IsPositive() {
		return types.OrderResult{}, errors.NewGatewayError(errors.GatewayRejected, "order rejected",
			errors.Newf(errors.ErrCodeInvalidQuantity, "quantity %v is zero at %d decimals", req.Quantity, g.precision))
	}

	service := g.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(toBinanceSide(req.Side)).
		Type(toBinanceOrderType(req.Type)).
		Quantity(quantity.String()).
		NewClientOrderID(req.ClientOrderID)

	if req.Type == types.OrderTypeLimit {
		service = service.
			Price(strconv.FormatFloat(req.Price.Unwrap(), 'f', -1, 64)).
			TimeInForce(gobinance.TimeInForceTypeGTC)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		g.logger.Warn("Binance order failed",
			zap.String("symbol", req.Symbol),
			zap.String("client_order_id", req.ClientOrderID),
			zap.Error(err),
		)

		return types.OrderResult{}, classify(err, "failed to place order")
	}

	return g.fromCreateResponse(resp), nil
}

// CancelOrder cancels orderID on symbol. Binance needs the symbol.
func (g *Gateway) CancelOrder(ctx context.Context, orderID, symbol string) (bool, error) {
	if symbol == "" {
		return false, errors.NewGatewayError(errors.GatewayUnsupported, "binance requires a symbol to cancel an order", nil)
	}

	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return false, errors.NewGatewayError(errors.GatewayRejected, "invalid order id format",
			errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order id", err))
	}

	if _, err := g.client.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx); err != nil {
		return false, classify(err, "failed to cancel order")
	}

	return true, nil
}

// OrderStatus queries an order by the client order id it was placed with.
func (g *Gateway) OrderStatus(ctx context.Context, symbol, clientOrderID string) (types.OrderResult, error) {
	order, err := g.client.NewGetOrderService().Symbol(symbol).OrigClientOrderID(clientOrderID).Do(ctx)
	if err != nil {
		return types.OrderResult{}, classify(err, "failed to query order")
	}

	executed := parseFloat(order.ExecutedQuantity)

	return types.OrderResult{
		OrderID:       strconv.FormatInt(order.OrderID, 10),
		ClientOrderID: order.ClientOrderID,
		Status:        fromBinanceStatus(order.Status),
		FilledQty:     executed,
		AvgPrice:      averagePrice(parseFloat(order.CummulativeQuoteQuantity), executed, parseFloat(order.Price)),
		Commission:    0,
	}, nil
}

func (g *Gateway) fromCreateResponse(resp *gobinance.CreateOrderResponse) types.OrderResult {
	executed := parseFloat(resp.ExecutedQuantity)
	base := exchange.BaseAsset(resp.Symbol, g.quoteAsset)

	var commission float64

	for _, fill := range resp.Fills {
		switch fill.CommissionAsset {
		case g.quoteAsset:
			commission += parseFloat(fill.Commission)
		case base:
			commission += parseFloat(fill.Commission) * parseFloat(fill.Price)
		}
	}

	return types.OrderResult{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: resp.ClientOrderID,
		Status:        fromBinanceStatus(resp.Status),
		FilledQty:     executed,
		AvgPrice:      averagePrice(parseFloat(resp.CummulativeQuoteQuantity), executed, parseFloat(resp.Price)),
		Commission:    commission,
	}
}

// classify maps Binance API error codes to gateway error kinds.
func classify(err error, message string) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return exchange.Classify(err, message)
	}

	kind := errors.GatewayRejected

	switch apiErr.Code {
	case codeTooManyRequests, codeTooManyOrders:
		kind = errors.GatewayRateLimited
	case codeDisconnected, codeTimeout:
		kind = errors.GatewayNetworkTimeout
	case codeUnauthorized, codeInvalidSignature, codeBadAPIKeyFormat, codeRejectedMBXKey:
		kind = errors.GatewayAuthFailed
	case codeBadSymbol:
		kind = errors.GatewayUnsupported
	case codeNoSuchOrder, codeCancelRejected:
		kind = errors.GatewayOrderNotFound
	case codeNewOrderRejected:
		if strings.Contains(strings.ToLower(apiErr.Message), insufficientBalanceText) {
			kind = errors.GatewayInsufficientFunds
		}
	}

	return errors.NewGatewayError(kind, message, err)
}

func toBinanceSide(side types.Side) gobinance.SideType {
	if side == types.SideSell {
		return gobinance.SideTypeSell
	}

	return gobinance.SideTypeBuy
}

func toBinanceOrderType(orderType types.OrderType) gobinance.OrderType {
	if orderType == types.OrderTypeLimit {
		return gobinance.OrderTypeLimit
	}

	return gobinance.OrderTypeMarket
}

func fromBinanceStatus(status gobinance.OrderStatusType) types.OrderStatus {
	switch status {
	case gobinance.OrderStatusTypeNew:
		return types.OrderStatusNew
	case gobinance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled
	case gobinance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case gobinance.OrderStatusTypeCanceled, gobinance.OrderStatusTypePendingCancel:
		return types.OrderStatusCanceled
	case gobinance.OrderStatusTypeExpired:
		return types.OrderStatusExpired
	default:
		return types.OrderStatusRejected
	}
}

// averagePrice prefers the quote volume over executed quantity and falls back to the order price.
func averagePrice(quoteQty, executedQty, orderPrice float64) float64 {
	if executedQty > 0 && quoteQty > 0 {
		return decimal.NewFromFloat(quoteQty).Div(decimal.NewFromFloat(executedQty)).InexactFloat64()
	}

	if executedQty > 0 {
		return orderPrice
	}

	return 0
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}

var _ exchange.Gateway = (*Gateway)(nil)
