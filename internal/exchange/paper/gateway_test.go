package paper

import (
	"context"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PaperGatewayTestSuite struct {
	suite.Suite
	gateway *Gateway
	ctx     context.Context
}

func TestPaperGatewaySuite(t *testing.T) {
	suite.Run(t, new(PaperGatewayTestSuite))
}

func (suite *PaperGatewayTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.gateway = NewGateway(config.PaperConfig{InitialBalance: 10000, CommissionRate: 0.001}, "USDT", logger.NewNop())
	suite.gateway.SetTicker(types.Ticker{Symbol: "BTCUSDT", Bid: 49900, Ask: 50000, Last: 49950})
}

func (suite *PaperGatewayTestSuite) order(cid string, side types.Side, qty float64) types.OrderRequest {
	return types.OrderRequest{
		ClientOrderID: cid,
		Symbol:        "BTCUSDT",
		Side:          side,
		Type:          types.OrderTypeMarket,
		Quantity:      qty,
	}
}

func (suite *PaperGatewayTestSuite) TestMarketBuyFillsAtAsk() {
	result, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("a", types.SideBuy, 0.1))
	suite.Require().NoError(err)

	suite.Equal(types.OrderStatusFilled, result.Status)
	suite.Equal(50000.0, result.AvgPrice)
	suite.Equal(0.1, result.FilledQty)
	suite.InDelta(5.0, result.Commission, 1e-9)

	quote, err := suite.gateway.Balance(suite.ctx, "USDT")
	suite.Require().NoError(err)
	suite.InDelta(10000-5000-5, quote, 1e-9)

	base, err := suite.gateway.Balance(suite.ctx, "BTC")
	suite.Require().NoError(err)
	suite.InDelta(0.1, base, 1e-12)
}

func (suite *PaperGatewayTestSuite) TestMarketSellFillsAtBid() {
	result, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("a", types.SideSell, 0.1))
	suite.Require().NoError(err)
	suite.Equal(49900.0, result.AvgPrice)

	base, _ := suite.gateway.Balance(suite.ctx, "BTC")
	suite.InDelta(-0.1, base, 1e-12)
}

func (suite *PaperGatewayTestSuite) TestDuplicateClientOrderID() {
	first, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("dup", types.SideBuy, 0.01))
	suite.Require().NoError(err)

	second, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("dup", types.SideBuy, 0.01))
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.Equal(1, suite.gateway.PlacedOrders())
}

func (suite *PaperGatewayTestSuite) TestInsufficientFunds() {
	_, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("big", types.SideBuy, 1))
	suite.True(errors.IsGatewayKind(err, errors.GatewayInsufficientFunds))

	_, err = suite.gateway.OrderStatus(suite.ctx, "BTCUSDT", "big")
	suite.True(errors.IsGatewayKind(err, errors.GatewayOrderNotFound))
}

func (suite *PaperGatewayTestSuite) TestUnknownSymbol() {
	req := suite.order("x", types.SideBuy, 1)
	req.Symbol = "ETHUSDT"

	_, err := suite.gateway.PlaceOrder(suite.ctx, req)
	suite.True(errors.IsGatewayKind(err, errors.GatewayUnsupported))

	_, err = suite.gateway.Ticker(suite.ctx, "ETHUSDT")
	suite.True(errors.IsGatewayKind(err, errors.GatewayUnsupported))
}

func (suite *PaperGatewayTestSuite) TestFailNext() {
	timeout := errors.NewGatewayError(errors.GatewayNetworkTimeout, "timeout", nil)
	suite.gateway.FailNext(timeout, timeout)

	_, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("r", types.SideBuy, 0.01))
	suite.ErrorIs(err, timeout)

	_, err = suite.gateway.PlaceOrder(suite.ctx, suite.order("r", types.SideBuy, 0.01))
	suite.ErrorIs(err, timeout)

	result, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("r", types.SideBuy, 0.01))
	suite.Require().NoError(err)
	suite.True(result.Filled())
	suite.Equal(1, suite.gateway.PlacedOrders())
}

func (suite *PaperGatewayTestSuite) TestFailNextAfterFill() {
	suite.gateway.FailNextAfterFill(errors.NewGatewayError(errors.GatewayNetworkTimeout, "lost response", nil))

	_, err := suite.gateway.PlaceOrder(suite.ctx, suite.order("lost", types.SideBuy, 0.01))
	suite.True(errors.IsGatewayKind(err, errors.GatewayNetworkTimeout))

	status, err := suite.gateway.OrderStatus(suite.ctx, "BTCUSDT", "lost")
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusFilled, status.Status)
}

func (suite *PaperGatewayTestSuite) TestLimitOrderRestsAndCancels() {
	req := suite.order("limit", types.SideBuy, 0.01)
	req.Type = types.OrderTypeLimit
	req.Price = optional.Some(40000.0)

	result, err := suite.gateway.PlaceOrder(suite.ctx, req)
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusNew, result.Status)
	suite.False(result.Filled())

	ok, err := suite.gateway.CancelOrder(suite.ctx, result.OrderID, "BTCUSDT")
	suite.Require().NoError(err)
	suite.True(ok)

	status, err := suite.gateway.OrderStatus(suite.ctx, "BTCUSDT", "limit")
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusCanceled, status.Status)

	ok, err = suite.gateway.CancelOrder(suite.ctx, result.OrderID, "BTCUSDT")
	suite.NoError(err)
	suite.False(ok)

	_, err = suite.gateway.CancelOrder(suite.ctx, "999", "BTCUSDT")
	suite.True(errors.IsGatewayKind(err, errors.GatewayOrderNotFound))
}

func (suite *PaperGatewayTestSuite) TestLimitOrderCrossingFills() {
	req := suite.order("limit", types.SideBuy, 0.01)
	req.Type = types.OrderTypeLimit
	req.Price = optional.Some(51000.0)

	result, err := suite.gateway.PlaceOrder(suite.ctx, req)
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusFilled, result.Status)
	suite.Equal(50000.0, result.AvgPrice)
}

func (suite *PaperGatewayTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	_, err := suite.gateway.PlaceOrder(ctx, suite.order("c", types.SideBuy, 0.01))
	suite.True(errors.IsGatewayKind(err, errors.GatewayRejected))
}

func (suite *PaperGatewayTestSuite) TestCommissionFee() {
	suite.Zero(NewCommissionFee(0).Calculate(1000))
	suite.InDelta(1.0, NewCommissionFee(0.001).Calculate(1000), 1e-12)
	suite.Zero(NewCommissionFee(0.001).Calculate(-5))
}
