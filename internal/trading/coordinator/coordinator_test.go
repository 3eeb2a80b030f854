package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange/paper"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/notifier"
	"github.com/rxtech-lab/argo-riskgate/internal/risk"
	"github.com/rxtech-lab/argo-riskgate/internal/signal"
	"github.com/rxtech-lab/argo-riskgate/internal/trading/executor"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/mocks"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CoordinatorTestSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	cfg     config.Config
	ledger  *ledger.SQLLedger
	gateway *paper.Gateway

	mu     sync.Mutex
	events []types.Event
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (suite *CoordinatorTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.events = nil

	suite.cfg = config.Default()
	suite.cfg.Risk.ReferenceEquity = 10000
	suite.cfg.Execution.RetryBaseDelay = time.Millisecond
	suite.cfg.Execution.ExitCheckInterval = 0

	l, err := ledger.NewSQLLedger(ledger.DriverSQLite, ":memory:", logger.NewNop(),
		ledger.WithClock(func() time.Time { return suite.now }))
	suite.Require().NoError(err)
	suite.ledger = l

	suite.gateway = paper.NewGateway(config.PaperConfig{InitialBalance: 10000, CommissionRate: 0}, "USDT", logger.NewNop())
	suite.gateway.SetPrice("BTCUSDT", 50000)
	suite.gateway.SetPrice("ETHUSDT", 2000)
}

func (suite *CoordinatorTestSuite) TearDownTest() {
	suite.NoError(suite.ledger.Close())
}

func (suite *CoordinatorTestSuite) notify(event types.Event) {
	suite.mu.Lock()
	defer suite.mu.Unlock()

	suite.events = append(suite.events, event)
}

func (suite *CoordinatorTestSuite) count(eventType types.EventType) int {
	suite.mu.Lock()
	defer suite.mu.Unlock()

	n := 0

	for _, e := range suite.events {
		if e.Type == eventType {
			n++
		}
	}

	return n
}

func (suite *CoordinatorTestSuite) coordinator(l ledger.Ledger) *Coordinator {
	return New(l, suite.gateway, suite.cfg,
		WithNotifier(notifier.Func(suite.notify)),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
		WithLogger(logger.NewNop()),
		WithClock(func() time.Time { return suite.now }),
		WithExecutorOptions(executor.WithSleep(func(context.Context, time.Duration) error { return nil })),
	)
}

func (suite *CoordinatorTestSuite) signal(symbol string, side types.Side, confidence float64) types.Signal {
	return types.Signal{
		Symbol:         symbol,
		Side:           side,
		ReferencePrice: 1,
		Confidence:     confidence,
		StrategyID:     "momentum",
		Time:           suite.now,
		Market:         optional.None[types.MarketState](),
	}
}

func (suite *CoordinatorTestSuite) recordLoss(pnl float64, at time.Time) {
	_, err := suite.ledger.RecordTrade(suite.ctx, types.TradeRecord{
		PositionID: optional.None[string](),
		Kind:       types.TradeKindClose,
		OrderID:    "seed",
		Symbol:     "SOLUSDT",
		Side:       types.SideSell,
		Price:      100,
		Quantity:   1,
		Pnl:        pnl,
		StrategyID: "seed",
		Reason:     types.TradeReasonManual,
		Timestamp:  at,
	})
	suite.Require().NoError(err)
}

func (suite *CoordinatorTestSuite) TestHandleOpensPosition() {
	c := suite.coordinator(suite.ledger)

	outcome, err := c.Handle(suite.ctx, suite.signal("BTCUSDT", types.SideBuy, 0.9))
	suite.Require().NoError(err)
	suite.True(outcome.Decision.Allowed)
	suite.Require().True(outcome.Opened())

	pos := outcome.Position.Unwrap()
	suite.Equal(0.01, pos.Quantity)
	suite.Equal(50000.0, pos.EntryPrice)
	suite.Equal(48500.0, pos.StopLoss)
	suite.Equal(53000.0, pos.TakeProfit)

	suite.Equal(1.0, outcome.Sizing.Leverage)
	suite.Zero(outcome.Sizing.HedgeRatio)
	suite.Equal(1, suite.count(types.EventPositionOpened))
}

func (suite *CoordinatorTestSuite) TestHandleLowConfidence() {
	c := suite.coordinator(suite.ledger)

	outcome, err := c.Handle(suite.ctx, suite.signal("BTCUSDT", types.SideBuy, 0.3))
	suite.Require().NoError(err)
	suite.False(outcome.Decision.Allowed)
	suite.Equal(risk.ReasonLowConfidence, outcome.Decision.Reason)
	suite.False(outcome.Opened())
	suite.Zero(suite.gateway.PlacedOrders())
	suite.Equal(1, suite.count(types.EventRiskRejected))
}

func (suite *CoordinatorTestSuite) TestHandleInvalidSignal() {
	c := suite.coordinator(suite.ledger)

	s := suite.signal("BTCUSDT", types.SideBuy, 0.9)
	s.StrategyID = ""

	_, err := c.Handle(suite.ctx, s)
	suite.True(errors.IsValidation(err))
}

func (suite *CoordinatorTestSuite) TestHandleHedgesInDrawdown() {
	// A 6% loss two days ago: drawdown above the 5% threshold without touching today's budget.
	suite.recordLoss(-600, suite.now.Add(-48*time.Hour))

	c := suite.coordinator(suite.ledger)

	s := suite.signal("BTCUSDT", types.SideBuy, 0.9)
	s.Market = optional.Some(types.MarketState{Volatility: 0, Trend: 1})

	outcome, err := c.Handle(suite.ctx, s)
	suite.Require().NoError(err)
	suite.Require().True(outcome.Opened())
	suite.Equal(0.5, outcome.Sizing.HedgeRatio)
	suite.Equal(10.0, outcome.Sizing.Leverage)
	suite.Equal(0.005, outcome.Position.Unwrap().Quantity)
}

func (suite *CoordinatorTestSuite) TestHandleConcurrentSameSymbol() {
	suite.cfg.Risk.MaxDailyTrades = 1000
	suite.cfg.Risk.MaxOpenPositions = 5
	suite.gateway.SetBalance("USDT", 1000000)

	c := suite.coordinator(suite.ledger)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		opened   int
		rejected int
	)

	for range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			outcome, err := c.Handle(suite.ctx, suite.signal("BTCUSDT", types.SideBuy, 0.9))
			suite.NoError(err)

			mu.Lock()
			defer mu.Unlock()

			if outcome.Opened() {
				opened++
			} else if outcome.Decision.Reason == risk.ReasonPositionLimit {
				rejected++
			}
		}()
	}

	wg.Wait()

	suite.Equal(5, opened)
	suite.Equal(95, rejected)

	positions, err := suite.ledger.OpenPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(positions, 5)
}

func (suite *CoordinatorTestSuite) TestHandleFailsClosed() {
	ctrl := gomock.NewController(suite.T())
	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().RealizedPnlHistory(gomock.Any()).
		Return(nil, errors.New(errors.ErrCodePersistence, "database is locked"))

	c := suite.coordinator(l)

	outcome, err := c.Handle(suite.ctx, suite.signal("BTCUSDT", types.SideBuy, 0.9))
	suite.True(errors.IsPersistence(err))
	suite.False(outcome.Decision.Allowed)
	suite.Equal(risk.ReasonRiskStateUnavailable, outcome.Decision.Reason)
	suite.Zero(suite.gateway.PlacedOrders())
}

func (suite *CoordinatorTestSuite) TestHandleBalanceFailure() {
	ctrl := gomock.NewController(suite.T())
	gw := mocks.NewMockGateway(ctrl)
	gw.EXPECT().Ticker(gomock.Any(), "BTCUSDT").Return(types.Ticker{Symbol: "BTCUSDT", Last: 50000}, nil)
	gw.EXPECT().Balance(gomock.Any(), "USDT").
		Return(0.0, errors.NewGatewayError(errors.GatewayAuthFailed, "invalid key", nil))

	c := New(suite.ledger, gw, suite.cfg, WithNotifier(notifier.Func(suite.notify)))

	_, err := c.Handle(suite.ctx, suite.signal("BTCUSDT", types.SideBuy, 0.9))
	suite.True(errors.IsGatewayKind(err, errors.GatewayAuthFailed))
	suite.Equal(1, suite.count(types.EventGatewayCritical))
}

func (suite *CoordinatorTestSuite) TestDailyLossLiquidatesOnce() {
	suite.cfg.Risk.LiquidateOnDailyLoss = true
	c := suite.coordinator(suite.ledger)

	outcome, err := c.Handle(suite.ctx, suite.signal("ETHUSDT", types.SideBuy, 0.9))
	suite.Require().NoError(err)
	suite.Require().True(outcome.Opened())

	suite.recordLoss(-600, suite.now)

	for range 2 {
		outcome, err = c.Handle(suite.ctx, suite.signal("BTCUSDT", types.SideBuy, 0.9))
		suite.Require().NoError(err)
		suite.Equal(risk.ReasonDailyLossLimit, outcome.Decision.Reason)
	}

	suite.Equal(1, suite.count(types.EventForcedLiquidation))

	positions, err := suite.ledger.OpenPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(positions)
}

func (suite *CoordinatorTestSuite) TestClosePosition() {
	c := suite.coordinator(suite.ledger)

	outcome, err := c.Handle(suite.ctx, suite.signal("ETHUSDT", types.SideSell, 0.9))
	suite.Require().NoError(err)

	suite.gateway.SetPrice("ETHUSDT", 1900)

	closed, err := c.ClosePosition(suite.ctx, outcome.Position.Unwrap().ID, "")
	suite.Require().NoError(err)
	suite.InDelta(25.0, closed.RealizedPnl, 1e-9)

	trade, err := suite.ledger.CloseTradeFor(suite.ctx, closed.PositionID)
	suite.Require().NoError(err)
	suite.Equal(types.TradeReasonManual, trade.Unwrap().Reason)
}

func (suite *CoordinatorTestSuite) TestRunHandlesSource() {
	ch := make(chan types.Signal, 3)
	ch <- suite.signal("BTCUSDT", types.SideBuy, 0.9)
	ch <- suite.signal("ETHUSDT", types.SideBuy, 0.8)
	ch <- suite.signal("ETHUSDT", types.SideSell, 0.1)
	close(ch)

	c := suite.coordinator(suite.ledger)

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)

	err := c.RunWithCallback(suite.ctx, signal.NewChannelSource(ch), func(o Outcome, _ error) {
		mu.Lock()
		defer mu.Unlock()

		outcomes = append(outcomes, o)
	})
	suite.Require().NoError(err)
	suite.Len(outcomes, 3)

	positions, err := suite.ledger.OpenPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(positions, 2)
	suite.Equal(1, suite.count(types.EventRiskRejected))
}

func (suite *CoordinatorTestSuite) TestRunReconcilesFirst() {
	_, err := suite.ledger.RecordTrade(suite.ctx, types.TradeRecord{
		PositionID: optional.Some("orphan"),
		Kind:       types.TradeKindOpen,
		OrderID:    "o-1",
		Symbol:     "BTCUSDT",
		Side:       types.SideBuy,
		Price:      50000,
		Quantity:   0.01,
		StrategyID: "momentum",
		Reason:     types.TradeReasonSignal,
		Timestamp:  suite.now,
	})
	suite.Require().NoError(err)

	ch := make(chan types.Signal)
	close(ch)

	c := suite.coordinator(suite.ledger)
	suite.Require().NoError(c.Run(suite.ctx, signal.NewChannelSource(ch)))

	pos, err := suite.ledger.GetPosition(suite.ctx, "orphan")
	suite.Require().NoError(err)
	suite.Equal(types.PositionStatusOpen, pos.Status)
	suite.Equal(1, suite.count(types.EventReconciled))
}

type blockingSource struct {
	signal.ChannelSource
	started chan struct{}
	once    sync.Once
}

func (b *blockingSource) Next(ctx context.Context) (types.Signal, error) {
	b.once.Do(func() { close(b.started) })

	<-ctx.Done()

	return types.Signal{}, ctx.Err()
}

func (suite *CoordinatorTestSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(suite.ctx)
	c := suite.coordinator(suite.ledger)

	source := &blockingSource{started: make(chan struct{})}
	done := make(chan error, 1)

	go func() {
		done <- c.Run(ctx, source)
	}()

	<-source.started
	cancel()

	select {
	case err := <-done:
		suite.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		suite.Fail("run did not stop")
	}
}

func (suite *CoordinatorTestSuite) TestPricedSource() {
	ch := make(chan types.Signal, 1)
	s := suite.signal("BTCUSDT", types.SideBuy, 0.9)
	s.ReferencePrice = 42000
	ch <- s
	close(ch)

	source := NewPricedSource(signal.NewChannelSource(ch), suite.gateway)

	_, err := source.Next(suite.ctx)
	suite.Require().NoError(err)

	ticker, err := suite.gateway.Ticker(suite.ctx, "BTCUSDT")
	suite.Require().NoError(err)
	suite.Equal(42000.0, ticker.Last)
}
