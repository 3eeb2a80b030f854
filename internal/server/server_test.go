package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange/paper"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/trading/coordinator"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	ctx         context.Context
	ledger      *ledger.SQLLedger
	gateway     *paper.Gateway
	coordinator *coordinator.Coordinator
	hub         *Hub
	http        *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctx = context.Background()

	cfg := config.Default()
	cfg.Risk.ReferenceEquity = 10000
	cfg.Execution.ExitCheckInterval = 0

	l, err := ledger.NewSQLLedger(ledger.DriverSQLite, ":memory:", logger.NewNop())
	suite.Require().NoError(err)
	suite.ledger = l

	suite.gateway = paper.NewGateway(cfg.Exchange.Paper, "USDT", logger.NewNop())
	suite.gateway.SetPrice("BTCUSDT", 50000)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	suite.hub = NewHub(m, logger.NewNop())
	suite.coordinator = coordinator.New(l, suite.gateway, cfg,
		coordinator.WithNotifier(suite.hub),
		coordinator.WithMetrics(m),
		coordinator.WithLogger(logger.NewNop()),
	)

	s := New(suite.coordinator, l, suite.hub, registry, logger.NewNop())
	suite.http = httptest.NewServer(s.Router())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.hub.Close()
	suite.http.Close()
	suite.NoError(suite.ledger.Close())
}

func (suite *ServerTestSuite) open() types.Position {
	outcome, err := suite.coordinator.Handle(suite.ctx, types.Signal{
		Symbol:         "BTCUSDT",
		Side:           types.SideBuy,
		ReferencePrice: 50000,
		Confidence:     0.9,
		StrategyID:     "momentum",
		Market:         optional.None[types.MarketState](),
	})
	suite.Require().NoError(err)
	suite.Require().True(outcome.Opened())

	return outcome.Position.Unwrap()
}

func (suite *ServerTestSuite) do(method, path string) *http.Response {
	req, err := http.NewRequestWithContext(suite.ctx, method, suite.http.URL+path, nil)
	suite.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)

	return resp
}

func (suite *ServerTestSuite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()

	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (suite *ServerTestSuite) TestHealth() {
	resp := suite.do(http.MethodGet, "/healthz")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]string
	suite.decode(resp, &body)
	suite.Equal("ok", body["status"])
}

func (suite *ServerTestSuite) TestPositionsAndBudget() {
	pos := suite.open()

	resp := suite.do(http.MethodGet, "/positions")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var positions []map[string]any
	suite.decode(resp, &positions)
	suite.Require().Len(positions, 1)
	suite.Equal(pos.ID, positions[0]["id"])

	resp = suite.do(http.MethodGet, "/budget")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var budget types.RiskBudget
	suite.decode(resp, &budget)
	suite.Equal(1, budget.DailyTradeCount)
	suite.Equal(1, budget.OpenPositionCount)
}

func (suite *ServerTestSuite) TestClosePosition() {
	pos := suite.open()
	suite.gateway.SetPrice("BTCUSDT", 51000)

	resp := suite.do(http.MethodPost, "/positions/"+pos.ID+"/close")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var closed types.ClosedPosition
	suite.decode(resp, &closed)
	suite.Equal(pos.ID, closed.PositionID)
	suite.InDelta(10.0, closed.RealizedPnl, 1e-9)

	resp = suite.do(http.MethodGet, "/positions/closed?limit=5")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var history []map[string]any
	suite.decode(resp, &history)
	suite.Len(history, 1)
}

func (suite *ServerTestSuite) TestCloseUnknownPosition() {
	resp := suite.do(http.MethodPost, "/positions/missing/close")
	suite.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (suite *ServerTestSuite) TestCloseAll() {
	suite.open()

	resp := suite.do(http.MethodPost, "/close-all")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var body closeAllResponse
	suite.decode(resp, &body)
	suite.Len(body.Closed, 1)
	suite.Empty(body.Failures)
}

func (suite *ServerTestSuite) TestSummaryRejectsBadDay() {
	resp := suite.do(http.MethodGet, "/summary?day=yesterday")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (suite *ServerTestSuite) TestMetrics() {
	suite.open()

	resp := suite.do(http.MethodGet, "/metrics")
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	suite.Contains(string(body), "riskgate_decisions_total")
}

func (suite *ServerTestSuite) TestEventStream() {
	url := "ws" + strings.TrimPrefix(suite.http.URL, "http") + "/events"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)

	defer conn.Close()

	suite.Eventually(func() bool { return suite.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	pos := suite.open()

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))

	var event types.Event
	suite.Require().NoError(conn.ReadJSON(&event))
	suite.Equal(types.EventPositionOpened, event.Type)
	suite.Equal(pos.ID, event.PositionID)
}

func (suite *ServerTestSuite) TestHubDropsSlowClient() {
	hub := NewHub(nil, logger.NewNop())
	slow := &client{remote: "slow", send: make(chan types.Event, 1)}
	hub.clients[slow] = struct{}{}

	event := types.NewEvent(types.EventRiskRejected, types.SeverityInfo, "BTCUSDT", "flood")
	hub.Notify(event)
	suite.Equal(1, hub.Len())

	hub.Notify(event)
	suite.Equal(0, hub.Len())

	buffered, ok := <-slow.send
	suite.True(ok)
	suite.Equal(event.Message, buffered.Message)

	_, ok = <-slow.send
	suite.False(ok)
}
