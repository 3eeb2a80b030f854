package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
	registry *prometheus.Registry
	metrics  *Metrics
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) SetupTest() {
	suite.registry = prometheus.NewRegistry()
	suite.metrics = New(suite.registry)
}

// value sums the series of name whose label matches; an empty label matches every series.
// Histograms report their sample count.
func (suite *MetricsTestSuite) value(name, label, want string) float64 {
	families, err := suite.registry.Gather()
	suite.Require().NoError(err)

	var total float64

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

		for _, metric := range family.GetMetric() {
			if label != "" && !hasLabel(metric, label, want) {
				continue
			}

			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	return total
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name && pair.GetValue() == value {
			return true
		}
	}

	return false
}

func (suite *MetricsTestSuite) TestDecisions() {
	suite.metrics.Decision(true, "")
	suite.metrics.Decision(false, "max open positions reached")
	suite.metrics.Decision(false, "max open positions reached")

	suite.Equal(1.0, suite.value("riskgate_decisions_total", "outcome", "allowed"))
	suite.Equal(2.0, suite.value("riskgate_decisions_total", "outcome", "rejected"))
}

func (suite *MetricsTestSuite) TestOrdersAndCloses() {
	suite.metrics.Order("BUY", true)
	suite.metrics.Order("BUY", false)
	suite.metrics.OrderRetry()
	suite.metrics.PositionClosed("stop_loss", -5)
	suite.metrics.PositionClosed("take_profit", 10)

	suite.Equal(1.0, suite.value("riskgate_orders_total", "result", "filled"))
	suite.Equal(1.0, suite.value("riskgate_orders_total", "result", "failed"))
	suite.Equal(1.0, suite.value("riskgate_order_retries_total", "", ""))
	suite.Equal(1.0, suite.value("riskgate_positions_closed_total", "reason", "stop_loss"))
	suite.Equal(1.0, suite.value("riskgate_positions_closed_total", "result", "win"))
}

func (suite *MetricsTestSuite) TestGauges() {
	suite.metrics.Budget(3, -42.5)
	suite.metrics.CycleDuration(150 * time.Millisecond)
	suite.metrics.Reconciliation(ReconcileOrphanCompleted)
	suite.metrics.NotificationDropped()

	suite.Equal(3.0, suite.value("riskgate_open_positions", "", ""))
	suite.Equal(-42.5, suite.value("riskgate_daily_realized_pnl", "", ""))
	suite.Equal(1.0, suite.value("riskgate_reconciliations_total", "kind", ReconcileOrphanCompleted))
	suite.Equal(1.0, suite.value("riskgate_notifications_dropped_total", "", ""))

	suite.Equal(1.0, suite.value("riskgate_cycle_duration_seconds", "", ""))
}

func (suite *MetricsTestSuite) TestNilMetrics() {
	var m *Metrics

	suite.NotPanics(func() {
		m.Decision(true, "")
		m.Order("BUY", true)
		m.OrderRetry()
		m.PositionClosed("manual", 1)
		m.Reconciliation(ReconcileClosingReverted)
		m.NotificationDropped()
		m.Budget(1, 1)
		m.CycleDuration(time.Second)
	})
}
