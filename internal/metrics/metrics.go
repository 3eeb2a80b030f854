// Package metrics holds the Prometheus collectors of the engine.
//
// Exposed series:
//   - riskgate_decisions_total{outcome,reason}
//   - riskgate_orders_total{side,result}
//   - riskgate_order_retries_total
//   - riskgate_positions_closed_total{reason,result}
//   - riskgate_reconciliations_total{kind}
//   - riskgate_notifications_dropped_total
//   - riskgate_open_positions
//   - riskgate_daily_realized_pnl
//   - riskgate_cycle_duration_seconds
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "riskgate"

// Reconciliation kinds.
const (
	ReconcileOrphanCompleted  = "orphan_completed"
	ReconcileClosingCompleted = "closing_completed"
	ReconcileClosingReverted  = "closing_reverted"
	ReconcileUnconfirmedFill  = "unconfirmed_fill"
)

type Metrics struct {
	decisions            *prometheus.CounterVec
	orders               *prometheus.CounterVec
	orderRetries         prometheus.Counter
	positionsClosed      *prometheus.CounterVec
	reconciliations      *prometheus.CounterVec
	notificationsDropped prometheus.Counter
	openPositions        prometheus.Gauge
	dailyRealizedPnl     prometheus.Gauge
	cycleDuration        prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Risk decisions by outcome and rejection reason.",
		}, []string{"outcome", "reason"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order submissions by side and result (filled|failed).",
		}, []string{"side", "result"}),
		orderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_retries_total",
			Help:      "Gateway calls repeated after a transient failure.",
		}),
		positionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_closed_total",
			Help:      "Closed positions by exit reason and result (win|loss).",
		}, []string{"reason", "result"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Ledger reconciliation outcomes by kind.",
		}, []string{"kind"}),
		notificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Events dropped because a notifier queue was full.",
		}),
		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Positions holding exposure at the last decision.",
		}),
		dailyRealizedPnl: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_realized_pnl",
			Help:      "Realized P/L of the current UTC day at the last decision.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one signal handling cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.decisions,
		m.orders,
		m.orderRetries,
		m.positionsClosed,
		m.reconciliations,
		m.notificationsDropped,
		m.openPositions,
		m.dailyRealizedPnl,
		m.cycleDuration,
	)

	return m
}

// Decision counts a risk decision. reason is empty for allowed decisions.
func (m *Metrics) Decision(allowed bool, reason string) {
	if m == nil {
		return
	}

	outcome := "rejected"
	if allowed {
		outcome = "allowed"
	}

	m.decisions.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) Order(side string, filled bool) {
	if m == nil {
		return
	}

	result := "failed"
	if filled {
		result = "filled"
	}

	m.orders.WithLabelValues(side, result).Inc()
}

func (m *Metrics) OrderRetry() {
	if m == nil {
		return
	}

	m.orderRetries.Inc()
}

func (m *Metrics) PositionClosed(reason string, pnl float64) {
	if m == nil {
		return
	}

	result := "loss"
	if pnl > 0 {
		result = "win"
	}

	m.positionsClosed.WithLabelValues(reason, result).Inc()
}

func (m *Metrics) Reconciliation(kind string) {
	if m == nil {
		return
	}

	m.reconciliations.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}

	m.notificationsDropped.Inc()
}

// Budget records the ledger-derived risk state.
func (m *Metrics) Budget(openPositions int, dailyRealizedPnl float64) {
	if m == nil {
		return
	}

	m.openPositions.Set(float64(openPositions))
	m.dailyRealizedPnl.Set(dailyRealizedPnl)
}

func (m *Metrics) CycleDuration(d time.Duration) {
	if m == nil {
		return
	}

	m.cycleDuration.Observe(d.Seconds())
}
