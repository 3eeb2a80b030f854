// Package coordinator runs the decision cycle for each trade signal:
// risk gate, allocator, executor and notifier, in that order.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/lock"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/notifier"
	"github.com/rxtech-lab/argo-riskgate/internal/portfolio"
	"github.com/rxtech-lab/argo-riskgate/internal/risk"
	"github.com/rxtech-lab/argo-riskgate/internal/trading/executor"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

// Outcome describes what happened to one signal.
type Outcome struct {
	Signal   types.Signal
	Decision risk.Decision
	Sizing   types.SizingResult
	Position optional.Option[types.Position]
}

// Opened reports whether the signal resulted in an OPEN position.
func (o Outcome) Opened() bool {
	return o.Position.IsSome()
}

type Coordinator struct {
	ledger    ledger.Ledger
	gateway   exchange.Gateway
	gate      *risk.Gate
	allocator *portfolio.Allocator
	executor  *executor.Executor
	locks     *lock.KeyedMutex

	risk      config.RiskConfig
	execution config.ExecutionConfig

	notifier     notifier.Notifier
	metrics      *metrics.Metrics
	logger       *logger.Logger
	clock        func() time.Time
	executorOpts []executor.Option

	liquidationMu sync.Mutex
	liquidatedDay time.Time
}

type Option func(*Coordinator)

func WithNotifier(n notifier.Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Coordinator) {
		c.logger = log
	}
}

// WithClock overrides the time source of the coordinator and its executor.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithExecutorOptions passes extra options to the executor built by New.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(c *Coordinator) {
		c.executorOpts = append(c.executorOpts, opts...)
	}
}

// New wires the risk gate, allocator and executor over one ledger and gateway.
// The executor shares the coordinator's symbol locks.
func New(l ledger.Ledger, gateway exchange.Gateway, cfg config.Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		ledger:    l,
		gateway:   gateway,
		allocator: portfolio.NewAllocator(cfg.Portfolio),
		locks:     lock.NewKeyedMutex(),
		risk:      cfg.Risk,
		execution: cfg.Execution,
		notifier:  notifier.Nop{},
		logger:    logger.NewNop(),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.gate = risk.NewGate(l, cfg.Risk, c.logger)

	executorOpts := []executor.Option{
		executor.WithNotifier(c.notifier),
		executor.WithMetrics(c.metrics),
		executor.WithLogger(c.logger),
		executor.WithClock(c.clock),
		executor.WithSymbolLocks(c.locks),
	}

	c.executor = executor.New(l, gateway, c.gate, cfg.Execution, append(executorOpts, c.executorOpts...)...)
	c.logger = c.logger.Named("coordinator")

	return c
}

func (c *Coordinator) Gate() *risk.Gate {
	return c.gate
}

func (c *Coordinator) Executor() *executor.Executor {
	return c.executor
}

// Budget returns the current risk budget read from the ledger.
func (c *Coordinator) Budget(ctx context.Context) (types.RiskBudget, error) {
	return c.gate.Budget(ctx)
}

// Handle runs one decision cycle for signal. A risk rejection is returned in the
// outcome with a nil error. Errors are returned for failed submissions and for
// an unreadable ledger, in which case the decision is also a rejection.
func (c *Coordinator) Handle(ctx context.Context, signal types.Signal) (Outcome, error) {
	start := c.clock()
	defer func() {
		c.metrics.CycleDuration(c.clock().Sub(start))
	}()

	outcome := Outcome{Signal: signal, Position: optional.None[types.Position]()}

	if err := signal.Validate(); err != nil {
		return outcome, err
	}

	if signal.Confidence < c.risk.MinConfidence {
		outcome.Decision = risk.Decision{Allowed: false, Reason: risk.ReasonLowConfidence}
		c.rejected(signal, outcome.Decision)

		return outcome, nil
	}

	outcome, err := c.handleLocked(ctx, outcome)

	// Liquidation closes positions on every symbol, so it runs after the symbol lock is released.
	if !outcome.Decision.Allowed && outcome.Decision.Reason == risk.ReasonDailyLossLimit && c.risk.LiquidateOnDailyLoss {
		c.liquidateOnce(ctx)
	}

	return outcome, err
}

func (c *Coordinator) handleLocked(ctx context.Context, outcome Outcome) (Outcome, error) {
	signal := outcome.Signal

	unlock, err := c.locks.LockContext(ctx, signal.Symbol)
	if err != nil {
		return outcome, err
	}
	defer unlock()

	log := c.logger.With(
		zap.String("symbol", signal.Symbol),
		zap.String("side", string(signal.Side)),
		zap.String("strategy_id", signal.StrategyID),
	)

	price := c.entryPrice(ctx, signal)

	balance, err := c.balance(ctx)
	if err != nil {
		log.Error("Failed to read balance", zap.Error(err))

		if exchange.Critical(err) {
			c.notifier.Notify(types.NewEvent(types.EventGatewayCritical, types.SeverityCritical, signal.Symbol, err.Error()))
		}

		return outcome, err
	}

	history, err := c.ledger.RealizedPnlHistory(ctx)
	if err != nil {
		outcome.Decision = risk.Decision{Allowed: false, Reason: risk.ReasonRiskStateUnavailable}
		c.rejected(signal, outcome.Decision)

		return outcome, err
	}

	market := signal.Market.TakeOr(types.MarketState{Volatility: 1, Trend: 0})
	drawdown := portfolio.Drawdown(c.risk.ReferenceEquity, history)

	sizing := c.allocator.Size(c.gate.SizePosition(price, balance), market, drawdown)
	sizing.StopLossPrice = c.gate.StopLoss(price, signal.Side)
	sizing.TakeProfitPrice = c.gate.TakeProfit(price, signal.Side)
	outcome.Sizing = sizing

	intent := types.TradeIntent{
		Symbol:        signal.Symbol,
		Side:          signal.Side,
		Price:         price,
		Quantity:      sizing.Quantity,
		StopLoss:      sizing.StopLossPrice,
		TakeProfit:    sizing.TakeProfitPrice,
		StrategyID:    signal.StrategyID,
		OpensPosition: true,
		Leverage:      sizing.Leverage,
		HedgeRatio:    sizing.HedgeRatio,
	}

	decision, reservation, err := c.gate.Admit(ctx, intent)
	outcome.Decision = decision

	if err != nil || !decision.Allowed {
		c.rejected(signal, decision)

		return outcome, err
	}

	// The executor releases on commit so the ledger and the reservation never both count
	// this trade. The deferred call covers failures.
	defer reservation.Release()

	c.metrics.Decision(true, "")
	log.Debug("Trade admitted",
		zap.Float64("price", price),
		zap.Float64("quantity", sizing.Quantity),
		zap.Float64("leverage", sizing.Leverage),
		zap.Float64("hedge_ratio", sizing.HedgeRatio),
	)

	position, err := c.executor.Submit(ctx, intent, executor.OnRecorded(reservation.Release))
	if err != nil {
		log.Error("Submission failed", zap.Error(err))

		return outcome, err
	}

	outcome.Position = optional.Some(position)
	c.refreshBudget(ctx)

	return outcome, nil
}

// entryPrice prices the entry off the book, falling back to the signal's reference price.
func (c *Coordinator) entryPrice(ctx context.Context, signal types.Signal) float64 {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	ticker, err := c.gateway.Ticker(callCtx, signal.Symbol)
	if err != nil {
		c.logger.Warn("Ticker unavailable, using reference price",
			zap.String("symbol", signal.Symbol),
			zap.Error(err),
		)

		return signal.ReferencePrice
	}

	return ticker.EntryPrice(signal.Side, signal.ReferencePrice)
}

func (c *Coordinator) balance(ctx context.Context) (float64, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	balance, err := c.gateway.Balance(callCtx, c.execution.QuoteAsset)
	if err != nil {
		return 0, exchange.Classify(err, "balance query failed")
	}

	return balance, nil
}

func (c *Coordinator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.execution.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.execution.CallTimeout)
}

func (c *Coordinator) rejected(signal types.Signal, decision risk.Decision) {
	c.metrics.Decision(false, decision.Reason)

	severity := types.SeverityInfo
	if decision.Reason == risk.ReasonRiskStateUnavailable {
		severity = types.SeverityWarning
	}

	c.notifier.Notify(types.NewEvent(types.EventRiskRejected, severity, signal.Symbol, decision.Reason).
		WithField("side", string(signal.Side)).
		WithField("strategy_id", signal.StrategyID).
		WithField("confidence", signal.Confidence).
		WithField("daily_trades", decision.Budget.DailyTradeCount).
		WithField("open_positions", decision.Budget.OpenPositionCount))
}

func (c *Coordinator) refreshBudget(ctx context.Context) {
	if c.metrics == nil {
		return
	}

	budget, err := c.gate.Budget(ctx)
	if err != nil {
		c.logger.Warn("Failed to refresh budget metrics", zap.Error(err))

		return
	}

	c.metrics.Budget(budget.OpenPositionCount, budget.DailyRealizedPnl)
}

// ClosePosition closes one position on request.
func (c *Coordinator) ClosePosition(ctx context.Context, positionID, reason string) (types.ClosedPosition, error) {
	if reason == "" {
		reason = types.TradeReasonManual
	}

	closed, err := c.executor.Close(ctx, positionID, reason)
	if err != nil {
		return closed, err
	}

	c.refreshBudget(ctx)

	return closed, nil
}

// Liquidate closes every position holding exposure and reports it as a forced liquidation.
func (c *Coordinator) Liquidate(ctx context.Context, cause string) (executor.CloseAllResult, error) {
	result, err := c.executor.CloseAll(ctx, types.TradeReasonLiquidation)
	if err != nil {
		return result, err
	}

	c.logger.Warn("Forced liquidation",
		zap.String("cause", cause),
		zap.Int("closed", len(result.Closed)),
		zap.Int("failed", len(result.Failures)),
	)

	c.notifier.Notify(types.NewEvent(types.EventForcedLiquidation, types.SeverityCritical, "", cause).
		WithField("closed", len(result.Closed)).
		WithField("failed", len(result.Failures)))

	c.refreshBudget(ctx)

	return result, nil
}

// liquidateOnce liquidates at most once per UTC day.
func (c *Coordinator) liquidateOnce(ctx context.Context) {
	day, _ := ledger.DayBounds(c.clock())

	c.liquidationMu.Lock()
	defer c.liquidationMu.Unlock()

	if c.liquidatedDay.Equal(day) {
		return
	}

	if _, err := c.Liquidate(ctx, risk.ReasonDailyLossLimit); err != nil {
		c.logger.Error("Forced liquidation failed", zap.Error(err))

		return
	}

	c.liquidatedDay = day
}

// CheckExits closes positions whose stop-loss or take-profit has been crossed.
func (c *Coordinator) CheckExits(ctx context.Context) (executor.CloseAllResult, error) {
	result, err := c.executor.CheckExits(ctx)
	if err != nil {
		return result, err
	}

	for _, f := range result.Failures {
		c.logger.Warn("Protective exit failed",
			zap.String("position_id", f.PositionID),
			zap.String("symbol", f.Symbol),
			zap.Error(f.Err),
		)
	}

	if len(result.Closed) > 0 {
		c.refreshBudget(ctx)
	}

	return result, nil
}

// Reconcile repairs the ledger before signals are accepted.
func (c *Coordinator) Reconcile(ctx context.Context) (executor.ReconcileReport, error) {
	report, err := c.executor.Reconcile(ctx)
	if err != nil && !errors.IsReconciliation(err) {
		return report, err
	}

	if err != nil {
		c.logger.Error("Reconciliation left unresolved records", zap.Strings("ids", report.Failures), zap.Error(err))
	}

	c.refreshBudget(ctx)

	return report, nil
}
