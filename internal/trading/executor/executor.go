// Package executor places orders for admitted intents and drives positions
// through PENDING → OPEN → CLOSING → CLOSED. FAILED is reachable from PENDING only.
//
// Retries apply to gateway calls only. Ledger writes are never retried: a ledger
// failure after a fill is returned as a reconciliation error.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange"
	"github.com/rxtech-lab/argo-riskgate/internal/ledger"
	"github.com/rxtech-lab/argo-riskgate/internal/lock"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/metrics"
	"github.com/rxtech-lab/argo-riskgate/internal/notifier"
	"github.com/rxtech-lab/argo-riskgate/internal/retry"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"go.uber.org/zap"
)

// Levels computes protective prices for a fill.
type Levels interface {
	StopLoss(entryPrice float64, side types.Side) float64
	TakeProfit(entryPrice float64, side types.Side) float64
}

type Executor struct {
	ledger      ledger.Ledger
	gateway     exchange.Gateway
	levels      Levels
	policy      retry.Policy
	callTimeout time.Duration
	orderType   types.OrderType

	notifier notifier.Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	locks    *lock.KeyedMutex
	clock    func() time.Time
	newID    func() string
}

type Option func(*Executor)

func WithNotifier(n notifier.Notifier) Option {
	return func(e *Executor) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Executor) {
		e.logger = log.Named("executor")
	}
}

// WithClock overrides the time source used for trade and position timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) {
		e.clock = clock
	}
}

// WithIDGenerator overrides the generator of position and client order ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Executor) {
		e.newID = newID
	}
}

// WithSleep overrides the wait between retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.policy.Sleep = sleep
	}
}

// WithSymbolLocks shares the per-symbol locks of the caller so closes and
// decisions on one symbol never interleave.
func WithSymbolLocks(locks *lock.KeyedMutex) Option {
	return func(e *Executor) {
		e.locks = locks
	}
}

// New creates an executor. levels may be nil, in which case the intent's levels are kept.
func New(l ledger.Ledger, gateway exchange.Gateway, levels Levels, cfg config.ExecutionConfig, opts ...Option) *Executor {
	e := &Executor{
		ledger:      l,
		gateway:     gateway,
		levels:      levels,
		callTimeout: cfg.CallTimeout,
		orderType:   cfg.OrderType,
		notifier:    notifier.Nop{},
		logger:      logger.NewNop(),
		locks:       lock.NewKeyedMutex(),
		clock:       time.Now,
		newID:       uuid.NewString,
		policy: retry.Policy{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
			Retryable: exchange.Retryable,
		},
	}

	if e.orderType == "" {
		e.orderType = types.OrderTypeMarket
	}

	for _, opt := range opts {
		opt(e)
	}

	e.policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		e.metrics.OrderRetry()
		e.logger.Warn("Gateway call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	return e
}

// SubmitOption adjusts a single submission.
type SubmitOption func(*submission)

type submission struct {
	recorded func()
}

// OnRecorded runs fn as soon as both the trade and the position are in the ledger.
// It is not called when the submission fails.
func OnRecorded(fn func()) SubmitOption {
	return func(s *submission) {
		s.recorded = fn
	}
}

// Submit places the order for an admitted intent and records the fill.
// The trade is written before the position so a crash between the two leaves
// an orphan trade that Reconcile completes.
func (e *Executor) Submit(ctx context.Context, intent types.TradeIntent, opts ...SubmitOption) (types.Position, error) {
	if err := intent.Validate(); err != nil {
		return types.Position{}, err
	}

	var sub submission
	for _, opt := range opts {
		opt(&sub)
	}

	req := types.OrderRequest{
		ClientOrderID: e.newID(),
		Symbol:        intent.Symbol,
		Side:          intent.Side,
		Type:          e.orderType,
		Quantity:      intent.Quantity,
		Price:         optional.None[float64](),
	}

	if req.Type == types.OrderTypeLimit {
		req.Price = optional.Some(intent.Price)
	}

	log := e.logger.With(
		zap.String("symbol", intent.Symbol),
		zap.String("side", string(intent.Side)),
		zap.String("client_order_id", req.ClientOrderID),
	)

	result, attempts, err := e.place(ctx, req)
	if err != nil {
		e.metrics.Order(string(intent.Side), false)

		return types.Position{}, e.submitFailed(intent, attempts, err)
	}

	e.metrics.Order(string(intent.Side), true)

	// The order has executed; finish the bookkeeping even if the caller gives up.
	writeCtx := context.WithoutCancel(ctx)
	now := e.clock().UTC()
	positionID := e.newID()

	stopLoss, takeProfit := intent.StopLoss, intent.TakeProfit
	if e.levels != nil {
		stopLoss = e.levels.StopLoss(result.AvgPrice, intent.Side)
		takeProfit = e.levels.TakeProfit(result.AvgPrice, intent.Side)
	}

	trade := types.TradeRecord{
		PositionID: optional.Some(positionID),
		Kind:       types.TradeKindOpen,
		OrderID:    result.OrderID,
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Price:      result.AvgPrice,
		Quantity:   result.FilledQty,
		Commission: result.Commission,
		Pnl:        0,
		StrategyID: intent.StrategyID,
		Reason:     types.TradeReasonSignal,
		Timestamp:  now,
	}

	if _, err := e.ledger.RecordTrade(writeCtx, trade); err != nil {
		return types.Position{}, e.reconciliationRequired(intent.Symbol, positionID,
			errors.Wrapf(errors.ErrCodeUnconfirmedFill, err, "order %s filled but its trade was not recorded", result.OrderID))
	}

	spec := types.PositionSpec{
		ID:         positionID,
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		EntryPrice: result.AvgPrice,
		Quantity:   result.FilledQty,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		StrategyID: intent.StrategyID,
		OpenedAt:   now,
	}

	if _, err := e.ledger.CreatePosition(writeCtx, spec); err != nil {
		return types.Position{}, e.reconciliationRequired(intent.Symbol, positionID,
			errors.Wrapf(errors.ErrCodeOrphanTrade, err, "trade for order %s recorded but position %s was not created", result.OrderID, positionID))
	}

	if sub.recorded != nil {
		sub.recorded()
	}

	log.Info("Position opened",
		zap.String("position_id", positionID),
		zap.Float64("price", result.AvgPrice),
		zap.Float64("quantity", result.FilledQty),
		zap.Int("attempts", attempts),
	)

	e.notifier.Notify(types.NewEvent(types.EventPositionOpened, types.SeverityInfo, intent.Symbol, "position opened").
		WithPosition(positionID).
		WithField("side", string(intent.Side)).
		WithField("price", result.AvgPrice).
		WithField("quantity", result.FilledQty).
		WithField("leverage", intent.Leverage).
		WithField("hedge_ratio", intent.HedgeRatio).
		WithField("attempts", attempts))

	return types.Position{
		ID:          positionID,
		Symbol:      spec.Symbol,
		Side:        spec.Side,
		EntryPrice:  spec.EntryPrice,
		Quantity:    spec.Quantity,
		StopLoss:    spec.StopLoss,
		TakeProfit:  spec.TakeProfit,
		Status:      types.PositionStatusOpen,
		StrategyID:  spec.StrategyID,
		OpenedAt:    now,
		ClosedAt:    optional.None[time.Time](),
		ExitPrice:   optional.None[float64](),
		RealizedPnl: optional.None[float64](),
	}, nil
}

// submitFailed moves the pending position to FAILED and reports the cause.
func (e *Executor) submitFailed(intent types.TradeIntent, attempts int, err error) error {
	if errors.IsReconciliation(err) {
		return e.reconciliationRequired(intent.Symbol, "", err)
	}

	execErr := errors.NewExecutionError(intent.Symbol, attempts, err)

	e.logger.Warn("Order submission failed",
		zap.String("symbol", intent.Symbol),
		zap.String("kind", string(execErr.Kind)),
		zap.String("status", string(types.PositionStatusFailed)),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)

	e.notifyGatewayFailure(intent.Symbol, "", execErr)

	return execErr
}

func (e *Executor) notifyGatewayFailure(symbol, positionID string, execErr *errors.ExecutionError) {
	eventType, severity := types.EventExecutionFailed, types.SeverityWarning
	if exchange.Critical(execErr.Cause) {
		eventType, severity = types.EventGatewayCritical, types.SeverityCritical
	}

	event := types.NewEvent(eventType, severity, symbol, execErr.Error()).
		WithField("kind", string(execErr.Kind)).
		WithField("attempts", execErr.Attempts)

	if positionID != "" {
		event = event.WithPosition(positionID)
	}

	e.notifier.Notify(event)
}

func (e *Executor) reconciliationRequired(symbol, positionID string, err error) error {
	e.metrics.Reconciliation(metrics.ReconcileUnconfirmedFill)
	e.logger.Error("Reconciliation required",
		zap.String("symbol", symbol),
		zap.String("position_id", positionID),
		zap.Error(err),
	)

	event := types.NewEvent(types.EventReconciliationRequired, types.SeverityCritical, symbol, err.Error())
	if positionID != "" {
		event = event.WithPosition(positionID)
	}

	e.notifier.Notify(event)

	return err
}
