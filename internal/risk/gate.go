// Package risk decides whether a trade may open and how large it may be.
package risk

import (
	"context"
	"sync"

	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rejection reasons.
const (
	ReasonDailyTradeLimit      = "daily trade limit reached"
	ReasonDailyLossLimit       = "daily loss limit reached"
	ReasonPositionLimit        = "max open positions reached"
	ReasonSymbolHasPosition    = "symbol already has an open position"
	ReasonInvalidQuantity      = "quantity must be positive"
	ReasonInvalidPrice         = "price must be positive"
	ReasonNotionalBelowMinimum = "notional below minimum"
	ReasonLowConfidence        = "confidence below threshold"
	ReasonRiskStateUnavailable = "risk state unavailable"
)

// quantityPrecision bounds the decimals of a sized quantity. Sizing truncates so the cap holds.
const quantityPrecision = 12

// LedgerReader is the part of the ledger the gate reads.
type LedgerReader interface {
	OpenPositions(ctx context.Context) ([]types.Position, error)
	DailyTradeCount(ctx context.Context) (int, error)
	DailyRealizedPnl(ctx context.Context) (float64, error)
}

// Decision is the outcome of a risk check. A rejection is a normal outcome, not an error.
type Decision struct {
	Allowed bool
	Reason  string
	Budget  types.RiskBudget
}

func allow(budget types.RiskBudget) Decision {
	return Decision{Allowed: true, Budget: budget}
}

func reject(reason string, budget types.RiskBudget) Decision {
	return Decision{Allowed: false, Reason: reason, Budget: budget}
}

// Gate evaluates risk limits against the ledger. It keeps no counters of its own;
// the only in-process state is the set of admitted decisions whose ledger writes
// have not been released yet.
type Gate struct {
	ledger LedgerReader
	limits config.RiskConfig
	logger *logger.Logger

	mu            sync.Mutex
	pendingTrades int
	pendingOpens  int
}

// NewGate creates a risk gate reading from ledger.
func NewGate(ledger LedgerReader, limits config.RiskConfig, log *logger.Logger) *Gate {
	return &Gate{
		ledger: ledger,
		limits: limits,
		logger: log.Named("risk"),
	}
}

// Limits returns the configured limits.
func (g *Gate) Limits() config.RiskConfig {
	return g.limits
}

// Budget reads the current risk budget from the ledger.
func (g *Gate) Budget(ctx context.Context) (types.RiskBudget, error) {
	count, err := g.ledger.DailyTradeCount(ctx)
	if err != nil {
		return types.RiskBudget{}, err
	}

	pnl, err := g.ledger.DailyRealizedPnl(ctx)
	if err != nil {
		return types.RiskBudget{}, err
	}

	open, err := g.ledger.OpenPositions(ctx)
	if err != nil {
		return types.RiskBudget{}, err
	}

	return types.RiskBudget{
		DailyTradeCount:     count,
		DailyRealizedPnl:    pnl,
		DailyRealizedPnlPct: g.pnlPct(pnl),
		OpenPositionCount:   len(open),
	}, nil
}

// CheckDailyLimits is true while the daily trade count is below its ceiling
// and the daily realized loss has not reached max_daily_loss_pct of reference equity.
func (g *Gate) CheckDailyLimits(ctx context.Context) (bool, error) {
	budget, err := g.Budget(ctx)
	if err != nil {
		return false, err
	}

	return g.dailyRejection(budget) == "", nil
}

// CheckPositionLimits is true while fewer than max_open_positions positions hold exposure.
func (g *Gate) CheckPositionLimits(ctx context.Context) (bool, error) {
	open, err := g.ledger.OpenPositions(ctx)
	if err != nil {
		return false, err
	}

	return len(open) < g.limits.MaxOpenPositions, nil
}

// SizePosition returns min(accountBalance × position_size_pct, max_position_size) / price.
// The notional of the result never exceeds max_position_size.
func (g *Gate) SizePosition(price, accountBalance float64) float64 {
	if price <= 0 || accountBalance <= 0 {
		return 0
	}

	budget := decimal.NewFromFloat(accountBalance).Mul(percent(g.limits.PositionSizePct))
	notional := decimal.Min(budget, decimal.NewFromFloat(g.limits.MaxPositionSize))

	quantity, _ := notional.QuoRem(decimal.NewFromFloat(price), quantityPrecision)

	return quantity.InexactFloat64()
}

// StopLoss returns entry × (1 − stop_loss_pct) for BUY and entry × (1 + stop_loss_pct) for SELL.
func (g *Gate) StopLoss(entryPrice float64, side types.Side) float64 {
	if side == types.SideBuy {
		return g.level(entryPrice, decimal.NewFromInt(1).Sub(percent(g.limits.StopLossPct)))
	}

	return g.level(entryPrice, decimal.NewFromInt(1).Add(percent(g.limits.StopLossPct)))
}

// TakeProfit returns entry × (1 + take_profit_pct) for BUY and entry × (1 − take_profit_pct) for SELL.
func (g *Gate) TakeProfit(entryPrice float64, side types.Side) float64 {
	if side == types.SideBuy {
		return g.level(entryPrice, decimal.NewFromInt(1).Add(percent(g.limits.TakeProfitPct)))
	}

	return g.level(entryPrice, decimal.NewFromInt(1).Sub(percent(g.limits.TakeProfitPct)))
}

func (g *Gate) level(entryPrice float64, factor decimal.Decimal) float64 {
	return decimal.NewFromFloat(entryPrice).Mul(factor).Round(g.limits.PricePrecision).InexactFloat64()
}

// Validate evaluates an intent against a fresh read of the ledger.
// A ledger failure returns a rejected decision together with the error.
func (g *Gate) Validate(ctx context.Context, intent types.TradeIntent) (Decision, error) {
	budget, err := g.Budget(ctx)
	if err != nil {
		g.logger.Error("Risk state unavailable, rejecting", zap.String("symbol", intent.Symbol), zap.Error(err))

		return reject(ReasonRiskStateUnavailable, types.RiskBudget{}), err
	}

	open, err := g.symbolHasPosition(ctx, intent)
	if err != nil {
		return reject(ReasonRiskStateUnavailable, budget), err
	}

	return g.evaluate(intent, budget, open), nil
}

// Admit validates the intent and, when allowed, reserves its share of the global
// counters until the returned reservation is released. Decisions on different
// symbols therefore never both claim the last slot.
func (g *Gate) Admit(ctx context.Context, intent types.TradeIntent) (Decision, *Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	decision, err := g.Validate(ctx, intent)
	if err != nil {
		return decision, nil, err
	}

	if !decision.Allowed {
		return decision, nil, nil
	}

	pending := decision.Budget
	pending.DailyTradeCount += g.pendingTrades
	pending.OpenPositionCount += g.pendingOpens

	if reason := g.dailyRejection(pending); reason != "" {
		return g.logged(intent, reject(reason, pending)), nil, nil
	}

	if intent.OpensPosition && pending.OpenPositionCount >= g.limits.MaxOpenPositions {
		return g.logged(intent, reject(ReasonPositionLimit, pending)), nil, nil
	}

	reservation := &Reservation{gate: g, opens: intent.OpensPosition}
	g.pendingTrades++

	if intent.OpensPosition {
		g.pendingOpens++
	}

	return decision, reservation, nil
}

func (g *Gate) release(opens bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pendingTrades--

	if opens {
		g.pendingOpens--
	}
}

func (g *Gate) evaluate(intent types.TradeIntent, budget types.RiskBudget, symbolOpen bool) Decision {
	switch {
	case intent.Quantity <= 0:
		return g.logged(intent, reject(ReasonInvalidQuantity, budget))
	case intent.Price <= 0:
		return g.logged(intent, reject(ReasonInvalidPrice, budget))
	}

	if reason := g.dailyRejection(budget); reason != "" {
		return g.logged(intent, reject(reason, budget))
	}

	if intent.OpensPosition {
		if budget.OpenPositionCount >= g.limits.MaxOpenPositions {
			return g.logged(intent, reject(ReasonPositionLimit, budget))
		}

		if symbolOpen {
			return g.logged(intent, reject(ReasonSymbolHasPosition, budget))
		}
	}

	if g.limits.MinNotional > 0 && intent.Notional() < g.limits.MinNotional {
		return g.logged(intent, reject(ReasonNotionalBelowMinimum, budget))
	}

	return allow(budget)
}

func (g *Gate) dailyRejection(budget types.RiskBudget) string {
	if budget.DailyTradeCount >= g.limits.MaxDailyTrades {
		return ReasonDailyTradeLimit
	}

	if budget.DailyRealizedPnlPct < -g.limits.MaxDailyLossPct {
		return ReasonDailyLossLimit
	}

	return ""
}

func (g *Gate) symbolHasPosition(ctx context.Context, intent types.TradeIntent) (bool, error) {
	if !g.limits.OnePositionPerSymbol || !intent.OpensPosition {
		return false, nil
	}

	open, err := g.ledger.OpenPositions(ctx)
	if err != nil {
		return false, err
	}

	for _, p := range open {
		if p.Symbol == intent.Symbol {
			return true, nil
		}
	}

	return false, nil
}

// pnlPct expresses realized P/L as a percent of reference equity.
func (g *Gate) pnlPct(pnl float64) float64 {
	if g.limits.ReferenceEquity <= 0 {
		return 0
	}

	return decimal.NewFromFloat(pnl).
		Div(decimal.NewFromFloat(g.limits.ReferenceEquity)).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
}

func (g *Gate) logged(intent types.TradeIntent, decision Decision) Decision {
	g.logger.Info("Trade rejected by risk gate",
		zap.String("symbol", intent.Symbol),
		zap.String("side", string(intent.Side)),
		zap.String("reason", decision.Reason),
		zap.Int("daily_trades", decision.Budget.DailyTradeCount),
		zap.Int("open_positions", decision.Budget.OpenPositionCount),
	)

	return decision
}

func percent(pct float64) decimal.Decimal {
	return decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
}
