// Package portfolio turns market summaries into sizing hints. Nothing here gates a trade.
package portfolio

import (
	"math"

	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/shopspring/decimal"
)

const (
	trendUpMultiplier   = 1.2
	trendDownMultiplier = 0.8

	kellyFloor   = 0.01
	kellyCeiling = 0.25

	hedgeRatioOn = 0.5
)

// Allocator holds the leverage band and drawdown threshold. All methods are pure.
type Allocator struct {
	leverageMin          float64
	leverageMax          float64
	maxDrawdownThreshold float64
}

// NewAllocator creates an allocator from the portfolio configuration.
func NewAllocator(cfg config.PortfolioConfig) *Allocator {
	return &Allocator{
		leverageMin:          cfg.LeverageMin,
		leverageMax:          cfg.LeverageMax,
		maxDrawdownThreshold: cfg.MaxDrawdownThreshold,
	}
}

// RebalanceWeights scales every weight by 1.2 in an uptrend or 0.8 in a downtrend
// and renormalizes so the weights sum to 1. Weights that sum to zero are returned unchanged.
func (a *Allocator) RebalanceWeights(current map[string]float64, state types.MarketState) map[string]float64 {
	multiplier := decimal.NewFromInt(1)

	switch {
	case state.Trend > 0:
		multiplier = decimal.NewFromFloat(trendUpMultiplier)
	case state.Trend < 0:
		multiplier = decimal.NewFromFloat(trendDownMultiplier)
	}

	scaled := make(map[string]decimal.Decimal, len(current))
	total := decimal.Zero

	for symbol, weight := range current {
		w := decimal.NewFromFloat(weight).Mul(multiplier)
		scaled[symbol] = w
		total = total.Add(w)
	}

	result := make(map[string]float64, len(current))

	if total.IsZero() {
		for symbol, weight := range current {
			result[symbol] = weight
		}

		return result
	}

	for symbol, w := range scaled {
		result[symbol] = w.Div(total).InexactFloat64()
	}

	return result
}

// ComputeLeverage interpolates linearly from leverage_max at zero volatility down to
// leverage_min at volatility 1. Volatility is clamped to [0,1] first.
func (a *Allocator) ComputeLeverage(volatility float64) float64 {
	// unknown volatility is treated as the worst case
	if math.IsNaN(volatility) {
		volatility = 1
	}

	v := clamp(volatility, 0, 1)
	leverage := a.leverageMin + (1-v)*(a.leverageMax-a.leverageMin)

	return clamp(leverage, a.leverageMin, a.leverageMax)
}

// KellyFraction returns (winRate × b − (1 − winRate)) / b with b = avgWin / avgLoss,
// clamped to [0.01, 0.25]. A zero avgLoss returns 0.01.
func (a *Allocator) KellyFraction(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss == 0 || avgWin <= 0 {
		return kellyFloor
	}

	b := avgWin / avgLoss
	f := (winRate*b - (1 - winRate)) / b

	return clamp(f, kellyFloor, kellyCeiling)
}

// HedgeRatio is 0.5 when drawdown exceeds the threshold and 0 otherwise.
func (a *Allocator) HedgeRatio(currentDrawdown float64) float64 {
	if currentDrawdown > a.maxDrawdownThreshold {
		return hedgeRatioOn
	}

	return 0
}

// Size scales the gate's quantity by (1 − hedgeRatio) and attaches leverage.
// The result never exceeds baseQuantity.
func (a *Allocator) Size(baseQuantity float64, state types.MarketState, currentDrawdown float64) types.SizingResult {
	hedge := a.HedgeRatio(currentDrawdown)
	quantity := decimal.NewFromFloat(baseQuantity).
		Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(hedge))).
		InexactFloat64()

	if quantity > baseQuantity {
		quantity = baseQuantity
	}

	return types.SizingResult{
		Quantity:   quantity,
		Leverage:   a.ComputeLeverage(state.Volatility),
		HedgeRatio: hedge,
	}
}

// Drawdown returns the current decline of the equity curve referenceEquity +
// cumulative pnls from its running peak, as a fraction of that peak.
// A curve at a new high has no drawdown, whatever it went through before.
func Drawdown(referenceEquity float64, pnls []float64) float64 {
	if referenceEquity <= 0 {
		return 0
	}

	equity := decimal.NewFromFloat(referenceEquity)
	peak := equity

	for _, pnl := range pnls {
		equity = equity.Add(decimal.NewFromFloat(pnl))

		if equity.GreaterThan(peak) {
			peak = equity
		}
	}

	if !peak.IsPositive() {
		return 0
	}

	return clamp(peak.Sub(equity).Div(peak).InexactFloat64(), 0, 1)
}

func clamp(v, low, high float64) float64 {
	if math.IsNaN(v) || v < low {
		return low
	}

	if v > high {
		return high
	}

	return v
}
