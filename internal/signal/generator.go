package signal

import (
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// Generator produces synthetic signals over a geometric Brownian motion price path.
// It feeds replays and load tests; it is not a strategy.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator. Use a fixed seed for reproducible output.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures one generated series.
type GeneratorConfig struct {
	Symbol     string
	StrategyID string
	StartTime  time.Time
	// Interval is the time between two signals.
	Interval time.Duration
	Count    int
	// InitialPrice is the first reference price.
	InitialPrice float64
	// Volatility is the per step standard deviation of returns (0.002 = 0.2%).
	Volatility float64
	// Trend is the total drift spread across the series.
	Trend float64
	// Window is the number of past returns used for the attached market state.
	Window int
}

// DefaultGeneratorConfig returns a neutral one minute series.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "BTCUSDT",
		StrategyID:   "synthetic",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     time.Minute,
		Count:        1000,
		InitialPrice: 50000,
		Volatility:   0.002,
		Trend:        0,
		Window:       20,
	}
}

// Generate returns config.Count signals. The side follows the last return and
// the confidence grows with the size of the move relative to the volatility.
func (g *Generator) Generate(config GeneratorConfig) ([]types.Signal, error) {
	if config.Count <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "count must be positive")
	}

	if config.InitialPrice <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidPrice, "initial price must be positive")
	}

	if config.Volatility <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "volatility must be positive")
	}

	if config.Window <= 0 {
		config.Window = 1
	}

	signals := make([]types.Signal, config.Count)
	returns := make([]float64, 0, config.Count)
	price := config.InitialPrice
	at := config.StartTime
	drift := config.Trend / float64(config.Count)

	for i := 0; i < config.Count; i++ {
		// Box-Muller
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		step := config.Volatility*z + drift

		next := price * (1 + step)
		if next <= 0 {
			next = price * 0.99
		}

		returns = append(returns, step)

		side := types.SideBuy
		if step < 0 {
			side = types.SideSell
		}

		signals[i] = types.Signal{
			Symbol:         config.Symbol,
			Side:           side,
			ReferencePrice: roundTo(next, 4),
			Confidence:     roundTo(1-math.Exp(-math.Abs(z)), 4),
			StrategyID:     config.StrategyID,
			Time:           at,
			Market:         optional.Some(marketState(returns, config.Window, config.Volatility)),
		}

		price = next
		at = at.Add(config.Interval)
	}

	return signals, nil
}

// GenerateMultiSymbol interleaves one series per symbol by time.
// Initial price and volatility vary slightly per symbol.
func (g *Generator) GenerateMultiSymbol(symbols []string, base GeneratorConfig) ([]types.Signal, error) {
	series := make([][]types.Signal, 0, len(symbols))

	for _, symbol := range symbols {
		config := base
		config.Symbol = symbol
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = base.Volatility * (0.8 + g.rng.Float64()*0.4)

		signals, err := g.Generate(config)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to generate %s", symbol)
		}

		series = append(series, signals)
	}

	all := make([]types.Signal, 0, base.Count*len(symbols))
	for i := 0; i < base.Count; i++ {
		for _, signals := range series {
			all = append(all, signals[i])
		}
	}

	return all, nil
}

// WriteJSONLines writes one signal per line, the format read by JSONLinesSource.
func WriteJSONLines(w io.Writer, signals []types.Signal) error {
	encoder := json.NewEncoder(w)

	for i := range signals {
		if err := encoder.Encode(signals[i]); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidSignal, err, "failed to encode signal %d", i)
		}
	}

	return nil
}

// marketState summarizes the last window returns. Volatility is the realized
// standard deviation over three times the configured one, capped at 1.
func marketState(returns []float64, window int, volatility float64) types.MarketState {
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}

	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	stddev := math.Sqrt(variance / float64(len(returns)))

	return types.MarketState{
		Volatility: roundTo(math.Min(stddev/(3*volatility), 1), 4),
		Trend:      roundTo(sum, 6),
	}
}

func roundTo(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
