package portfolio

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/stretchr/testify/suite"
)

type AllocatorTestSuite struct {
	suite.Suite
	allocator *Allocator
}

func TestAllocatorSuite(t *testing.T) {
	suite.Run(t, new(AllocatorTestSuite))
}

func (suite *AllocatorTestSuite) SetupTest() {
	suite.allocator = NewAllocator(config.PortfolioConfig{
		LeverageMin:          1,
		LeverageMax:          10,
		MaxDrawdownThreshold: 0.05,
	})
}

func (suite *AllocatorTestSuite) sum(weights map[string]float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	return total
}

func (suite *AllocatorTestSuite) TestRebalanceWeights() {
	current := map[string]float64{"BTCUSDT": 0.5, "ETHUSDT": 0.3, "SOLUSDT": 0.2}

	for _, trend := range []float64{1, -1, 0} {
		result := suite.allocator.RebalanceWeights(current, types.MarketState{Trend: trend})
		suite.InDelta(1.0, suite.sum(result), 1e-9)
		// uniform scaling keeps proportions
		suite.InDelta(0.5, result["BTCUSDT"], 1e-9)
		suite.InDelta(0.3, result["ETHUSDT"], 1e-9)
	}
}

func (suite *AllocatorTestSuite) TestRebalanceWeightsRenormalizes() {
	current := map[string]float64{"BTCUSDT": 2, "ETHUSDT": 2}

	result := suite.allocator.RebalanceWeights(current, types.MarketState{Trend: 0.4})
	suite.InDelta(0.5, result["BTCUSDT"], 1e-9)
	suite.InDelta(0.5, result["ETHUSDT"], 1e-9)
}

func (suite *AllocatorTestSuite) TestRebalanceWeightsZeroTotal() {
	current := map[string]float64{"BTCUSDT": 0}

	result := suite.allocator.RebalanceWeights(current, types.MarketState{Trend: 1})
	suite.Equal(0.0, result["BTCUSDT"])
}

func (suite *AllocatorTestSuite) TestComputeLeverage() {
	suite.Equal(10.0, suite.allocator.ComputeLeverage(0))
	suite.Equal(1.0, suite.allocator.ComputeLeverage(1))
	suite.InDelta(5.5, suite.allocator.ComputeLeverage(0.5), 1e-9)
	suite.Equal(10.0, suite.allocator.ComputeLeverage(-3))
	suite.Equal(1.0, suite.allocator.ComputeLeverage(7))
	suite.Equal(1.0, suite.allocator.ComputeLeverage(math.NaN()))
}

func (suite *AllocatorTestSuite) TestComputeLeverageMonotonic() {
	previous := suite.allocator.ComputeLeverage(0)

	for i := 1; i <= 1000; i++ {
		v := float64(i) / 1000
		leverage := suite.allocator.ComputeLeverage(v)

		suite.LessOrEqual(leverage, previous)
		suite.GreaterOrEqual(leverage, 1.0)
		suite.LessOrEqual(leverage, 10.0)

		previous = leverage
	}
}

func (suite *AllocatorTestSuite) TestKellyFraction() {
	// b = 2, f = (0.6*2 - 0.4)/2 = 0.4 -> ceiling
	suite.Equal(0.25, suite.allocator.KellyFraction(0.6, 200, 100))
	// b = 1, f = (0.55 - 0.45) = 0.1
	suite.InDelta(0.1, suite.allocator.KellyFraction(0.55, 100, 100), 1e-9)
	// negative edge -> floor
	suite.Equal(0.01, suite.allocator.KellyFraction(0.2, 100, 100))
	suite.Equal(0.01, suite.allocator.KellyFraction(0.9, 100, 0))
}

func (suite *AllocatorTestSuite) TestKellyFractionBounds() {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		winRate := rng.Float64()
		avgWin := rng.Float64() * 1000
		avgLoss := rng.Float64()*1000 + 1e-9

		f := suite.allocator.KellyFraction(winRate, avgWin, avgLoss)
		suite.GreaterOrEqual(f, 0.01)
		suite.LessOrEqual(f, 0.25)
	}
}

func (suite *AllocatorTestSuite) TestHedgeRatio() {
	suite.Equal(0.0, suite.allocator.HedgeRatio(0.05))
	suite.Equal(0.5, suite.allocator.HedgeRatio(0.0501))
	suite.Equal(0.0, suite.allocator.HedgeRatio(0))
}

func (suite *AllocatorTestSuite) TestSize() {
	calm := suite.allocator.Size(0.02, types.MarketState{Volatility: 0}, 0.01)
	suite.Equal(0.02, calm.Quantity)
	suite.Equal(10.0, calm.Leverage)
	suite.Equal(0.0, calm.HedgeRatio)

	hedged := suite.allocator.Size(0.02, types.MarketState{Volatility: 1}, 0.2)
	suite.Equal(0.01, hedged.Quantity)
	suite.Equal(1.0, hedged.Leverage)
	suite.Equal(0.5, hedged.HedgeRatio)
}

func (suite *AllocatorTestSuite) TestDrawdown() {
	suite.Equal(0.0, Drawdown(10000, nil))
	suite.Equal(0.0, Drawdown(10000, []float64{100, 200}))
	// peak 10500, now 9650
	suite.InDelta(850.0/10500.0, Drawdown(10000, []float64{500, -1050, 200}), 1e-9)
	// recovered to a new high at 11000
	suite.Equal(0.0, Drawdown(10000, []float64{-1000, 2000}))
	// back at the peak after a 10% dip
	suite.Equal(0.0, Drawdown(10000, []float64{-1000, 1000}))
	suite.Equal(0.0, Drawdown(0, []float64{-100}))
	suite.Equal(1.0, Drawdown(100, []float64{-500}))
}

func (suite *AllocatorTestSuite) TestHedgeClearsAfterRecovery() {
	dipped := Drawdown(10000, []float64{-1000})
	suite.InDelta(0.1, dipped, 1e-9)
	suite.Equal(0.5, suite.allocator.Size(1, types.MarketState{}, dipped).HedgeRatio)

	recovered := Drawdown(10000, []float64{-1000, 2000})
	sizing := suite.allocator.Size(1, types.MarketState{}, recovered)
	suite.Equal(0.0, sizing.HedgeRatio)
	suite.Equal(1.0, sizing.Quantity)
}
