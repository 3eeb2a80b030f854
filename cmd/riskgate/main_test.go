package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/internal/config"
	"github.com/rxtech-lab/argo-riskgate/internal/exchange/paper"
	"github.com/rxtech-lab/argo-riskgate/internal/logger"
	signals "github.com/rxtech-lab/argo-riskgate/internal/signal"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RiskgateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestRiskgateCmdTestSuite(t *testing.T) {
	suite.Run(t, new(RiskgateCmdTestSuite))
}

func (suite *RiskgateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *RiskgateCmdTestSuite) run(args ...string) error {
	return newApp().Run(context.Background(), append([]string{"riskgate"}, args...))
}

func (suite *RiskgateCmdTestSuite) TestSchemaWritesSchemaAndSample() {
	dir := filepath.Join(suite.tempDir, "config")

	suite.Require().NoError(suite.run("schema", "--dir", dir))

	suite.FileExists(filepath.Join(dir, "riskgate-config.json"))
	suite.FileExists(filepath.Join(dir, "riskgate.yaml"))

	// the sample must load as is
	cfg, err := config.Load(filepath.Join(dir, "riskgate.yaml"))
	suite.Require().NoError(err)
	suite.Equal(cfg.Exchange.Paper.InitialBalance, cfg.Risk.ReferenceEquity)
}

func (suite *RiskgateCmdTestSuite) TestSchemaKeepsExistingSample() {
	dir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(os.MkdirAll(dir, 0o755))

	sample := filepath.Join(dir, "riskgate.yaml")
	suite.Require().NoError(os.WriteFile(sample, []byte("risk:\n  reference_equity: 5000\n"), 0o600))

	suite.Require().NoError(suite.run("schema", "--dir", dir))

	content, err := os.ReadFile(sample)
	suite.Require().NoError(err)
	suite.Equal("risk:\n  reference_equity: 5000\n", string(content))
}

func (suite *RiskgateCmdTestSuite) TestGenerateThenReplay() {
	dir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(suite.run("schema", "--dir", dir))

	output := filepath.Join(suite.tempDir, "signals.jsonl")
	suite.Require().NoError(suite.run("generate", "--output", output, "--count", "50", "--symbols", "BTCUSDT", "--symbols", "ETHUSDT"))
	suite.FileExists(output)

	suite.Require().NoError(suite.run("--config", filepath.Join(dir, "riskgate.yaml"), "--log-level", "error", "replay", "--signals", output))
}

func (suite *RiskgateCmdTestSuite) TestMissingConfig() {
	err := suite.run("--config", filepath.Join(suite.tempDir, "missing.yaml"), "positions")
	suite.True(errors.HasCode(err, errors.ErrCodeConfigNotFound))
}

func (suite *RiskgateCmdTestSuite) TestNewGateway() {
	cfg := config.Default()

	gateway, err := newGateway(cfg, logger.NewNop())
	suite.Require().NoError(err)
	suite.IsType(&paper.Gateway{}, gateway)

	cfg.Exchange.Provider = "kraken"
	_, err = newGateway(cfg, logger.NewNop())
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedGateway))
}

func (suite *RiskgateCmdTestSuite) TestReplayClockFollowsSignals() {
	clock := &replayClock{}
	suite.False(clock.Now().IsZero())

	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ch := make(chan types.Signal, 3)
	ch <- testSignal(first)
	ch <- testSignal(first.Add(-time.Hour))
	ch <- testSignal(first.Add(time.Minute))
	close(ch)

	source := clock.Wrap(signals.NewChannelSource(ch))
	ctx := context.Background()

	_, err := source.Next(ctx)
	suite.Require().NoError(err)
	suite.Equal(first, clock.Now())

	// the clock never moves backwards
	_, err = source.Next(ctx)
	suite.Require().NoError(err)
	suite.Equal(first, clock.Now())

	_, err = source.Next(ctx)
	suite.Require().NoError(err)
	suite.Equal(first.Add(time.Minute), clock.Now())
}

func testSignal(at time.Time) types.Signal {
	return types.Signal{
		Symbol:         "BTCUSDT",
		Side:           types.SideBuy,
		ReferencePrice: 50000,
		Confidence:     0.9,
		StrategyID:     "test",
		Time:           at,
		Market:         optional.None[types.MarketState](),
	}
}
