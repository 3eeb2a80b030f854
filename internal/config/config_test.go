package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.T().Setenv(EnvBinanceAPIKey, "")
	suite.T().Setenv(EnvBinanceSecretKey, "")
}

func (suite *ConfigTestSuite) TestDefault() {
	cfg := Default()

	suite.Equal(10, cfg.Risk.MaxDailyTrades)
	suite.Equal(5.0, cfg.Risk.MaxDailyLossPct)
	suite.Equal(5, cfg.Risk.MaxOpenPositions)
	suite.Equal(5.0, cfg.Risk.PositionSizePct)
	suite.Equal(1000.0, cfg.Risk.MaxPositionSize)
	suite.Equal(3.0, cfg.Risk.StopLossPct)
	suite.Equal(6.0, cfg.Risk.TakeProfitPct)
	suite.Equal(0.5, cfg.Risk.MinConfidence)
	suite.Equal(3, cfg.Execution.RetryAttempts)
	suite.Equal(500*time.Millisecond, cfg.Execution.RetryBaseDelay)
	suite.Equal(types.OrderTypeMarket, cfg.Execution.OrderType)
	suite.Equal(LedgerDriverDuckDB, cfg.Ledger.Driver)
	suite.Equal(ProviderPaper, cfg.Exchange.Provider)

	// reference equity has no default
	err := cfg.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParse() {
	cfg, err := Parse([]byte(`
risk:
  reference_equity: 10000
  max_open_positions: 3
  one_position_per_symbol: true
execution:
  retry_base_delay: 250ms
  exit_check_interval: 0s
ledger:
  driver: sqlite3
  dsn: ":memory:"
`))
	suite.Require().NoError(err)

	suite.Equal(10000.0, cfg.Risk.ReferenceEquity)
	suite.Equal(3, cfg.Risk.MaxOpenPositions)
	suite.True(cfg.Risk.OnePositionPerSymbol)
	suite.Equal(10, cfg.Risk.MaxDailyTrades)
	suite.Equal(250*time.Millisecond, cfg.Execution.RetryBaseDelay)
	suite.Equal(time.Duration(0), cfg.Execution.ExitCheckInterval)
	suite.Equal(LedgerDriverSQLite, cfg.Ledger.Driver)
}

func (suite *ConfigTestSuite) TestParseRejectsUnknownKeys() {
	_, err := Parse([]byte("risk:\n  reference_equity: 100\n  max_dialy_trades: 3\n"))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParseRejectsInvalidValues() {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "leverage max below min", yaml: "risk: {reference_equity: 100}\nportfolio: {leverage_min: 5, leverage_max: 2}\n"},
		{name: "unknown driver", yaml: "risk: {reference_equity: 100}\nledger: {driver: postgres}\n"},
		{name: "binance without keys", yaml: "risk: {reference_equity: 100}\nexchange: {provider: binance-live}\n"},
		{name: "zero retries", yaml: "risk: {reference_equity: 100}\nexecution: {retry_attempts: 0}\n"},
		{name: "confidence above one", yaml: "risk: {reference_equity: 100, min_confidence: 1.5}\n"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := Parse([]byte(tt.yaml))
			suite.Error(err)
		})
	}
}

func (suite *ConfigTestSuite) TestEnvOverridesSecrets() {
	suite.T().Setenv(EnvBinanceAPIKey, "env-key")
	suite.T().Setenv(EnvBinanceSecretKey, "env-secret")

	cfg, err := Parse([]byte("risk: {reference_equity: 100}\nexchange: {provider: binance-paper}\n"))
	suite.Require().NoError(err)
	suite.Equal("env-key", cfg.Exchange.APIKey)
	suite.Equal("env-secret", cfg.Exchange.SecretKey)
}

func (suite *ConfigTestSuite) TestLoad() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "riskgate.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("risk:\n  reference_equity: 5000\n"), 0o600))

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(5000.0, cfg.Risk.ReferenceEquity)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeConfigNotFound))
}

func (suite *ConfigTestSuite) TestSchema() {
	raw, err := Schema()
	suite.Require().NoError(err)
	suite.Contains(raw, "max_daily_trades")
	suite.Contains(raw, "reference_equity")
}
