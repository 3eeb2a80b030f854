// Package config loads the riskgate YAML configuration.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-riskgate/internal/types"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
	"github.com/rxtech-lab/argo-riskgate/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Provider selects the exchange gateway implementation.
type Provider string

const (
	ProviderPaper        Provider = "paper"
	ProviderBinancePaper Provider = "binance-paper"
	ProviderBinanceLive  Provider = "binance-live"
)

// LedgerDriver selects the database/sql driver backing the ledger.
type LedgerDriver string

const (
	LedgerDriverDuckDB LedgerDriver = "duckdb"
	LedgerDriverSQLite LedgerDriver = "sqlite3"
)

const (
	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceSecretKey = "BINANCE_SECRET_KEY"
)

type Config struct {
	Risk      RiskConfig      `yaml:"risk" json:"risk" jsonschema:"title=Risk,description=Account level risk limits"`
	Portfolio PortfolioConfig `yaml:"portfolio" json:"portfolio" jsonschema:"title=Portfolio,description=Allocator parameters"`
	Execution ExecutionConfig `yaml:"execution" json:"execution" jsonschema:"title=Execution,description=Order execution parameters"`
	Ledger    LedgerConfig    `yaml:"ledger" json:"ledger" jsonschema:"title=Ledger,description=Position ledger storage"`
	Exchange  ExchangeConfig  `yaml:"exchange" json:"exchange" jsonschema:"title=Exchange,description=Exchange gateway"`
	Server    ServerConfig    `yaml:"server" json:"server" jsonschema:"title=Server,description=Admin HTTP surface"`
	Log       LogConfig       `yaml:"log" json:"log" jsonschema:"title=Log"`
}

// RiskConfig holds the limits enforced by the risk gate. Percent fields are in percent units (5 means 5%).
type RiskConfig struct {
	MaxDailyTrades       int     `yaml:"max_daily_trades" json:"max_daily_trades" validate:"gt=0" jsonschema:"title=Max Daily Trades,minimum=1,default=10"`
	MaxDailyLossPct      float64 `yaml:"max_daily_loss_pct" json:"max_daily_loss_pct" validate:"gt=0,lte=100" jsonschema:"title=Max Daily Loss Percent,default=5"`
	MaxOpenPositions     int     `yaml:"max_open_positions" json:"max_open_positions" validate:"gt=0" jsonschema:"title=Max Open Positions,minimum=1,default=5"`
	PositionSizePct      float64 `yaml:"position_size_pct" json:"position_size_pct" validate:"gt=0,lte=100" jsonschema:"title=Position Size Percent,default=5"`
	MaxPositionSize      float64 `yaml:"max_position_size" json:"max_position_size" validate:"gt=0" jsonschema:"title=Max Position Size,description=Maximum notional per position in quote currency,default=1000"`
	StopLossPct          float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gt=0,lt=100" jsonschema:"title=Stop Loss Percent,default=3"`
	TakeProfitPct        float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gt=0" jsonschema:"title=Take Profit Percent,default=6"`
	PricePrecision       int32   `yaml:"price_precision" json:"price_precision" validate:"gte=0,lte=16" jsonschema:"title=Price Precision,default=8"`
	ReferenceEquity      float64 `yaml:"reference_equity" json:"reference_equity" validate:"gt=0" jsonschema:"title=Reference Equity,description=Equity used to express daily P/L as a percent"`
	MinConfidence        float64 `yaml:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1" jsonschema:"title=Min Confidence,default=0.5"`
	MinNotional          float64 `yaml:"min_notional" json:"min_notional" validate:"gte=0" jsonschema:"title=Min Notional,default=10"`
	OnePositionPerSymbol bool    `yaml:"one_position_per_symbol" json:"one_position_per_symbol" jsonschema:"title=One Position Per Symbol,default=false"`
	LiquidateOnDailyLoss bool    `yaml:"liquidate_on_daily_loss" json:"liquidate_on_daily_loss" jsonschema:"title=Liquidate On Daily Loss,default=false"`
}

type PortfolioConfig struct {
	LeverageMin          float64 `yaml:"leverage_min" json:"leverage_min" validate:"gt=0" jsonschema:"title=Leverage Min,default=1"`
	LeverageMax          float64 `yaml:"leverage_max" json:"leverage_max" validate:"gtefield=LeverageMin" jsonschema:"title=Leverage Max,default=10"`
	MaxDrawdownThreshold float64 `yaml:"max_drawdown_threshold" json:"max_drawdown_threshold" validate:"gt=0,lt=1" jsonschema:"title=Max Drawdown Threshold,description=Drawdown fraction above which positions are hedged,default=0.05"`
}

type ExecutionConfig struct {
	RetryAttempts       int             `yaml:"retry_attempts" json:"retry_attempts" validate:"gte=1,lte=10" jsonschema:"title=Retry Attempts,default=3"`
	RetryBaseDelay      time.Duration   `yaml:"retry_base_delay" json:"retry_base_delay" validate:"gte=0" jsonschema:"title=Retry Base Delay,type=string,description=Go duration such as 500ms"`
	CallTimeout         time.Duration   `yaml:"call_timeout" json:"call_timeout" validate:"gt=0" jsonschema:"title=Call Timeout,type=string,description=Deadline of each gateway call"`
	MaxConcurrentCycles int             `yaml:"max_concurrent_cycles" json:"max_concurrent_cycles" validate:"gt=0" jsonschema:"title=Max Concurrent Cycles,default=8"`
	QuoteAsset          string          `yaml:"quote_asset" json:"quote_asset" validate:"required" jsonschema:"title=Quote Asset,default=USDT"`
	OrderType           types.OrderType `yaml:"order_type" json:"order_type" validate:"oneof=MARKET LIMIT" jsonschema:"title=Order Type,enum=MARKET,enum=LIMIT,default=MARKET"`
	ExitCheckInterval   time.Duration   `yaml:"exit_check_interval" json:"exit_check_interval" validate:"gte=0" jsonschema:"title=Exit Check Interval,type=string,description=Zero disables the stop-loss and take-profit monitor"`
}

type LedgerConfig struct {
	Driver LedgerDriver `yaml:"driver" json:"driver" validate:"oneof=duckdb sqlite3" jsonschema:"title=Driver,enum=duckdb,enum=sqlite3,default=duckdb"`
	DSN    string       `yaml:"dsn" json:"dsn" validate:"required" jsonschema:"title=DSN,default=riskgate.duckdb"`
}

type ExchangeConfig struct {
	Provider  Provider    `yaml:"provider" json:"provider" validate:"oneof=paper binance-paper binance-live" jsonschema:"title=Provider,enum=paper,enum=binance-paper,enum=binance-live,default=paper"`
	APIKey    string      `yaml:"api_key" json:"api_key" validate:"required_unless=Provider paper" jsonschema:"title=API Key"`
	SecretKey string      `yaml:"secret_key" json:"secret_key" validate:"required_unless=Provider paper" jsonschema:"title=Secret Key"`
	BaseURL   string      `yaml:"base_url" json:"base_url" validate:"omitempty,url" jsonschema:"title=Base URL"`
	Paper     PaperConfig `yaml:"paper" json:"paper"`
}

type PaperConfig struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" validate:"gte=0" jsonschema:"title=Initial Balance,default=10000"`
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,default=0.001"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,default=false"`
	Addr    string `yaml:"addr" json:"addr" validate:"required_if=Enabled true" jsonschema:"title=Address,default=:8080"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error" jsonschema:"title=Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// Default returns a Config populated with default values.
// ReferenceEquity has no default and must be set by the caller.
func Default() Config {
	return Config{
		Risk: RiskConfig{
			MaxDailyTrades:       10,
			MaxDailyLossPct:      5,
			MaxOpenPositions:     5,
			PositionSizePct:      5,
			MaxPositionSize:      1000,
			StopLossPct:          3,
			TakeProfitPct:        6,
			PricePrecision:       8,
			ReferenceEquity:      0,
			MinConfidence:        0.5,
			MinNotional:          10,
			OnePositionPerSymbol: false,
			LiquidateOnDailyLoss: false,
		},
		Portfolio: PortfolioConfig{
			LeverageMin:          1,
			LeverageMax:          10,
			MaxDrawdownThreshold: 0.05,
		},
		Execution: ExecutionConfig{
			RetryAttempts:       3,
			RetryBaseDelay:      500 * time.Millisecond,
			CallTimeout:         5 * time.Second,
			MaxConcurrentCycles: 8,
			QuoteAsset:          "USDT",
			OrderType:           types.OrderTypeMarket,
			ExitCheckInterval:   30 * time.Second,
		},
		Ledger: LedgerConfig{
			Driver: LedgerDriverDuckDB,
			DSN:    "riskgate.duckdb",
		},
		Exchange: ExchangeConfig{
			Provider: ProviderPaper,
			Paper: PaperConfig{
				InitialBalance: 10000,
				CommissionRate: 0.001,
			},
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads, decodes and validates the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrapf(errors.ErrCodeConfigNotFound, err, "config file %s not found", path)
		}

		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// Parse decodes YAML on top of the defaults, applies environment overrides and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBinanceAPIKey); ok && v != "" {
		c.Exchange.APIKey = v
	}

	if v, ok := lookup(EnvBinanceSecretKey); ok && v != "" {
		c.Exchange.SecretKey = v
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// Schema returns the JSON schema of the YAML configuration.
func Schema() (string, error) {
	return schema.ToYAMLSchema(Config{})
}
