package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// TradeKind tells whether a fill opened or closed a position.
type TradeKind string

const (
	TradeKindOpen  TradeKind = "OPEN"
	TradeKindClose TradeKind = "CLOSE"
)

const (
	TradeReasonSignal      string = "signal"
	TradeReasonExitSignal  string = "exit_signal"
	TradeReasonStopLoss    string = "stop_loss"
	TradeReasonTakeProfit  string = "take_profit"
	TradeReasonLiquidation string = "liquidation"
	TradeReasonManual      string = "manual"
)

// TradeRecord is an immutable record of one executed fill.
type TradeRecord struct {
	ID         string                  `json:"id" yaml:"id"`
	PositionID optional.Option[string] `json:"position_id" yaml:"position_id"`
	Kind       TradeKind               `json:"kind" yaml:"kind" validate:"required,oneof=OPEN CLOSE"`
	OrderID    string                  `json:"order_id" yaml:"order_id"`
	Symbol     string                  `json:"symbol" yaml:"symbol" validate:"required"`
	Side       Side                    `json:"side" yaml:"side" validate:"required,oneof=BUY SELL"`
	Price      float64                 `json:"price" yaml:"price" validate:"gt=0"`
	Quantity   float64                 `json:"quantity" yaml:"quantity" validate:"gt=0"`
	Commission float64                 `json:"commission" yaml:"commission" validate:"gte=0"`
	// Pnl is zero for OPEN trades and the realized P/L for CLOSE trades.
	Pnl        float64   `json:"pnl" yaml:"pnl"`
	StrategyID string    `json:"strategy_id" yaml:"strategy_id"`
	Reason     string    `json:"reason" yaml:"reason"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// Validate validates the TradeRecord struct.
func (t *TradeRecord) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid trade record", err)
	}

	return nil
}

// DailySummary aggregates one UTC day of trades.
type DailySummary struct {
	Day             time.Time `json:"day" yaml:"day"`
	Trades          int       `json:"trades" yaml:"trades"`
	OpenTrades      int       `json:"open_trades" yaml:"open_trades"`
	CloseTrades     int       `json:"close_trades" yaml:"close_trades"`
	WinningTrades   int       `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades    int       `json:"losing_trades" yaml:"losing_trades"`
	TotalPnl        float64   `json:"total_pnl" yaml:"total_pnl"`
	TotalCommission float64   `json:"total_commission" yaml:"total_commission"`
	MaxLoss         float64   `json:"max_loss" yaml:"max_loss"`
}

// WinRate returns winning close trades over all close trades, or 0 with no closes.
func (d DailySummary) WinRate() float64 {
	if d.CloseTrades == 0 {
		return 0
	}

	return float64(d.WinningTrades) / float64(d.CloseTrades)
}
