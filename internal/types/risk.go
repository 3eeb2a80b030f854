package types

import "github.com/rxtech-lab/argo-riskgate/pkg/errors"

// RiskBudget is derived per decision from the ledger. It is never stored.
type RiskBudget struct {
	DailyTradeCount     int     `json:"daily_trade_count" yaml:"daily_trade_count"`
	DailyRealizedPnl    float64 `json:"daily_realized_pnl" yaml:"daily_realized_pnl"`
	DailyRealizedPnlPct float64 `json:"daily_realized_pnl_pct" yaml:"daily_realized_pnl_pct"`
	OpenPositionCount   int     `json:"open_position_count" yaml:"open_position_count"`
}

// SizingResult is the computed size and protective levels of a new position.
type SizingResult struct {
	Quantity        float64 `json:"quantity" yaml:"quantity"`
	StopLossPrice   float64 `json:"stop_loss_price" yaml:"stop_loss_price"`
	TakeProfitPrice float64 `json:"take_profit_price" yaml:"take_profit_price"`
	Leverage        float64 `json:"leverage" yaml:"leverage"`
	HedgeRatio      float64 `json:"hedge_ratio" yaml:"hedge_ratio"`
}

// TradeIntent is a sized trade waiting for the risk gate and then the executor.
type TradeIntent struct {
	Symbol     string  `json:"symbol" yaml:"symbol" validate:"required"`
	Side       Side    `json:"side" yaml:"side" validate:"required,oneof=BUY SELL"`
	Price      float64 `json:"price" yaml:"price"`
	Quantity   float64 `json:"quantity" yaml:"quantity"`
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64 `json:"take_profit" yaml:"take_profit"`
	StrategyID string  `json:"strategy_id" yaml:"strategy_id" validate:"required"`
	// OpensPosition is false for intents that only reduce exposure.
	OpensPosition bool    `json:"opens_position" yaml:"opens_position"`
	Leverage      float64 `json:"leverage" yaml:"leverage"`
	HedgeRatio    float64 `json:"hedge_ratio" yaml:"hedge_ratio"`
}

// Validate rejects malformed intents. Non-positive quantity or price is a validation error.
func (t *TradeIntent) Validate() error {
	if t.Quantity <= 0 {
		return errors.Newf(errors.ErrCodeInvalidQuantity, "quantity must be positive, got %v", t.Quantity)
	}

	if t.Price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive, got %v", t.Price)
	}

	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTradeIntent, "invalid trade intent", err)
	}

	return nil
}

// Notional is quantity times price.
func (t *TradeIntent) Notional() float64 {
	return t.Quantity * t.Price
}
