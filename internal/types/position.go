package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

type PositionStatus string

const (
	// PositionStatusPending is held only in memory while the opening order is in flight.
	PositionStatusPending PositionStatus = "PENDING"
	PositionStatusOpen    PositionStatus = "OPEN"
	PositionStatusClosing PositionStatus = "CLOSING"
	PositionStatusClosed  PositionStatus = "CLOSED"
	// PositionStatusFailed is terminal and reachable from PENDING only. It is never persisted.
	PositionStatusFailed PositionStatus = "FAILED"
)

// Position is a currently or previously held market exposure.
type Position struct {
	ID          string                     `json:"id" yaml:"id"`
	Symbol      string                     `json:"symbol" yaml:"symbol"`
	Side        Side                       `json:"side" yaml:"side"`
	EntryPrice  float64                    `json:"entry_price" yaml:"entry_price"`
	Quantity    float64                    `json:"quantity" yaml:"quantity"`
	StopLoss    float64                    `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit  float64                    `json:"take_profit" yaml:"take_profit"`
	Status      PositionStatus             `json:"status" yaml:"status"`
	StrategyID  string                     `json:"strategy_id" yaml:"strategy_id"`
	OpenedAt    time.Time                  `json:"opened_at" yaml:"opened_at"`
	ClosedAt    optional.Option[time.Time] `json:"closed_at" yaml:"closed_at"`
	ExitPrice   optional.Option[float64]   `json:"exit_price" yaml:"exit_price"`
	RealizedPnl optional.Option[float64]   `json:"realized_pnl" yaml:"realized_pnl"`
}

// PositionSpec is the input to creating a position.
type PositionSpec struct {
	// ID is assigned by the caller so the opening trade can reference it before the row exists.
	ID         string    `validate:"required"`
	Symbol     string    `validate:"required"`
	Side       Side      `validate:"required,oneof=BUY SELL"`
	EntryPrice float64   `validate:"gt=0"`
	Quantity   float64   `validate:"gt=0"`
	StopLoss   float64   `validate:"gte=0"`
	TakeProfit float64   `validate:"gte=0"`
	StrategyID string    `validate:"required"`
	OpenedAt   time.Time `validate:"required"`
}

// Validate validates the PositionSpec struct.
func (p *PositionSpec) Validate() error {
	if p.Quantity <= 0 {
		return errors.Newf(errors.ErrCodeInvalidQuantity, "quantity must be positive, got %v", p.Quantity)
	}

	if p.EntryPrice <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "entry price must be positive, got %v", p.EntryPrice)
	}

	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPosition, "invalid position", err)
	}

	return nil
}

// ClosedPosition is the result of closing a position.
type ClosedPosition struct {
	PositionID  string    `json:"position_id" yaml:"position_id"`
	Symbol      string    `json:"symbol" yaml:"symbol"`
	Side        Side      `json:"side" yaml:"side"`
	EntryPrice  float64   `json:"entry_price" yaml:"entry_price"`
	ExitPrice   float64   `json:"exit_price" yaml:"exit_price"`
	Quantity    float64   `json:"quantity" yaml:"quantity"`
	RealizedPnl float64   `json:"realized_pnl" yaml:"realized_pnl"`
	OpenedAt    time.Time `json:"opened_at" yaml:"opened_at"`
	ClosedAt    time.Time `json:"closed_at" yaml:"closed_at"`
}

// ClosedFromPosition builds the close result from a CLOSED position row.
func ClosedFromPosition(p Position) (ClosedPosition, error) {
	if p.Status != PositionStatusClosed {
		return ClosedPosition{}, errors.Newf(errors.ErrCodeInvalidTransition, "position %s is %s, not CLOSED", p.ID, p.Status)
	}

	return ClosedPosition{
		PositionID:  p.ID,
		Symbol:      p.Symbol,
		Side:        p.Side,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   p.ExitPrice.TakeOr(0),
		Quantity:    p.Quantity,
		RealizedPnl: p.RealizedPnl.TakeOr(0),
		OpenedAt:    p.OpenedAt,
		ClosedAt:    p.ClosedAt.TakeOr(time.Time{}),
	}, nil
}
