package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// MarketState is a volatility and trend summary attached to a signal by the producer.
type MarketState struct {
	// Volatility is normalized to [0,1]. Values outside are clamped by the allocator.
	Volatility float64 `json:"volatility" yaml:"volatility"`
	// Trend is positive for an uptrend, negative for a downtrend and zero when flat.
	Trend float64 `json:"trend" yaml:"trend"`
}

// Signal is a proposed trade produced by an external strategy. It is consumed once.
type Signal struct {
	Symbol         string    `json:"symbol" yaml:"symbol" validate:"required"`
	Side           Side      `json:"side" yaml:"side" validate:"required,oneof=BUY SELL"`
	ReferencePrice float64   `json:"reference_price" yaml:"reference_price" validate:"gt=0"`
	Confidence     float64   `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
	StrategyID     string    `json:"strategy_id" yaml:"strategy_id" validate:"required"`
	Time           time.Time `json:"time" yaml:"time"`
	// Market is optional. Without it the allocator leaves leverage at its minimum.
	Market optional.Option[MarketState] `json:"market" yaml:"market"`
}

// Validate validates the Signal struct.
func (s *Signal) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSignal, "invalid signal", err)
	}

	return nil
}
