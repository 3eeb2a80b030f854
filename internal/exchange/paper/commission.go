package paper

import "github.com/shopspring/decimal"

// CommissionFee computes the fee charged on a fill.
type CommissionFee interface {
	// Calculate returns the fee in quote currency for a fill of the given notional.
	Calculate(notional float64) float64
}

// NewCommissionFee returns a percent-of-notional fee, or a zero fee for a non-positive rate.
func NewCommissionFee(rate float64) CommissionFee {
	if rate <= 0 {
		return zeroCommission{}
	}

	return rateCommission{rate: decimal.NewFromFloat(rate)}
}

type zeroCommission struct{}

func (zeroCommission) Calculate(_ float64) float64 {
	return 0
}

type rateCommission struct {
	rate decimal.Decimal
}

func (c rateCommission) Calculate(notional float64) float64 {
	if notional <= 0 {
		return 0
	}

	return decimal.NewFromFloat(notional).Mul(c.rate).InexactFloat64()
}
