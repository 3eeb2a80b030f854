package types

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-riskgate/pkg/errors"
)

// Side is the direction of an order or position.
type Side string

type OrderType string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// Opposite returns the side that closes a position opened on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

// Ticker is the top of book for a symbol.
type Ticker struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Bid    float64 `json:"bid" yaml:"bid"`
	Ask    float64 `json:"ask" yaml:"ask"`
	Last   float64 `json:"last" yaml:"last"`
}

// EntryPrice returns the price a market order on side is expected to fill at:
// the ask for BUY, the bid for SELL, then last, then fallback.
func (t Ticker) EntryPrice(side Side, fallback float64) float64 {
	book := t.Bid
	if side == SideBuy {
		book = t.Ask
	}

	switch {
	case book > 0:
		return book
	case t.Last > 0:
		return t.Last
	default:
		return fallback
	}
}

// OrderRequest is a single order sent to an exchange gateway.
type OrderRequest struct {
	// ClientOrderID is generated once per submission and reused on every retry
	// so the venue can deduplicate.
	ClientOrderID string    `json:"client_order_id" yaml:"client_order_id" validate:"required"`
	Symbol        string    `json:"symbol" yaml:"symbol" validate:"required"`
	Side          Side      `json:"side" yaml:"side" validate:"required,oneof=BUY SELL"`
	Type          OrderType `json:"type" yaml:"type" validate:"required,oneof=MARKET LIMIT"`
	Quantity      float64   `json:"quantity" yaml:"quantity" validate:"gt=0"`
	// Price is required for LIMIT orders and ignored for MARKET orders.
	Price optional.Option[float64] `json:"price" yaml:"price"`
}

// Validate validates the OrderRequest struct.
func (o *OrderRequest) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderRequest, "invalid order request", err)
	}

	if o.Type == OrderTypeLimit {
		price, err := o.Price.Take()
		if err != nil || price <= 0 {
			return errors.New(errors.ErrCodeInvalidOrderRequest, "limit order requires a positive price")
		}
	}

	return nil
}

// OrderResult is what the venue reports for an order.
type OrderResult struct {
	OrderID       string      `json:"order_id" yaml:"order_id"`
	ClientOrderID string      `json:"client_order_id" yaml:"client_order_id"`
	Status        OrderStatus `json:"status" yaml:"status"`
	FilledQty     float64     `json:"filled_qty" yaml:"filled_qty"`
	AvgPrice      float64     `json:"avg_price" yaml:"avg_price"`
	Commission    float64     `json:"commission" yaml:"commission"`
}

// Filled reports whether any quantity was executed.
func (r OrderResult) Filled() bool {
	return r.FilledQty > 0 && r.AvgPrice > 0
}
