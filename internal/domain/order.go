package domain

import "time"

// LotSize is the minimum tradeable increment. Every order quantity must
// be a positive multiple of it.
const LotSize int64 = 100

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Side indicates whether an order buys or sells shares.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus represents the lifecycle state of an order.
// Filled, cancelled and expired are terminal.
type OrderStatus string

const (
	OrderStatusOpen          OrderStatus = "open"
	OrderStatusPartialFilled OrderStatus = "partial_filled"
	OrderStatusFilled        OrderStatus = "filled"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusExpired       OrderStatus = "expired"
)

// Order represents a buy or sell instruction submitted by a customer.
// All monetary values are in cents.
type Order struct {
	OrderID           string
	Type              OrderType
	Side              Side
	Symbol            string
	CustomerID        string
	AccountID         string
	Price             int64 // limit price in cents, 0 for market orders
	ReservedPrice     int64 // unit price the cash reservation was taken at, 0 for sells and market buys
	Quantity          int64
	FilledQuantity    int64
	RemainingQuantity int64
	DiscardedQuantity int64 // quantity capped away or IOC-cancelled, never rested
	Status            OrderStatus
	SubmittedAt       time.Time
	CancelledAt       *time.Time
	ExpiredAt         *time.Time
	Fills             []*Fill
}

// AverageFillPrice computes the volume-weighted average execution price
// in dollars as sum(fill.price × fill.quantity) / filled_quantity.
// Returns (0, false) when no fills have been executed.
func (o *Order) AverageFillPrice() (float64, bool) {
	if len(o.Fills) == 0 || o.FilledQuantity == 0 {
		return 0, false
	}
	var total int64
	for _, f := range o.Fills {
		total += f.Price * f.Quantity
	}
	return float64(total) / float64(o.FilledQuantity) / 100.0, true
}

// IsTerminal reports whether the order can no longer change.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// ValidQuantity reports whether q is a positive multiple of the lot size.
func ValidQuantity(q int64) bool {
	return q > 0 && q%LotSize == 0
}

// FloorToLot rounds q down to the nearest lot-size multiple.
func FloorToLot(q int64) int64 {
	if q < 0 {
		return 0
	}
	return q - q%LotSize
}
