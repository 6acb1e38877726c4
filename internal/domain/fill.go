package domain

import "time"

// Fill represents a single matched execution applied to an order. A
// match produces one Fill for each side, sharing the same FillID.
type Fill struct {
	FillID     string
	OrderID    string
	Price      int64 // cents
	Quantity   int64
	ExecutedAt time.Time
}
