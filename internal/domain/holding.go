package domain

// Holding represents a portfolio line: a customer's position in a
// single symbol. A customer has at most two lines per symbol: the
// settled line (IsTraded=false), and a live sell-reservation line
// (IsTraded=true) holding the shares locked by open sell orders.
// Portfolio views report only settled lines.
type Holding struct {
	CustomerID string
	Symbol     string
	Quantity   int64
	AvgCost    int64 // volume-weighted average purchase price in cents
	IsTraded   bool
}

// MarketValue returns the holding's value in cents at the given price.
func (h *Holding) MarketValue(price int64) int64 {
	return h.Quantity * price
}

// GainLoss returns the unrealized gain or loss in cents at the given
// current price: (price − avg_cost) × quantity.
func (h *Holding) GainLoss(price int64) int64 {
	return (price - h.AvgCost) * h.Quantity
}
