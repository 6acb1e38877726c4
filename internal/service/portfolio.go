package service

import (
	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/store"
)

// PortfolioHolding is a single line in a portfolio view.
type PortfolioHolding struct {
	Symbol       string
	Quantity     int64
	AvgCost      int64 // cents
	CurrentPrice int64 // cents, last trade price
	GainLoss     int64 // cents, (current_price − avg_cost) × quantity
}

// PortfolioResponse represents the computed portfolio for a customer.
// Gains are in cents: unrealized marks current holdings to the last
// price; total adds the customer's lifetime realized gains from
// completed sells.
type PortfolioResponse struct {
	CustomerID         string
	Holdings           []PortfolioHolding
	UnrealizedGainLoss int64
	RealizedGainLoss   int64
	TotalGainLoss      int64
}

// PortfolioService computes customer portfolios from settled holdings
// and current quotes.
type PortfolioService struct {
	holdings *store.HoldingStore
	quotes   *store.QuoteStore
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(holdings *store.HoldingStore, quotes *store.QuoteStore) *PortfolioService {
	return &PortfolioService{
		holdings: holdings,
		quotes:   quotes,
	}
}

// Compute builds the customer's portfolio: settled holdings only (the
// sell-reservation lines are excluded), each marked to the symbol's
// last price.
func (s *PortfolioService) Compute(customerID string) (*PortfolioResponse, error) {
	if !customerIDRegex.MatchString(customerID) {
		return nil, &domain.ValidationError{
			Message: "customer_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	settled := s.holdings.ListSettled(customerID)
	holdings := make([]PortfolioHolding, 0, len(settled))

	var unrealized int64
	for _, h := range settled {
		var price int64
		if q, err := s.quotes.Get(h.Symbol); err == nil {
			price = q.LastPrice
		}
		gain := h.GainLoss(price)
		unrealized += gain
		holdings = append(holdings, PortfolioHolding{
			Symbol:       h.Symbol,
			Quantity:     h.Quantity,
			AvgCost:      h.AvgCost,
			CurrentPrice: price,
			GainLoss:     gain,
		})
	}

	realized := s.holdings.Realized(customerID)
	return &PortfolioResponse{
		CustomerID:         customerID,
		Holdings:           holdings,
		UnrealizedGainLoss: unrealized,
		RealizedGainLoss:   realized,
		TotalGainLoss:      unrealized + realized,
	}, nil
}
