package service

import (
	"time"

	"github.com/quaychain/brokerage/internal/engine"
)

// MarketStatus reports whether trading is currently possible.
type MarketStatus struct {
	Open bool
	Now  time.Time
}

// MarketService exposes the session state and the administrative reset
// that reseeds quotes and the liquidity provider. Reset is allowed
// outside trading hours; it is an operator action, not a customer one.
type MarketService struct {
	session *engine.SessionGuard
	maker   *engine.MarketMaker
	prices  map[string]int64 // symbol → static reference price in cents
}

// NewMarketService creates a new MarketService with the static
// per-symbol reference prices from configuration.
func NewMarketService(session *engine.SessionGuard, maker *engine.MarketMaker, prices map[string]int64) *MarketService {
	return &MarketService{
		session: session,
		maker:   maker,
		prices:  prices,
	}
}

// Status returns the current session state.
func (s *MarketService) Status() MarketStatus {
	return MarketStatus{
		Open: s.session.IsOpen(),
		Now:  time.Now(),
	}
}

// Reset reseeds every symbol's quote and the market maker's standing
// orders from the reference prices.
func (s *MarketService) Reset() {
	s.maker.Seed(s.prices)
}
