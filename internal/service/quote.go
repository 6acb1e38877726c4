package service

import (
	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/store"
)

// QuoteService serves per-symbol quote reads. Quotes are derived state
// maintained by the matching engine, so reads never touch the books.
type QuoteService struct {
	quotes *store.QuoteStore
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(quotes *store.QuoteStore) *QuoteService {
	return &QuoteService{quotes: quotes}
}

// Get returns the quote for a symbol.
func (s *QuoteService) Get(symbol string) (domain.Quote, error) {
	return s.quotes.Get(symbol)
}

// List returns all quotes sorted by symbol.
func (s *QuoteService) List() []domain.Quote {
	return s.quotes.List()
}
