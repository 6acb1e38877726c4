package store

import (
	"sort"
	"sync"

	"github.com/quaychain/brokerage/internal/domain"
)

// QuoteStore is a thread-safe in-memory store of per-symbol quotes.
// The set of stored symbols is the fixed listed universe: a symbol
// exists once seeded with a reference price and quotes are thereafter
// overwritten by the matching engine after each matching pass.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

// NewQuoteStore creates an empty QuoteStore.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{
		quotes: make(map[string]domain.Quote),
	}
}

// Set stores the quote for its symbol, replacing any previous value.
func (s *QuoteStore) Set(q domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Symbol] = q
}

// Get retrieves the quote for a symbol. It returns
// domain.ErrSymbolNotFound for unlisted symbols.
func (s *QuoteStore) Get(symbol string) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[symbol]
	if !ok {
		return domain.Quote{}, domain.ErrSymbolNotFound
	}
	return q, nil
}

// Exists returns true if the symbol is listed.
func (s *QuoteStore) Exists(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.quotes[symbol]
	return ok
}

// List returns all quotes sorted by symbol.
func (s *QuoteStore) List() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}

// Symbols returns the listed symbols sorted alphabetically.
func (s *QuoteStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.quotes))
	for sym := range s.quotes {
		result = append(result, sym)
	}
	sort.Strings(result)
	return result
}
