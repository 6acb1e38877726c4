package store

import (
	"sync"

	"github.com/quaychain/brokerage/internal/domain"
)

// AccountStore is a thread-safe in-memory store for accounts, with a
// primary index by account_id and a secondary index by customer_id.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	byCust   map[string][]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
		byCust:   make(map[string][]*domain.Account),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if an account with the same ID
// already exists.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.AccountID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.accounts[a.AccountID] = a
	s.byCust[a.CustomerID] = append(s.byCust[a.CustomerID], a)
	return nil
}

// Get retrieves an account by ID. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (s *AccountStore) Get(id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}

// ListByCustomer returns the customer's accounts in creation order.
func (s *AccountStore) ListByCustomer(customerID string) []*domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := s.byCust[customerID]
	result := make([]*domain.Account, len(accounts))
	copy(result, accounts)
	return result
}

// Exists returns true if an account with the given ID exists.
func (s *AccountStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[id]
	return ok
}
