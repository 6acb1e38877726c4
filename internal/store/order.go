package store

import (
	"sync"

	"github.com/quaychain/brokerage/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders, with a
// primary index by order_id and a secondary index by customer_id.
type OrderStore struct {
	mu             sync.RWMutex
	orders         map[string]*domain.Order
	customerOrders map[string][]*domain.Order // customer_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:         make(map[string]*domain.Order),
		customerOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the
// customer's secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.customerOrders[o.CustomerID] = append(s.customerOrders[o.CustomerID], o)
}

// Get retrieves an order by ID. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByCustomer returns the customer's orders in reverse chronological
// order (newest first). If status is non-nil, only orders matching that
// status are included.
func (s *OrderStore) ListByCustomer(customerID string, status *domain.OrderStatus) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.customerOrders[customerID]
	result := make([]*domain.Order, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		result = append(result, all[i])
	}
	return result
}
