package store

import (
	"sort"
	"sync"

	"github.com/quaychain/brokerage/internal/domain"
)

// position holds the two lines a customer can have in one symbol: the
// settled line and the live sell-reservation line (is_traded=true).
type position struct {
	settled *domain.Holding
	traded  *domain.Holding
}

// HoldingStore is a thread-safe in-memory store of share positions,
// keyed by (customer_id, symbol). It also accumulates each customer's
// lifetime realized gain-loss from completed sells. A single store-wide
// mutex keeps every position change atomic with respect to concurrent
// portfolio reads.
type HoldingStore struct {
	mu        sync.Mutex
	positions map[string]map[string]*position // customer_id → symbol → position
	realized  map[string]int64                // customer_id → realized gain-loss in cents
}

// NewHoldingStore creates an empty HoldingStore.
func NewHoldingStore() *HoldingStore {
	return &HoldingStore{
		positions: make(map[string]map[string]*position),
		realized:  make(map[string]int64),
	}
}

func (s *HoldingStore) pos(customerID, symbol string) *position {
	bySym, ok := s.positions[customerID]
	if !ok {
		bySym = make(map[string]*position)
		s.positions[customerID] = bySym
	}
	p, ok := bySym[symbol]
	if !ok {
		p = &position{
			settled: &domain.Holding{CustomerID: customerID, Symbol: symbol},
			traded:  &domain.Holding{CustomerID: customerID, Symbol: symbol, IsTraded: true},
		}
		bySym[symbol] = p
	}
	return p
}

// Grant adds shares directly to the settled line at the given unit
// cost, volume-weighting the average. Used for initial holdings and
// for seeding the house account.
func (s *HoldingStore) Grant(customerID, symbol string, quantity, unitCost int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pos(customerID, symbol)
	addWeighted(p.settled, quantity, unitCost)
}

// Available returns the settled (un-reserved) quantity for the symbol.
func (s *HoldingStore) Available(customerID, symbol string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySym, ok := s.positions[customerID]
	if !ok {
		return 0
	}
	p, ok := bySym[symbol]
	if !ok {
		return 0
	}
	return p.settled.Quantity
}

// Reserved returns the quantity locked by open sell orders.
func (s *HoldingStore) Reserved(customerID, symbol string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySym, ok := s.positions[customerID]
	if !ok {
		return 0
	}
	p, ok := bySym[symbol]
	if !ok {
		return 0
	}
	return p.traded.Quantity
}

// Reserve moves quantity from the settled line to the sell-reservation
// line. Returns domain.ErrSettlement if the settled line is short.
func (s *HoldingStore) Reserve(customerID, symbol string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pos(customerID, symbol)
	if p.settled.Quantity < quantity {
		return domain.ErrSettlement
	}
	p.settled.Quantity -= quantity
	// The reservation line inherits the settled line's average cost so
	// realized gain-loss on the eventual sale is computed against it.
	addWeighted(p.traded, quantity, p.settled.AvgCost)
	return nil
}

// Release moves quantity back from the sell-reservation line to the
// settled line, after a cancel or expiry.
func (s *HoldingStore) Release(customerID, symbol string, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pos(customerID, symbol)
	if quantity > p.traded.Quantity {
		quantity = p.traded.Quantity
	}
	p.traded.Quantity -= quantity
	addWeighted(p.settled, quantity, p.traded.AvgCost)
}

// SettleBuy adds purchased shares to the settled line, volume-weighting
// the average cost by the execution price.
func (s *HoldingStore) SettleBuy(customerID, symbol string, quantity, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pos(customerID, symbol)
	addWeighted(p.settled, quantity, price)
}

// SettleSell removes sold shares from the sell-reservation line and
// accumulates the customer's realized gain-loss:
// (execution price − avg cost) × quantity. Returns
// domain.ErrSettlement if the reservation line is short.
func (s *HoldingStore) SettleSell(customerID, symbol string, quantity, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pos(customerID, symbol)
	if p.traded.Quantity < quantity {
		return domain.ErrSettlement
	}
	s.realized[customerID] += (price - p.traded.AvgCost) * quantity
	p.traded.Quantity -= quantity
	return nil
}

// ListSettled returns copies of the customer's non-empty settled lines,
// sorted by symbol for deterministic output.
func (s *HoldingStore) ListSettled(customerID string) []domain.Holding {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySym := s.positions[customerID]
	result := make([]domain.Holding, 0, len(bySym))
	for _, p := range bySym {
		if p.settled.Quantity > 0 {
			result = append(result, *p.settled)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}

// Realized returns the customer's lifetime realized gain-loss in cents.
func (s *HoldingStore) Realized(customerID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realized[customerID]
}

// addWeighted adds quantity at unitCost to a holding line, updating the
// volume-weighted average cost with integer arithmetic.
func addWeighted(h *domain.Holding, quantity, unitCost int64) {
	if quantity <= 0 {
		return
	}
	total := h.AvgCost*h.Quantity + unitCost*quantity
	h.Quantity += quantity
	h.AvgCost = total / h.Quantity
}
