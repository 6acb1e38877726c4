package store

import (
	"sync"

	"github.com/quaychain/brokerage/internal/domain"
)

// TransferStore is a thread-safe append-only store of cash transfers,
// indexed by account so either party can list its fund movements.
type TransferStore struct {
	mu        sync.RWMutex
	transfers []*domain.CashTransfer
	byAccount map[string][]*domain.CashTransfer
}

// NewTransferStore creates an empty TransferStore.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		byAccount: make(map[string][]*domain.CashTransfer),
	}
}

// Append records a transfer under both the sending and receiving
// accounts.
func (s *TransferStore) Append(t *domain.CashTransfer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers = append(s.transfers, t)
	s.byAccount[t.FromAccount] = append(s.byAccount[t.FromAccount], t)
	s.byAccount[t.ToAccount] = append(s.byAccount[t.ToAccount], t)
}

// ListByAccount returns the account's transfers in chronological order.
func (s *TransferStore) ListByAccount(accountID string) []*domain.CashTransfer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transfers := s.byAccount[accountID]
	result := make([]*domain.CashTransfer, len(transfers))
	copy(result, transfers)
	return result
}

// Count returns the total number of recorded transfers.
func (s *TransferStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transfers)
}
