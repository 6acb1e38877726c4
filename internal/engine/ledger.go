package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/store"
)

// FillTicket describes a single fill to be settled: the two orders
// involved, the matched quantity, and the execution price in cents.
type FillTicket struct {
	Symbol   string
	Buy      *domain.Order
	Sell     *domain.Order
	Quantity int64
	Price    int64
}

// Ledger is the interface the matching engine uses to move cash
// between accounts and shares between portfolios. Settle is
// all-or-nothing per fill: either every leg applies or none do.
type Ledger interface {
	ReserveCash(accountID string, amount int64) error
	ReleaseCash(accountID string, amount int64)
	ReserveShares(customerID, symbol string, quantity int64) error
	ReleaseShares(customerID, symbol string, quantity int64)
	AvailableCash(accountID string) (int64, error)
	AvailableShares(customerID, symbol string) int64
	Settle(t FillTicket) error
}

// StoreLedger implements Ledger on top of the in-memory account,
// holding, and transfer stores.
type StoreLedger struct {
	accounts  *store.AccountStore
	holdings  *store.HoldingStore
	transfers *store.TransferStore
}

// NewStoreLedger creates a StoreLedger with the given stores.
func NewStoreLedger(accounts *store.AccountStore, holdings *store.HoldingStore, transfers *store.TransferStore) *StoreLedger {
	return &StoreLedger{
		accounts:  accounts,
		holdings:  holdings,
		transfers: transfers,
	}
}

// ReserveCash locks amount cents of the account's available balance
// for an open buy order. Returns domain.ErrSettlement if the account
// cannot cover the reservation.
func (l *StoreLedger) ReserveCash(accountID string, amount int64) error {
	account, err := l.accounts.Get(accountID)
	if err != nil {
		return err
	}
	account.Mu.Lock()
	defer account.Mu.Unlock()

	if account.Available() < amount {
		return domain.ErrSettlement
	}
	account.Reserved += amount
	return nil
}

// ReleaseCash returns previously reserved cents to the account's
// available balance, after a cancel, expiry, or capped acceptance.
func (l *StoreLedger) ReleaseCash(accountID string, amount int64) {
	account, err := l.accounts.Get(accountID)
	if err != nil {
		return
	}
	account.Mu.Lock()
	defer account.Mu.Unlock()

	if amount > account.Reserved {
		amount = account.Reserved
	}
	account.Reserved -= amount
}

// ReserveShares marks shares as sold-pending for an open sell order so
// a second concurrent sell cannot use them.
func (l *StoreLedger) ReserveShares(customerID, symbol string, quantity int64) error {
	return l.holdings.Reserve(customerID, symbol, quantity)
}

// ReleaseShares returns reserved shares to the settled holding.
func (l *StoreLedger) ReleaseShares(customerID, symbol string, quantity int64) {
	l.holdings.Release(customerID, symbol, quantity)
}

// AvailableCash returns the account's unreserved balance in cents.
func (l *StoreLedger) AvailableCash(accountID string) (int64, error) {
	account, err := l.accounts.Get(accountID)
	if err != nil {
		return 0, err
	}
	account.Mu.Lock()
	defer account.Mu.Unlock()
	return account.Available(), nil
}

// AvailableShares returns the customer's un-reserved holding quantity.
func (l *StoreLedger) AvailableShares(customerID, symbol string) int64 {
	return l.holdings.Available(customerID, symbol)
}

// Settle applies one fill atomically: debits the buyer (balance and
// reservation), credits the seller, moves shares between portfolios,
// accumulates the seller's realized gain-loss, and records one
// CashTransfer. Every leg is validated before anything is applied; a
// violation returns domain.ErrSettlement with no state changed.
func (l *StoreLedger) Settle(t FillTicket) error {
	buyer, err := l.accounts.Get(t.Buy.AccountID)
	if err != nil {
		return err
	}
	seller, err := l.accounts.Get(t.Sell.AccountID)
	if err != nil {
		return err
	}

	cost := t.Quantity * t.Price
	// Limit buys reserved cash at the limit price; release the portion
	// covering this fill and replace it with the actual debit. Market
	// buys never reserved, so nothing to release.
	var release int64
	if t.Buy.ReservedPrice > 0 {
		release = t.Buy.ReservedPrice * t.Quantity
	}

	lockAccountsInOrder(buyer, seller)
	defer unlockAccounts(buyer, seller)

	// Validate both cash legs and the share leg before mutating. The
	// debit may draw on the released reservation plus unreserved
	// balance only; cash reserved by other open orders stays locked.
	if buyer.Available()+release < cost || buyer.Reserved < release {
		return domain.ErrSettlement
	}
	if l.holdings.Reserved(t.Sell.CustomerID, t.Symbol) < t.Quantity {
		return domain.ErrSettlement
	}

	buyer.Balance -= cost
	buyer.Reserved -= release
	seller.Balance += cost

	// Pre-checked above; an error here would indicate a racing writer,
	// which the per-symbol lock rules out.
	if err := l.holdings.SettleSell(t.Sell.CustomerID, t.Symbol, t.Quantity, t.Price); err != nil {
		// Roll the cash legs back so the fill is a strict no-op.
		buyer.Balance += cost
		buyer.Reserved += release
		seller.Balance -= cost
		return err
	}
	l.holdings.SettleBuy(t.Buy.CustomerID, t.Symbol, t.Quantity, t.Price)

	l.transfers.Append(&domain.CashTransfer{
		TransferID:  uuid.New().String(),
		FromAccount: buyer.AccountID,
		ToAccount:   seller.AccountID,
		Amount:      cost,
		Symbol:      t.Symbol,
		CreatedAt:   time.Now(),
	})

	return nil
}

// lockAccountsInOrder acquires both account locks in a stable order so
// two concurrent settlements can never deadlock. Self-trades lock once.
func lockAccountsInOrder(a, b *domain.Account) {
	if a == b {
		a.Mu.Lock()
		return
	}
	if a.AccountID < b.AccountID {
		a.Mu.Lock()
		b.Mu.Lock()
	} else {
		b.Mu.Lock()
		a.Mu.Lock()
	}
}

func unlockAccounts(a, b *domain.Account) {
	if a == b {
		a.Mu.Unlock()
		return
	}
	a.Mu.Unlock()
	b.Mu.Unlock()
}
