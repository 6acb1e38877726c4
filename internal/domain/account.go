package domain

import (
	"sync"
	"time"
)

// Account represents a customer's cash account. Balance is the total
// cash held; Reserved is the portion locked by the customer's open buy
// orders. All values are in cents.
type Account struct {
	AccountID  string
	CustomerID string
	Balance    int64
	Reserved   int64
	CreatedAt  time.Time
	Mu         sync.Mutex // per-account lock for balance mutations
}

// Available returns the unreserved cash balance.
func (a *Account) Available() int64 {
	return a.Balance - a.Reserved
}
