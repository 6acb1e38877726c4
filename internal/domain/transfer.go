package domain

import "time"

// CashTransfer records a fund movement between two accounts, one per
// settled fill. Transfers are append-only and never mutated.
type CashTransfer struct {
	TransferID  string
	FromAccount string
	ToAccount   string
	Amount      int64 // cents
	Symbol      string
	CreatedAt   time.Time
}
