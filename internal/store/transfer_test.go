package store

import (
	"testing"
	"time"

	"github.com/quaychain/brokerage/internal/domain"
)

func TestTransferStore_Append_IndexesBothAccounts(t *testing.T) {
	s := NewTransferStore()
	s.Append(&domain.CashTransfer{
		TransferID:  "tr-1",
		FromAccount: "acct-1",
		ToAccount:   "acct-2",
		Amount:      163500,
		Symbol:      "AAPL",
		CreatedAt:   time.Now(),
	})

	if got := s.ListByAccount("acct-1"); len(got) != 1 {
		t.Errorf("sender transfers = %d, want 1", len(got))
	}
	if got := s.ListByAccount("acct-2"); len(got) != 1 {
		t.Errorf("receiver transfers = %d, want 1", len(got))
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
}

func TestTransferStore_ListByAccount_ChronologicalOrder(t *testing.T) {
	s := NewTransferStore()
	now := time.Now()
	s.Append(&domain.CashTransfer{TransferID: "tr-1", FromAccount: "acct-1", ToAccount: "acct-2", Amount: 100, CreatedAt: now})
	s.Append(&domain.CashTransfer{TransferID: "tr-2", FromAccount: "acct-2", ToAccount: "acct-1", Amount: 200, CreatedAt: now.Add(time.Second)})

	got := s.ListByAccount("acct-1")
	if len(got) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(got))
	}
	if got[0].TransferID != "tr-1" || got[1].TransferID != "tr-2" {
		t.Errorf("expected [tr-1 tr-2], got [%s %s]", got[0].TransferID, got[1].TransferID)
	}
}

func TestTransferStore_ListByAccount_Empty(t *testing.T) {
	s := NewTransferStore()
	if got := s.ListByAccount("nobody"); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}
