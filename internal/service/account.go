package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/store"
)

var accountSymbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)

// OpenAccountRequest represents the input for opening an account.
type OpenAccountRequest struct {
	CustomerID      string
	InitialDeposit  float64
	InitialHoldings []HoldingInput
}

// HoldingInput represents a single holding granted at account opening.
type HoldingInput struct {
	Symbol   string
	Quantity int64
	AvgCost  float64
}

// BalanceResponse represents an account balance view, cents.
type BalanceResponse struct {
	AccountID        string
	CustomerID       string
	Balance          int64
	Reserved         int64
	AvailableBalance int64
	CreatedAt        time.Time
}

// AccountService handles account opening, balance queries, and
// transfer history.
type AccountService struct {
	accounts  *store.AccountStore
	holdings  *store.HoldingStore
	transfers *store.TransferStore
	quotes    *store.QuoteStore
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	accounts *store.AccountStore,
	holdings *store.HoldingStore,
	transfers *store.TransferStore,
	quotes *store.QuoteStore,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		holdings:  holdings,
		transfers: transfers,
		quotes:    quotes,
	}
}

// Open validates the request, creates an account funded with the
// initial deposit, and grants any initial holdings to the customer's
// portfolio.
func (s *AccountService) Open(req OpenAccountRequest) (*domain.Account, error) {
	if !customerIDRegex.MatchString(req.CustomerID) {
		return nil, &domain.ValidationError{
			Message: "customer_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.InitialDeposit < 0 {
		return nil, &domain.ValidationError{
			Message: "initial_deposit must be >= 0",
		}
	}
	depositCents, err := domain.DollarsToCents(req.InitialDeposit)
	if err != nil {
		return nil, &domain.ValidationError{
			Message: "initial_deposit must have at most 2 decimal places",
		}
	}

	seen := make(map[string]bool)
	for _, h := range req.InitialHoldings {
		if !accountSymbolRegex.MatchString(h.Symbol) {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("holding symbol must match ^[A-Z]{1,10}$, got %q", h.Symbol),
			}
		}
		if !s.quotes.Exists(h.Symbol) {
			return nil, domain.ErrSymbolNotFound
		}
		if !domain.ValidQuantity(h.Quantity) {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("holding quantity must be a positive multiple of %d for symbol %s", domain.LotSize, h.Symbol),
			}
		}
		if h.AvgCost < 0 {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("avg_cost must be >= 0 for symbol %s", h.Symbol),
			}
		}
		if _, err := domain.DollarsToCents(h.AvgCost); err != nil {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("avg_cost must have at most 2 decimal places for symbol %s", h.Symbol),
			}
		}
		if seen[h.Symbol] {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("duplicate symbol in initial_holdings: %s", h.Symbol),
			}
		}
		seen[h.Symbol] = true
	}

	account := &domain.Account{
		AccountID:  uuid.New().String(),
		CustomerID: req.CustomerID,
		Balance:    depositCents,
		CreatedAt:  time.Now(),
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}

	for _, h := range req.InitialHoldings {
		// Validated above.
		costCents, _ := domain.DollarsToCents(h.AvgCost)
		s.holdings.Grant(req.CustomerID, h.Symbol, h.Quantity, costCents)
	}

	return account, nil
}

// GetBalance retrieves the account's balance with the reserved split.
func (s *AccountService) GetBalance(accountID string) (*BalanceResponse, error) {
	account, err := s.accounts.Get(accountID)
	if err != nil {
		return nil, err
	}

	account.Mu.Lock()
	defer account.Mu.Unlock()

	return &BalanceResponse{
		AccountID:        account.AccountID,
		CustomerID:       account.CustomerID,
		Balance:          account.Balance,
		Reserved:         account.Reserved,
		AvailableBalance: account.Available(),
		CreatedAt:        account.CreatedAt,
	}, nil
}

// ListTransfers returns the account's fund movements in chronological
// order.
func (s *AccountService) ListTransfers(accountID string) ([]*domain.CashTransfer, error) {
	if !s.accounts.Exists(accountID) {
		return nil, domain.ErrAccountNotFound
	}
	return s.transfers.ListByAccount(accountID), nil
}
