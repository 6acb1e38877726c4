package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// openAccountRequest is the JSON request body for POST /accounts.
type openAccountRequest struct {
	CustomerID      string         `json:"customer_id"`
	InitialDeposit  float64        `json:"initial_deposit"`
	InitialHoldings []holdingInput `json:"initial_holdings"`
}

type holdingInput struct {
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// accountResponse is the JSON representation of an account.
type accountResponse struct {
	AccountID        string  `json:"account_id"`
	CustomerID       string  `json:"customer_id"`
	Balance          float64 `json:"balance"`
	AvailableBalance float64 `json:"available_balance"`
	CreatedAt        string  `json:"created_at"`
}

// transferResponse is a single cash transfer in the history response.
type transferResponse struct {
	TransferID  string  `json:"transfer_id"`
	FromAccount string  `json:"from_account"`
	ToAccount   string  `json:"to_account"`
	Amount      float64 `json:"amount"`
	Symbol      string  `json:"symbol"`
	CreatedAt   string  `json:"created_at"`
}

// OpenAccount handles POST /accounts.
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	holdings := make([]service.HoldingInput, 0, len(req.InitialHoldings))
	for _, hi := range req.InitialHoldings {
		holdings = append(holdings, service.HoldingInput{
			Symbol:   hi.Symbol,
			Quantity: hi.Quantity,
			AvgCost:  hi.AvgCost,
		})
	}

	account, err := h.accountSvc.Open(service.OpenAccountRequest{
		CustomerID:      req.CustomerID,
		InitialDeposit:  req.InitialDeposit,
		InitialHoldings: holdings,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, accountResponse{
		AccountID:        account.AccountID,
		CustomerID:       account.CustomerID,
		Balance:          domain.CentsToDollars(account.Balance),
		AvailableBalance: domain.CentsToDollars(account.Available()),
		CreatedAt:        account.CreatedAt.Format(time.RFC3339),
	})
}

// GetBalance handles GET /accounts/{account_id}.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	balance, err := h.accountSvc.GetBalance(accountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, accountResponse{
		AccountID:        balance.AccountID,
		CustomerID:       balance.CustomerID,
		Balance:          domain.CentsToDollars(balance.Balance),
		AvailableBalance: domain.CentsToDollars(balance.AvailableBalance),
		CreatedAt:        balance.CreatedAt.Format(time.RFC3339),
	})
}

// ListTransfers handles GET /accounts/{account_id}/transfers.
func (h *AccountHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	transfers, err := h.accountSvc.ListTransfers(accountID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		resp = append(resp, transferResponse{
			TransferID:  t.TransferID,
			FromAccount: t.FromAccount,
			ToAccount:   t.ToAccount,
			Amount:      domain.CentsToDollars(t.Amount),
			Symbol:      t.Symbol,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"transfers": resp})
}
