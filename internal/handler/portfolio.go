package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/service"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
type PortfolioHandler struct {
	portfolioSvc *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioSvc *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioSvc: portfolioSvc}
}

type portfolioHoldingResponse struct {
	Symbol       string  `json:"symbol"`
	Quantity     int64   `json:"quantity"`
	AvgCost      float64 `json:"avg_cost"`
	CurrentPrice float64 `json:"current_price"`
	GainLoss     float64 `json:"gain_loss"`
}

type portfolioResponse struct {
	CustomerID         string                     `json:"customer_id"`
	Holdings           []portfolioHoldingResponse `json:"assets"`
	UnrealizedGainLoss float64                    `json:"unrealized_gain_loss"`
	RealizedGainLoss   float64                    `json:"realized_gain_loss"`
	TotalGainLoss      float64                    `json:"total_gain_loss"`
}

// GetPortfolio handles GET /customers/{customer_id}/portfolio.
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	p, err := h.portfolioSvc.Compute(customerID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	holdings := make([]portfolioHoldingResponse, 0, len(p.Holdings))
	for _, ph := range p.Holdings {
		holdings = append(holdings, portfolioHoldingResponse{
			Symbol:       ph.Symbol,
			Quantity:     ph.Quantity,
			AvgCost:      domain.CentsToDollars(ph.AvgCost),
			CurrentPrice: domain.CentsToDollars(ph.CurrentPrice),
			GainLoss:     domain.CentsToDollars(ph.GainLoss),
		})
	}

	WriteJSON(w, http.StatusOK, portfolioResponse{
		CustomerID:         p.CustomerID,
		Holdings:           holdings,
		UnrealizedGainLoss: domain.CentsToDollars(p.UnrealizedGainLoss),
		RealizedGainLoss:   domain.CentsToDollars(p.RealizedGainLoss),
		TotalGainLoss:      domain.CentsToDollars(p.TotalGainLoss),
	})
}
