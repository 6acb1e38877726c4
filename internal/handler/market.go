package handler

import (
	"net/http"
	"time"

	"github.com/quaychain/brokerage/internal/service"
)

// MarketHandler handles HTTP requests for market session endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// Status handles GET /market/status.
func (h *MarketHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.marketSvc.Status()
	WriteJSON(w, http.StatusOK, map[string]any{
		"open": status.Open,
		"now":  status.Now.Format(time.RFC3339),
	})
}

// Reset handles POST /market/reset, the administrative reseed of
// quotes and the liquidity provider. Allowed outside trading hours.
func (h *MarketHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.marketSvc.Reset()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
