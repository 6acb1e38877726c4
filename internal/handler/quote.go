package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/service"
)

// QuoteHandler handles HTTP requests for quote endpoints.
type QuoteHandler struct {
	quoteSvc *service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quoteSvc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

// quoteResponse is the JSON representation of a quote.
type quoteResponse struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"last_price"`
	Bid       float64 `json:"bid"`
	BidVolume int64   `json:"bid_volume"`
	Ask       float64 `json:"ask"`
	AskVolume int64   `json:"ask_volume"`
}

func buildQuoteResponse(q domain.Quote) quoteResponse {
	return quoteResponse{
		Symbol:    q.Symbol,
		LastPrice: domain.CentsToDollars(q.LastPrice),
		Bid:       domain.CentsToDollars(q.Bid),
		BidVolume: q.BidVolume,
		Ask:       domain.CentsToDollars(q.Ask),
		AskVolume: q.AskVolume,
	}
}

// GetQuote handles GET /quotes/{symbol}.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	q, err := h.quoteSvc.Get(symbol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildQuoteResponse(q))
}

// ListQuotes handles GET /quotes.
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes := h.quoteSvc.List()

	resp := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, buildQuoteResponse(q))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"quotes": resp})
}
