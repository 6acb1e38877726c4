package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	Type       string   `json:"type"`
	Side       string   `json:"side"`
	Symbol     string   `json:"symbol"`
	CustomerID string   `json:"customer_id"`
	AccountID  string   `json:"account_id"`
	Price      *float64 `json:"price"`
	Quantity   int64    `json:"quantity"`
}

// orderResponse is the JSON representation of an order. Nullable
// fields use pointers; market orders carry a null price.
type orderResponse struct {
	OrderID           string         `json:"order_id"`
	Type              string         `json:"type"`
	Side              string         `json:"side"`
	Symbol            string         `json:"symbol"`
	CustomerID        string         `json:"customer_id"`
	AccountID         string         `json:"account_id"`
	Price             *float64       `json:"price"`
	Quantity          int64          `json:"quantity"`
	FilledQuantity    int64          `json:"filled_quantity"`
	RemainingQuantity int64          `json:"remaining_quantity"`
	DiscardedQuantity int64          `json:"discarded_quantity"`
	AvgFillPrice      *float64       `json:"avg_fill_price"`
	Status            string         `json:"status"`
	SubmittedAt       string         `json:"submitted_at"`
	CancelledAt       *string        `json:"cancelled_at"`
	ExpiredAt         *string        `json:"expired_at"`
	Fills             []fillResponse `json:"fills"`
}

// fillResponse is a single fill in the order response.
type fillResponse struct {
	FillID     string  `json:"fill_id"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	ExecutedAt string  `json:"executed_at"`
}

func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:           o.OrderID,
		Type:              string(o.Type),
		Side:              string(o.Side),
		Symbol:            o.Symbol,
		CustomerID:        o.CustomerID,
		AccountID:         o.AccountID,
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		DiscardedQuantity: o.DiscardedQuantity,
		Status:            string(o.Status),
		SubmittedAt:       o.SubmittedAt.Format(time.RFC3339),
		Fills:             make([]fillResponse, 0, len(o.Fills)),
	}
	if o.Type == domain.OrderTypeLimit {
		price := domain.CentsToDollars(o.Price)
		resp.Price = &price
	}
	if avg, ok := o.AverageFillPrice(); ok {
		resp.AvgFillPrice = &avg
	}
	if o.CancelledAt != nil {
		s := o.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	if o.ExpiredAt != nil {
		s := o.ExpiredAt.Format(time.RFC3339)
		resp.ExpiredAt = &s
	}
	for _, f := range o.Fills {
		resp.Fills = append(resp.Fills, fillResponse{
			FillID:     f.FillID,
			Price:      domain.CentsToDollars(f.Price),
			Quantity:   f.Quantity,
			ExecutedAt: f.ExecutedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.Submit(service.SubmitOrderRequest{
		Type:       domain.OrderType(req.Type),
		Side:       domain.Side(req.Side),
		Symbol:     req.Symbol,
		CustomerID: req.CustomerID,
		AccountID:  req.AccountID,
		Price:      req.Price,
		Quantity:   req.Quantity,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.Get(orderID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelOrder handles DELETE /orders/{order_id}?customer_id=….
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	customerID := r.URL.Query().Get("customer_id")

	order, err := h.orderSvc.Cancel(orderID, customerID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ListOrders handles GET /customers/{customer_id}/orders with an
// optional ?status= filter.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	var status *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.OrderStatus(s)
		status = &st
	}

	orders, err := h.orderSvc.ListByCustomer(customerID, status)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, buildOrderResponse(o))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orders": resp})
}
