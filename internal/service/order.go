package service

import (
	"fmt"
	"regexp"

	"github.com/quaychain/brokerage/internal/domain"
	"github.com/quaychain/brokerage/internal/engine"
	"github.com/quaychain/brokerage/internal/store"
)

var (
	customerIDRegex  = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	orderSymbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)
)

// ValidOrderStatuses lists all valid order status values for filtering.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusOpen:          true,
	domain.OrderStatusPartialFilled: true,
	domain.OrderStatusFilled:        true,
	domain.OrderStatusCancelled:     true,
	domain.OrderStatusExpired:       true,
}

// SubmitOrderRequest represents the input for order submission. The
// (CustomerID, AccountID) pair arrives already authorized by the
// excluded REST/identity layer.
type SubmitOrderRequest struct {
	Type       domain.OrderType
	Side       domain.Side
	Symbol     string
	CustomerID string
	AccountID  string
	Price      *float64 // required for limit, must be nil for market
	Quantity   int64
}

// OrderService handles order submission, retrieval, cancellation, and
// listing.
type OrderService struct {
	matcher  *engine.Matcher
	accounts *store.AccountStore
	orders   *store.OrderStore
	quotes   *store.QuoteStore
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(
	matcher *engine.Matcher,
	accounts *store.AccountStore,
	orders *store.OrderStore,
	quotes *store.QuoteStore,
) *OrderService {
	return &OrderService{
		matcher:  matcher,
		accounts: accounts,
		orders:   orders,
		quotes:   quotes,
	}
}

// Submit validates the request and runs the order through the matching
// engine.
func (s *OrderService) Submit(req SubmitOrderRequest) (*domain.Order, error) {
	if req.Type != domain.OrderTypeLimit && req.Type != domain.OrderTypeMarket {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: limit, market", req.Type),
		}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'buy' or 'sell'",
		}
	}
	if !customerIDRegex.MatchString(req.CustomerID) {
		return nil, &domain.ValidationError{
			Message: "customer_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !orderSymbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z]{1,10}$",
		}
	}
	if !s.quotes.Exists(req.Symbol) {
		return nil, domain.ErrSymbolNotFound
	}
	if !domain.ValidQuantity(req.Quantity) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("quantity must be a positive multiple of %d", domain.LotSize),
		}
	}

	var priceCents int64
	if req.Type == domain.OrderTypeLimit {
		if req.Price == nil {
			return nil, &domain.ValidationError{
				Message: "price is required for limit orders",
			}
		}
		if *req.Price <= 0 {
			return nil, &domain.ValidationError{
				Message: "price must be greater than 0",
			}
		}
		cents, err := domain.DollarsToCents(*req.Price)
		if err != nil {
			return nil, &domain.ValidationError{
				Message: "price must have at most 2 decimal places",
			}
		}
		priceCents = cents
	} else if req.Price != nil {
		return nil, &domain.ValidationError{
			Message: "market orders must not include price",
		}
	}

	account, err := s.accounts.Get(req.AccountID)
	if err != nil {
		return nil, err
	}
	if account.CustomerID != req.CustomerID {
		return nil, domain.ErrUnauthorized
	}

	order := &domain.Order{
		Type:       req.Type,
		Side:       req.Side,
		Symbol:     req.Symbol,
		CustomerID: req.CustomerID,
		AccountID:  req.AccountID,
		Price:      priceCents,
		Quantity:   req.Quantity,
	}

	if _, err := s.matcher.Submit(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Get retrieves an order by ID with all its fills.
func (s *OrderService) Get(orderID string) (*domain.Order, error) {
	return s.orders.Get(orderID)
}

// Cancel cancels an open or partially filled order on behalf of the
// requesting customer.
func (s *OrderService) Cancel(orderID, customerID string) (*domain.Order, error) {
	if !customerIDRegex.MatchString(customerID) {
		return nil, &domain.ValidationError{
			Message: "customer_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return s.matcher.Cancel(orderID, customerID)
}

// ListByCustomer returns the customer's orders, newest first, with an
// optional status filter.
func (s *OrderService) ListByCustomer(customerID string, status *domain.OrderStatus) ([]*domain.Order, error) {
	if status != nil && !ValidOrderStatuses[*status] {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Invalid status filter: '%s'. Must be one of: open, partial_filled, filled, cancelled, expired", *status),
		}
	}
	return s.orders.ListByCustomer(customerID, status), nil
}
