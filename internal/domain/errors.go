package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrOrderNotCancellable  = errors.New("order_not_cancellable")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrMarketClosed         = errors.New("market_closed")
	ErrSymbolNotFound       = errors.New("symbol_not_found")
	ErrNoLiquidity          = errors.New("no_liquidity")
	ErrSettlement           = errors.New("settlement_failure")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
