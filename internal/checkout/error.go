package checkout

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	ErrInvalidPrice    = errors.New("item price must not be negative")
	ErrMissingName     = errors.New("item name is required")
	ErrMissingRegion   = errors.New("region is required")
)

// OutOfStockError lists the products that cannot cover the requested quantity.
type OutOfStockError struct {
	ProductIDs []string
}

func (e *OutOfStockError) Error() string {
	return "insufficient stock for: " + strings.Join(e.ProductIDs, ", ")
}
