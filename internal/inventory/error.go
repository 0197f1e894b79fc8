package inventory

import "errors"

var (
	ErrMissingProductID = errors.New("productId is required")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
)
