package order

import "errors"

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrPaymentNotCompleted      = errors.New("payment not completed")
	ErrNoPaymentIntent          = errors.New("order has no payment intent")
	ErrInvalidRefundAmount      = errors.New("refund amount must be positive and not exceed the order total")
	ErrAlreadyRefunded          = errors.New("order already refunded")
	ErrEmptyUpdate              = errors.New("no updatable fields provided")
	ErrInvalidStatus            = errors.New("invalid order status")
	ErrInvalidFulfillmentStatus = errors.New("invalid fulfillment status")
	ErrMissingSessionID         = errors.New("session_id is required")
)
