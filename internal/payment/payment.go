package payment

import "context"

// Gateway is the subset of the hosted-checkout provider the shop relies on.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	// GetCheckoutSession fetches a session with its line items and products expanded.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)
}
