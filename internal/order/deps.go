package order

import "context"

// Notifier sends order emails; implementations skip what is not configured.
type Notifier interface {
	OrderConfirmation(ctx context.Context, o *Order) error
	AdminNotification(ctx context.Context, o *Order) error
	RefundNotification(ctx context.Context, o *Order, amount int64) error
}

// Publisher emits order lifecycle events keyed by order id.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Event types.
const (
	EventOrderPaid     = "order.paid"
	EventOrderUpdated  = "order.updated"
	EventOrderRefunded = "order.refunded"
)

// AmountPolicy controls whether gateway-computed shipping and tax are recorded.
type AmountPolicy struct {
	ShippingFromGateway bool
	TaxFromGateway      bool
}

func sessionCacheKey(sessionID string) string {
	return "order:session:" + sessionID
}
