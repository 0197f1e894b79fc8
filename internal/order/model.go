package order

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentProcessing  FulfillmentStatus = "processing"
	FulfillmentShipped     FulfillmentStatus = "shipped"
	FulfillmentDelivered   FulfillmentStatus = "delivered"
	FulfillmentReturned    FulfillmentStatus = "returned"
)

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case FulfillmentUnfulfilled, FulfillmentProcessing, FulfillmentShipped,
		FulfillmentDelivered, FulfillmentReturned:
		return true
	}
	return false
}

// Order amounts are minor currency units.
type Order struct {
	ID                    uuid.UUID         `json:"id"`
	OrderNumber           string            `json:"orderNumber"`
	StripeSessionID       string            `json:"stripeSessionId"`
	StripePaymentIntentID *string           `json:"stripePaymentIntentId,omitempty"`
	CustomerEmail         *string           `json:"customerEmail,omitempty"`
	CustomerName          *string           `json:"customerName,omitempty"`
	CustomerPhone         *string           `json:"customerPhone,omitempty"`
	ShippingAddress       ShippingAddress   `json:"shippingAddress"`
	Region                string            `json:"region"`
	Currency              string            `json:"currency"`
	Subtotal              int64             `json:"subtotal"`
	Shipping              int64             `json:"shipping"`
	Tax                   int64             `json:"tax"`
	Total                 int64             `json:"total"`
	Status                OrderStatus       `json:"status"`
	PaymentStatus         PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus     FulfillmentStatus `json:"fulfillmentStatus"`
	TrackingNumber        *string           `json:"trackingNumber,omitempty"`
	Carrier               *string           `json:"carrier,omitempty"`
	ShippedAt             *time.Time        `json:"shippedAt,omitempty"`
	DeliveredAt           *time.Time        `json:"deliveredAt,omitempty"`
	Notes                 *string           `json:"notes,omitempty"`
	RefundID              *string           `json:"refundId,omitempty"`
	RefundedAmount        int64             `json:"refundedAmount"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
	Items                 []OrderItem       `json:"items,omitempty"`
}

type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"orderId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	ProductSlug string    `json:"productSlug"`
	Color       *string   `json:"color,omitempty"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	TotalPrice  int64     `json:"totalPrice"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ShippingAddress is stored as jsonb on the order row.
type ShippingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("shipping_address: unsupported type")
	}
	return json.Unmarshal(data, a)
}

type ListFilter struct {
	Page      int
	Limit     int
	Status    string
	Search    string
	SortBy    string
	SortOrder string
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var sortColumns = map[string]string{
	"created_at":     "created_at",
	"updated_at":     "updated_at",
	"total":          "total",
	"order_number":   "order_number",
	"status":         "status",
	"customer_email": "customer_email",
}

// Normalize applies paging defaults and the sort allow-list.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "created_at"
	}
	if strings.ToLower(f.SortOrder) == "asc" {
		f.SortOrder = "ASC"
	} else {
		f.SortOrder = "DESC"
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Status = strings.TrimSpace(f.Status)
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type ListResult struct {
	Orders     []Order
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// UpdateInput holds the admin-editable fields; nil means unchanged.
type UpdateInput struct {
	Status            *OrderStatus
	FulfillmentStatus *FulfillmentStatus
	TrackingNumber    *string
	Carrier           *string
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
	Notes             *string
}

func (u UpdateInput) IsEmpty() bool {
	return u.Status == nil && u.FulfillmentStatus == nil && u.TrackingNumber == nil &&
		u.Carrier == nil && u.ShippedAt == nil && u.DeliveredAt == nil && u.Notes == nil
}

func (u UpdateInput) Validate() error {
	if u.IsEmpty() {
		return ErrEmptyUpdate
	}
	if u.Status != nil && !u.Status.Valid() {
		return ErrInvalidStatus
	}
	if u.FulfillmentStatus != nil && !u.FulfillmentStatus.Valid() {
		return ErrInvalidFulfillmentStatus
	}
	return nil
}

type RefundInput struct {
	// Amount in minor units; nil refunds the order total.
	Amount *int64
	Reason string
}

type RefundResult struct {
	RefundID string
	Amount   int64
	Status   PaymentStatus
	Currency string
}

type refundUpdate struct {
	RefundID      string
	Amount        int64
	PaymentStatus PaymentStatus
	Note          string
}
