package payment

import (
	"encoding/json"
	"fmt"
)

const (
	ProviderStripe = "STRIPE"

	EventCheckoutSessionCompleted = "checkout.session.completed"

	SessionPaymentStatusPaid = "paid"
)

// Per-line product metadata keys set at session creation.
const (
	LineIDMetadataKey    = "line_id"
	ProductIDMetadataKey = "product_id"
)

type CheckoutSessionParams struct {
	SuccessURL       string
	CancelURL        string
	Currency         string
	CustomerEmail    string
	LineItems        []CheckoutLineItem
	Metadata         map[string]string
	AllowedCountries []string
}

type CheckoutLineItem struct {
	// LineID and ProductID are echoed back through the product metadata on session retrieval.
	LineID     string
	ProductID  string
	Name       string
	Images     []string
	UnitAmount int64
	Quantity   int64
}

type CheckoutSession struct {
	ID                   string                `json:"id"`
	URL                  string                `json:"url"`
	Status               string                `json:"status"`
	PaymentStatus        string                `json:"payment_status"`
	Currency             string                `json:"currency"`
	AmountSubtotal       int64                 `json:"amount_subtotal"`
	AmountTotal          int64                 `json:"amount_total"`
	TotalDetails         *TotalDetails         `json:"total_details"`
	PaymentIntent        string                `json:"payment_intent"`
	CustomerEmail        string                `json:"customer_email"`
	CustomerDetails      *CustomerDetails      `json:"customer_details"`
	ShippingDetails      *ShippingDetails      `json:"shipping_details"`
	CollectedInformation *CollectedInformation `json:"collected_information"`
	Metadata             map[string]string     `json:"metadata"`
	LineItems            *LineItemList         `json:"line_items"`
}

func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == SessionPaymentStatusPaid
}

// Email returns the customer email, preferring what was entered on the payment page.
func (s *CheckoutSession) Email() string {
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

func (s *CheckoutSession) CustomerName() string {
	if s.CustomerDetails != nil {
		return s.CustomerDetails.Name
	}
	return ""
}

func (s *CheckoutSession) CustomerPhone() string {
	if s.CustomerDetails != nil {
		return s.CustomerDetails.Phone
	}
	return ""
}

// Shipping returns whichever shipping block the API version populated.
func (s *CheckoutSession) Shipping() *ShippingDetails {
	if s.ShippingDetails != nil {
		return s.ShippingDetails
	}
	if s.CollectedInformation != nil {
		return s.CollectedInformation.ShippingDetails
	}
	return nil
}

func (s *CheckoutSession) Items() []LineItem {
	if s.LineItems == nil {
		return nil
	}
	return s.LineItems.Data
}

type TotalDetails struct {
	AmountShipping int64 `json:"amount_shipping"`
	AmountTax      int64 `json:"amount_tax"`
	AmountDiscount int64 `json:"amount_discount"`
}

type CustomerDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CollectedInformation struct {
	ShippingDetails *ShippingDetails `json:"shipping_details"`
}

type ShippingDetails struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type LineItemList struct {
	Data    []LineItem `json:"data"`
	HasMore bool       `json:"has_more"`
}

type LineItem struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	Currency       string `json:"currency"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	AmountTotal    int64  `json:"amount_total"`
	Price          *Price `json:"price"`
}

// LineID is the cart line key stored on the product at session creation.
func (li LineItem) LineID() string {
	if li.Price == nil || li.Price.Product == nil {
		return ""
	}
	return li.Price.Product.Metadata[LineIDMetadataKey]
}

func (li LineItem) UnitAmount() int64 {
	if li.Price != nil && li.Price.UnitAmount > 0 {
		return li.Price.UnitAmount
	}
	if li.Quantity > 0 {
		return li.AmountSubtotal / li.Quantity
	}
	return 0
}

type Price struct {
	ID         string   `json:"id"`
	UnitAmount int64    `json:"unit_amount"`
	Currency   string   `json:"currency"`
	Product    *Product `json:"product"`
}

type Product struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Images   []string          `json:"images"`
	Metadata map[string]string `json:"metadata"`
}

// UnmarshalJSON accepts both the expanded object and a bare product id.
func (p *Product) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*p = Product{ID: id}
		return nil
	}

	type product Product
	var out product
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Product(out)
	return nil
}

type RefundParams struct {
	PaymentIntent string
	// Amount in minor units; zero refunds the full charge.
	Amount int64
	Reason string
}

type Refund struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent"`
}

type Event struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Created  int64     `json:"created"`
	Livemode bool      `json:"livemode"`
	Data     EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// SessionID extracts the checkout session id carried by a session event.
func (e *Event) SessionID() (string, error) {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return "", fmt.Errorf("decode event object: %w", err)
	}
	return obj.ID, nil
}

// APIError is the error envelope returned by the gateway.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("stripe error: status %d", e.StatusCode)
	}
	return e.Message
}
