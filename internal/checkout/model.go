package checkout

import (
	"storefront-be/internal/order"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "usd"

type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Image     string          `json:"image"`
}

// productID falls back to the cart id for carts that only carry one identifier.
func (li LineItem) productID() string {
	if li.ProductID != "" {
		return li.ProductID
	}
	return li.ID
}

type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a *Address) toShippingAddress() order.ShippingAddress {
	return order.ShippingAddress{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Address1:   a.Address1,
		Address2:   a.Address2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type Request struct {
	Items           []LineItem `json:"items"`
	Region          string     `json:"region"`
	Currency        string     `json:"currency"`
	ShippingAddress *Address   `json:"shippingAddress"`
	CustomerEmail   string     `json:"customerEmail"`
}

type Session struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}
