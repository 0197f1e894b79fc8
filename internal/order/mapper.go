package order

import (
	"time"

	"storefront-be/internal/utils"
)

type AddressResponse struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type ItemResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	ProductSlug string  `json:"productSlug"`
	Color       *string `json:"color"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
	ImageURL    *string `json:"imageUrl"`
}

type OrderResponse struct {
	ID                    string            `json:"id"`
	OrderNumber           string            `json:"orderNumber"`
	StripeSessionID       string            `json:"stripeSessionId"`
	StripePaymentIntentID *string           `json:"stripePaymentIntentId"`
	CustomerEmail         *string           `json:"customerEmail"`
	CustomerName          *string           `json:"customerName"`
	CustomerPhone         *string           `json:"customerPhone"`
	ShippingAddress       AddressResponse   `json:"shippingAddress"`
	Region                string            `json:"region"`
	Currency              string            `json:"currency"`
	Subtotal              float64           `json:"subtotal"`
	Shipping              float64           `json:"shipping"`
	Tax                   float64           `json:"tax"`
	Total                 float64           `json:"total"`
	Status                OrderStatus       `json:"status"`
	PaymentStatus         PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus     FulfillmentStatus `json:"fulfillmentStatus"`
	TrackingNumber        *string           `json:"trackingNumber"`
	Carrier               *string           `json:"carrier"`
	ShippedAt             *time.Time        `json:"shippedAt"`
	DeliveredAt           *time.Time        `json:"deliveredAt"`
	Notes                 *string           `json:"notes"`
	RefundID              *string           `json:"refundId"`
	RefundedAmount        float64           `json:"refundedAmount"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
	Items                 []ItemResponse    `json:"items,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	Pagination Pagination      `json:"pagination"`
}

type RefundResponse struct {
	Success  bool          `json:"success"`
	RefundID string        `json:"refundId"`
	Amount   float64       `json:"amount"`
	Status   PaymentStatus `json:"status"`
}

func ToAddressResponse(a ShippingAddress) AddressResponse {
	return AddressResponse{
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

func ToItemResponse(i OrderItem) ItemResponse {
	return ItemResponse{
		ID:          i.ID.String(),
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		ProductSlug: i.ProductSlug,
		Color:       i.Color,
		Quantity:    i.Quantity,
		UnitPrice:   utils.ToMajorUnits(i.UnitPrice),
		TotalPrice:  utils.ToMajorUnits(i.TotalPrice),
		ImageURL:    i.ImageURL,
	}
}

func ToOrderResponse(o *Order) *OrderResponse {
	if o == nil {
		return nil
	}

	var items []ItemResponse
	if o.Items != nil {
		items = make([]ItemResponse, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, ToItemResponse(it))
		}
	}

	return &OrderResponse{
		ID:                    o.ID.String(),
		OrderNumber:           o.OrderNumber,
		StripeSessionID:       o.StripeSessionID,
		StripePaymentIntentID: o.StripePaymentIntentID,
		CustomerEmail:         o.CustomerEmail,
		CustomerName:          o.CustomerName,
		CustomerPhone:         o.CustomerPhone,
		ShippingAddress:       ToAddressResponse(o.ShippingAddress),
		Region:                o.Region,
		Currency:              o.Currency,
		Subtotal:              utils.ToMajorUnits(o.Subtotal),
		Shipping:              utils.ToMajorUnits(o.Shipping),
		Tax:                   utils.ToMajorUnits(o.Tax),
		Total:                 utils.ToMajorUnits(o.Total),
		Status:                o.Status,
		PaymentStatus:         o.PaymentStatus,
		FulfillmentStatus:     o.FulfillmentStatus,
		TrackingNumber:        o.TrackingNumber,
		Carrier:               o.Carrier,
		ShippedAt:             o.ShippedAt,
		DeliveredAt:           o.DeliveredAt,
		Notes:                 o.Notes,
		RefundID:              o.RefundID,
		RefundedAmount:        utils.ToMajorUnits(o.RefundedAmount),
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		Items:                 items,
	}
}

func ToListResponse(r *ListResult) ListResponse {
	orders := make([]OrderResponse, 0, len(r.Orders))
	for i := range r.Orders {
		orders = append(orders, *ToOrderResponse(&r.Orders[i]))
	}

	return ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       r.Page,
			Limit:      r.Limit,
			Total:      r.Total,
			TotalPages: r.TotalPages,
		},
	}
}

func ToRefundResponse(r *RefundResult) RefundResponse {
	return RefundResponse{
		Success:  true,
		RefundID: r.RefundID,
		Amount:   utils.ToMajorUnits(r.Amount),
		Status:   r.Status,
	}
}
