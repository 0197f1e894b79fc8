package order

import (
	"encoding/json"
	"strings"

	"storefront-be/internal/payment"
)

// ResolveShippingAddress picks the first usable source: the address captured by
// the storefront, then the gateway's collected address, then a placeholder.
func ResolveShippingAddress(session *payment.CheckoutSession, region string) ShippingAddress {
	if raw := session.Metadata[MetaShippingAddress]; raw != "" {
		var addr ShippingAddress
		if err := json.Unmarshal([]byte(raw), &addr); err == nil && addr.Address1 != "" {
			return addr
		}
	}

	if sd := session.Shipping(); sd != nil && sd.Address.Line1 != "" {
		first, last := splitName(sd.Name)
		return ShippingAddress{
			FirstName:  first,
			LastName:   last,
			Address1:   sd.Address.Line1,
			Address2:   sd.Address.Line2,
			City:       sd.Address.City,
			State:      sd.Address.State,
			PostalCode: sd.Address.PostalCode,
			Country:    sd.Address.Country,
		}
	}

	first, last := splitName(session.CustomerName())
	return ShippingAddress{
		FirstName: first,
		LastName:  last,
		Country:   strings.ToUpper(region),
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
