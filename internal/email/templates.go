package email

import (
	"bytes"
	"html/template"
	"strings"

	"storefront-be/internal/order"
	"storefront-be/internal/utils"
)

var funcs = template.FuncMap{
	"money": utils.FormatMajor,
	"upper": strings.ToUpper,
	"str":   utils.PtrString,
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h1>Thank you for your order</h1>
<p>Order <strong>{{.OrderNumber}}</strong></p>
<table cellpadding="6">
{{range .Items}}<tr><td>{{.ProductName}}{{with .Color}} ({{.}}){{end}}</td><td>x{{.Quantity}}</td><td>{{money .TotalPrice}} {{upper $.Currency}}</td></tr>
{{end}}</table>
<p>Subtotal: {{money .Subtotal}} {{upper .Currency}}<br>
Shipping: {{money .Shipping}} {{upper .Currency}}<br>
Tax: {{money .Tax}} {{upper .Currency}}<br>
<strong>Total: {{money .Total}} {{upper .Currency}}</strong></p>
{{with .ShippingAddress}}<p>Shipping to:<br>{{.FullName}}<br>{{.Address1}}{{with .Address2}}, {{.}}{{end}}<br>{{.City}} {{.State}} {{.PostalCode}}<br>{{.Country}}</p>{{end}}
</body></html>`))

var adminTmpl = template.Must(template.New("admin").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h1>New order {{.OrderNumber}}</h1>
<p>Customer: {{str .CustomerName}} &lt;{{str .CustomerEmail}}&gt;</p>
<p>Total: {{money .Total}} {{upper .Currency}} ({{len .Items}} line items)</p>
<p>Region: {{upper .Region}}</p>
</body></html>`))

var refundTmpl = template.Must(template.New("refund").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h1>Your refund is on its way</h1>
<p>We refunded {{money .Amount}} {{upper .Order.Currency}} for order <strong>{{.Order.OrderNumber}}</strong>.</p>
<p>It can take 5 to 10 business days to appear on your statement.</p>
</body></html>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderConfirmation(o *order.Order) (string, error) {
	return render(confirmationTmpl, o)
}

func renderAdmin(o *order.Order) (string, error) {
	return render(adminTmpl, o)
}

func renderRefund(o *order.Order, amount int64) (string, error) {
	return render(refundTmpl, struct {
		Order  *order.Order
		Amount int64
	}{o, amount})
}
