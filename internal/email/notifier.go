package email

import (
	"context"
	"fmt"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"

	"go.uber.org/zap"
)

var _ order.Notifier = (*Notifier)(nil)

// Notifier sends the order lifecycle emails. Each message is skipped, not
// failed, when its sender or recipient is not configured.
type Notifier struct {
	sender     Sender
	configured bool
	from       string
	adminEmail string
}

func NewNotifier(client *ResendClient, from, adminEmail string) *Notifier {
	return &Notifier{
		sender:     client,
		configured: client.Configured(),
		from:       from,
		adminEmail: adminEmail,
	}
}

func (n *Notifier) OrderConfirmation(ctx context.Context, o *order.Order) error {
	if !n.configured || o.CustomerEmail == nil || *o.CustomerEmail == "" {
		n.skip(ctx, "order confirmation", o)
		return nil
	}

	html, err := renderConfirmation(o)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	return n.send(ctx, *o.CustomerEmail, fmt.Sprintf("Order confirmed: %s", o.OrderNumber), html)
}

func (n *Notifier) AdminNotification(ctx context.Context, o *order.Order) error {
	if !n.configured || n.adminEmail == "" {
		n.skip(ctx, "admin notification", o)
		return nil
	}

	html, err := renderAdmin(o)
	if err != nil {
		return fmt.Errorf("render admin notification: %w", err)
	}
	return n.send(ctx, n.adminEmail, fmt.Sprintf("New order %s", o.OrderNumber), html)
}

func (n *Notifier) RefundNotification(ctx context.Context, o *order.Order, amount int64) error {
	if !n.configured || o.CustomerEmail == nil || *o.CustomerEmail == "" {
		n.skip(ctx, "refund notification", o)
		return nil
	}

	html, err := renderRefund(o, amount)
	if err != nil {
		return fmt.Errorf("render refund notification: %w", err)
	}
	return n.send(ctx, *o.CustomerEmail, fmt.Sprintf("Refund issued for order %s", o.OrderNumber), html)
}

func (n *Notifier) send(ctx context.Context, to, subject, html string) error {
	_, err := n.sender.Send(ctx, Message{
		From:    n.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	return err
}

func (n *Notifier) skip(ctx context.Context, kind string, o *order.Order) {
	logger.FromCtx(ctx).Debug("email skipped",
		zap.String("layer", "email"),
		zap.String("kind", kind),
		zap.String("order_number", o.OrderNumber),
	)
}
