package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Materialize creates the order for a paid session at most once and returns its number.
	Materialize(ctx context.Context, sessionID string) (string, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context, f ListFilter) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Order, error)
	Refund(ctx context.Context, id uuid.UUID, in RefundInput) (*RefundResult, error)
}

type service struct {
	repo      Repository
	gateway   payment.Gateway
	notifier  Notifier
	publisher Publisher
	cache     Cache
	policy    AmountPolicy
	now       func() time.Time
}

func NewService(
	repo Repository,
	gateway payment.Gateway,
	notifier Notifier,
	publisher Publisher,
	cache Cache,
	policy AmountPolicy,
) Service {
	return &service{
		repo:      repo,
		gateway:   gateway,
		notifier:  notifier,
		publisher: publisher,
		cache:     cache,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *service) Materialize(ctx context.Context, sessionID string) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Materialize"),
		zap.String("session_id", sessionID),
	)

	if sessionID == "" {
		return "", ErrMissingSessionID
	}

	// 1. Fast path for redelivered events
	existing, err := s.repo.GetBySessionID(ctx, sessionID)
	if err == nil {
		log.Info("order already materialized", zap.String("order_number", existing.OrderNumber))
		metrics.Inc(metrics.OrdersReplayed)
		return existing.OrderNumber, nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		log.Error("failed to look up order", zap.Error(err))
		return "", err
	}

	// 2. Authenticated re-fetch; the webhook body alone is not trusted for amounts
	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to retrieve checkout session", zap.Error(err))
		return "", fmt.Errorf("retrieve checkout session: %w", err)
	}
	if !session.IsPaid() {
		log.Warn("checkout session not paid", zap.String("payment_status", session.PaymentStatus))
		return "", ErrPaymentNotCompleted
	}

	o := s.buildOrder(session)
	o.Items = buildItems(session)

	// 3. Order and items in one transaction, conditional on the unique session id
	created, err := s.repo.CreateOrderTx(ctx, o)
	if err != nil {
		metrics.Inc(metrics.OrdersFailed)
		return "", fmt.Errorf("create order: %w", err)
	}
	if !created {
		winner, err := s.repo.GetBySessionID(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("load existing order: %w", err)
		}
		metrics.Inc(metrics.OrdersReplayed)
		return winner.OrderNumber, nil
	}

	log = log.With(zap.String("order_id", o.ID.String()), zap.String("order_number", o.OrderNumber))
	metrics.Inc(metrics.OrdersCreated)

	s.sendOrderEmails(ctx, o)
	s.publish(ctx, EventOrderPaid, o)
	if err := s.cache.Set(ctx, sessionCacheKey(sessionID), o); err != nil {
		log.Warn("failed to prime order cache", zap.Error(err))
	}

	log.Info("order materialized", zap.Int64("total", o.Total), zap.Int("items", len(o.Items)))
	return o.OrderNumber, nil
}

func (s *service) buildOrder(session *payment.CheckoutSession) *Order {
	region := utils.FirstNonEmpty(session.Metadata[MetaRegion], "us")

	var shipping, tax int64
	if session.TotalDetails != nil {
		if s.policy.ShippingFromGateway {
			shipping = session.TotalDetails.AmountShipping
		}
		if s.policy.TaxFromGateway {
			tax = session.TotalDetails.AmountTax
		}
	}

	return &Order{
		ID:                    uuid.New(),
		OrderNumber:           NewOrderNumber(s.now()),
		StripeSessionID:       session.ID,
		StripePaymentIntentID: utils.NilIfEmpty(session.PaymentIntent),
		CustomerEmail:         utils.NilIfEmpty(session.Email()),
		CustomerName:          utils.NilIfEmpty(session.CustomerName()),
		CustomerPhone:         utils.NilIfEmpty(session.CustomerPhone()),
		ShippingAddress:       ResolveShippingAddress(session, region),
		Region:                region,
		Currency:              strings.ToUpper(session.Currency),
		Subtotal:              session.AmountSubtotal,
		Shipping:              shipping,
		Tax:                   tax,
		Total:                 session.AmountTotal,
		Status:                StatusPaid,
		PaymentStatus:         PaymentPaid,
		FulfillmentStatus:     FulfillmentUnfulfilled,
	}
}

// buildItems matches gateway lines to the cart snapshot by the echoed line id.
func buildItems(session *payment.CheckoutSession) []OrderItem {
	snapshots := DecodeSnapshot(session.Metadata)
	lines := session.Items()
	items := make([]OrderItem, 0, len(lines))

	for _, li := range lines {
		snap, ok := snapshots[li.LineID()]

		var gatewayProduct *payment.Product
		if li.Price != nil {
			gatewayProduct = li.Price.Product
		}

		name := li.Description
		if name == "" && gatewayProduct != nil {
			name = gatewayProduct.Name
		}

		item := OrderItem{
			ProductName: name,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitAmount(),
			TotalPrice:  li.AmountTotal,
		}

		if ok {
			item.ProductID = snap.ProductID
			item.ProductSlug = snap.Slug
			item.Color = utils.NilIfEmpty(snap.Color)
			item.ImageURL = utils.NilIfEmpty(snap.Image)
		}
		if item.ProductID == "" && gatewayProduct != nil {
			item.ProductID = utils.FirstNonEmpty(gatewayProduct.Metadata[payment.ProductIDMetadataKey], gatewayProduct.ID)
		}
		if item.ProductID == "" {
			item.ProductID = li.ID
		}
		if item.ImageURL == nil && gatewayProduct != nil && len(gatewayProduct.Images) > 0 {
			item.ImageURL = utils.NilIfEmpty(gatewayProduct.Images[0])
		}

		items = append(items, item)
	}

	return items
}

func (s *service) sendOrderEmails(ctx context.Context, o *Order) {
	log := logger.FromCtx(ctx).With(zap.String("order_number", o.OrderNumber))

	if o.CustomerEmail != nil {
		if err := s.notifier.OrderConfirmation(ctx, o); err != nil {
			metrics.Inc(metrics.EmailsFailed)
			log.Error("failed to send order confirmation", zap.Error(err))
		}
	}
	if err := s.notifier.AdminNotification(ctx, o); err != nil {
		metrics.Inc(metrics.EmailsFailed)
		log.Error("failed to send admin notification", zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, eventType string, o *Order) {
	if err := s.publisher.Publish(ctx, eventType, o.ID.String(), o); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetBySessionID"),
		zap.String("session_id", sessionID),
	)

	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	key := sessionCacheKey(sessionID)
	var cached Order
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Warn("order cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	o, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.repo.ListItems(ctx, o.ID); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := s.cache.Set(ctx, key, o); err != nil {
		log.Warn("order cache write failed", zap.Error(err))
	}
	return o, nil
}

func (s *service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	f = f.Normalize()

	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}

	return &ListResult{
		Orders:     orders,
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.repo.ListItems(ctx, o.ID); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return o, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Update"),
		zap.String("order_id", id.String()),
	)

	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	if in.FulfillmentStatus != nil {
		switch *in.FulfillmentStatus {
		case FulfillmentShipped:
			if in.ShippedAt == nil {
				in.ShippedAt = &now
			}
		case FulfillmentDelivered:
			if in.DeliveredAt == nil {
				in.DeliveredAt = &now
			}
		}
	}

	o, err := s.repo.Update(ctx, id, in)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("failed to update order", zap.Error(err))
		}
		return nil, err
	}
	if o.Items, err = s.repo.ListItems(ctx, o.ID); err != nil {
		log.Warn("failed to load items after update", zap.Error(err))
	}

	s.invalidate(ctx, o)
	s.publish(ctx, EventOrderUpdated, o)

	log.Info("order updated", zap.String("status", string(o.Status)), zap.String("fulfillment_status", string(o.FulfillmentStatus)))
	return o, nil
}

func (s *service) Refund(ctx context.Context, id uuid.UUID, in RefundInput) (*RefundResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Refund"),
		zap.String("order_id", id.String()),
	)

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.StripePaymentIntentID == nil || *o.StripePaymentIntentID == "" {
		return nil, ErrNoPaymentIntent
	}
	if o.Status == StatusRefunded {
		return nil, ErrAlreadyRefunded
	}

	amount := o.Total
	if in.Amount != nil {
		amount = *in.Amount
	}
	if amount <= 0 || amount > o.Total {
		return nil, ErrInvalidRefundAmount
	}

	refund, err := s.gateway.CreateRefund(ctx, payment.RefundParams{
		PaymentIntent: *o.StripePaymentIntentID,
		Amount:        amount,
		Reason:        in.Reason,
	})
	if err != nil {
		log.Error("gateway refund failed", zap.Error(err))
		return nil, fmt.Errorf("create refund: %w", err)
	}

	status := PaymentRefunded
	if amount < o.Total {
		status = PaymentPartiallyRefunded
	}

	note := fmt.Sprintf("Refunded %s %s (%s)", utils.FormatMajor(amount), o.Currency, refund.ID)
	if r := strings.TrimSpace(in.Reason); r != "" {
		note += ": " + r
	}

	updated, err := s.repo.MarkRefunded(ctx, o.ID, refundUpdate{
		RefundID:      refund.ID,
		Amount:        amount,
		PaymentStatus: status,
		Note:          note,
	})
	if err != nil {
		// The money has moved; keep the refund id in the log for reconciliation.
		log.Error("refund issued but order update failed", zap.String("refund_id", refund.ID), zap.Error(err))
		return nil, fmt.Errorf("record refund: %w", err)
	}
	metrics.Inc(metrics.RefundsIssued)

	if err := s.notifier.RefundNotification(ctx, updated, amount); err != nil {
		metrics.Inc(metrics.EmailsFailed)
		log.Error("failed to send refund email", zap.Error(err))
	}
	s.invalidate(ctx, updated)
	s.publish(ctx, EventOrderRefunded, updated)

	log.Info("order refunded", zap.String("refund_id", refund.ID), zap.Int64("amount", amount))
	return &RefundResult{
		RefundID: refund.ID,
		Amount:   amount,
		Status:   status,
		Currency: updated.Currency,
	}, nil
}

func (s *service) invalidate(ctx context.Context, o *Order) {
	if err := s.cache.Delete(ctx, sessionCacheKey(o.StripeSessionID)); err != nil {
		logger.FromCtx(ctx).Warn("order cache invalidation failed", zap.Error(err))
	}
}
