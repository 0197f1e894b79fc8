package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// StockChecker validates cart lines against tracked inventory.
type StockChecker interface {
	Check(ctx context.Context, items []inventory.Request) (*inventory.BatchResult, error)
}

type Service interface {
	CreateSession(ctx context.Context, req Request) (*Session, error)
}

type Options struct {
	SiteURL          string
	AllowedCountries []string
}

type service struct {
	gateway payment.Gateway
	stock   StockChecker
	opts    Options
}

// NewService builds the checkout service. stock may be nil to skip inventory validation.
func NewService(gateway payment.Gateway, stock StockChecker, opts Options) Service {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	return &service{gateway: gateway, stock: stock, opts: opts}
}

func (s *service) CreateSession(ctx context.Context, req Request) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateSession"),
		zap.String("region", req.Region),
		zap.Int("items", len(req.Items)),
	)

	if err := validate(req); err != nil {
		return nil, err
	}

	if err := s.checkStock(ctx, req.Items); err != nil {
		log.Warn("checkout rejected by inventory", zap.Error(err))
		return nil, err
	}

	params, err := s.buildParams(req)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		metrics.Inc(metrics.CheckoutSessionsFailed)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	metrics.Inc(metrics.CheckoutSessionsCreated)
	log.Info("checkout session created", zap.String("session_id", session.ID))

	return &Session{SessionID: session.ID, SessionURL: session.URL}, nil
}

func validate(req Request) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(req.Region) == "" {
		return ErrMissingRegion
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if it.Price.IsNegative() {
			return ErrInvalidPrice
		}
		if strings.TrimSpace(it.Name) == "" {
			return ErrMissingName
		}
	}
	return nil
}

func (s *service) checkStock(ctx context.Context, items []LineItem) error {
	if s.stock == nil {
		return nil
	}

	// Lines of the same product draw on one stock record.
	reqs := make([]inventory.Request, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		id := it.productID()
		if i, ok := index[id]; ok {
			reqs[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(reqs)
		reqs = append(reqs, inventory.Request{ProductID: id, Quantity: it.Quantity})
	}

	res, err := s.stock.Check(ctx, reqs)
	if err != nil {
		return fmt.Errorf("check inventory: %w", err)
	}
	if !res.AllAvailable {
		return &OutOfStockError{ProductIDs: res.Unavailable()}
	}
	return nil
}

func (s *service) buildParams(req Request) (payment.CheckoutSessionParams, error) {
	region := strings.ToLower(strings.TrimSpace(req.Region))
	currency := strings.ToLower(utils.FirstNonEmpty(req.Currency, DefaultCurrency))

	lines := make([]payment.CheckoutLineItem, 0, len(req.Items))
	snapshot := make([]order.ItemSnapshot, 0, len(req.Items))
	for i, it := range req.Items {
		// Cart ids repeat when a product is added in several variants.
		lineID := order.LineKey(i)

		var images []string
		if it.Image != "" {
			images = []string{it.Image}
		}

		lines = append(lines, payment.CheckoutLineItem{
			LineID:     lineID,
			ProductID:  it.productID(),
			Name:       it.Name,
			Images:     images,
			UnitAmount: utils.ToMinorUnits(it.Price),
			Quantity:   it.Quantity,
		})
		snapshot = append(snapshot, order.ItemSnapshot{
			ID:        lineID,
			ProductID: it.productID(),
			Slug:      it.Slug,
			Color:     it.Color,
			Image:     it.Image,
		})
	}

	metadata := order.EncodeSnapshot(snapshot)
	metadata[order.MetaRegion] = region
	if req.ShippingAddress != nil {
		b, err := json.Marshal(req.ShippingAddress.toShippingAddress())
		if err != nil {
			return payment.CheckoutSessionParams{}, fmt.Errorf("encode shipping address: %w", err)
		}
		metadata[order.MetaShippingAddress] = string(b)
	}

	base := s.opts.SiteURL + "/" + url.PathEscape(region)
	return payment.CheckoutSessionParams{
		// The gateway substitutes the literal placeholder on redirect.
		SuccessURL:       base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        base + "/cart",
		Currency:         currency,
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		LineItems:        lines,
		Metadata:         metadata,
		AllowedCountries: s.opts.AllowedCountries,
	}, nil
}
