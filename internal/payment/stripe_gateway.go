package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const DefaultStripeBaseURL = "https://api.stripe.com"

var sessionExpansions = []string{
	"line_items",
	"line_items.data.price.product",
}

// lineItemPageSize is the largest page the line items endpoint returns.
const lineItemPageSize = 100

type stripeGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewStripeGateway(secretKey, baseURL string) Gateway {
	if secretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultStripeBaseURL
	}

	return &stripeGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *stripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateCheckoutSession"),
		zap.Int("line_items", len(params.LineItems)),
	)

	var session CheckoutSession
	if err := s.do(ctx, http.MethodPost, "/v1/checkout/sessions", encodeCheckoutParams(params), &session); err != nil {
		log.Error("Stripe checkout session creation failed", zap.Error(err))
		return nil, err
	}

	log.Info("Stripe checkout session created", zap.String("session_id", session.ID))
	return &session, nil
}

func (s *stripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "GetCheckoutSession"),
		zap.String("session_id", sessionID),
	)

	q := url.Values{}
	for _, e := range sessionExpansions {
		q.Add("expand[]", e)
	}
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID) + "?" + q.Encode()

	var session CheckoutSession
	if err := s.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		log.Error("Stripe checkout session retrieval failed", zap.Error(err))
		return nil, err
	}

	// The expanded list only carries the first page of lines.
	if session.LineItems != nil && session.LineItems.HasMore {
		if err := s.fetchRemainingLineItems(ctx, sessionID, session.LineItems); err != nil {
			log.Error("Stripe line items retrieval failed", zap.Error(err))
			return nil, err
		}
		log.Debug("paged session line items", zap.Int("line_items", len(session.LineItems.Data)))
	}

	return &session, nil
}

func (s *stripeGateway) fetchRemainingLineItems(ctx context.Context, sessionID string, list *LineItemList) error {
	for list.HasMore && len(list.Data) > 0 {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(lineItemPageSize))
		q.Set("starting_after", list.Data[len(list.Data)-1].ID)
		q.Add("expand[]", "data.price.product")
		path := "/v1/checkout/sessions/" + url.PathEscape(sessionID) + "/line_items?" + q.Encode()

		var page LineItemList
		if err := s.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return fmt.Errorf("list line items: %w", err)
		}

		list.Data = append(list.Data, page.Data...)
		list.HasMore = page.HasMore && len(page.Data) > 0
	}
	return nil
}

func (s *stripeGateway) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateRefund"),
		zap.String("payment_intent", params.PaymentIntent),
		zap.Int64("amount", params.Amount),
	)

	form := url.Values{}
	form.Set("payment_intent", params.PaymentIntent)
	if params.Amount > 0 {
		form.Set("amount", strconv.FormatInt(params.Amount, 10))
	}
	// Free text goes into metadata; the API's reason field is an enum.
	if params.Reason != "" {
		form.Set("metadata[reason]", params.Reason)
	}

	var refund Refund
	if err := s.do(ctx, http.MethodPost, "/v1/refunds", form, &refund); err != nil {
		log.Error("Stripe refund failed", zap.Error(err))
		return nil, err
	}

	log.Info("Stripe refund created", zap.String("refund_id", refund.ID), zap.String("status", refund.Status))
	return &refund, nil
}

func (s *stripeGateway) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build stripe request: %w", err)
	}
	req.SetBasicAuth(s.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if jsonErr := json.Unmarshal(bodyBytes, &envelope); jsonErr != nil || envelope.Error.Message == "" {
			envelope.Error.Message = fmt.Sprintf("stripe error: status %d", resp.StatusCode)
		}
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}

func encodeCheckoutParams(p CheckoutSessionParams) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}

	currency := strings.ToLower(p.Currency)
	for i, item := range p.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		for j, img := range item.Images {
			form.Set(fmt.Sprintf("%s[price_data][product_data][images][%d]", prefix, j), img)
		}
		if item.LineID != "" {
			form.Set(prefix+"[price_data][product_data][metadata]["+LineIDMetadataKey+"]", item.LineID)
		}
		if item.ProductID != "" {
			form.Set(prefix+"[price_data][product_data][metadata]["+ProductIDMetadataKey+"]", item.ProductID)
		}
	}

	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	for i, c := range p.AllowedCountries {
		form.Set(fmt.Sprintf("shipping_address_collection[allowed_countries][%d]", i), c)
	}

	return form
}
