package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// maxBodyBytes caps the event payload read into memory.
const maxBodyBytes = 1 << 20

// Materializer turns a completed checkout session into an order.
type Materializer interface {
	Materialize(ctx context.Context, sessionID string) (string, error)
}

type Response struct {
	Received    bool   `json:"received"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Handler struct {
	secret    string
	tolerance time.Duration
	repo      payment.Repository
	orders    Materializer
	now       func() time.Time
}

func NewWebhookHandler(secret string, tolerance time.Duration, repo payment.Repository, orders Materializer) *Handler {
	return &Handler{
		secret:    secret,
		tolerance: tolerance,
		repo:      repo,
		orders:    orders,
		now:       time.Now,
	}
}

// StripeWebhook receives gateway events. Only checkout.session.completed is acted on;
// a 500 response makes the gateway redeliver.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "handler"),
		zap.String("method", "StripeWebhook"),
	)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respond(w, http.StatusMethodNotAllowed, Response{Error: "method not allowed"})
		return
	}

	metrics.Inc(metrics.WebhooksReceived)

	if h.secret == "" {
		log.Error("STRIPE_WEBHOOK_SECRET is not configured")
		respond(w, http.StatusInternalServerError, Response{Error: "webhook secret not configured"})
		return
	}

	sigHeader := r.Header.Get(payment.SignatureHeader)
	if sigHeader == "" {
		metrics.Inc(metrics.WebhooksRejected)
		log.Warn("webhook without signature header")
		respond(w, http.StatusBadRequest, Response{Error: "missing signature"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respond(w, http.StatusBadRequest, Response{Error: "failed to read body"})
		return
	}
	defer r.Body.Close()

	if err := payment.VerifySignature(body, sigHeader, h.secret, h.tolerance, h.now()); err != nil {
		metrics.Inc(metrics.WebhooksRejected)
		log.Warn("webhook signature rejected", zap.Error(err))
		respond(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	var event payment.Event
	if err := json.Unmarshal(body, &event); err != nil || event.ID == "" {
		metrics.Inc(metrics.WebhooksRejected)
		log.Warn("malformed webhook payload", zap.Error(err))
		respond(w, http.StatusBadRequest, Response{Error: "invalid JSON payload"})
		return
	}

	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	sessionID, _ := event.SessionID()

	// A redelivery of an event that failed or never finished is processed again;
	// Materialize is idempotent on the session id.
	webhookID, processed, err := h.repo.SavePaymentWebhook(
		ctx,
		payment.ProviderStripe,
		event.ID,
		event.Type,
		sessionID,
		json.RawMessage(body),
		true,
	)
	if err != nil {
		log.Error("failed to record webhook", zap.Error(err))
		respond(w, http.StatusInternalServerError, Response{Error: "failed to record event"})
		return
	}
	if processed {
		metrics.Inc(metrics.WebhooksDuplicate)
		log.Info("webhook already processed")
		respond(w, http.StatusOK, Response{Received: true})
		return
	}

	if event.Type != payment.EventCheckoutSessionCompleted {
		h.markProcessed(ctx, log, webhookID)
		log.Debug("webhook type ignored")
		respond(w, http.StatusOK, Response{Received: true})
		return
	}

	if sessionID == "" {
		h.markFailed(ctx, log, webhookID, "event has no session id")
		respond(w, http.StatusBadRequest, Response{Error: "event has no session id"})
		return
	}

	orderNumber, err := h.orders.Materialize(ctx, sessionID)
	if err != nil {
		log.Error("failed to materialize order",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		h.markFailed(ctx, log, webhookID, err.Error())
		respond(w, http.StatusInternalServerError, Response{Received: false, Error: err.Error()})
		return
	}

	h.markProcessed(ctx, log, webhookID)
	log.Info("checkout session processed",
		zap.String("session_id", sessionID),
		zap.String("order_number", orderNumber),
	)
	respond(w, http.StatusOK, Response{Received: true, OrderNumber: orderNumber})
}

func (h *Handler) markProcessed(ctx context.Context, log *zap.Logger, id int64) {
	if err := h.repo.MarkWebhookProcessed(ctx, id); err != nil {
		log.Warn("failed to mark webhook processed", zap.Int64("webhook_id", id), zap.Error(err))
	}
}

func (h *Handler) markFailed(ctx context.Context, log *zap.Logger, id int64, reason string) {
	if err := h.repo.MarkWebhookFailed(ctx, id, reason); err != nil {
		log.Warn("failed to mark webhook failed", zap.Int64("webhook_id", id), zap.Error(err))
	}
}

func respond(w http.ResponseWriter, code int, resp Response) {
	utils.WriteJSON(w, code, resp)
}
