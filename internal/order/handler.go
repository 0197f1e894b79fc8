package order

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// GetOrder serves GET /order?session_id= and POST /order {session_id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if r.Method == http.MethodPost && sessionID == "" {
		var body struct {
			SessionID string `json:"session_id"`
		}
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		sessionID = body.SessionID
	}

	o, err := h.svc.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"order": ToOrderResponse(o)})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	res, err := h.svc.List(r.Context(), ListFilter{
		Page:      page,
		Limit:     limit,
		Status:    q.Get("status"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ToListResponse(res))
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	o, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"order": ToOrderResponse(o)})
}

type updateRequest struct {
	Status            *string    `json:"status"`
	FulfillmentStatus *string    `json:"fulfillmentStatus"`
	TrackingNumber    *string    `json:"trackingNumber"`
	Carrier           *string    `json:"carrier"`
	ShippedAt         *time.Time `json:"shippedAt"`
	DeliveredAt       *time.Time `json:"deliveredAt"`
	Notes             *string    `json:"notes"`
}

func (req updateRequest) toInput() UpdateInput {
	in := UpdateInput{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		ShippedAt:      req.ShippedAt,
		DeliveredAt:    req.DeliveredAt,
		Notes:          req.Notes,
	}
	if req.Status != nil {
		s := OrderStatus(*req.Status)
		in.Status = &s
	}
	if req.FulfillmentStatus != nil {
		fs := FulfillmentStatus(*req.FulfillmentStatus)
		in.FulfillmentStatus = &fs
	}
	return in
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"order": ToOrderResponse(o)})
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}

func (h *Handler) AdminRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	// An empty body refunds the full total.
	var req refundRequest
	if err := utils.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	in := RefundInput{Reason: req.Reason}
	if req.Amount != nil {
		minor := utils.ToMinorUnits(*req.Amount)
		in.Amount = &minor
	}

	res, err := h.svc.Refund(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ToRefundResponse(res))
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrNoPaymentIntent):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMissingSessionID),
		errors.Is(err, ErrEmptyUpdate),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidFulfillmentStatus),
		errors.Is(err, ErrInvalidRefundAmount):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyRefunded):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromCtx(r.Context()).Error("order request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
