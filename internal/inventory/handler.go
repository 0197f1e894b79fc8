package inventory

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// CheckOne serves GET /inventory?productId=&quantity=.
func (h *Handler) CheckOne(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	quantity := int64(1)
	if raw := q.Get("quantity"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.WriteJSONError(w, ErrInvalidQuantity.Error(), http.StatusBadRequest)
			return
		}
		quantity = n
	}

	res, err := h.svc.Check(r.Context(), []Request{{ProductID: q.Get("productId"), Quantity: quantity}})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, res.Results[0])
}

// CheckMany serves POST /inventory {items:[{productId, quantity}]}.
func (h *Handler) CheckMany(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []Request `json:"items"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(body.Items) == 0 {
		utils.WriteJSONError(w, "items are required", http.StatusBadRequest)
		return
	}
	for i := range body.Items {
		if body.Items[i].Quantity == 0 {
			body.Items[i].Quantity = 1
		}
	}

	res, err := h.svc.Check(r.Context(), body.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrMissingProductID) || errors.Is(err, ErrInvalidQuantity) {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.FromCtx(r.Context()).Error("inventory check failed",
		zap.String("layer", "handler"),
		zap.Error(err),
	)
	utils.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
}
