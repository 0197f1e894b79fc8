package checkout

import (
	"errors"
	"net/http"

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

// CreateSession serves POST /checkout-session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.svc.CreateSession(r.Context(), req)
	if err != nil {
		var stockErr *OutOfStockError
		switch {
		case errors.As(err, &stockErr):
			utils.WriteJSON(w, http.StatusConflict, map[string]any{
				"error":      stockErr.Error(),
				"productIds": stockErr.ProductIDs,
			})
		case errors.Is(err, ErrEmptyCart),
			errors.Is(err, ErrInvalidQuantity),
			errors.Is(err, ErrInvalidPrice),
			errors.Is(err, ErrMissingName),
			errors.Is(err, ErrMissingRegion):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromCtx(r.Context()).Error("checkout session failed",
				zap.String("layer", "handler"),
				zap.Error(err),
			)
			utils.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, session)
}
