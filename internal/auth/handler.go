package auth

import (
	"errors"
	"net/http"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	admin  *Admin
	secure bool
}

// NewHandler serves the admin login; secure marks the session cookie Secure.
func NewHandler(admin *Admin, secure bool) *Handler {
	return &Handler{admin: admin, secure: secure}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "handler"),
		zap.String("method", "Login"),
	)

	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil || req.Password == "" {
		utils.WriteJSONError(w, "password is required", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.admin.Login(req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		log.Warn("admin login rejected")
		utils.WriteJSONError(w, "Invalid password", http.StatusUnauthorized)
		return
	case errors.Is(err, ErrNotConfigured):
		log.Error("admin login attempted without ADMIN_PASSWORD configured")
		utils.WriteJSONError(w, "Admin login is not configured", http.StatusInternalServerError)
		return
	case err != nil:
		log.Error("failed to issue admin token", zap.Error(err))
		utils.WriteJSONError(w, "Failed to sign in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("admin signed in")
	utils.WriteJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
