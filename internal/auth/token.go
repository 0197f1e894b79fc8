package auth

import (
	"net/http"
	"strings"
)

const SessionCookie = "admin_token"

// ExtractAccessToken prefers the session cookie and falls back to a bearer header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}
