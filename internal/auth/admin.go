package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"

	DefaultSessionTTL = 12 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("admin authentication is not configured")
	ErrInvalidToken       = errors.New("invalid token")
)

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Admin checks the single shared admin credential and issues session tokens.
type Admin struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAdmin(passwordHash, jwtSecret string) *Admin {
	return &Admin{
		passwordHash: passwordHash,
		secret:       []byte(jwtSecret),
		ttl:          DefaultSessionTTL,
		now:          time.Now,
	}
}

// Configured reports whether a password hash is available.
func (a *Admin) Configured() bool {
	return a != nil && a.passwordHash != ""
}

// Login verifies the password and returns a signed session token.
func (a *Admin) Login(password string) (string, time.Time, error) {
	if !a.Configured() {
		return "", time.Time{}, ErrNotConfigured
	}
	if !CheckPasswordHash(password, a.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if len(a.secret) == 0 {
		return "", time.Time{}, errors.New("JWT_SECRET is not set")
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (a *Admin) ParseToken(tokenStr string) (*AdminClaims, error) {
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&AdminClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return a.secret, nil
		},
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate accepts either a session token or the raw admin password.
func (a *Admin) Authenticate(credential string) error {
	if !a.Configured() {
		return ErrNotConfigured
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ErrInvalidCredentials
	}

	// JWTs always carry two dots; anything else is treated as a password.
	if strings.Count(credential, ".") == 2 {
		if _, err := a.ParseToken(credential); err == nil {
			return nil
		}
	}
	if CheckPasswordHash(credential, a.passwordHash) {
		return nil
	}
	return ErrInvalidCredentials
}
