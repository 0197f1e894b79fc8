package main

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Driver for Testing ---
type mockDriver struct{}

func (m *mockDriver) Open(name string) (driver.Conn, error)         { return &mockConn{}, nil }
func (c *mockConn) Prepare(query string) (driver.Stmt, error)       { return &mockStmt{}, nil }
func (c *mockConn) Close() error                                    { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                       { return nil, nil }
func (s *mockStmt) Close() error                                    { return nil }
func (s *mockStmt) NumInput() int                                   { return -1 }
func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("not implemented")
}

type mockConn struct{}
type mockStmt struct{}

type failingDriver struct{}

func (failingDriver) Open(string) (driver.Conn, error) { return nil, errors.New("connection refused") }

func init() {
	sql.Register("mock_driver_main", &mockDriver{})
	sql.Register("failing_driver_main", failingDriver{})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	return &config.Config{
		AppPort:                "8080",
		AppEnv:                 "test",
		StripeSecretKey:        "sk_test",
		StripeWebhookSecret:    "whsec_test",
		StripeWebhookTolerance: 300 * time.Second,
		SiteURL:                "https://shop.example.com",
		CORSOrigin:             "https://shop.example.com",
		AdminPasswordHash:      hash,
		JWTSecret:              "jwt-secret",
	}
}

func newTestServer(t *testing.T, driverName string) http.Handler {
	t.Helper()
	db, err := sql.Open(driverName, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler, cleanup, err := newServer(ctx, testConfig(t), db)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return handler
}

func TestNewServer_Routes(t *testing.T) {
	router := newTestServer(t, "mock_driver_main")

	t.Run("Health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body healthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Database)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("Webhook rejects GET", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/webhook/stripe", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("Webhook requires signature", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewBufferString(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Checkout rejects empty cart", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout-session", bytes.NewBufferString(`{"items":[],"region":"us"}`)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Order requires session id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/order", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Inventory requires product id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inventory", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Admin routes require credentials", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin-orders", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Admin login then invalid order id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin-login", bytes.NewBufferString(`{"password":"s3cret"}`)))
		require.Equal(t, http.StatusOK, rr.Code)

		var login struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))

		req := httptest.NewRequest(http.MethodGet, "/admin-orders/not-a-uuid", nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("CORS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/checkout-session", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "https://shop.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealth_DatabaseDown(t *testing.T) {
	router := newTestServer(t, "failing_driver_main")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"unreachable"`)
}

func TestResolveAdminHash(t *testing.T) {
	t.Run("Hash wins", func(t *testing.T) {
		h, err := resolveAdminHash(&config.Config{AdminPasswordHash: "$2a$stored", AdminPassword: "plain"})
		require.NoError(t, err)
		assert.Equal(t, "$2a$stored", h)
	})

	t.Run("Plaintext is hashed", func(t *testing.T) {
		h, err := resolveAdminHash(&config.Config{AdminPassword: "plain"})
		require.NoError(t, err)
		assert.NotEqual(t, "plain", h)
		assert.True(t, auth.CheckPasswordHash("plain", h))
	})

	t.Run("Unset", func(t *testing.T) {
		h, err := resolveAdminHash(&config.Config{})
		require.NoError(t, err)
		assert.Empty(t, h)
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	initDBFunc = func(cfg *config.Config) *sql.DB {
		db, _ := sql.Open("mock_driver_main", "")
		return db
	}

	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()
	var addr string
	startServerFunc = func(ctx context.Context, srv *http.Server) error {
		addr = srv.Addr
		return nil
	}

	t.Setenv("APP_PORT", "9191")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")

	assert.NoError(t, run())
	assert.Equal(t, ":9191", addr)
}
