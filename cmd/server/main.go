package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cache"
	"storefront-be/internal/checkout"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/email"
	"storefront-be/internal/events"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	requestTimeout  = 30 * time.Second
	limiterSweep    = time.Minute
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, srv)
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type handlers struct {
	checkout  *checkout.Handler
	orders    *order.Handler
	webhook   *webhook.Handler
	inventory *inventory.Handler
	login     *auth.Handler
	admin     middleware.Authenticator
	strict    *middleware.RateLimiter
	general   *middleware.RateLimiter
	db        *sql.DB
	metrics   *metrics.Registry
}

// newServer wires every service; the returned cleanup closes optional backends.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	log := logger.L()
	var closers []func() error

	adminHash, err := resolveAdminHash(cfg)
	if err != nil {
		return nil, nil, err
	}
	admin := auth.NewAdmin(adminHash, cfg.JWTSecret)
	if !admin.Configured() {
		log.Warn("ADMIN_PASSWORD_HASH not set; admin routes will reject every request")
	} else if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set; admin login disabled, password bearer still accepted")
	}

	var orderCache order.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr)
		closers = append(closers, rdb.Close)
		orderCache = cache.NewRedisCache(rdb, cache.DefaultTTL)
		log.Info("order cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	var publisher order.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		closers = append(closers, kp.Close)
		publisher = kp
		log.Info("order events enabled", zap.String("topic", cfg.KafkaOrderTopic))
	}

	mailer := email.NewResendClient(cfg.ResendAPIKey, "")
	if !mailer.Configured() {
		log.Warn("RESEND_API_KEY not set; order emails are disabled")
	}
	notifier := email.NewNotifier(mailer, cfg.EmailFrom, cfg.AdminEmail)

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeAPIBase)

	inventorySvc := inventory.NewService(inventory.NewRepository(database))
	checkoutSvc := checkout.NewService(gateway, inventorySvc, checkout.Options{
		SiteURL:          cfg.SiteURL,
		AllowedCountries: cfg.ShippingCountries,
	})
	orderSvc := order.NewService(
		order.NewRepository(database),
		gateway,
		notifier,
		publisher,
		orderCache,
		order.AmountPolicy{
			ShippingFromGateway: cfg.ShippingFromGateway,
			TaxFromGateway:      cfg.TaxFromGateway,
		},
	)

	strict := middleware.NewRateLimiter(middleware.LimitStrict, middleware.BurstStrict)
	general := middleware.NewRateLimiter(middleware.LimitGeneral, middleware.BurstGeneral)
	go strict.Run(ctx, limiterSweep)
	go general.Run(ctx, limiterSweep)

	router := setupRouter(cfg.CORSOrigin, handlers{
		checkout:  checkout.NewHandler(checkoutSvc),
		orders:    order.NewHandler(orderSvc),
		webhook:   webhook.NewWebhookHandler(cfg.StripeWebhookSecret, cfg.StripeWebhookTolerance, payment.NewRepository(database), orderSvc),
		inventory: inventory.NewHandler(inventorySvc),
		login:     auth.NewHandler(admin, cfg.IsProduction()),
		admin:     admin,
		strict:    strict,
		general:   general,
		db:        database,
		metrics:   metrics.Default(),
	})

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("failed to close backend", zap.Error(err))
			}
		}
	}
	return router, cleanup, nil
}

// resolveAdminHash prefers the stored hash; a plaintext password is hashed once at boot.
func resolveAdminHash(cfg *config.Config) (string, error) {
	if cfg.AdminPasswordHash != "" {
		return cfg.AdminPasswordHash, nil
	}
	if cfg.AdminPassword == "" {
		return "", nil
	}

	logger.L().Warn("ADMIN_PASSWORD is plaintext; set ADMIN_PASSWORD_HASH instead")
	return auth.HashPassword(cfg.AdminPassword)
}

func setupRouter(corsOrigin string, h handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.CORS(corsOrigin))

	r.Get("/health", healthHandler(h.db, h.metrics))

	// Signed by the gateway; the handler answers non-POST itself.
	r.HandleFunc("/webhook/stripe", h.webhook.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(h.general.Middleware)

		r.Post("/checkout-session", h.checkout.CreateSession)
		r.Get("/order", h.orders.GetOrder)
		r.Post("/order", h.orders.GetOrder)
		r.Get("/inventory", h.inventory.CheckOne)
		r.Post("/inventory", h.inventory.CheckMany)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.strict.Middleware)

		r.Post("/admin-login", h.login.Login)

		r.Route("/admin-orders", func(r chi.Router) {
			r.Use(middleware.AdminOnly(h.admin))

			r.Get("/", h.orders.AdminList)
			r.Get("/{id}", h.orders.AdminGet)
			r.Put("/{id}", h.orders.AdminUpdate)
			r.Post("/{id}/refund", h.orders.AdminRefund)
		})
	})

	return r
}

type healthResponse struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Uptime   string            `json:"uptime"`
	Counters map[string]uint64 `json:"counters"`
}

func healthHandler(database *sql.DB, reg *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:   "ok",
			Database: "ok",
			Uptime:   reg.Uptime().Round(time.Second).String(),
			Counters: reg.Snapshot(),
		}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			logger.FromCtx(r.Context()).Error("health check database ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}

		utils.WriteJSON(w, code, resp)
	}
}
