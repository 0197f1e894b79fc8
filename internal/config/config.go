package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppEnv  string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string

	StripeSecretKey        string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
	StripeAPIBase          string

	SiteURL           string
	ShippingCountries []string
	CORSOrigin        string

	ResendAPIKey string
	EmailFrom    string
	AdminEmail   string

	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string

	// Shipping and tax are zero unless the gateway amounts are trusted.
	ShippingFromGateway bool
	TaxFromGateway      bool

	RedisAddr       string
	KafkaBrokers    []string
	KafkaOrderTopic string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}

	return cfg
}

// FromEnv reads the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		AppPort: getenv("APP_PORT", "8080"),
		AppEnv:  getenv("APP_ENV", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      getenv("DB_PORT", "5432"),

		StripeSecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeWebhookTolerance: time.Duration(getenvInt("STRIPE_WEBHOOK_TOLERANCE", 300)) * time.Second,
		StripeAPIBase:          getenv("STRIPE_API_BASE", "https://api.stripe.com"),

		SiteURL:           strings.TrimRight(getenv("SITE_URL", "http://localhost:3000"), "/"),
		ShippingCountries: splitCSV(getenv("SHIPPING_COUNTRIES", "US,CA,GB,DE,FR,NL,AU")),
		CORSOrigin:        getenv("CORS_ORIGIN", "http://localhost:3000"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getenv("EMAIL_FROM", "orders@example.com"),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),

		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),

		ShippingFromGateway: getenvBool("ORDER_SHIPPING_FROM_GATEWAY"),
		TaxFromGateway:      getenvBool("ORDER_TAX_FROM_GATEWAY"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		KafkaBrokers:    splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: getenv("KAFKA_ORDER_TOPIC", "storefront.orders"),
	}
}

// Validate reports every required value that is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.DatabaseURL == "" && c.DBHost == "" {
		missing = append(missing, "DATABASE_URL or DB_HOST")
	}
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	if c.StripeWebhookTolerance <= 0 {
		return errors.New("STRIPE_WEBHOOK_TOLERANCE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
