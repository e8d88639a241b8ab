package app

import (
	"os"
	"strconv"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/aman-soni-070202/mini-order-processing-service/internal/domain/order"
)

const defaultAddr = "0.0.0.0:8000"

// Config holds the complete application configuration, loadable from
// environment variables (ORDERS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8000" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDERS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Pricing     PricingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the discount and shipping rules. Loaded once at process
// start and immutable for the process lifetime.
type PricingConfig struct {
	BulkDiscountThreshold int             `default:"5"    usage:"Minimum line quantity for the bulk discount" flag:"bulk-discount-threshold"`
	BulkDiscountPercent   int             `default:"10"   usage:"Bulk discount percentage" flag:"bulk-discount-percent"`
	FreeShippingThreshold decimal.Decimal `default:"50.0" usage:"Subtotal at which the shipping fee is waived" flag:"free-shipping-threshold"`
	ShippingFee           decimal.Decimal `default:"5.0"  usage:"Flat shipping fee below the free-shipping threshold" flag:"shipping-fee"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Domain converts the loaded pricing section into the domain config consumed
// by the pricing engine.
func (p PricingConfig) Domain() order.PricingConfig {
	return order.PricingConfig{
		BulkDiscountThreshold: p.BulkDiscountThreshold,
		BulkDiscountPercent:   p.BulkDiscountPercent,
		FreeShippingThreshold: p.FreeShippingThreshold,
		ShippingFee:           p.ShippingFee,
	}
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDERS",
		Files:     []string{"config.yaml", "/etc/orders/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ORDERS_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps standard environment variable names (DATABASE_URL,
// PORT, and the documented bare pricing names) to the ORDERS_-prefixed
// configuration when the prefixed form is absent.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}

	if unset("ORDERS_PRICING_BULK_DISCOUNT_THRESHOLD") {
		if n, ok := intEnv("BULK_DISCOUNT_THRESHOLD"); ok {
			c.Pricing.BulkDiscountThreshold = n
		}
	}
	if unset("ORDERS_PRICING_BULK_DISCOUNT_PERCENT") {
		if n, ok := intEnv("BULK_DISCOUNT_PERCENT"); ok {
			c.Pricing.BulkDiscountPercent = n
		}
	}
	if unset("ORDERS_PRICING_FREE_SHIPPING_THRESHOLD") {
		if d, ok := decimalEnv("FREE_SHIPPING_THRESHOLD"); ok {
			c.Pricing.FreeShippingThreshold = d
		}
	}
	if unset("ORDERS_PRICING_SHIPPING_FEE") {
		if d, ok := decimalEnv("SHIPPING_FEE"); ok {
			c.Pricing.ShippingFee = d
		}
	}
}

func unset(name string) bool {
	_, ok := os.LookupEnv(name)
	return !ok
}

func intEnv(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func decimalEnv(name string) (decimal.Decimal, bool) {
	v := os.Getenv(name)
	if v == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
