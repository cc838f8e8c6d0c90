// Package config carries the runtime configuration of the cart service,
// loaded from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/trusttec/cart-service/pkg/config"
	"github.com/trusttec/cart-service/pkg/validator"
)

// Config is the full service configuration. Defaults give a working local
// setup against a localhost Redis with events disabled.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development staging production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// CartStorageKey is versioned; bumping the suffix abandons carts
	// written under older layouts instead of migrating them.
	CartStorageKey     string        `env:"CART_STORAGE_KEY" envDefault:"trusttec:cart:v2" validate:"required"`
	CartTTL            time.Duration `env:"CART_TTL" envDefault:"0"`
	MaxQuantityPerItem int           `env:"MAX_QUANTITY_PER_ITEM" envDefault:"100" validate:"min=1"`

	WhatsAppNumber string `env:"WHATSAPP_NUMBER" envDefault:"242056323722" validate:"required,numeric"`
	Currency       string `env:"CURRENCY" envDefault:"XAF" validate:"required"`

	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://trusttec.cg"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("invalid config: EVENTS_ENABLED requires KAFKA_BROKERS")
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// HTTPAddr is the listen address for the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
