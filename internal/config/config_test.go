package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "trusttec:cart:v2", cfg.CartStorageKey)
	assert.Equal(t, time.Duration(0), cfg.CartTTL)
	assert.Equal(t, 100, cfg.MaxQuantityPerItem)
	assert.Equal(t, "242056323722", cfg.WhatsAppNumber)
	assert.Equal(t, "XAF", cfg.Currency)
	assert.False(t, cfg.EventsEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CART_STORAGE_KEY", "trusttec:cart:v3")
	t.Setenv("CART_TTL", "720h")
	t.Setenv("MAX_QUANTITY_PER_ITEM", "10")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("EVENTS_ENABLED", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "trusttec:cart:v3", cfg.CartStorageKey)
	assert.Equal(t, 720*time.Hour, cfg.CartTTL)
	assert.Equal(t, 10, cfg.MaxQuantityPerItem)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_RejectsZeroQuantityLimit(t *testing.T) {
	t.Setenv("MAX_QUANTITY_PER_ITEM", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "qa")

	_, err := Load()

	require.Error(t, err)
}

func TestLoad_EventsRequireBrokers(t *testing.T) {
	t.Setenv("EVENTS_ENABLED", "true")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
