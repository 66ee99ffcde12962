package config_test

import (
	"testing"
	"time"

	"github.com/lakiremit/checkout-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "cybersource", cfg.PaymentProvider)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "local", cfg.SecretBackend)
	assert.Equal(t, time.Hour, cfg.RedisTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_RequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "BACKEND_BASE_URL")
}

func TestLoad_MastercardRequiresGatewayHost(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com")
	t.Setenv("PAYMENT_PROVIDER", "mastercard")

	_, err := config.Load()
	assert.ErrorContains(t, err, "GATEWAY_HOST")

	t.Setenv("GATEWAY_HOST", "gateway.example.com")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "mastercard", cfg.PaymentProvider)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com")
	t.Setenv("STORE_BACKEND", "etcd")

	_, err := config.Load()
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestLoad_ParsesKafkaBrokerList(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_RejectsRelativeAppOrigin(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com")
	t.Setenv("APP_ORIGIN", "checkout.example.com")

	_, err := config.Load()
	assert.ErrorContains(t, err, "APP_ORIGIN")
}
