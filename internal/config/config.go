package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration, loaded from environment variables
type Config struct {
	// Server
	ServerPort  int
	MetricsPort int

	// AppOrigin is this application's exact public origin; it gates the
	// challenge completion message and builds the ACS return URL
	AppOrigin string

	// Payment API
	BackendBaseURL string
	BackendToken   string

	// Provider selection: "cybersource" or "mastercard"
	PaymentProvider string

	// Mastercard gateway host (only used by the mastercard provider)
	GatewayHost string

	// Fraud-detection organization id appended to the collection URL
	CollectorOrgID string

	// TransactionID is the transaction this instance's checkout session pays
	// for; one session per process
	TransactionID string

	// Challenge store backend: "memory", "redis", or "postgres"
	StoreBackend string
	RedisAddr    string
	RedisTTL     time.Duration
	PostgresURL  string

	// Event stream
	KafkaBrokers []string
	KafkaTopic   string

	// Secret backend: "local", "aws", or "vault"
	SecretBackend   string
	SecretLocalPath string
	AWSRegion       string
	VaultAddr       string
	VaultToken      string

	// Logging
	LogLevel string
	Env      string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnvInt("SERVER_PORT", 8080),
		MetricsPort: getEnvInt("METRICS_PORT", 9090),

		AppOrigin: getEnv("APP_ORIGIN", "http://localhost:8080"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", ""),
		BackendToken:   getEnv("BACKEND_TOKEN", ""),

		PaymentProvider: getEnv("PAYMENT_PROVIDER", "cybersource"),
		GatewayHost:     getEnv("GATEWAY_HOST", ""),
		CollectorOrgID:  getEnv("COLLECTOR_ORG_ID", ""),
		TransactionID:   getEnv("CHECKOUT_TRANSACTION_ID", ""),

		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisTTL:     getEnvDuration("REDIS_TTL", time.Hour),
		PostgresURL:  getEnv("DATABASE_URL", ""),

		KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "checkout.events"),

		SecretBackend:   getEnv("SECRET_BACKEND", "local"),
		SecretLocalPath: getEnv("SECRET_LOCAL_PATH", "./secrets"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		VaultAddr:       getEnv("VAULT_ADDR", ""),
		VaultToken:      getEnv("VAULT_TOKEN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("ENV", "development"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if !strings.HasPrefix(c.AppOrigin, "http://") && !strings.HasPrefix(c.AppOrigin, "https://") {
		return fmt.Errorf("APP_ORIGIN must be an absolute origin, got %q", c.AppOrigin)
	}

	switch c.PaymentProvider {
	case "cybersource":
	case "mastercard":
		if c.GatewayHost == "" {
			return fmt.Errorf("GATEWAY_HOST is required for the mastercard provider")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER: %q", c.PaymentProvider)
	}

	switch c.StoreBackend {
	case "memory", "redis":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store backend")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %q", c.StoreBackend)
	}

	switch c.SecretBackend {
	case "local", "aws":
	case "vault":
		if c.VaultAddr == "" {
			return fmt.Errorf("VAULT_ADDR is required for the vault secret backend")
		}
	default:
		return fmt.Errorf("unsupported SECRET_BACKEND: %q", c.SecretBackend)
	}

	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
