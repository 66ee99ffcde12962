package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// VaultConfig configures the HashiCorp Vault backend
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string

	// Token for token authentication
	Token string

	// AppRole credentials
	RoleID   string
	SecretID string

	// KV secrets engine mount path (default: "secret")
	MountPath string

	// KV version: "v1" or "v2" (default: "v2")
	KVVersion string

	// Cache TTL for fetched secrets
	CacheTTL time.Duration

	// Enable caching
	EnableCache bool
}

// DefaultVaultConfig returns default configuration for the given address
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:     address,
		AuthMethod:  "token",
		MountPath:   "secret",
		KVVersion:   "v2",
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

type vaultSecretManager struct {
	client *vault.Client
	cfg    *VaultConfig
	cache  *secretCache
	logger *zap.Logger
}

// NewVaultSecretManager creates a secret manager backed by HashiCorp Vault
func NewVaultSecretManager(cfg *VaultConfig, logger *zap.Logger) (ports.SecretManager, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}

	if err := authenticate(client, cfg); err != nil {
		return nil, fmt.Errorf("authenticating with vault: %w", err)
	}

	logger.Info("vault secret manager initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath))

	return &vaultSecretManager{
		client: client,
		cfg:    cfg,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
		logger: logger,
	}, nil
}

func authenticate(client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for approle auth")
		}
		resp, err := client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("approle login: %w", err)
		}
		if resp.Auth == nil {
			return fmt.Errorf("approle login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret fetches a secret by KV path. The value is expected under the
// "value" key of the stored data.
func (m *vaultSecretManager) GetSecret(ctx context.Context, name string) (*ports.Secret, error) {
	if cached := m.cache.get(name); cached != nil {
		m.logger.Debug("secret served from cache", zap.String("name", name))
		return cached, nil
	}

	fullPath := fmt.Sprintf("%s/%s", m.cfg.MountPath, name)
	if m.cfg.KVVersion == "v2" {
		fullPath = fmt.Sprintf("%s/data/%s", m.cfg.MountPath, name)
	}

	raw, err := m.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		m.logger.Error("secret fetch failed",
			zap.String("name", name),
			zap.Error(err))
		return nil, fmt.Errorf("reading secret %s: %w", name, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("secret not found: %s", name)
	}

	data := raw.Data
	version := "1"
	if m.cfg.KVVersion == "v2" {
		wrapped, ok := raw.Data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected secret format for %s", name)
		}
		data = wrapped

		if metadata, ok := raw.Data["metadata"].(map[string]interface{}); ok {
			if v, ok := metadata["version"].(json.Number); ok {
				version = v.String()
			}
		}
	}

	value, _ := data["value"].(string)
	if value == "" {
		return nil, fmt.Errorf("secret %s has no value", name)
	}

	secret := &ports.Secret{
		Name:      name,
		Value:     value,
		Version:   version,
		FetchedAt: time.Now(),
	}

	m.cache.set(name, secret)
	return secret, nil
}
