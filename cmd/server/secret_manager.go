package main

import (
	"context"
	"fmt"

	"github.com/lakiremit/checkout-service/internal/adapters/secrets"
	"github.com/lakiremit/checkout-service/internal/config"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// newSecretManager builds the configured secret backend
func newSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManager, error) {
	switch cfg.SecretBackend {
	case "aws":
		return secrets.NewAWSSecretManager(ctx, secrets.DefaultAWSConfig(cfg.AWSRegion), logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddr)
		vaultCfg.Token = cfg.VaultToken
		return secrets.NewVaultSecretManager(vaultCfg, logger)

	case "local":
		return secrets.NewLocalSecretManager(cfg.SecretLocalPath, logger), nil

	default:
		return nil, fmt.Errorf("unsupported secret backend: %q", cfg.SecretBackend)
	}
}

// resolveSecret fetches an optional secret, falling back to the configured
// literal when the name is not a secret reference or the fetch fails.
func resolveSecret(ctx context.Context, manager ports.SecretManager, logger *zap.Logger, name, fallback string) string {
	if name == "" {
		return fallback
	}
	secret, err := manager.GetSecret(ctx, name)
	if err != nil {
		logger.Warn("secret fetch failed, using configured fallback",
			zap.String("secret", name),
			zap.Error(err))
		return fallback
	}
	return secret.Value
}
