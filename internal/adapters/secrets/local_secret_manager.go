package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// localSecretManager reads secrets from the local filesystem. Development
// only; production uses AWS Secrets Manager or Vault.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a filesystem-backed secret manager rooted at
// basePath.
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManager {
	return &localSecretManager{basePath: basePath, logger: logger}
}

// GetSecret reads a secret file. Both plain text and {"value": ...} JSON
// files are accepted.
func (m *localSecretManager) GetSecret(_ context.Context, name string) (*ports.Secret, error) {
	filePath := filepath.Join(m.basePath, name)

	m.logger.Debug("reading secret from filesystem", zap.String("name", name))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", name)
		}
		return nil, fmt.Errorf("reading secret %s: %w", name, err)
	}

	secret := &ports.Secret{
		Name:      name,
		Version:   "local",
		FetchedAt: time.Now(),
	}

	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Value != "" {
		secret.Value = wrapped.Value
		return secret, nil
	}

	secret.Value = strings.TrimSpace(string(data))
	return secret, nil
}
