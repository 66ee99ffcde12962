package ports

import (
	"context"
	"time"
)

// Secret is a named credential fetched from a secret backend
type Secret struct {
	Name      string
	Value     string
	Version   string
	FetchedAt time.Time
}

// SecretManager fetches merchant credentials (fraud-detection org id,
// backend API key) from the configured backend.
type SecretManager interface {
	GetSecret(ctx context.Context, name string) (*Secret, error)
}
