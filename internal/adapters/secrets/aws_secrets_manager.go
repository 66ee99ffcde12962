package secrets

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// AWSConfig configures the AWS Secrets Manager backend
type AWSConfig struct {
	// AWS region (e.g., "us-east-1")
	Region string

	// Optional profile name for local development
	Profile string

	// Optional custom endpoint for LocalStack testing
	Endpoint string

	// Cache TTL for fetched secrets
	CacheTTL time.Duration

	// Enable caching
	EnableCache bool
}

// DefaultAWSConfig returns default configuration for the given region
func DefaultAWSConfig(region string) *AWSConfig {
	return &AWSConfig{
		Region:      region,
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

type awsSecretManager struct {
	client *secretsmanager.Client
	cache  *secretCache
	logger *zap.Logger
}

// NewAWSSecretManager creates a secret manager backed by AWS Secrets Manager.
// Credentials come from the default chain (IAM role in production) unless a
// profile is named.
func NewAWSSecretManager(ctx context.Context, cfg *AWSConfig, logger *zap.Logger) (ports.SecretManager, error) {
	var awsConfig aws.Config
	var err error

	if cfg.Profile != "" {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	} else {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	clientOptions := []func(*secretsmanager.Options){}
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS secret manager initialized",
		zap.String("region", cfg.Region),
		zap.Bool("cache_enabled", cfg.EnableCache))

	return &awsSecretManager{
		client: secretsmanager.NewFromConfig(awsConfig, clientOptions...),
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
		logger: logger,
	}, nil
}

// GetSecret fetches a secret by name or full ARN
func (m *awsSecretManager) GetSecret(ctx context.Context, name string) (*ports.Secret, error) {
	if cached := m.cache.get(name); cached != nil {
		m.logger.Debug("secret served from cache", zap.String("name", name))
		return cached, nil
	}

	result, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		m.logger.Error("secret fetch failed",
			zap.String("name", name),
			zap.Error(err))
		return nil, fmt.Errorf("fetching secret %s: %w", name, err)
	}

	secret := &ports.Secret{
		Name:      aws.ToString(result.Name),
		Value:     aws.ToString(result.SecretString),
		Version:   aws.ToString(result.VersionId),
		FetchedAt: time.Now(),
	}

	m.cache.set(name, secret)
	return secret, nil
}
