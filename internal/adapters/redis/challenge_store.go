package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long abandoned challenge data lingers. A cardholder
// gets well under an hour at the bank page before the flow times out anyway.
const DefaultTTL = time.Hour

// ChallengeStore persists the pending-challenge slot in Redis so a challenge
// that returns through a full top-level redirect can land on any instance.
type ChallengeStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewChallengeStore creates a Redis-backed store. ttl <= 0 selects
// DefaultTTL.
func NewChallengeStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ChallengeStore{client: client, ttl: ttl, logger: logger}
}

// SavePending writes the pending payload, replacing any previous value
func (s *ChallengeStore) SavePending(ctx context.Context, sessionID string, data *models.PendingChallengeData) error {
	if data == nil {
		return fmt.Errorf("pending challenge data must not be nil")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding pending challenge data: %w", err)
	}

	if err := s.client.Set(ctx, slotKey(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving pending challenge data: %w", err)
	}

	s.logger.Debug("pending challenge data saved",
		zap.String("session_id", sessionID),
		zap.String("transaction_id", data.TransactionID))
	return nil
}

// ConsumePending reads and deletes the slot in one round trip via GETDEL, so
// two concurrent resolutions can never both complete the same payment.
func (s *ChallengeStore) ConsumePending(ctx context.Context, sessionID string) (*models.PendingChallengeData, error) {
	payload, err := s.client.GetDel(ctx, slotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrNoPendingChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("consuming pending challenge data: %w", err)
	}

	var data models.PendingChallengeData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decoding pending challenge data: %w", err)
	}
	return &data, nil
}

// ClearPending removes the slot if present
func (s *ChallengeStore) ClearPending(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, slotKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clearing pending challenge data: %w", err)
	}
	return nil
}

func slotKey(sessionID string) string {
	return fmt.Sprintf("checkout:%s:%s", sessionID, models.PendingChallengeKey)
}
