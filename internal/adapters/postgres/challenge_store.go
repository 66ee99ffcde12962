package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Schema expected by the store:
//
//	CREATE TABLE pending_challenges (
//	    session_id  TEXT PRIMARY KEY,
//	    slot_key    TEXT NOT NULL,
//	    payload     JSONB NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

// ChallengeStore persists the pending-challenge slot in Postgres. Used where
// the deployment already runs Postgres and a separate cache is not wanted.
type ChallengeStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewChallengeStore creates a Postgres-backed store
func NewChallengeStore(pool *pgxpool.Pool, logger *zap.Logger) *ChallengeStore {
	return &ChallengeStore{pool: pool, logger: logger}
}

// SavePending upserts the pending payload for a session
func (s *ChallengeStore) SavePending(ctx context.Context, sessionID string, data *models.PendingChallengeData) error {
	if data == nil {
		return fmt.Errorf("pending challenge data must not be nil")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding pending challenge data: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO pending_challenges (session_id, slot_key, payload, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id)
		DO UPDATE SET slot_key = EXCLUDED.slot_key,
		              payload = EXCLUDED.payload,
		              created_at = now()`,
		sessionID, models.PendingChallengeKey, payload)
	if err != nil {
		return fmt.Errorf("saving pending challenge data: %w", err)
	}

	s.logger.Debug("pending challenge data saved",
		zap.String("session_id", sessionID),
		zap.String("transaction_id", data.TransactionID))
	return nil
}

// ConsumePending deletes the row and returns its payload in one statement,
// so two concurrent resolutions can never both complete the same payment.
func (s *ChallengeStore) ConsumePending(ctx context.Context, sessionID string) (*models.PendingChallengeData, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		DELETE FROM pending_challenges
		WHERE session_id = $1
		RETURNING payload`,
		sessionID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
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

// ClearPending removes the row if present
func (s *ChallengeStore) ClearPending(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM pending_challenges WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clearing pending challenge data: %w", err)
	}
	return nil
}
