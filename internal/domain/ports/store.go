package ports

import (
	"context"
	"errors"

	"github.com/lakiremit/checkout-service/internal/domain/models"
)

// ErrNoPendingChallenge is returned by ConsumePending when the slot is empty
var ErrNoPendingChallenge = errors.New("no pending challenge data")

// ChallengeStore persists the single pending-challenge slot per checkout
// session. The slot survives a full top-level redirect to the bank's step-up
// page and back.
type ChallengeStore interface {
	// SavePending writes the pending challenge payload for a session,
	// replacing any previous value
	SavePending(ctx context.Context, sessionID string, data *models.PendingChallengeData) error

	// ConsumePending atomically reads and deletes the pending payload.
	// Returns ErrNoPendingChallenge when the slot is empty; a second consume
	// without an intervening save always fails.
	ConsumePending(ctx context.Context, sessionID string) (*models.PendingChallengeData, error)

	// ClearPending removes the slot if present; clearing an empty slot is
	// not an error
	ClearPending(ctx context.Context, sessionID string) error
}
