package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
)

// ChallengeStore is the in-process pending-challenge store used in tests and
// single-instance deployments. Not suitable behind a load balancer; the bank
// redirect can land on a different instance.
type ChallengeStore struct {
	mu    sync.Mutex
	slots map[string]*models.PendingChallengeData
}

// NewChallengeStore creates an empty in-memory store
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		slots: make(map[string]*models.PendingChallengeData),
	}
}

// SavePending writes the pending payload, replacing any previous value
func (s *ChallengeStore) SavePending(_ context.Context, sessionID string, data *models.PendingChallengeData) error {
	if data == nil {
		return fmt.Errorf("pending challenge data must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slotKey(sessionID)] = data
	return nil
}

// ConsumePending atomically reads and deletes the pending payload
func (s *ChallengeStore) ConsumePending(_ context.Context, sessionID string) (*models.PendingChallengeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey(sessionID)
	data, ok := s.slots[key]
	if !ok {
		return nil, ports.ErrNoPendingChallenge
	}
	delete(s.slots, key)
	return data, nil
}

// ClearPending removes the slot if present
func (s *ChallengeStore) ClearPending(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slotKey(sessionID))
	return nil
}

func slotKey(sessionID string) string {
	return sessionID + ":" + models.PendingChallengeKey
}
