package memory_test

import (
	"context"
	"testing"

	"github.com/lakiremit/checkout-service/internal/adapters/memory"
	"github.com/lakiremit/checkout-service/internal/domain/models"
	"github.com/lakiremit/checkout-service/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeStore_ConsumeIsExactlyOnce(t *testing.T) {
	store := memory.NewChallengeStore()
	ctx := context.Background()

	data := &models.PendingChallengeData{
		AuthenticationTransactionID: "auth-pre",
		TransactionID:               "TX300",
		TotalAmount:                 "50.00",
	}
	require.NoError(t, store.SavePending(ctx, "sess1", data))

	got, err := store.ConsumePending(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, "TX300", got.TransactionID)

	_, err = store.ConsumePending(ctx, "sess1")
	assert.ErrorIs(t, err, ports.ErrNoPendingChallenge)
}

func TestChallengeStore_SaveReplacesPrevious(t *testing.T) {
	store := memory.NewChallengeStore()
	ctx := context.Background()

	require.NoError(t, store.SavePending(ctx, "sess1", &models.PendingChallengeData{TransactionID: "first"}))
	require.NoError(t, store.SavePending(ctx, "sess1", &models.PendingChallengeData{TransactionID: "second"}))

	got, err := store.ConsumePending(ctx, "sess1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.TransactionID)
}

func TestChallengeStore_SessionsAreIsolated(t *testing.T) {
	store := memory.NewChallengeStore()
	ctx := context.Background()

	require.NoError(t, store.SavePending(ctx, "sess1", &models.PendingChallengeData{TransactionID: "TX300"}))

	_, err := store.ConsumePending(ctx, "sess2")
	assert.ErrorIs(t, err, ports.ErrNoPendingChallenge)

	_, err = store.ConsumePending(ctx, "sess1")
	assert.NoError(t, err)
}

func TestChallengeStore_ClearEmptySlotIsNotError(t *testing.T) {
	store := memory.NewChallengeStore()
	ctx := context.Background()

	assert.NoError(t, store.ClearPending(ctx, "sess1"))

	require.NoError(t, store.SavePending(ctx, "sess1", &models.PendingChallengeData{TransactionID: "TX300"}))
	require.NoError(t, store.ClearPending(ctx, "sess1"))

	_, err := store.ConsumePending(ctx, "sess1")
	assert.ErrorIs(t, err, ports.ErrNoPendingChallenge)
}

func TestChallengeStore_NilDataRejected(t *testing.T) {
	store := memory.NewChallengeStore()
	assert.Error(t, store.SavePending(context.Background(), "sess1", nil))
}
