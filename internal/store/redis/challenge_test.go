package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

func newTestStore(t *testing.T) *ChallengeStore {
	t.Helper()
	addr := os.Getenv("SIMGUARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SIMGUARD_TEST_REDIS_ADDR not set")
	}
	client, err := Open(context.Background(), Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	prefix := fmt.Sprintf("sg:test:%d:", time.Now().UnixNano())
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})
	return NewChallengeStore(client, prefix, time.Hour)
}

func pending(id, attempt string, created time.Time) *types.Challenge {
	return &types.Challenge{
		ID: id, PaymentAttemptID: attempt, PhoneNumber: "+254712345678",
		RiskTier: types.RiskHigh, Method: types.MethodEmail, SecretHash: "abc",
		CreatedAt: created, ExpiresAt: created.Add(10 * time.Minute), UpdatedAt: created,
		AttemptsRemaining: 3, Status: types.ChallengePending,
	}
}

func TestEncodeKeepsSecretHash(t *testing.T) {
	c := pending("c1", "pay-1", time.Now().UTC())
	raw, err := encode(c)
	require.NoError(t, err)
	back, err := decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", back.SecretHash)
	assert.Equal(t, c.ExpiresAt.Unix(), back.ExpiresAt.Unix())
}

func TestChallengeStore_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, pending("c1", "pay-1", now)))
	require.ErrorIs(t, s.Insert(ctx, pending("c2", "pay-1", now)), repository.ErrConflict)

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.SecretHash)

	upd, err := s.Update(ctx, "c1", func(c *types.Challenge) error {
		c.Status = types.ChallengeFailed
		c.AttemptsRemaining = 0
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, types.ChallengeFailed, upd.Status)

	// el slot se liberó al pasar a terminal
	require.NoError(t, s.Insert(ctx, pending("c3", "pay-1", now)))
	latest, err := s.LatestForAttempt(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "c3", latest.ID)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChallengeStore_InsertExpiresStalePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, pending("old", "pay-9", now)))
	require.NoError(t, s.Insert(ctx, pending("new", "pay-9", now.Add(11*time.Minute))))

	old, err := s.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, types.ChallengeExpired, old.Status)
}
