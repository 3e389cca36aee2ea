//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"opshub/internal/domain/token"
	"opshub/internal/infra/repository"
	"opshub/internal/infra/repository/testhelper"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedToken(t *testing.T, repo *repository.TokenRepository, opaque string, expiresAt time.Time) *token.AccessToken {
	t.Helper()

	now := time.Now().UTC()
	tok := token.NewSingleUse(token.KindReschedule, uuid.New(), "appointment", uuid.New(), opaque, expiresAt, now)
	require.NoError(t, repo.Insert(context.Background(), tok))
	return tok
}

func TestTokenConsumeExactlyOnce(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "access_tokens")
	repo := repository.NewTokenRepository(pool)

	now := time.Now().UTC()
	seedToken(t, repo, "tok_race", now.Add(time.Hour))

	const redeemers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.Consume(context.Background(), "tok_race", now)
			assert.NoError(t, err)
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "of N concurrent redeemers exactly one wins")
}

func TestTokenConsumeRejectsExpired(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "access_tokens")
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	seedToken(t, repo, "tok_expired", now.Add(-time.Minute))

	won, err := repo.Consume(ctx, "tok_expired", now)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestTokenReleaseMakesItRedeemableAgain(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "access_tokens")
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	seedToken(t, repo, "tok_release", now.Add(time.Hour))

	won, err := repo.Consume(ctx, "tok_release", now)
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.Consume(ctx, "tok_release", now)
	require.NoError(t, err)
	require.False(t, won)

	// Compensation path after a failed downstream effect.
	require.NoError(t, repo.ReleaseUse(ctx, "tok_release"))

	won, err = repo.Consume(ctx, "tok_release", now)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestTokenViewCountIsBounded(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "access_tokens")
	repo := repository.NewTokenRepository(pool)

	now := time.Now().UTC()
	tok, err := token.NewBoundedView(token.KindShare, uuid.New(), "invoice", uuid.New(), "tok_views", 3, now.Add(time.Hour), now)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), tok))

	// More viewers than remaining views; the bound holds under concurrency.
	const viewers = 10
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts int
	)
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counted, err := repo.IncrementView(context.Background(), "tok_views", now)
			assert.NoError(t, err)
			if counted {
				mu.Lock()
				counts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, counts)

	found, err := repo.FindByToken(context.Background(), "tok_views")
	require.NoError(t, err)
	assert.Equal(t, int32(3), found.ViewCount)
	assert.True(t, found.Exhausted())
}

func TestTokenDeleteExpired(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "access_tokens")
	repo := repository.NewTokenRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	seedToken(t, repo, "tok_live", now.Add(time.Hour))
	seedToken(t, repo, "tok_dead", now.Add(-time.Hour))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByToken(ctx, "tok_live")
	assert.NoError(t, err)
}
