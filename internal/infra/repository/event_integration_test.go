//go:build integration

package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"opshub/internal/domain/event"
	"opshub/internal/infra/repository"
	"opshub/internal/infra/repository/testhelper"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventAuditTrailByAggregate(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	testhelper.Truncate(t, pool, "domain_events")
	repo := repository.NewEventRepository(pool)
	ctx := context.Background()

	orgID := uuid.New()
	callID := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	missed := event.New(event.TypeCallMissed, orgID, event.AggregateCall, callID,
		json.RawMessage(`{"from":"+15550001"}`), base)
	sent := event.New(event.TypeMessageSent, orgID, event.AggregateCall, callID,
		json.RawMessage(`{"purpose":"missed_call_text_back"}`), base.Add(time.Minute))

	// Insert newest first; the listing re-orders by occurrence.
	require.NoError(t, repo.Insert(ctx, sent))
	require.NoError(t, repo.Insert(ctx, missed))

	unrelated := event.New(event.TypeCallMissed, orgID, event.AggregateCall, uuid.New(),
		json.RawMessage(`{}`), base)
	require.NoError(t, repo.Insert(ctx, unrelated))

	trail, err := repo.ListByAggregate(ctx, orgID, event.AggregateCall, callID, 50)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, event.TypeCallMissed, trail[0].Type)
	assert.Equal(t, event.TypeMessageSent, trail[1].Type)
	assert.True(t, trail[0].OccurredAt.Before(trail[1].OccurredAt))

	other, err := repo.ListByAggregate(ctx, uuid.New(), event.AggregateCall, callID, 50)
	require.NoError(t, err)
	assert.Empty(t, other, "events are scoped to the organization")
}
