//go:build unit

package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"opshub/internal/domain/event"
	"opshub/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	inserted []event.Event
	err      error
}

func (s *fakeStore) Insert(_ context.Context, ev event.Event) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, ev)
	return nil
}

func testEvent(eventType string) event.Event {
	return event.New(eventType, uuid.New(), event.AggregateCall, uuid.New(), json.RawMessage(`{}`), time.Now())
}

func newTestBus(store *fakeStore) *events.Bus {
	return events.NewBus(store, slog.New(slog.DiscardHandler))
}

func TestPublishPersistsAndDispatches(t *testing.T) {
	store := &fakeStore{}
	bus := newTestBus(store)

	var received []event.Event
	bus.Subscribe("call.missed", "recorder", func(_ context.Context, ev event.Event) error {
		received = append(received, ev)
		return nil
	})

	ev := testEvent("call.missed")
	id, err := bus.Publish(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, id)

	require.Len(t, store.inserted, 1)
	require.Len(t, received, 1)
	assert.Equal(t, ev.ID, received[0].ID)
}

func TestPublishRoutesByExactType(t *testing.T) {
	bus := newTestBus(&fakeStore{})

	missed := 0
	connected := 0
	bus.Subscribe("call.missed", "a", func(context.Context, event.Event) error { missed++; return nil })
	bus.Subscribe("call.connected", "b", func(context.Context, event.Event) error { connected++; return nil })

	_, err := bus.Publish(context.Background(), testEvent("call.missed"))
	require.NoError(t, err)

	assert.Equal(t, 1, missed)
	assert.Equal(t, 0, connected)
}

func TestHandlerFailureIsolation(t *testing.T) {
	bus := newTestBus(&fakeStore{})

	calls := []string{}
	bus.Subscribe("call.missed", "failing", func(context.Context, event.Event) error {
		calls = append(calls, "failing")
		return errors.New("boom")
	})
	bus.Subscribe("call.missed", "panicking", func(context.Context, event.Event) error {
		calls = append(calls, "panicking")
		panic("boom")
	})
	bus.Subscribe("call.missed", "healthy", func(context.Context, event.Event) error {
		calls = append(calls, "healthy")
		return nil
	})

	_, err := bus.Publish(context.Background(), testEvent("call.missed"))
	require.NoError(t, err)

	// Every subscriber ran despite the failures before it.
	assert.Equal(t, []string{"failing", "panicking", "healthy"}, calls)
}

func TestPublishFailsWhenStoreFails(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	bus := newTestBus(store)

	dispatched := false
	bus.Subscribe("call.missed", "recorder", func(context.Context, event.Event) error {
		dispatched = true
		return nil
	})

	_, err := bus.Publish(context.Background(), testEvent("call.missed"))
	require.Error(t, err)

	// No dispatch without the durable record.
	assert.False(t, dispatched)
}

func TestPublishAssignsIDWhenMissing(t *testing.T) {
	store := &fakeStore{}
	bus := newTestBus(store)

	ev := testEvent("call.missed")
	ev.ID = uuid.Nil

	id, err := bus.Publish(context.Background(), ev)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, id, store.inserted[0].ID)
}

func TestSubscriberCount(t *testing.T) {
	bus := newTestBus(&fakeStore{})
	assert.Equal(t, 0, bus.SubscriberCount("call.missed"))

	bus.Subscribe("call.missed", "a", func(context.Context, event.Event) error { return nil })
	bus.Subscribe("call.missed", "b", func(context.Context, event.Event) error { return nil })
	assert.Equal(t, 2, bus.SubscriberCount("call.missed"))
}
