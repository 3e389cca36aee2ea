package events

import (
	"context"
	"log/slog"
	"sync"

	"opshub/internal/domain/event"
	"opshub/internal/pkg/errs"

	"github.com/google/uuid"
)

// Handler reacts to one published event. Handlers must be idempotent or
// re-check state: delivery is at-least-once and ordering across handlers is
// undefined. Slow or must-survive-restart work belongs in the job queue, not
// inline here.
type Handler func(ctx context.Context, ev event.Event) error

// Store persists published events for audit. The bus itself holds no durable
// dispatch state; an in-flight handler invocation is lost on restart.
type Store interface {
	Insert(ctx context.Context, ev event.Event) error
}

// Bus is the in-process typed publish/subscribe router. Dispatch is
// synchronous within Publish, each handler isolated by error trapping: a bug
// in one subscriber can never abort its siblings or the publishing call.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	store    Store
	logger   *slog.Logger
}

type namedHandler struct {
	name string
	fn   Handler
}

func NewBus(store Store, logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]namedHandler),
		store:    store,
		logger:   logger,
	}
}

// Subscribe registers a handler for the exact event type. Multiple handlers
// per type are allowed; there is no wildcard routing.
func (b *Bus) Subscribe(eventType string, name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], namedHandler{name: name, fn: h})
}

// Publish persists the event, then dispatches it to every currently
// subscribed handler. Only a persistence failure fails the publish; handler
// failures are logged and contained.
func (b *Bus) Publish(ctx context.Context, ev event.Event) (uuid.UUID, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	if err := b.store.Insert(ctx, ev); err != nil {
		return uuid.Nil, errs.Wrap(err, "failed to persist event")
	}
	eventsPublished.WithLabelValues(ev.Type).Inc()

	b.mu.RLock()
	subscribers := make([]namedHandler, len(b.handlers[ev.Type]))
	copy(subscribers, b.handlers[ev.Type])
	b.mu.RUnlock()

	for _, sub := range subscribers {
		b.dispatch(ctx, sub, ev)
	}

	return ev.ID, nil
}

func (b *Bus) dispatch(ctx context.Context, sub namedHandler, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			handlerFailures.WithLabelValues(ev.Type, sub.name).Inc()
			b.logger.Error("event handler panicked",
				"event_type", ev.Type,
				"handler", sub.name,
				"event_id", ev.ID,
				"organization_id", ev.OrganizationID,
				"panic", r)
		}
	}()

	if err := sub.fn(ctx, ev); err != nil {
		handlerFailures.WithLabelValues(ev.Type, sub.name).Inc()
		b.logger.Error("event handler failed",
			"event_type", ev.Type,
			"handler", sub.name,
			"event_id", ev.ID,
			"organization_id", ev.OrganizationID,
			"error", err.Error())
	}
}

// SubscriberCount reports how many handlers are bound to a type.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
