package commands

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"opshub/internal/domain/event"
	"opshub/internal/domain/webhook"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

// EventPublisher is the bus seen from the ingestion side.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.Event) (uuid.UUID, error)
}

// Inbound is a provider notification translated into domain terms.
type Inbound struct {
	ExternalID     string
	EventType      string
	OrganizationID uuid.UUID

	// Resource marks notifications that describe a mutable resource's
	// current state; they are subject to the ordering guard. Nil for pure
	// facts, which are always applied.
	Resource   *ResourceRef
	OccurredAt time.Time

	// Apply performs the state mutation for this notification and returns
	// the domain events to publish. It runs after the write-ahead log entry
	// exists and may manage its own transactions.
	Apply func(ctx context.Context) ([]event.Event, error)
}

type ResourceRef struct {
	ID string
}

// Translator converts one provider's native payload into an Inbound.
// Implementations must not perform side effects.
type Translator interface {
	Provider() string
	Secret() string
	Translate(payload []byte) (*Inbound, error)
}

type IngestOutcome string

const (
	OutcomeProcessed  IngestOutcome = "processed"
	OutcomeDuplicate  IngestOutcome = "duplicate"
	OutcomeIgnored    IngestOutcome = "ignored"
	OutcomeInProgress IngestOutcome = "in_progress"
)

type IngestResult struct {
	LogID   uuid.UUID
	Outcome IngestOutcome
}

type WebhookCommands interface {
	Ingest(ctx context.Context, provider string, payload []byte, headers map[string]string, signature string) (*IngestResult, error)
}

type webhookUseCaseImpl struct {
	uow         shared.UnitOfWork
	publisher   EventPublisher
	translators map[string]Translator
	clock       clock.Clock
}

func NewWebhookUseCase(uow shared.UnitOfWork, publisher EventPublisher, translators []Translator, clk clock.Clock) WebhookCommands {
	byProvider := make(map[string]Translator, len(translators))
	for _, tr := range translators {
		byProvider[tr.Provider()] = tr
	}
	return &webhookUseCaseImpl{
		uow:         uow,
		publisher:   publisher,
		translators: byProvider,
		clock:       clk,
	}
}

// Ingest is the single entry point for inbound notifications. Order of
// operations is load-bearing: verify signature, write the log entry, check
// staleness, run side effects, finalize. The log entry is written before any
// side effect so a crash mid-processing is visible as a stuck received row.
func (w *webhookUseCaseImpl) Ingest(ctx context.Context, provider string, payload []byte, headers map[string]string, signature string) (*IngestResult, error) {
	tr, ok := w.translators[provider]
	if !ok {
		return nil, errs.Mark(errs.New("provider "+provider), errs.ErrUnknownProvider)
	}

	if !VerifySignature(tr.Secret(), payload, signature) {
		return nil, errs.ErrBadSignature
	}

	inbound, err := tr.Translate(payload)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to translate webhook payload"), errs.ErrMalformedPayload)
	}

	now := w.clock.Now()
	repos := w.uow.Repos()

	entry := &webhook.LogEntry{
		ID:         uuid.New(),
		Provider:   provider,
		EventType:  inbound.EventType,
		ExternalID: inbound.ExternalID,
		Payload:    payload,
		Headers:    headers,
		Status:     webhook.StatusReceived,
		OccurredAt: &inbound.OccurredAt,
		CreatedAt:  now,
	}
	if inbound.Resource != nil {
		entry.ResourceID = &inbound.Resource.ID
	}

	inserted, err := repos.WebhookLog().InsertIfAbsent(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return w.resolveDuplicate(ctx, provider, inbound, entry)
	}

	webhooksReceived.WithLabelValues(provider, inbound.EventType).Inc()
	return w.process(ctx, entry.ID, provider, inbound)
}

// resolveDuplicate decides what a redelivery means based on how far the
// first delivery got. Only a terminal entry earns the "do not redeliver"
// acknowledgment.
func (w *webhookUseCaseImpl) resolveDuplicate(ctx context.Context, provider string, inbound *Inbound, attempted *webhook.LogEntry) (*IngestResult, error) {
	repos := w.uow.Repos()
	existing, err := repos.WebhookLog().FindByProviderExternalID(ctx, provider, attempted.ExternalID)
	if err != nil {
		return nil, err
	}

	switch existing.Status {
	case webhook.StatusProcessed, webhook.StatusIgnored:
		webhooksDuplicate.WithLabelValues(provider).Inc()
		return &IngestResult{LogID: existing.ID, Outcome: OutcomeDuplicate}, nil

	case webhook.StatusFailed:
		// A redelivery of a failed notification is the provider's retry;
		// re-arm the entry and run side effects again.
		if err := repos.WebhookLog().Reopen(ctx, existing.ID); err != nil {
			return nil, err
		}
		return w.process(ctx, existing.ID, provider, inbound)

	default:
		// Still received: the first delivery is in flight (or crashed and
		// awaits reconciliation). Tell the provider to try again later.
		return &IngestResult{LogID: existing.ID, Outcome: OutcomeInProgress}, nil
	}
}

func (w *webhookUseCaseImpl) process(ctx context.Context, logID uuid.UUID, provider string, inbound *Inbound) (*IngestResult, error) {
	repos := w.uow.Repos()

	// Ordering guard: a state notification older than the newest processed
	// one for the same resource must not overwrite newer state.
	if inbound.Resource != nil {
		latest, err := repos.WebhookLog().LatestProcessedOccurredAt(ctx, provider, inbound.Resource.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil && !inbound.OccurredAt.After(*latest) {
			if err := repos.WebhookLog().MarkIgnored(ctx, logID, w.clock.Now()); err != nil {
				return nil, err
			}
			webhooksStale.WithLabelValues(provider).Inc()
			return &IngestResult{LogID: logID, Outcome: OutcomeIgnored}, nil
		}
	}

	var events []event.Event
	if inbound.Apply != nil {
		var err error
		events, err = inbound.Apply(ctx)
		if err != nil {
			now := w.clock.Now()
			if markErr := repos.WebhookLog().MarkFailed(ctx, logID, err.Error(), now); markErr != nil {
				return nil, markErr
			}
			return nil, errs.Wrap(err, "webhook side effects failed")
		}
	}

	for _, ev := range events {
		if _, err := w.publisher.Publish(ctx, ev); err != nil {
			now := w.clock.Now()
			if markErr := repos.WebhookLog().MarkFailed(ctx, logID, err.Error(), now); markErr != nil {
				return nil, markErr
			}
			return nil, errs.Wrap(err, "failed to publish webhook events")
		}
	}

	if err := repos.WebhookLog().MarkProcessed(ctx, logID, w.clock.Now()); err != nil {
		return nil, err
	}
	return &IngestResult{LogID: logID, Outcome: OutcomeProcessed}, nil
}

// VerifySignature checks the provider's HMAC-SHA256 hex signature over the
// raw body. Nothing in the payload is trusted before this passes.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
