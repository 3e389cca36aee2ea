package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact about something that happened. Events are
// persisted for audit and fanned out in process; they are never updated
// or deleted by this layer.
type Event struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	OrganizationID uuid.UUID       `json:"organizationId"`
	AggregateType  string          `json:"aggregateType"`
	AggregateID    uuid.UUID       `json:"aggregateId"`
	Data           json.RawMessage `json:"data"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

func New(eventType string, orgID uuid.UUID, aggregateType string, aggregateID uuid.UUID, data json.RawMessage, now time.Time) Event {
	return Event{
		ID:             uuid.New(),
		Type:           eventType,
		OrganizationID: orgID,
		AggregateType:  aggregateType,
		AggregateID:    aggregateID,
		Data:           data,
		OccurredAt:     now,
	}
}
