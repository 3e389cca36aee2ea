package webhook

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusIgnored   Status = "ignored"
	StatusFailed    Status = "failed"
)

// LogEntry is the write-ahead record of one inbound provider notification.
// At most one entry ever exists for a (provider, externalID) pair; a second
// delivery with the same pair is short-circuited before any side effect.
type LogEntry struct {
	ID         uuid.UUID
	Provider   string
	EventType  string
	ExternalID string
	Payload    json.RawMessage
	Headers    map[string]string
	Status     Status

	// ResourceID and OccurredAt drive the ordering guard for notifications
	// that describe a mutable resource's current state. Nil for pure facts.
	ResourceID *string
	OccurredAt *time.Time

	Error       *string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

const (
	ProviderTelephony = "telephony"
	ProviderBilling   = "billing"
)
