package call

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRinging   Status = "ringing"
	StatusConnected Status = "connected"
	StatusMissed    Status = "missed"
)

// Call mirrors the carrier's view of one phone call. The text-back workflow
// re-reads ConnectedAt and TextBackSentAt at dispatch time; the snapshot a
// job payload carried at enqueue time is never trusted.
type Call struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	FromNumber     string
	ToNumber       string
	Status         Status
	ConnectedAt    *time.Time
	TextBackSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Call) Connected() bool {
	return c.ConnectedAt != nil
}

func (c *Call) TextBackSent() bool {
	return c.TextBackSentAt != nil
}
