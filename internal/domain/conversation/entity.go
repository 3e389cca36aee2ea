package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownChannel = errors.New("unknown conversation channel")

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelWeb   Channel = "web"
)

func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSMS, ChannelEmail, ChannelWeb:
		return Channel(s), nil
	default:
		return "", ErrUnknownChannel
	}
}

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Conversation is the find-or-create aggregate: at most one open row exists
// per (organization, subject, channel). The partial unique index in the store
// is the authoritative guard; callers go through FindOrCreate.
type Conversation struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	SubjectID        uuid.UUID
	Channel          Channel
	Status           Status
	LastInboundAt    *time.Time
	LastHumanReplyAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
