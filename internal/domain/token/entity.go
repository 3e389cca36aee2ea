package token

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownKind = errors.New("unknown token kind")
	ErrNoMaxViews  = errors.New("share tokens require a positive view limit")
)

type Kind string

const (
	// KindReschedule authorizes one reschedule of an appointment. Single use.
	KindReschedule Kind = "reschedule"
	// KindShare authorizes viewing a shared resource up to MaxViews times.
	KindShare Kind = "share"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindReschedule, KindShare:
		return Kind(s), nil
	default:
		return "", ErrUnknownKind
	}
}

// AccessToken is a capability credential. The unused→used transition (or the
// view-count increment) happens through a conditional update in the store;
// the entity itself only answers validity questions for reporting.
type AccessToken struct {
	ID             uuid.UUID
	Token          string
	Kind           Kind
	OrganizationID uuid.UUID
	ResourceType   string
	ResourceID     uuid.UUID
	ExpiresAt      time.Time
	UsedAt         *time.Time
	ViewCount      int32
	MaxViews       *int32
	CreatedAt      time.Time
}

func (t *AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func (t *AccessToken) Consumed() bool {
	return t.UsedAt != nil
}

func (t *AccessToken) Exhausted() bool {
	return t.MaxViews != nil && t.ViewCount >= *t.MaxViews
}

// NewSingleUse issues a reschedule-style token.
func NewSingleUse(kind Kind, orgID uuid.UUID, resourceType string, resourceID uuid.UUID, token string, expiresAt, now time.Time) *AccessToken {
	return &AccessToken{
		ID:             uuid.New(),
		Token:          token,
		Kind:           kind,
		OrganizationID: orgID,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}
}

// NewBoundedView issues a share-style token good for maxViews views.
func NewBoundedView(kind Kind, orgID uuid.UUID, resourceType string, resourceID uuid.UUID, token string, maxViews int32, expiresAt, now time.Time) (*AccessToken, error) {
	if maxViews <= 0 {
		return nil, ErrNoMaxViews
	}
	t := NewSingleUse(kind, orgID, resourceType, resourceID, token, expiresAt, now)
	t.MaxViews = &maxViews
	return t, nil
}
