package commands

import (
	"context"
	"encoding/json"
	"time"

	"opshub/internal/domain/call"
	"opshub/internal/domain/conversation"
	"opshub/internal/domain/event"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

const ProviderTelephony = "telephony"

// Carrier payload shapes. The external id is the carrier's delivery id, not
// the call or message id; the carrier reuses the latter across status updates.
type telephonyPayload struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	OrganizationID uuid.UUID         `json:"organizationId"`
	OccurredAt     time.Time         `json:"occurredAt"`
	Call           *telephonyCall    `json:"call,omitempty"`
	Message        *telephonyMessage `json:"message,omitempty"`
}

type telephonyCall struct {
	ID          uuid.UUID  `json:"id"`
	From        string     `json:"from"`
	To          string     `json:"to"`
	Status      string     `json:"status"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

type telephonyMessage struct {
	ID        string    `json:"id"`
	SubjectID uuid.UUID `json:"subjectId"`
	Channel   string    `json:"channel"`
	From      string    `json:"from"`
	Body      string    `json:"body"`
}

// TelephonyTranslator handles the phone carrier's notifications: call status
// updates (mutable resource, ordering-guarded) and inbound messages (pure
// facts, always applied).
type TelephonyTranslator struct {
	secret        string
	uow           shared.UnitOfWork
	conversations ConversationCommands
	clock         clock.Clock
}

func NewTelephonyTranslator(secret string, uow shared.UnitOfWork, conversations ConversationCommands, clk clock.Clock) *TelephonyTranslator {
	return &TelephonyTranslator{
		secret:        secret,
		uow:           uow,
		conversations: conversations,
		clock:         clk,
	}
}

func (t *TelephonyTranslator) Provider() string { return ProviderTelephony }
func (t *TelephonyTranslator) Secret() string   { return t.secret }

func (t *TelephonyTranslator) Translate(payload []byte) (*Inbound, error) {
	var p telephonyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errs.Wrap(err, "malformed telephony payload")
	}
	if p.ID == "" {
		return nil, errs.New("telephony payload missing delivery id")
	}

	switch p.Type {
	case "call.status":
		if p.Call == nil {
			return nil, errs.New("call.status payload missing call")
		}
		return t.translateCallStatus(&p), nil

	case "message.inbound":
		if p.Message == nil {
			return nil, errs.New("message.inbound payload missing message")
		}
		return t.translateInboundMessage(&p)

	default:
		return nil, errs.New("unsupported telephony event type " + p.Type)
	}
}

func (t *TelephonyTranslator) translateCallStatus(p *telephonyPayload) *Inbound {
	c := p.Call
	return &Inbound{
		ExternalID:     p.ID,
		EventType:      "call.status",
		OrganizationID: p.OrganizationID,
		Resource:       &ResourceRef{ID: c.ID.String()},
		OccurredAt:     p.OccurredAt,
		Apply: func(ctx context.Context) ([]event.Event, error) {
			now := t.clock.Now()
			record := &call.Call{
				ID:             c.ID,
				OrganizationID: p.OrganizationID,
				FromNumber:     c.From,
				ToNumber:       c.To,
				Status:         mapCallStatus(c.Status),
				ConnectedAt:    c.ConnectedAt,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := t.uow.Repos().Calls().Upsert(ctx, record); err != nil {
				return nil, err
			}

			data, _ := json.Marshal(map[string]any{
				"callId": c.ID,
				"from":   c.From,
				"to":     c.To,
			})
			switch record.Status {
			case call.StatusMissed:
				return []event.Event{
					event.New(event.TypeCallMissed, p.OrganizationID, event.AggregateCall, c.ID, data, now),
				}, nil
			case call.StatusConnected:
				return []event.Event{
					event.New(event.TypeCallConnected, p.OrganizationID, event.AggregateCall, c.ID, data, now),
				}, nil
			default:
				return nil, nil
			}
		},
	}
}

func (t *TelephonyTranslator) translateInboundMessage(p *telephonyPayload) (*Inbound, error) {
	m := p.Message
	channel, err := conversation.ParseChannel(m.Channel)
	if err != nil {
		return nil, errs.Wrap(err, "telephony message channel")
	}

	return &Inbound{
		ExternalID:     p.ID,
		EventType:      "message.inbound",
		OrganizationID: p.OrganizationID,
		OccurredAt:     p.OccurredAt,
		Apply: func(ctx context.Context) ([]event.Event, error) {
			conv, _, err := t.conversations.FindOrCreate(ctx, p.OrganizationID, m.SubjectID, channel, p.OccurredAt)
			if err != nil {
				return nil, err
			}

			now := t.clock.Now()
			data, _ := json.Marshal(map[string]any{
				"conversationId": conv.ID,
				"messageId":      m.ID,
				"from":           m.From,
				"receivedAt":     p.OccurredAt,
			})
			return []event.Event{
				event.New(event.TypeConversationMessageReceived, p.OrganizationID, event.AggregateConversation, conv.ID, data, now),
			}, nil
		},
	}, nil
}

func mapCallStatus(s string) call.Status {
	switch s {
	case "missed", "no-answer", "busy":
		return call.StatusMissed
	case "completed", "in-progress", "connected":
		return call.StatusConnected
	default:
		return call.StatusRinging
	}
}
