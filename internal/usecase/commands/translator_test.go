//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"opshub/internal/domain/call"
	"opshub/internal/domain/conversation"
	"opshub/internal/domain/event"
	"opshub/internal/pkg/clock"
	"opshub/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upsertingCallRepo struct {
	upserted []*call.Call
}

func (r *upsertingCallRepo) Upsert(_ context.Context, c *call.Call) error {
	r.upserted = append(r.upserted, c)
	return nil
}

func (r *upsertingCallRepo) FindByID(context.Context, uuid.UUID) (*call.Call, error) {
	return nil, nil
}

func (r *upsertingCallRepo) MarkTextBackSent(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (r *upsertingCallRepo) MarkConnected(context.Context, uuid.UUID, time.Time) error { return nil }

type fakeConversations struct {
	conv    *conversation.Conversation
	created bool

	findOrCreateCalls int
	lastInboundAt     time.Time
}

func (f *fakeConversations) FindOrCreate(_ context.Context, _, _ uuid.UUID, _ conversation.Channel, inboundAt time.Time) (*conversation.Conversation, bool, error) {
	f.findOrCreateCalls++
	f.lastInboundAt = inboundAt
	return f.conv, f.created, nil
}

func (f *fakeConversations) RecordHumanReply(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (f *fakeConversations) Close(context.Context, uuid.UUID) error { return nil }

func telephonyFixture(conv *fakeConversations) (*commands.TelephonyTranslator, *upsertingCallRepo) {
	clk := clock.NewMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	calls := &upsertingCallRepo{}
	uow := &fakeIngestUow{tx: &fakeIngestTx{calls: calls}}
	return commands.NewTelephonyTranslator(testSecret, uow, conv, clk), calls
}

func TestTelephonyTranslateCallStatus(t *testing.T) {
	tr, calls := telephonyFixture(nil)

	callID := uuid.New()
	orgID := uuid.New()
	occurredAt := time.Date(2026, 3, 10, 11, 55, 0, 0, time.UTC)

	tests := []struct {
		carrierStatus string
		wantStatus    call.Status
		wantEvent     string
	}{
		{carrierStatus: "missed", wantStatus: call.StatusMissed, wantEvent: event.TypeCallMissed},
		{carrierStatus: "no-answer", wantStatus: call.StatusMissed, wantEvent: event.TypeCallMissed},
		{carrierStatus: "busy", wantStatus: call.StatusMissed, wantEvent: event.TypeCallMissed},
		{carrierStatus: "completed", wantStatus: call.StatusConnected, wantEvent: event.TypeCallConnected},
		{carrierStatus: "connected", wantStatus: call.StatusConnected, wantEvent: event.TypeCallConnected},
		{carrierStatus: "ringing", wantStatus: call.StatusRinging, wantEvent: ""},
	}

	for _, tt := range tests {
		t.Run(tt.carrierStatus, func(t *testing.T) {
			body := fmt.Sprintf(`{
				"id": "dlv_%s",
				"type": "call.status",
				"organizationId": %q,
				"occurredAt": %q,
				"call": {"id": %q, "from": "+15550001", "to": "+15550002", "status": %q}
			}`, tt.carrierStatus, orgID, occurredAt.Format(time.RFC3339), callID, tt.carrierStatus)

			inbound, err := tr.Translate([]byte(body))
			require.NoError(t, err)

			assert.Equal(t, "dlv_"+tt.carrierStatus, inbound.ExternalID)
			assert.Equal(t, "call.status", inbound.EventType)
			require.NotNil(t, inbound.Resource, "call status is ordering-guarded")
			assert.Equal(t, callID.String(), inbound.Resource.ID)
			assert.Equal(t, occurredAt, inbound.OccurredAt.UTC())

			before := len(calls.upserted)
			events, err := inbound.Apply(context.Background())
			require.NoError(t, err)

			require.Len(t, calls.upserted, before+1)
			assert.Equal(t, tt.wantStatus, calls.upserted[before].Status)

			if tt.wantEvent == "" {
				assert.Empty(t, events)
			} else {
				require.Len(t, events, 1)
				assert.Equal(t, tt.wantEvent, events[0].Type)
				assert.Equal(t, callID, events[0].AggregateID)
			}
		})
	}
}

func TestTelephonyTranslateInboundMessage(t *testing.T) {
	conv := &conversation.Conversation{ID: uuid.New(), Status: conversation.StatusOpen}
	conversations := &fakeConversations{conv: conv, created: true}
	tr, _ := telephonyFixture(conversations)

	orgID := uuid.New()
	subjectID := uuid.New()
	occurredAt := time.Date(2026, 3, 10, 11, 58, 0, 0, time.UTC)

	body := fmt.Sprintf(`{
		"id": "dlv_msg_1",
		"type": "message.inbound",
		"organizationId": %q,
		"occurredAt": %q,
		"message": {"id": "msg_1", "subjectId": %q, "channel": "sms", "from": "+15550001", "body": "hi"}
	}`, orgID, occurredAt.Format(time.RFC3339), subjectID)

	inbound, err := tr.Translate([]byte(body))
	require.NoError(t, err)

	// Inbound messages are facts, never ordering-guarded.
	assert.Nil(t, inbound.Resource)

	events, err := inbound.Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, conversations.findOrCreateCalls)
	assert.Equal(t, occurredAt, conversations.lastInboundAt.UTC())

	require.Len(t, events, 1)
	assert.Equal(t, event.TypeConversationMessageReceived, events[0].Type)
	assert.Equal(t, conv.ID, events[0].AggregateID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Equal(t, conv.ID.String(), data["conversationId"])
	assert.Contains(t, data, "receivedAt")
}

func TestTelephonyTranslateRejectsBadPayloads(t *testing.T) {
	tr, _ := telephonyFixture(nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{{`},
		{name: "missing delivery id", body: `{"type": "call.status", "call": {"status": "missed"}}`},
		{name: "unknown type", body: `{"id": "dlv_1", "type": "fax.received"}`},
		{name: "call.status without call", body: `{"id": "dlv_1", "type": "call.status"}`},
		{name: "message without message", body: `{"id": "dlv_1", "type": "message.inbound"}`},
		{name: "bad channel", body: `{"id": "dlv_1", "type": "message.inbound", "message": {"channel": "carrier-pigeon"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Translate([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestBillingTranslateSubscriptionUpdated(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tr := commands.NewBillingTranslator(testSecret, clk)

	subID := uuid.New()
	orgID := uuid.New()
	body := fmt.Sprintf(`{
		"id": "evt_sub_1",
		"type": "subscription.updated",
		"organizationId": %q,
		"occurredAt": "2026-03-10T11:50:00Z",
		"subscription": {"id": %q, "status": "active", "plan": "pro"}
	}`, orgID, subID)

	inbound, err := tr.Translate([]byte(body))
	require.NoError(t, err)

	require.NotNil(t, inbound.Resource, "subscription state is ordering-guarded")
	assert.Equal(t, subID.String(), inbound.Resource.ID)

	events, err := inbound.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeSubscriptionUpdated, events[0].Type)
	assert.Equal(t, orgID, events[0].OrganizationID)
}

func TestBillingTranslatePaymentSucceeded(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tr := commands.NewBillingTranslator(testSecret, clk)

	payID := uuid.New()
	body := fmt.Sprintf(`{
		"id": "evt_pay_1",
		"type": "payment.succeeded",
		"organizationId": %q,
		"occurredAt": "2026-03-10T11:50:00Z",
		"payment": {"id": %q, "amountCents": 12900, "invoiceId": "in_42"}
	}`, uuid.New(), payID)

	inbound, err := tr.Translate([]byte(body))
	require.NoError(t, err)

	assert.Nil(t, inbound.Resource, "payments are facts, always applied")

	events, err := inbound.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.TypePaymentSucceeded, events[0].Type)
}

func TestBillingTranslateRejectsUnknownType(t *testing.T) {
	tr := commands.NewBillingTranslator(testSecret, clock.NewRealClock())

	_, err := tr.Translate([]byte(`{"id": "evt_1", "type": "refund.created"}`))
	assert.Error(t, err)
}
