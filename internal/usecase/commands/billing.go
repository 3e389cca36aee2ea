package commands

import (
	"context"
	"encoding/json"
	"time"

	"opshub/internal/domain/event"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"

	"github.com/google/uuid"
)

const ProviderBilling = "billing"

type billingPayload struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	OrganizationID uuid.UUID            `json:"organizationId"`
	OccurredAt     time.Time            `json:"occurredAt"`
	Subscription   *billingSubscription `json:"subscription,omitempty"`
	Payment        *billingPayment      `json:"payment,omitempty"`
}

type billingSubscription struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Plan   string    `json:"plan"`
}

type billingPayment struct {
	ID          uuid.UUID `json:"id"`
	AmountCents int64     `json:"amountCents"`
	InvoiceID   string    `json:"invoiceId"`
}

// BillingTranslator handles the payments provider. Subscription updates carry
// the subscription's current state, so they go through the ordering guard;
// payment notifications are facts and always fan out.
type BillingTranslator struct {
	secret string
	clock  clock.Clock
}

func NewBillingTranslator(secret string, clk clock.Clock) *BillingTranslator {
	return &BillingTranslator{secret: secret, clock: clk}
}

func (b *BillingTranslator) Provider() string { return ProviderBilling }
func (b *BillingTranslator) Secret() string   { return b.secret }

func (b *BillingTranslator) Translate(payload []byte) (*Inbound, error) {
	var p billingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errs.Wrap(err, "malformed billing payload")
	}
	if p.ID == "" {
		return nil, errs.New("billing payload missing delivery id")
	}

	switch p.Type {
	case "subscription.updated":
		if p.Subscription == nil {
			return nil, errs.New("subscription.updated payload missing subscription")
		}
		sub := p.Subscription
		return &Inbound{
			ExternalID:     p.ID,
			EventType:      p.Type,
			OrganizationID: p.OrganizationID,
			Resource:       &ResourceRef{ID: sub.ID.String()},
			OccurredAt:     p.OccurredAt,
			Apply: func(ctx context.Context) ([]event.Event, error) {
				data, _ := json.Marshal(map[string]any{
					"subscriptionId": sub.ID,
					"status":         sub.Status,
					"plan":           sub.Plan,
				})
				return []event.Event{
					event.New(event.TypeSubscriptionUpdated, p.OrganizationID, event.AggregateSubscription, sub.ID, data, b.clock.Now()),
				}, nil
			},
		}, nil

	case "payment.succeeded":
		if p.Payment == nil {
			return nil, errs.New("payment.succeeded payload missing payment")
		}
		pay := p.Payment
		return &Inbound{
			ExternalID:     p.ID,
			EventType:      p.Type,
			OrganizationID: p.OrganizationID,
			OccurredAt:     p.OccurredAt,
			Apply: func(ctx context.Context) ([]event.Event, error) {
				data, _ := json.Marshal(map[string]any{
					"paymentId":   pay.ID,
					"amountCents": pay.AmountCents,
					"invoiceId":   pay.InvoiceID,
				})
				return []event.Event{
					event.New(event.TypePaymentSucceeded, p.OrganizationID, event.AggregateSubscription, pay.ID, data, b.clock.Now()),
				}, nil
			},
		}, nil

	default:
		return nil, errs.New("unsupported billing event type " + p.Type)
	}
}
