package workflow

import (
	"context"
	"encoding/json"
	"log/slog"

	"opshub/internal/domain/event"
	"opshub/internal/domain/job"
	"opshub/internal/events"
	"opshub/internal/jobs"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

const missedCallSubscriber = "missed_call_text_back"

type missedCallPayload struct {
	CallID         uuid.UUID `json:"callId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	From           string    `json:"from"`
}

// MissedCallWorkflow texts a customer back after a missed call, unless the
// call reconnects or quiet hours intervene. The enqueue-time snapshot decides
// nothing; every decision is re-made from current state when the job runs.
type MissedCallWorkflow struct {
	queue  *jobs.Queue
	uow    shared.UnitOfWork
	sender MessageSender
	bus    *events.Bus
	quiet  *QuietHours
	clock  clock.Clock
	cfg    config.MissedCallConfig
	logger *slog.Logger
}

func NewMissedCallWorkflow(
	queue *jobs.Queue,
	uow shared.UnitOfWork,
	sender MessageSender,
	bus *events.Bus,
	quiet *QuietHours,
	clk clock.Clock,
	cfg config.MissedCallConfig,
	logger *slog.Logger,
) *MissedCallWorkflow {
	return &MissedCallWorkflow{
		queue:  queue,
		uow:    uow,
		sender: sender,
		bus:    bus,
		quiet:  quiet,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// Register wires the workflow into the bus and the job registry. The handler
// must be registered before the first enqueue; Queue rejects unknown types.
func (w *MissedCallWorkflow) Register(bus *events.Bus, registry *jobs.Registry) error {
	if err := registry.Register(job.TypeMissedCallTextBack, w.HandleJob); err != nil {
		return err
	}
	bus.Subscribe(event.TypeCallMissed, missedCallSubscriber, w.onCallMissed)
	return nil
}

// onCallMissed schedules the text-back. The delay gives the caller a chance
// to ring again and connect before we text.
func (w *MissedCallWorkflow) onCallMissed(ctx context.Context, ev event.Event) error {
	if !w.cfg.Enabled {
		return nil
	}

	var data struct {
		CallID uuid.UUID `json:"callId"`
		From   string    `json:"from"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return errs.Wrap(err, "malformed call.missed event data")
	}

	payload, err := json.Marshal(missedCallPayload{
		CallID:         data.CallID,
		OrganizationID: ev.OrganizationID,
		From:           data.From,
	})
	if err != nil {
		return errs.Wrap(err, "failed to encode text-back payload")
	}

	callID := data.CallID
	_, err = w.queue.Enqueue(ctx, job.NewJob{
		Type:           job.TypeMissedCallTextBack,
		OrganizationID: ev.OrganizationID,
		AggregateID:    &callID,
		Payload:        payload,
		Delay:          w.cfg.Delay,
	})
	return err
}

// HandleJob runs at dispatch time, possibly much later than the miss.
func (w *MissedCallWorkflow) HandleJob(ctx context.Context, j *job.Job) error {
	var p missedCallPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return errs.Wrap(err, "malformed text-back job payload")
	}

	c, err := w.uow.Repos().Calls().FindByID(ctx, p.CallID)
	if err != nil {
		return err
	}

	if c.Connected() {
		w.logger.Info("skipping text-back, call connected", "call_id", c.ID)
		return nil
	}
	if c.TextBackSent() {
		w.logger.Info("skipping text-back, already sent", "call_id", c.ID)
		return nil
	}

	// Inside quiet hours the job is re-queued for the window end instead of
	// burning retry attempts.
	now := w.clock.Now()
	if w.quiet.Contains(now) {
		resumeAt := w.quiet.NextEnd(now)
		callID := c.ID
		_, err := w.queue.Enqueue(ctx, job.NewJob{
			Type:           job.TypeMissedCallTextBack,
			OrganizationID: p.OrganizationID,
			AggregateID:    &callID,
			Payload:        j.Payload,
			Delay:          resumeAt.Sub(now),
		})
		if err != nil {
			return err
		}
		w.logger.Info("text-back deferred past quiet hours",
			"call_id", c.ID, "resume_at", resumeAt)
		return nil
	}

	body := "Sorry we missed your call! Reply here and we'll get right back to you."
	if err := w.sender.SendSMS(ctx, p.OrganizationID, c.FromNumber, body); err != nil {
		return errs.Wrap(err, "failed to send text-back")
	}

	// The conditional mark is the authority on "sent". Send precedes it, so a
	// crash between the two causes a resend rather than a silent drop; a false
	// return means a concurrent worker won the same window.
	marked, err := w.uow.Repos().Calls().MarkTextBackSent(ctx, c.ID, w.clock.Now())
	if err != nil {
		return err
	}
	if !marked {
		w.logger.Warn("text-back raced a concurrent send", "call_id", c.ID)
		return nil
	}

	data, _ := json.Marshal(map[string]any{
		"callId":  c.ID,
		"to":      c.FromNumber,
		"purpose": "missed_call_text_back",
	})
	_, err = w.bus.Publish(ctx, event.New(event.TypeMessageSent, p.OrganizationID, event.AggregateCall, c.ID, data, w.clock.Now()))
	return err
}
