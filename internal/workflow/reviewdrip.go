package workflow

import (
	"context"
	"encoding/json"
	"fmt"
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

const (
	reviewDripSubscriber       = "review_drip"
	reviewSubmittedSubscriber  = "review_drip_submitted"
	reviewRescheduleSubscriber = "review_drip_rescheduled"
)

type reviewRequestPayload struct {
	AppointmentID  uuid.UUID `json:"appointmentId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CustomerPhone  string    `json:"customerPhone"`
}

// ReviewDripWorkflow asks for a review some time after a completed
// appointment. A submitted review or a reschedule in the meantime cancels the
// ask; the delayed handler additionally re-checks everything because a cancel
// can race the lease.
type ReviewDripWorkflow struct {
	queue  *jobs.Queue
	uow    shared.UnitOfWork
	sender MessageSender
	bus    *events.Bus
	clock  clock.Clock
	cfg    config.ReviewRequestConfig
	token  config.TokenConfig
	logger *slog.Logger
}

func NewReviewDripWorkflow(
	queue *jobs.Queue,
	uow shared.UnitOfWork,
	sender MessageSender,
	bus *events.Bus,
	clk clock.Clock,
	cfg config.ReviewRequestConfig,
	tokenCfg config.TokenConfig,
	logger *slog.Logger,
) *ReviewDripWorkflow {
	return &ReviewDripWorkflow{
		queue:  queue,
		uow:    uow,
		sender: sender,
		bus:    bus,
		clock:  clk,
		cfg:    cfg,
		token:  tokenCfg,
		logger: logger,
	}
}

func (w *ReviewDripWorkflow) Register(bus *events.Bus, registry *jobs.Registry) error {
	if err := registry.Register(job.TypeReviewRequest, w.HandleJob); err != nil {
		return err
	}
	bus.Subscribe(event.TypeAppointmentCompleted, reviewDripSubscriber, w.onAppointmentCompleted)
	bus.Subscribe(event.TypeReviewSubmitted, reviewSubmittedSubscriber, w.onReviewSubmitted)
	bus.Subscribe(event.TypeAppointmentRescheduled, reviewRescheduleSubscriber, w.onAppointmentRescheduled)
	return nil
}

func (w *ReviewDripWorkflow) onAppointmentCompleted(ctx context.Context, ev event.Event) error {
	if !w.cfg.Enabled {
		return nil
	}

	var data struct {
		AppointmentID uuid.UUID `json:"appointmentId"`
		CustomerPhone string    `json:"customerPhone"`
	}
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return errs.Wrap(err, "malformed appointment.completed event data")
	}

	payload, err := json.Marshal(reviewRequestPayload{
		AppointmentID:  data.AppointmentID,
		OrganizationID: ev.OrganizationID,
		CustomerPhone:  data.CustomerPhone,
	})
	if err != nil {
		return errs.Wrap(err, "failed to encode review request payload")
	}

	appointmentID := data.AppointmentID
	_, err = w.queue.Enqueue(ctx, job.NewJob{
		Type:           job.TypeReviewRequest,
		OrganizationID: ev.OrganizationID,
		AggregateID:    &appointmentID,
		Payload:        payload,
		Delay:          w.cfg.Delay,
	})
	return err
}

// onReviewSubmitted cancels the pending ask and records the review so the
// late re-check catches the case where the job was already leased.
func (w *ReviewDripWorkflow) onReviewSubmitted(ctx context.Context, ev event.Event) error {
	if _, err := w.queue.CancelPending(ctx, job.TypeReviewRequest, ev.AggregateID); err != nil {
		return err
	}
	return w.uow.Repos().Appointments().MarkReviewed(ctx, ev.AggregateID, w.clock.Now())
}

func (w *ReviewDripWorkflow) onAppointmentRescheduled(ctx context.Context, ev event.Event) error {
	// The appointment is no longer complete; a fresh completed event will
	// re-arm the drip.
	_, err := w.queue.CancelPending(ctx, job.TypeReviewRequest, ev.AggregateID)
	return err
}

func (w *ReviewDripWorkflow) HandleJob(ctx context.Context, j *job.Job) error {
	var p reviewRequestPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return errs.Wrap(err, "malformed review request payload")
	}

	state, err := w.uow.Repos().Appointments().ReviewState(ctx, p.AppointmentID)
	if err != nil {
		return err
	}

	switch {
	case state.CompletedAt == nil:
		w.logger.Info("skipping review request, appointment no longer complete", "appointment_id", p.AppointmentID)
		return nil
	case state.ReviewedAt != nil:
		w.logger.Info("skipping review request, review already submitted", "appointment_id", p.AppointmentID)
		return nil
	case state.CustomerOptedOut:
		w.logger.Info("skipping review request, customer opted out", "appointment_id", p.AppointmentID)
		return nil
	}

	// One ask per appointment, ever. The flip is conditional in the store so
	// a redelivered or duplicated job cannot double-send.
	marked, err := w.uow.Repos().Appointments().MarkReviewRequestSent(ctx, p.AppointmentID, w.clock.Now())
	if err != nil {
		return err
	}
	if !marked {
		w.logger.Info("skipping review request, already sent", "appointment_id", p.AppointmentID)
		return nil
	}

	body := fmt.Sprintf("Thanks for choosing us! Mind leaving a quick review? %s/reviews/%s", w.token.BaseURL, p.AppointmentID)
	if err := w.sender.SendSMS(ctx, p.OrganizationID, p.CustomerPhone, body); err != nil {
		return errs.Wrap(err, "failed to send review request")
	}

	data, _ := json.Marshal(map[string]any{
		"appointmentId": p.AppointmentID,
		"to":            p.CustomerPhone,
		"purpose":       "review_request",
	})
	_, err = w.bus.Publish(ctx, event.New(event.TypeMessageSent, p.OrganizationID, event.AggregateAppointment, p.AppointmentID, data, w.clock.Now()))
	return err
}
