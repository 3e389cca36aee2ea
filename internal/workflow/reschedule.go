package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"opshub/internal/domain/event"
	"opshub/internal/events"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/commands"

	"github.com/google/uuid"
)

type rescheduleAction struct {
	TechnicianID uuid.UUID `json:"technicianId"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
}

// Rescheduler applies a redeemed reschedule token: it books the technician
// for the new interval and announces the move. A booking conflict propagates
// to the token layer, which releases the token for another try.
type Rescheduler struct {
	schedule commands.ScheduleCommands
	bus      *events.Bus
	clock    clock.Clock
	logger   *slog.Logger
}

func NewRescheduler(schedule commands.ScheduleCommands, bus *events.Bus, clk clock.Clock, logger *slog.Logger) *Rescheduler {
	return &Rescheduler{
		schedule: schedule,
		bus:      bus,
		clock:    clk,
		logger:   logger,
	}
}

func (r *Rescheduler) Reschedule(ctx context.Context, orgID, appointmentID uuid.UUID, action json.RawMessage) error {
	var a rescheduleAction
	if err := json.Unmarshal(action, &a); err != nil {
		return errs.Wrap(err, "malformed reschedule action")
	}

	assignment, err := r.schedule.AssignTechnician(ctx, commands.AssignTechnicianInput{
		OrganizationID: orgID,
		TechnicianID:   a.TechnicianID,
		AppointmentID:  appointmentID,
		StartAt:        a.StartAt,
		EndAt:          a.EndAt,
	})
	if err != nil {
		return err
	}

	data, _ := json.Marshal(map[string]any{
		"appointmentId": appointmentID,
		"assignmentId":  assignment.ID,
		"technicianId":  a.TechnicianID,
		"startAt":       a.StartAt,
		"endAt":         a.EndAt,
	})
	if _, err := r.bus.Publish(ctx, event.New(event.TypeAppointmentRescheduled, orgID, event.AggregateAppointment, appointmentID, data, r.clock.Now())); err != nil {
		return err
	}

	r.logger.Info("appointment rescheduled",
		"appointment_id", appointmentID,
		"technician_id", a.TechnicianID,
		"start_at", a.StartAt)
	return nil
}
