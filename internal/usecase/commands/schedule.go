package commands

import (
	"context"
	"time"

	"opshub/internal/domain/schedule"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

type AssignTechnicianInput struct {
	OrganizationID uuid.UUID
	TechnicianID   uuid.UUID
	AppointmentID  uuid.UUID
	StartAt        time.Time
	EndAt          time.Time
}

type ScheduleCommands interface {
	// AssignTechnician books the interval iff it overlaps no existing
	// non-cancelled assignment for the technician.
	AssignTechnician(ctx context.Context, in AssignTechnicianInput) (*schedule.Assignment, error)
	CancelAssignment(ctx context.Context, id uuid.UUID) error
	ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*schedule.Assignment, error)
}

type scheduleUseCaseImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewScheduleUseCase(uow shared.UnitOfWork, clk clock.Clock) ScheduleCommands {
	return &scheduleUseCaseImpl{uow: uow, clock: clk}
}

// AssignTechnician runs check-then-insert under a serializable transaction;
// two racing bookings for touching intervals cannot both commit. Intervals
// are half-open, so back-to-back appointments sharing a boundary are fine.
func (u *scheduleUseCaseImpl) AssignTechnician(ctx context.Context, in AssignTechnicianInput) (*schedule.Assignment, error) {
	if !in.StartAt.Before(in.EndAt) {
		return nil, errs.ErrInvalidInterval
	}

	var result *schedule.Assignment
	err := u.uow.WithinSerializable(ctx, func(ctx context.Context, tx shared.Tx) error {
		overlaps, err := tx.Assignments().HasOverlap(ctx, in.TechnicianID, in.StartAt, in.EndAt)
		if err != nil {
			return err
		}
		if overlaps {
			return errs.ErrAssignmentConflict
		}

		a, err := schedule.NewAssignment(in.OrganizationID, in.AppointmentID, in.TechnicianID, in.StartAt, in.EndAt, u.clock.Now())
		if err != nil {
			return errs.Mark(err, errs.ErrInvalidInterval)
		}
		if err := tx.Assignments().Insert(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (u *scheduleUseCaseImpl) CancelAssignment(ctx context.Context, id uuid.UUID) error {
	return u.uow.Repos().Assignments().Cancel(ctx, id)
}

func (u *scheduleUseCaseImpl) ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*schedule.Assignment, error) {
	return u.uow.Repos().Assignments().ListByTechnician(ctx, technicianID)
}
