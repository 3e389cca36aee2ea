package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInterval = errors.New("interval start must be before end")

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// Assignment books a technician for the half-open interval [StartAt, EndAt).
type Assignment struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	AppointmentID  uuid.UUID
	TechnicianID   uuid.UUID
	StartAt        time.Time
	EndAt          time.Time
	Status         Status
	CreatedAt      time.Time
}

func NewAssignment(orgID, appointmentID, technicianID uuid.UUID, startAt, endAt time.Time, now time.Time) (*Assignment, error) {
	if !startAt.Before(endAt) {
		return nil, ErrInvalidInterval
	}
	return &Assignment{
		ID:             uuid.New(),
		OrganizationID: orgID,
		AppointmentID:  appointmentID,
		TechnicianID:   technicianID,
		StartAt:        startAt,
		EndAt:          endAt,
		Status:         StatusScheduled,
		CreatedAt:      now,
	}, nil
}

// Overlaps is the canonical half-open interval test. Every scheduling
// conflict check, including re-validation inside delayed jobs and the SQL
// predicate in the store, must agree with this inequality pair.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (a *Assignment) OverlapsWith(other *Assignment) bool {
	return Overlaps(a.StartAt, a.EndAt, other.StartAt, other.EndAt)
}
