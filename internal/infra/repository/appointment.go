package repository

import (
	"context"
	"time"

	"opshub/internal/infra"

	"github.com/google/uuid"
)

// ReviewState is the snapshot the review-request job re-reads at dispatch
// time to decide whether a request may still go out.
type ReviewState struct {
	AppointmentID       uuid.UUID
	OrganizationID      uuid.UUID
	CustomerID          uuid.UUID
	CompletedAt         *time.Time
	ReviewedAt          *time.Time
	ReviewRequestSentAt *time.Time
	CustomerOptedOut    bool
}

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const reviewStateSQL = `
SELECT id, organization_id, customer_id, completed_at, reviewed_at, review_request_sent_at, customer_opted_out
FROM appointments WHERE id = $1
`

func (r *AppointmentRepository) ReviewState(ctx context.Context, appointmentID uuid.UUID) (*ReviewState, error) {
	var s ReviewState
	err := r.db.QueryRow(ctx, reviewStateSQL, appointmentID).Scan(
		&s.AppointmentID, &s.OrganizationID, &s.CustomerID,
		&s.CompletedAt, &s.ReviewedAt, &s.ReviewRequestSentAt, &s.CustomerOptedOut,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read review state", err)
	}
	return &s, nil
}

const markReviewRequestSentSQL = `
UPDATE appointments SET review_request_sent_at = $2, updated_at = $2
WHERE id = $1 AND review_request_sent_at IS NULL
`

// MarkReviewRequestSent claims the one allowed request for an appointment.
func (r *AppointmentRepository) MarkReviewRequestSent(ctx context.Context, appointmentID uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, markReviewRequestSentSQL, appointmentID, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark review request sent", err)
	}
	return tag.RowsAffected() == 1, nil
}

const markReviewedSQL = `
UPDATE appointments SET reviewed_at = COALESCE(reviewed_at, $2), updated_at = $2
WHERE id = $1
`

func (r *AppointmentRepository) MarkReviewed(ctx context.Context, appointmentID uuid.UUID, now time.Time) error {
	if _, err := r.db.Exec(ctx, markReviewedSQL, appointmentID, now); err != nil {
		return infra.WrapRepoErr("failed to mark appointment reviewed", err)
	}
	return nil
}
