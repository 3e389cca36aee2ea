package repository

import (
	"context"
	"time"

	"opshub/internal/domain/schedule"
	"opshub/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AssignmentRepository struct {
	db DBTX
}

func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, organization_id, appointment_id, technician_id, start_at, end_at, status, created_at`

const insertAssignmentSQL = `
INSERT INTO assignments (id, organization_id, appointment_id, technician_id, start_at, end_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (r *AssignmentRepository) Insert(ctx context.Context, a *schedule.Assignment) error {
	_, err := r.db.Exec(ctx, insertAssignmentSQL,
		a.ID, a.OrganizationID, a.AppointmentID, a.TechnicianID,
		a.StartAt, a.EndAt, a.Status, a.CreatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert assignment", err)
	}
	return nil
}

// HasOverlap is the SQL form of schedule.Overlaps against non-cancelled
// assignments for the technician. Keep the inequality pair in sync with the
// domain predicate.
const hasOverlapSQL = `
SELECT EXISTS (
    SELECT 1 FROM assignments
    WHERE technician_id = $1 AND status <> 'cancelled'
      AND start_at < $3 AND end_at > $2
)
`

func (r *AssignmentRepository) HasOverlap(ctx context.Context, technicianID uuid.UUID, startAt, endAt time.Time) (bool, error) {
	var overlaps bool
	if err := r.db.QueryRow(ctx, hasOverlapSQL, technicianID, startAt, endAt).Scan(&overlaps); err != nil {
		return false, infra.WrapRepoErr("failed to check assignment overlap", err)
	}
	return overlaps, nil
}

const cancelAssignmentSQL = `
UPDATE assignments SET status = 'cancelled'
WHERE id = $1 AND status = 'scheduled'
`

func (r *AssignmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, cancelAssignmentSQL, id)
	if err != nil {
		return infra.WrapRepoErr("failed to cancel assignment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "assignment is not scheduled", nil)
	}
	return nil
}

func (r *AssignmentRepository) ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*schedule.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE technician_id = $1 AND status <> 'cancelled' ORDER BY start_at`,
		technicianID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list assignments", err)
	}
	defer rows.Close()

	var assignments []*schedule.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan assignment", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read assignments", err)
	}
	return assignments, nil
}

func scanAssignment(row pgx.Row) (*schedule.Assignment, error) {
	var a schedule.Assignment
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.AppointmentID, &a.TechnicianID,
		&a.StartAt, &a.EndAt, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
