package repository

import (
	"context"
	"errors"
	"time"

	"opshub/internal/domain/job"
	"opshub/internal/infra"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type JobRepository struct {
	db DBTX
}

func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, type, organization_id, aggregate_id, payload, status, attempts, max_attempts, available_at, last_error, created_at, updated_at`

const insertJobSQL = `
INSERT INTO jobs (id, type, organization_id, aggregate_id, payload, status, attempts, max_attempts, available_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
`

func (r *JobRepository) Insert(ctx context.Context, j *job.Job) error {
	_, err := r.db.Exec(ctx, insertJobSQL,
		j.ID, j.Type, j.OrganizationID, j.AggregateID, j.Payload,
		j.Status, j.Attempts, j.MaxAttempts, j.AvailableAt, j.CreatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert job", err)
	}
	return nil
}

// LeaseNext claims one eligible job. The transition to running is a single
// conditional statement: the locked subselect guarantees at most one worker
// sees any given row, and the expected-status guard in the outer WHERE keeps
// a stale id from being leased twice. Returns nil when the queue is idle.
const leaseNextJobSQL = `
UPDATE jobs SET status = 'running', attempts = attempts + 1, updated_at = $2
WHERE id = (
    SELECT id FROM jobs
    WHERE status IN ('pending', 'failed_retryable') AND available_at <= $1
    ORDER BY available_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
AND status IN ('pending', 'failed_retryable')
RETURNING ` + jobColumns

func (r *JobRepository) LeaseNext(ctx context.Context, now time.Time) (*job.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, leaseNextJobSQL, now, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to lease job", err)
	}
	return j, nil
}

const markJobSucceededSQL = `
UPDATE jobs SET status = 'succeeded', last_error = NULL, updated_at = $2
WHERE id = $1 AND status = 'running'
`

func (r *JobRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx, markJobSucceededSQL, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark job succeeded", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "job is not running", nil)
	}
	return nil
}

const markJobRetryableSQL = `
UPDATE jobs SET status = 'failed_retryable', last_error = $2, available_at = $3, updated_at = $4
WHERE id = $1 AND status = 'running'
`

// MarkFailedRetryable re-arms the job after a backoff delay.
func (r *JobRepository) MarkFailedRetryable(ctx context.Context, id uuid.UUID, errMsg string, availableAt, now time.Time) error {
	tag, err := r.db.Exec(ctx, markJobRetryableSQL, id, errMsg, availableAt, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark job retryable", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "job is not running", nil)
	}
	return nil
}

const markJobTerminalSQL = `
UPDATE jobs SET status = 'failed_terminal', last_error = $2, updated_at = $3
WHERE id = $1 AND status = 'running'
`

// MarkFailedTerminal parks the job for operator review; it is never
// re-dispatched automatically.
func (r *JobRepository) MarkFailedTerminal(ctx context.Context, id uuid.UUID, errMsg string, now time.Time) error {
	tag, err := r.db.Exec(ctx, markJobTerminalSQL, id, errMsg, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark job terminal", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "job is not running", nil)
	}
	return nil
}

const cancelPendingJobsSQL = `
UPDATE jobs SET status = 'cancelled', updated_at = $3
WHERE type = $1 AND aggregate_id = $2 AND status = 'pending'
`

// CancelPending cancels jobs not yet leased. A running attempt always
// completes; there is no preemption.
func (r *JobRepository) CancelPending(ctx context.Context, jobType string, aggregateID uuid.UUID, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, cancelPendingJobsSQL, jobType, aggregateID, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to cancel pending jobs", err)
	}
	return tag.RowsAffected(), nil
}

const retryTerminalJobSQL = `
UPDATE jobs SET status = 'pending', attempts = 0, last_error = NULL, available_at = $2, updated_at = $2
WHERE id = $1 AND status = 'failed_terminal'
`

// RetryTerminal is the operator escape hatch for failed_terminal jobs.
func (r *JobRepository) RetryTerminal(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx, retryTerminalJobSQL, id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to retry job", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "job is not failed_terminal", nil)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find job", err)
	}
	return j, nil
}

type JobFilter struct {
	Status         *job.Status
	Type           *string
	OrganizationID *uuid.UUID
	Limit          uint64
}

func (r *JobRepository) List(ctx context.Context, filter JobFilter) ([]*job.Job, error) {
	builder := psql.
		Select("id", "type", "organization_id", "aggregate_id", "payload", "status",
			"attempts", "max_attempts", "available_at", "last_error", "created_at", "updated_at").
		From("jobs").
		OrderBy("created_at DESC")

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Type != nil {
		builder = builder.Where(sq.Eq{"type": *filter.Type})
	}
	if filter.OrganizationID != nil {
		builder = builder.Where(sq.Eq{"organization_id": *filter.OrganizationID})
	}
	limit := filter.Limit
	if limit == 0 || limit > 200 {
		limit = 100
	}

	query, args, err := builder.Limit(limit).ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build job query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list jobs", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan job", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read jobs", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var j job.Job
	err := row.Scan(
		&j.ID, &j.Type, &j.OrganizationID, &j.AggregateID, &j.Payload,
		&j.Status, &j.Attempts, &j.MaxAttempts, &j.AvailableAt, &j.LastError,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
