package jobs

import (
	"context"

	"opshub/internal/domain/job"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrUnknownJobType = errs.New("no handler registered for job type")

// Queue is the enqueue-side API. Workflow authors call Enqueue and
// CancelPending; they never invoke a job handler directly.
type Queue struct {
	repo     shared.JobRepository
	registry *Registry
	clock    clock.Clock
	cfg      config.QueueConfig
}

func NewQueue(repo shared.JobRepository, registry *Registry, clk clock.Clock, cfg config.QueueConfig) *Queue {
	return &Queue{
		repo:     repo,
		registry: registry,
		clock:    clk,
		cfg:      cfg,
	}
}

// Enqueue persists the job as pending with availableAt = now + delay. An
// unregistered type is rejected here so a typo fails at the call site, not
// silently at dispatch time.
func (q *Queue) Enqueue(ctx context.Context, req job.NewJob) (uuid.UUID, error) {
	if !q.registry.Known(req.Type) {
		return uuid.Nil, errs.Mark(errs.New("job type "+req.Type), ErrUnknownJobType)
	}
	if req.Delay < 0 {
		req.Delay = 0
	}

	now := q.clock.Now()
	j := &job.Job{
		ID:             uuid.New(),
		Type:           req.Type,
		OrganizationID: req.OrganizationID,
		AggregateID:    req.AggregateID,
		Payload:        req.Payload,
		Status:         job.StatusPending,
		Attempts:       0,
		MaxAttempts:    q.cfg.MaxAttempts,
		AvailableAt:    now.Add(req.Delay),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := q.repo.Insert(ctx, j); err != nil {
		return uuid.Nil, errs.Wrap(err, "failed to enqueue job")
	}
	jobsEnqueued.WithLabelValues(j.Type).Inc()
	return j.ID, nil
}

// CancelPending cancels not-yet-leased jobs of one type for one aggregate,
// e.g. "cancel all pending review requests for appointment X". Jobs already
// running finish their attempt.
func (q *Queue) CancelPending(ctx context.Context, jobType string, aggregateID uuid.UUID) (int64, error) {
	n, err := q.repo.CancelPending(ctx, jobType, aggregateID, q.clock.Now())
	if err != nil {
		return 0, errs.Wrap(err, "failed to cancel pending jobs")
	}
	if n > 0 {
		jobsCancelled.WithLabelValues(jobType).Add(float64(n))
	}
	return n, nil
}
