package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"opshub/internal/domain/job"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/usecase/shared"
)

// Dispatcher runs the worker pool. Each worker leases one eligible job at a
// time; the lease is a conditional pending→running update in the store, so
// dispatchers in separate processes coordinate without in-process locks.
type Dispatcher struct {
	repo     shared.JobRepository
	registry *Registry
	backoff  *Backoff
	clock    clock.Clock
	cfg      config.QueueConfig
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(repo shared.JobRepository, registry *Registry, clk clock.Clock, cfg config.QueueConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		registry: registry,
		backoff:  NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.logger.Info("job dispatcher starting",
		"workers", d.cfg.Workers,
		"poll_interval", d.cfg.PollInterval,
		"max_attempts", d.cfg.MaxAttempts)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(ctx, i)
	}
}

// Stop lets in-flight attempts finish; there is no preemption.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("job dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) workerLoop(ctx context.Context, id int) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Drain eligible jobs before going back to sleep.
		for {
			if ctx.Err() != nil {
				return
			}
			leased, err := d.runOne(ctx)
			if err != nil {
				d.logger.Error("job lease failed", "worker", id, "error", err.Error())
				break
			}
			if !leased {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOne leases and executes a single job. Returns false when no job was
// eligible.
func (d *Dispatcher) runOne(ctx context.Context) (bool, error) {
	j, err := d.repo.LeaseNext(ctx, d.clock.Now())
	if err != nil {
		return false, err
	}
	if j == nil {
		return false, nil
	}

	busyWorkers.Inc()
	defer busyWorkers.Dec()

	d.execute(ctx, j)
	return true, nil
}

func (d *Dispatcher) execute(ctx context.Context, j *job.Job) {
	handler, ok := d.registry.Resolve(j.Type)
	if !ok {
		// Registration is validated at enqueue time; reaching this means the
		// process was started with a different handler set.
		d.failAttempt(ctx, j, fmt.Errorf("no handler registered for type %q", j.Type))
		return
	}

	handlerErr := d.invoke(ctx, handler, j)
	if handlerErr != nil {
		d.failAttempt(ctx, j, handlerErr)
		return
	}

	if err := d.repo.MarkSucceeded(ctx, j.ID, d.clock.Now()); err != nil {
		d.logger.Error("failed to mark job succeeded", "job_id", j.ID, "type", j.Type, "error", err.Error())
		return
	}
	jobsSucceeded.WithLabelValues(j.Type).Inc()
}

// invoke runs the handler under the per-attempt timeout and converts panics
// into errors so the retry bookkeeping still applies.
func (d *Dispatcher) invoke(ctx context.Context, handler Handler, j *job.Job) (err error) {
	hctx, cancel := context.WithTimeout(ctx, d.cfg.HandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler(hctx, j)
}

func (d *Dispatcher) failAttempt(ctx context.Context, j *job.Job, handlerErr error) {
	now := d.clock.Now()

	if j.Attempts >= j.MaxAttempts {
		if err := d.repo.MarkFailedTerminal(ctx, j.ID, handlerErr.Error(), now); err != nil {
			d.logger.Error("failed to mark job terminal", "job_id", j.ID, "type", j.Type, "error", err.Error())
			return
		}
		jobsTerminal.WithLabelValues(j.Type).Inc()
		d.logger.Error("job failed terminally",
			"job_id", j.ID,
			"type", j.Type,
			"attempts", j.Attempts,
			"error", handlerErr.Error())
		return
	}

	availableAt := now.Add(d.backoff.NextDelay(j.Attempts))
	if err := d.repo.MarkFailedRetryable(ctx, j.ID, handlerErr.Error(), availableAt, now); err != nil {
		d.logger.Error("failed to mark job retryable", "job_id", j.ID, "type", j.Type, "error", err.Error())
		return
	}
	jobsRetried.WithLabelValues(j.Type).Inc()
	d.logger.Warn("job attempt failed, retry scheduled",
		"job_id", j.ID,
		"type", j.Type,
		"attempts", j.Attempts,
		"next_attempt_at", availableAt,
		"error", handlerErr.Error())
}
