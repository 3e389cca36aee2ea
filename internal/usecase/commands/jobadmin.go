package commands

import (
	"context"

	"opshub/internal/domain/job"
	"opshub/internal/infra"
	"opshub/internal/infra/repository"
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/shared"

	"github.com/google/uuid"
)

// JobAdminCommands backs the operator surface: inspecting the queue and
// re-arming jobs that exhausted their attempts.
type JobAdminCommands interface {
	List(ctx context.Context, filter repository.JobFilter) ([]*job.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*job.Job, error)
	// Retry resets a failed_terminal job to pending with a fresh attempt
	// budget.
	Retry(ctx context.Context, id uuid.UUID) (*job.Job, error)
}

type jobAdminUseCaseImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewJobAdminUseCase(uow shared.UnitOfWork, clk clock.Clock) JobAdminCommands {
	return &jobAdminUseCaseImpl{uow: uow, clock: clk}
}

func (u *jobAdminUseCaseImpl) List(ctx context.Context, filter repository.JobFilter) ([]*job.Job, error) {
	return u.uow.Repos().Jobs().List(ctx, filter)
}

func (u *jobAdminUseCaseImpl) Get(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	j, err := u.uow.Repos().Jobs().FindByID(ctx, id)
	if infra.IsKind(err, infra.KindNotFound) {
		return nil, errs.Mark(err, errs.ErrJobNotFound)
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (u *jobAdminUseCaseImpl) Retry(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	repos := u.uow.Repos()

	err := repos.Jobs().RetryTerminal(ctx, id, u.clock.Now())
	if infra.IsKind(err, infra.KindConflict) {
		// Distinguish "wrong state" from "no such job" for the operator.
		if _, findErr := repos.Jobs().FindByID(ctx, id); infra.IsKind(findErr, infra.KindNotFound) {
			return nil, errs.Mark(findErr, errs.ErrJobNotFound)
		}
		return nil, errs.Mark(err, errs.ErrJobNotPending)
	}
	if err != nil {
		return nil, err
	}
	return repos.Jobs().FindByID(ctx, id)
}
