package components

import (
	"opshub/internal/events"
	"opshub/internal/infra/repository"
	"opshub/internal/infra/uow"
	"opshub/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			repository.NewEventRepository,
			fx.As(new(events.Store)),
		),
		// The queue side talks to jobs outside the unit of work: leases and
		// status flips are single conditional statements.
		fx.Annotate(
			repository.NewJobRepository,
			fx.As(new(shared.JobRepository)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) repository.DBTX {
	return pool
}
