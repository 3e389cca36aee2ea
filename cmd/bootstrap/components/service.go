package components

import (
	"context"

	"opshub/internal/events"
	"opshub/internal/infra/sender"
	"opshub/internal/jobs"
	"opshub/internal/pkg/clock"
	"opshub/internal/usecase/commands"
	"opshub/internal/workflow"

	"go.uber.org/fx"
)

// ServiceModule wires the in-process backbone: the event bus, the job queue
// and its dispatcher, and the outbound delivery adapters.
var ServiceModule = fx.Module("service",
	fx.Provide(
		clock.NewRealClock,
		events.NewBus,
		jobs.NewRegistry,
		jobs.NewQueue,
		jobs.NewDispatcher,
		fx.Annotate(
			func(b *events.Bus) *events.Bus { return b },
			fx.As(new(commands.EventPublisher)),
		),
		fx.Annotate(
			sender.NewLogSender,
			fx.As(new(workflow.MessageSender)),
		),
		fx.Annotate(
			sender.NewTemplateComposer,
			fx.As(new(workflow.ReplyComposer)),
		),
	),
	fx.Invoke(runDispatcher),
)

// runDispatcher ties the worker pool to the application lifecycle. Workflow
// registration happens in fx.Invoke order before OnStart fires, so no job can
// be leased before its handler exists.
func runDispatcher(lc fx.Lifecycle, d *jobs.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return d.Stop(ctx)
		},
	})
}
