package components

import (
	"opshub/internal/events"
	"opshub/internal/jobs"
	"opshub/internal/workflow"

	"go.uber.org/fx"
)

var WorkflowModule = fx.Module("workflow",
	fx.Provide(
		workflow.NewQuietHours,
		workflow.NewMissedCallWorkflow,
		workflow.NewReviewDripWorkflow,
		workflow.NewAIGateWorkflow,
	),
	fx.Invoke(registerWorkflows),
)

// registerWorkflows binds every workflow to the bus and the job registry.
// Double registration of a job type fails startup here rather than surfacing
// as a dispatch-time surprise.
func registerWorkflows(
	bus *events.Bus,
	registry *jobs.Registry,
	missedCall *workflow.MissedCallWorkflow,
	reviewDrip *workflow.ReviewDripWorkflow,
	aiGate *workflow.AIGateWorkflow,
) error {
	if err := missedCall.Register(bus, registry); err != nil {
		return err
	}
	if err := reviewDrip.Register(bus, registry); err != nil {
		return err
	}
	return aiGate.Register(bus, registry)
}
