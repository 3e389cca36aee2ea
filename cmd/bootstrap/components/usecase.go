package components

import (
	"opshub/internal/pkg/clock"
	"opshub/internal/pkg/config"
	"opshub/internal/usecase/commands"
	"opshub/internal/usecase/shared"
	"opshub/internal/workflow"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		commands.NewConversationUseCase,
		commands.NewScheduleUseCase,
		commands.NewJobAdminUseCase,
		commands.NewTokenUseCase,
		commands.NewWebhookUseCase,
		commands.NewWebhookReconciler,
		fx.Annotate(
			workflow.NewRescheduler,
			fx.As(new(commands.RescheduleApplier)),
		),
		NewTranslators,
	),
)

func NewTranslators(
	cfg config.Config,
	uow shared.UnitOfWork,
	conversations commands.ConversationCommands,
	clk clock.Clock,
) []commands.Translator {
	return []commands.Translator{
		commands.NewTelephonyTranslator(cfg.Webhook.TelephonySecret, uow, conversations, clk),
		commands.NewBillingTranslator(cfg.Webhook.BillingSecret, clk),
	}
}
