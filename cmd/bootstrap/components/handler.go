package components

import (
	"opshub/internal/handler"
	"opshub/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewWebhookHandler,
		api.NewTokenHandler,
		api.NewAdminHandler,
	),
	fx.Invoke(handler.NewRouter),
)
