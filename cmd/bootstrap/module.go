package bootstrap

import (
	"opshub/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	components.RepositoryModule,
	components.ServiceModule,
	components.UseCaseModule,
	components.WorkflowModule,
	components.HandlerModule,
)
