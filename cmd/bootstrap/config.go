package bootstrap

import (
	"opshub/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.QueueConfig { return cfg.Queue },
		func(cfg config.Config) config.TokenConfig { return cfg.Token },
		func(cfg config.Config) config.MissedCallConfig { return cfg.MissedCall },
		func(cfg config.Config) config.ReviewRequestConfig { return cfg.ReviewRequest },
		func(cfg config.Config) config.AIReplyConfig { return cfg.AIReply },
	),
)
