package subscriber

import (
	"github.com/smallbiznis/entitlements/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("subscriber",
	fx.Provide(NewConfig),
	fx.Provide(New),
)

func NewConfig(cfg config.Config) Config {
	return Config{DefaultType: cfg.SubscriberDefaultType}
}
