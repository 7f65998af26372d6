package subscription

import (
	"time"

	"github.com/smallbiznis/entitlements/internal/config"
	"github.com/smallbiznis/entitlements/internal/subscription/domain"
	"github.com/smallbiznis/entitlements/internal/subscription/repository"
	"github.com/smallbiznis/entitlements/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(NewOptions),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

func NewOptions(cfg config.Config) domain.Options {
	return domain.Options{
		DefaultOwnerType:    cfg.SubscriberDefaultType,
		ActiveRequiresUsage: cfg.ActiveRequiresUsage,
		SubscribeLockTTL:    time.Duration(cfg.SubscribeLockTTL) * time.Second,
	}
}
