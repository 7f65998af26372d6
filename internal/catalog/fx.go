package catalog

import (
	"context"

	"github.com/smallbiznis/entitlements/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("catalog",
	fx.Provide(New),
	fx.Invoke(Register),
)

// Register syncs the catalog on start and after every reload of the catalog file.
func Register(lc fx.Lifecycle, syncer *Syncer, holder *config.CatalogHolder, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return syncer.Sync(ctx, holder.Get())
		},
	})
	holder.OnChange(func(catalog config.Catalog) {
		if err := syncer.Sync(context.Background(), catalog); err != nil {
			log.Error("catalog sync failed", zap.Error(err))
		}
	})
}
