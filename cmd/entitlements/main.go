package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/entitlements/internal/catalog"
	"github.com/smallbiznis/entitlements/internal/clock"
	"github.com/smallbiznis/entitlements/internal/config"
	"github.com/smallbiznis/entitlements/internal/feature"
	"github.com/smallbiznis/entitlements/internal/lock"
	"github.com/smallbiznis/entitlements/internal/migration"
	"github.com/smallbiznis/entitlements/internal/observability"
	"github.com/smallbiznis/entitlements/internal/plan"
	"github.com/smallbiznis/entitlements/internal/planfeature"
	"github.com/smallbiznis/entitlements/internal/subscriber"
	"github.com/smallbiznis/entitlements/internal/subscription"
	"github.com/smallbiznis/entitlements/internal/usage"
	"github.com/smallbiznis/entitlements/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		lock.Module,

		plan.Module,
		feature.Module,
		planfeature.Module,
		usage.Module,
		subscription.Module,
		subscriber.Module,

		// catalog sync runs last so every table exists
		catalog.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
