package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warehouse/internal/audit"
	"github.com/smallbiznis/warehouse/internal/clock"
	"github.com/smallbiznis/warehouse/internal/config"
	"github.com/smallbiznis/warehouse/internal/invoice"
	"github.com/smallbiznis/warehouse/internal/migration"
	"github.com/smallbiznis/warehouse/internal/observability"
	"github.com/smallbiznis/warehouse/internal/providers"
	"github.com/smallbiznis/warehouse/internal/ratelimit"
	"github.com/smallbiznis/warehouse/internal/seed"
	"github.com/smallbiznis/warehouse/internal/server"
	"github.com/smallbiznis/warehouse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		providers.Module,

		// Functional Domains
		audit.Module,
		invoice.Module,
		seed.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
