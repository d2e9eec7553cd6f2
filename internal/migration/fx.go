package migration

import (
	"github.com/smallbiznis/warehouse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg db.Config, log *zap.Logger) error {
		return Apply(conn, cfg.Type, log.Named("migration"))
	}),
)
