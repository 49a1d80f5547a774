package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

// MaybeAutoRun aplica las migraciones pendientes al arrancar si DB_AUTO_MIGRATE está activo.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, log *logger.Logger, pool *pgxpool.Pool) error {
	if !cfg.DB.AutoMigrate {
		return nil
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	log.Info().Str("env", cfg.App.Env).Msg("aplicando migraciones (auto-migrate)")
	if err := Run(ctx, db, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	log.Info().Msg("migraciones aplicadas")
	return nil
}
