// cmd/migrate — 单独执行数据库迁移 (部署流水线使用, 服务启动时也会自动迁移)。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/multi-agent/go-genui/internal/config"
	"github.com/multi-agent/go-genui/internal/database"
	"github.com/multi-agent/go-genui/migrations"
	"github.com/multi-agent/go-genui/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	if !database.Enabled(cfg) {
		logger.Error("POSTGRES_CONNECTION_STRING not set")
		os.Exit(1)
	}
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("database init failed", logger.Any(logger.FieldError, err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, migrations.Source(cfg.MigrationsDir)); err != nil {
		pool.Close()
		logger.Fatal("migration failed", logger.Any(logger.FieldError, err))
	}
	logger.Info("migrations complete", logger.FieldPath, cfg.MigrationsDir)
}
