// Package database PostgreSQL 连接池与 SQL 迁移。
//
// 使用 pgxpool 直接管理连接, 裸写 SQL (不使用 ORM)。
// 数据库是可选的: 未配置连接串时状态仓库只存内存。
package database

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/multi-agent/go-genui/internal/config"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

// Enabled 报告配置中是否给出了连接串。
func Enabled(cfg *config.Config) bool { return cfg != nil && cfg.PostgresConnStr != "" }

// NewPool 创建连接池并 Ping 一次。
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if !Enabled(cfg) {
		return nil, apperrors.New("database.NewPool", "POSTGRES_CONNECTION_STRING is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "database.NewPool", "parse postgres config")
	}

	poolCfg.MaxConns = safeInt32(cfg.PostgresPoolMaxSize, "PostgresPoolMaxSize")
	poolCfg.MinConns = safeInt32(util.ClampInt(cfg.PostgresPoolMinSize, 0, cfg.PostgresPoolMaxSize), "PostgresPoolMinSize")

	// search_path 用 Identifier.Sanitize 转义
	schema := cfg.PostgresSchema
	if schema != "" && schema != "public" {
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, "database.NewPool", "create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, "database.NewPool", "ping postgres")
	}

	logger.Info("postgres pool created",
		"min_conns", poolCfg.MinConns,
		"max_conns", poolCfg.MaxConns,
		"schema", schema,
	)
	return pool, nil
}

// safeInt32 int → int32, 越界时钳位并记录警告。
func safeInt32(v int, name string) int32 {
	if v > math.MaxInt32 {
		logger.Warn("pool config overflow, clamped to MaxInt32", "field", name, "value", v)
		return math.MaxInt32
	}
	if v < 0 {
		logger.Warn("pool config negative, clamped to 0", "field", name, "value", v)
		return 0
	}
	return int32(v)
}
