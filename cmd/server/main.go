// cmd/server — 生成式 UI 渲染服务主入口。
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/multi-agent/go-genui/internal/config"
	"github.com/multi-agent/go-genui/internal/dashboard"
	"github.com/multi-agent/go-genui/internal/database"
	"github.com/multi-agent/go-genui/internal/entity"
	"github.com/multi-agent/go-genui/internal/metrics"
	"github.com/multi-agent/go-genui/internal/render"
	"github.com/multi-agent/go-genui/internal/state"
	"github.com/multi-agent/go-genui/internal/store"
	"github.com/multi-agent/go-genui/internal/toolview"
	"github.com/multi-agent/go-genui/migrations"
	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	if cfg.LogDir != "" {
		if err := logger.InitWithFile(cfg.LogDir, cfg.LogLevel); err != nil {
			logger.Warn("file logging disabled", logger.FieldError, err)
		}
		defer logger.ShutdownFileHandler()
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()

	// 状态仓库: 有数据库时持久化并启动时回填
	var persister state.Persister
	if database.Enabled(cfg) {
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("database init failed", logger.Any(logger.FieldError, err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, migrations.Source(cfg.MigrationsDir)); err != nil {
			logger.Fatal("migration failed", logger.Any(logger.FieldError, err))
		}
		persister = store.NewUIStateStore(pool)
	}
	uiState := state.NewStore(persister)
	if err := uiState.Hydrate(ctx); err != nil {
		logger.Warn("state hydrate failed, starting empty", logger.FieldError, err)
	}

	// 实体缓存: 有 Redis 用 Redis, 否则进程内
	var cache entity.Cache = entity.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc, err := entity.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, using memory cache", logger.FieldAddr, cfg.RedisAddr, logger.FieldError, err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	resolver := entity.NewResolver(
		entity.NewHTTPSource(cfg.EntityAPIBaseURL, cfg.EntityTimeout(), cfg.EntityRateLimit, cfg.EntityRateBurst),
		entity.WithCache(cache, cfg.EntityCacheTTL()),
		entity.WithObserver(m),
	)

	interp := render.NewInterpreter(render.DefaultRegistry(),
		render.WithLimits(render.Limits{TableMaxRows: cfg.TableMaxRows}),
		render.WithObserver(m),
	)
	srv := dashboard.NewServer(dashboard.Deps{
		Interp:            interp,
		Tools:             toolview.DefaultRegistry(interp, cfg.ToolResultTopN, m),
		State:             uiState,
		Resolver:          resolver,
		Metrics:           m,
		SSEKeepalive:      cfg.SSEKeepalive(),
		WSMaxMessageBytes: int64(cfg.WSMaxMessageBytes),
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("genui server starting", logger.FieldAddr, cfg.HTTPAddr)

	util.SafeGo(func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", logger.Any(logger.FieldError, err))
			cancel()
		}
	})

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", logger.FieldError, err)
	}
}
