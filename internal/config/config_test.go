// config_test.go — 配置加载默认值 + 环境变量覆盖测试。
package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "TABLE_MAX_ROWS", "TOOL_RESULT_TOP_N", "ENTITY_RATE_LIMIT", "LOG_LEVEL"} {
		os.Unsetenv(k)
	}

	cfg := Load()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"AppEnv", cfg.AppEnv, "production"},
		{"LogLevel", cfg.LogLevel, "INFO"},
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"SSEKeepaliveSec", cfg.SSEKeepaliveSec, 30},
		{"WSMaxMessageBytes", cfg.WSMaxMessageBytes, 1048576},
		{"PostgresSchema", cfg.PostgresSchema, "public"},
		{"MigrationsDir", cfg.MigrationsDir, "./migrations"},
		{"EntityAPIBaseURL", cfg.EntityAPIBaseURL, "http://localhost:3000/api"},
		{"EntityTimeoutSec", cfg.EntityTimeoutSec, 10},
		{"EntityRateLimit", cfg.EntityRateLimit, 10.0},
		{"EntityRateBurst", cfg.EntityRateBurst, 20},
		{"EntityCacheTTLSec", cfg.EntityCacheTTLSec, 60},
		{"TableMaxRows", cfg.TableMaxRows, 20},
		{"ToolResultTopN", cfg.ToolResultTopN, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TABLE_MAX_ROWS", "50")
	t.Setenv("TOOL_RESULT_TOP_N", "0") // 低于 min → 1
	t.Setenv("ENTITY_CACHE_TTL_SEC", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.TableMaxRows != 50 {
		t.Errorf("TableMaxRows = %d, want 50", cfg.TableMaxRows)
	}
	if cfg.ToolResultTopN != 1 {
		t.Errorf("ToolResultTopN = %d, want clamped 1", cfg.ToolResultTopN)
	}
	if cfg.EntityCacheTTL() != 5*time.Second {
		t.Errorf("EntityCacheTTL = %v, want 5s", cfg.EntityCacheTTL())
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}
