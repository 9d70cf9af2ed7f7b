// Package config 全局配置加载与管理。
//
// 所有字段通过 struct tag 声明环境变量映射:
//
//	`env:"VAR_NAME" default:"value" min:"0"`
//
// Load() 使用反射自动填充，无需手动逐行赋值。
package config

import (
	"time"

	"github.com/multi-agent/go-genui/pkg/util"
)

// Config 应用全局配置，字段名与 .env 变量一一对应。
type Config struct {
	// 运行环境 / 日志
	AppEnv   string `env:"APP_ENV" default:"production"`
	LogLevel string `env:"LOG_LEVEL" default:"INFO"`
	LogDir   string `env:"LOG_DIR"`

	// HTTP
	HTTPAddr          string `env:"HTTP_ADDR" default:":8080"`
	SSEKeepaliveSec   int    `env:"SSE_KEEPALIVE_SEC" default:"30" min:"1"`
	WSMaxMessageBytes int    `env:"WS_MAX_MESSAGE_BYTES" default:"1048576" min:"1024"` // 1MB

	// PostgreSQL (可选: 为空时状态仅存内存)
	PostgresConnStr     string `env:"POSTGRES_CONNECTION_STRING"`
	PostgresSchema      string `env:"POSTGRES_SCHEMA" default:"public"`
	PostgresPoolMinSize int    `env:"POSTGRES_POOL_MIN_SIZE" default:"1" min:"1"`
	PostgresPoolMaxSize int    `env:"POSTGRES_POOL_MAX_SIZE" default:"10" min:"1"`
	MigrationsDir       string `env:"MIGRATIONS_DIR" default:"./migrations"`

	// Redis (可选: 为空时实体缓存走内存)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0" min:"0"`

	// 实体查询
	EntityAPIBaseURL  string  `env:"ENTITY_API_BASE_URL" default:"http://localhost:3000/api"`
	EntityTimeoutSec  int     `env:"ENTITY_TIMEOUT_SEC" default:"10" min:"1"`
	EntityRateLimit   float64 `env:"ENTITY_RATE_LIMIT" default:"10" min:"0.1"`
	EntityRateBurst   int     `env:"ENTITY_RATE_BURST" default:"20" min:"1"`
	EntityCacheTTLSec int     `env:"ENTITY_CACHE_TTL_SEC" default:"60" min:"0"`

	// 渲染
	TableMaxRows   int `env:"TABLE_MAX_ROWS" default:"20" min:"1"`
	ToolResultTopN int `env:"TOOL_RESULT_TOP_N" default:"10" min:"1"`
}

// Load 从环境变量加载配置 (通过反射读取 struct tag)。
func Load() *Config {
	var cfg Config
	util.LoadFromEnv(&cfg)
	return &cfg
}

// EntityTimeout 实体查询单次 HTTP 超时。
func (c *Config) EntityTimeout() time.Duration {
	return time.Duration(c.EntityTimeoutSec) * time.Second
}

// EntityCacheTTL 正向结果缓存 TTL, 0 表示不缓存。
func (c *Config) EntityCacheTTL() time.Duration {
	return time.Duration(c.EntityCacheTTLSec) * time.Second
}

// SSEKeepalive SSE 心跳间隔。
func (c *Config) SSEKeepalive() time.Duration {
	return time.Duration(c.SSEKeepaliveSec) * time.Second
}
