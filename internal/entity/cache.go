// cache.go — 正向查询结果缓存: 进程内 MemoryCache + Redis 共享 RedisCache。
//
// 缓存只是性能优化, 读写失败一律视为未命中。
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/multi-agent/go-genui/pkg/logger"
)

// Cache 实体摘要缓存。
type Cache interface {
	Get(ctx context.Context, key string) (map[string]any, bool)
	Set(ctx context.Context, key string, value map[string]any, ttl time.Duration)
}

// ========================================
// MemoryCache
// ========================================

type memoryEntry struct {
	value   map[string]any
	expires time.Time
}

// MemoryCache 带过期时间的进程内缓存, 过期条目在读取时惰性删除。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache 创建进程内缓存。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get 读取未过期的条目。
func (c *MemoryCache) Get(_ context.Context, key string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set 写入条目; ttl <= 0 忽略。
func (c *MemoryCache) Set(_ context.Context, key string, value map[string]any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Len 当前条目数 (含未清理的过期条目)。
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ========================================
// RedisCache
// ========================================

// RedisKeyPrefix Redis 键前缀。
const RedisKeyPrefix = "genui:entity:"

// RedisCache 多实例共享的缓存, 值以 JSON 存储。
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache 连接 Redis 并 PING 一次。
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheWithClient 复用已有客户端。
func NewRedisCacheWithClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get 读取并解码; redis.Nil 或其他错误都按未命中处理。
func (c *RedisCache) Get(ctx context.Context, key string) (map[string]any, bool) {
	raw, err := c.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("entity cache: redis get failed", logger.FieldKey, key, logger.FieldError, err)
		}
		return nil, false
	}
	var v map[string]any
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("entity cache: corrupt entry", logger.FieldKey, key, logger.FieldError, err)
		return nil, false
	}
	return v, true
}

// Set 编码写入, 带过期时间。
func (c *RedisCache) Set(ctx context.Context, key string, value map[string]any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, RedisKeyPrefix+key, raw, ttl).Err(); err != nil {
		logger.Warn("entity cache: redis set failed", logger.FieldKey, key, logger.FieldError, err)
	}
}

// Close 关闭底层连接。
func (c *RedisCache) Close() error { return c.client.Close() }
