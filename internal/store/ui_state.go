// Package store PostgreSQL 持久化 (裸 SQL + pgxpool)。
package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
)

// UIStateStore 实时状态仓库的持久层, 每个顶层键一行 (ui_state 表)。
// 实现 state.Persister。
type UIStateStore struct {
	pool *pgxpool.Pool
}

// NewUIStateStore 创建 UIStateStore。
func NewUIStateStore(pool *pgxpool.Pool) *UIStateStore {
	return &UIStateStore{pool: pool}
}

// LoadAll 读取全部顶层键; 无法解码的行跳过并记日志。
func (s *UIStateStore) LoadAll(ctx context.Context) (map[string]any, error) {
	rows, err := s.pool.Query(ctx, "SELECT key, value FROM ui_state")
	if err != nil {
		return nil, apperrors.Wrap(err, "UIStateStore.LoadAll", "query state")
	}
	defer rows.Close()

	result := make(map[string]any)
	for rows.Next() {
		var key string
		var raw json.RawMessage
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, apperrors.Wrap(err, "UIStateStore.LoadAll", "scan state")
		}
		var val any
		if err := json.Unmarshal(raw, &val); err != nil {
			logger.Warn("ui_state: skip malformed row", logger.FieldKey, key, logger.FieldError, err)
			continue
		}
		result[key] = val
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "UIStateStore.LoadAll", "iterate state")
	}
	return result, nil
}

// Save upsert 一个顶层键。
func (s *UIStateStore) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, "UIStateStore.Save", "marshal value")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ui_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, key, data)
	if err != nil {
		return apperrors.Wrap(err, "UIStateStore.Save", "upsert state")
	}
	return nil
}

// Delete 删除一个顶层键; 不存在不算错误。
func (s *UIStateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM ui_state WHERE key = $1", key); err != nil {
		return apperrors.Wrap(err, "UIStateStore.Delete", "delete state")
	}
	return nil
}
