// migrator.go — 按文件名顺序执行 *.sql 迁移, schema_version 表记录已执行版本。
package database

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
)

// Migrate 执行 fsys 根目录下尚未执行的迁移; 每个文件一个事务。
//
// fsys 可以是 os.DirFS(MIGRATIONS_DIR) 或内嵌的 migrations.FS。
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) error {
	if pool == nil {
		return apperrors.New("Migrate", "pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		logger.Error("migrate: create schema_version table failed", logger.FieldError, err)
		return apperrors.Wrap(err, "Migrate", "create schema_version table")
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		return err
	}
	applied, err := loadAppliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	pending := pendingMigrations(files, applied)
	if len(pending) == 0 {
		return nil
	}
	logger.Info("migrate: applying pending migrations", logger.FieldCount, len(pending))
	for _, name := range pending {
		if err := applyOneMigration(ctx, pool, fsys, name); err != nil {
			return err
		}
		logger.Info("migration applied", logger.FieldVersion, name)
	}
	return nil
}

// migrationFiles 根目录下排序后的 .sql 文件名; 目录不存在视为无迁移。
func migrationFiles(fsys fs.FS) ([]string, error) {
	if fsys == nil {
		return nil, nil
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if apperrors.Is(err, fs.ErrNotExist) {
			logger.Info("no migrations directory found, skipping")
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "Migrate", "read migrations dir")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func pendingMigrations(files []string, applied map[string]bool) []string {
	var out []string
	for _, name := range files {
		if !applied[name] {
			out = append(out, name)
		}
	}
	return out
}

func loadAppliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	if pool == nil {
		return nil, apperrors.New("Migrate", "pool is required")
	}
	rows, err := pool.Query(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, apperrors.Wrap(err, "Migrate", "query schema_version")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, apperrors.Wrap(err, "Migrate", "scan schema_version")
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyOneMigration(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, name string) error {
	if pool == nil {
		return apperrors.New("Migrate", "pool is required")
	}
	sqlBytes, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return apperrors.Wrapf(err, "Migrate", "read migration %s", name)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrapf(err, "Migrate", "begin tx for %s", name)
	}
	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback(ctx)
		return apperrors.Wrapf(err, "Migrate", "exec migration %s", name)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback(ctx)
		return apperrors.Wrapf(err, "Migrate", "record migration %s", name)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrapf(err, "Migrate", "commit migration %s", name)
	}
	return nil
}
