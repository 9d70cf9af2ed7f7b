package database

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multi-agent/go-genui/internal/config"
	"github.com/multi-agent/go-genui/migrations"
)

func TestMigrate_NilPool(t *testing.T) {
	if err := Migrate(context.Background(), nil, migrations.FS); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestLoadAppliedVersions_NilPool(t *testing.T) {
	_, err := loadAppliedVersions(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestApplyOneMigration_NilPool(t *testing.T) {
	err := applyOneMigration(context.Background(), nil, fstest.MapFS{}, "001_init.sql")
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":     {Data: []byte("SELECT 2")},
		"001_a.sql":     {Data: []byte("SELECT 1")},
		"README.md":     {Data: []byte("notes")},
		"sub/003_c.sql": {Data: []byte("SELECT 3")},
		"010_later.sql": {Data: []byte("SELECT 10")},
	}
	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql", "010_later.sql"}, names)

	names, err = migrationFiles(nil)
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = migrationFiles(os.DirFS(t.TempDir() + "/missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, names, "001_ui_state.sql")
}

func TestPendingMigrations(t *testing.T) {
	got := pendingMigrations([]string{"001.sql", "002.sql", "003.sql"}, map[string]bool{"002.sql": true})
	assert.Equal(t, []string{"001.sql", "003.sql"}, got)
	assert.Empty(t, pendingMigrations([]string{"001.sql"}, map[string]bool{"001.sql": true}))
}

func TestNewPoolRequiresConnString(t *testing.T) {
	assert.False(t, Enabled(nil))
	_, err := NewPool(context.Background(), &config.Config{})
	assert.Error(t, err)
}

func TestSafeInt32(t *testing.T) {
	assert.Equal(t, int32(0), safeInt32(-5, "x"))
	assert.Equal(t, int32(10), safeInt32(10, "x"))
}

func TestMigrateLive(t *testing.T) {
	connStr := os.Getenv("TEST_POSTGRES_CONNECTION_STRING")
	if connStr == "" {
		t.Skip("TEST_POSTGRES_CONNECTION_STRING not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, &config.Config{
		PostgresConnStr: connStr, PostgresSchema: "public",
		PostgresPoolMinSize: 1, PostgresPoolMaxSize: 2,
	})
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Migrate(ctx, pool, migrations.FS))
	// 二次执行无待办
	require.NoError(t, Migrate(ctx, pool, migrations.FS))
}
