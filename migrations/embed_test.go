package migrations

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFallsBackToEmbedded(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		fsys := Source(dir)
		_, err := fs.Stat(fsys, "001_ui_state.sql")
		assert.NoError(t, err, "dir=%q", dir)
	}
}

func TestSourceUsesDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "900_extra.sql"), []byte("SELECT 1;"), 0o644))

	names, err := fs.Glob(Source(dir), "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"900_extra.sql"}, names)
}
