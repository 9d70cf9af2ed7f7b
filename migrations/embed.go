// Package migrations 内嵌的 SQL 迁移脚本。
package migrations

import (
	"embed"
	"io/fs"
	"os"
)

// FS 根目录下的 *.sql 文件。
//
//go:embed *.sql
var FS embed.FS

// Source dir 存在时返回该目录 (运维可追加脚本), 否则返回内嵌脚本。
func Source(dir string) fs.FS {
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return os.DirFS(dir)
		}
	}
	return FS
}
