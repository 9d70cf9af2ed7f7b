package util

import "strings"

// FirstNonEmpty 返回第一个非空 (trim 后) 的字符串, 常用于 "值或默认值"。
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
