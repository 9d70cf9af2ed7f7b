// extract.go — 从助手回复正文中提取 json-render 代码块。
package element

import (
	"regexp"
	"strings"

	"github.com/multi-agent/go-genui/pkg/logger"
)

var (
	// fencePattern ```json-render / ```json 围栏代码块, 非贪婪以支持多个块。
	fencePattern = regexp.MustCompile("(?s)```(?:json-render|json)[ \\t]*\\r?\\n(.*?)```")
	// trailingComma } 或 ] 之前的多余逗号。
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// Extract 按出现顺序解析正文中的全部元素代码块, 无效块跳过。
func Extract(text string) []*Element {
	var out []*Element
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		el, err := Parse([]byte(Clean(m[1])))
		if err != nil {
			logger.Debug("element: skip invalid block", logger.FieldError, err)
			continue
		}
		out = append(out, el)
	}
	return out
}

// Clean 去掉模型常见的非法 JSON 残留: 行尾 // 注释与尾随逗号。
func Clean(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripComment(line)
	}
	return trailingComma.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripComment 删除字符串字面量之外的 // 注释。
func stripComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
