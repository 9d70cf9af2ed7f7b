// Package state 外部状态存储: $state 数据引用的解析来源。
//
// 渲染只读取 Snapshot (渲染开始时取得的不可变深拷贝),
// 并发写入 Store 不会影响正在进行的渲染。
package state

import (
	"strconv"
	"strings"

	"github.com/multi-agent/go-genui/pkg/util"
)

// Snapshot 只读、按路径寻址的状态视图。nil Snapshot 表示空状态。
type Snapshot struct {
	root map[string]any
}

// NewSnapshot 包装一份数据, 调用方之后不得再修改 data。
// 非 JSON 解码形态的值 (YAML、手写 map) 先规整。
func NewSnapshot(data map[string]any) *Snapshot {
	if data == nil {
		return &Snapshot{root: map[string]any{}}
	}
	m, _ := util.NormalizeJSON(data).(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return &Snapshot{root: m}
}

// Get 读取路径上的值。
//
// 路径形如 /repos/0/name 或 repos/0/name, 段内 ~1 表示 "/", ~0 表示 "~";
// 数字段索引数组。空路径或 "/" 返回整个根对象。
func (s *Snapshot) Get(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	var cur any = s.root
	for _, seg := range Segments(path) {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Data 返回根对象的深拷贝。
func (s *Snapshot) Data() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return deepCopy(s.root).(map[string]any)
}

// Segments 拆分路径并反转义 JSON Pointer 转义序列。
func Segments(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = unescape(p)
	}
	return parts
}

func unescape(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = deepCopy(vv)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = deepCopy(vv)
		}
		return s
	default:
		return v
	}
}
