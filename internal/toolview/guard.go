// guard.go — 负载类型守卫的公共检查。
package toolview

import (
	"fmt"
	"strings"

	"github.com/multi-agent/go-genui/internal/coerce"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
)

func mismatch(format string, args ...any) error {
	return apperrors.WithCode(apperrors.ErrInvalidInput, "toolview.Guard", apperrors.CodePayloadMismatch, fmt.Sprintf(format, args...))
}

// entries 接受数组或 {"list": [...]} 两种形态, 每个元素都必须是对象。
func entries(data any) ([]map[string]any, error) {
	var list []any
	switch v := data.(type) {
	case []any:
		list = v
	case map[string]any:
		l, ok := v["list"].([]any)
		if !ok {
			return nil, mismatch("expected an array or an object with a list field")
		}
		list = l
	default:
		return nil, mismatch("expected an array, got %T", data)
	}

	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, mismatch("entry %d: expected an object", i)
		}
		out = append(out, m)
	}
	return out, nil
}

// fieldCheck 单字段检查, 返回 "" 表示通过。
type fieldCheck func(m map[string]any) string

func requireString(key string) fieldCheck {
	return func(m map[string]any) string {
		s, ok := m[key].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Sprintf("%s: expected a non-empty string", key)
		}
		return ""
	}
}

func requireNumber(key string) fieldCheck {
	return func(m map[string]any) string {
		if _, ok := coerce.ToNumber(m[key]); !ok {
			return fmt.Sprintf("%s: expected a number, got %v", key, m[key])
		}
		return ""
	}
}

// optionalNumber 字段缺失或为 null 可以, 存在则必须可转数字。
func optionalNumber(key string) fieldCheck {
	return func(m map[string]any) string {
		v, present := m[key]
		if !present || v == nil {
			return ""
		}
		return requireNumber(key)(m)
	}
}

func optionalString(key string) fieldCheck {
	return func(m map[string]any) string {
		v, present := m[key]
		if !present || v == nil {
			return ""
		}
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("%s: expected a string", key)
		}
		return ""
	}
}

// guardEntries 任一条目任一字段不通过则整个负载失败。
func guardEntries(checks ...fieldCheck) func(data any) error {
	return func(data any) error {
		list, err := entries(data)
		if err != nil {
			return err
		}
		for i, m := range list {
			for _, check := range checks {
				if msg := check(m); msg != "" {
					return mismatch("entry %d: %s", i, msg)
				}
			}
		}
		return nil
	}
}
