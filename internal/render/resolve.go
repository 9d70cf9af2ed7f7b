// resolve.go — $state 数据引用解析。
package render

import (
	"sort"

	"github.com/multi-agent/go-genui/internal/element"
	"github.com/multi-agent/go-genui/internal/state"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
)

// bindingMiss 解析阶段的结果汇总。fatal 表示必填 prop 不可用, 元素转入 Fallback。
type bindingMiss struct {
	fatal   bool
	path    string
	invalid bool
	issues  []Issue
}

func (m bindingMiss) text() string {
	if m.invalid {
		return "Invalid data for " + m.path
	}
	return "No data for " + m.path
}

// resolveProps 替换顶层与嵌套的 $state 引用。
//
// 顶层引用: 路径缺失或值为 null 时, 必填 prop 致命、可选 prop 删除;
// 命中的值经 CheckProp 复核, 不满足契约同样按必填/可选处理。
// 嵌套引用 (数组/对象内部) 缺失时替换为 nil。输出中不再含任何引用。
func (in *Interpreter) resolveProps(kind string, props map[string]any, snap *state.Snapshot) (map[string]any, bindingMiss) {
	var miss bindingMiss
	out := make(map[string]any, len(props))
	desc, _ := in.cat.Lookup(kind)

	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		v := props[name]
		path, isRef := element.DataRef(v)
		if !isRef {
			out[name] = resolveNested(v, snap)
			continue
		}

		decl, _ := desc.Prop(name)
		val, found := snap.Get(path)
		if !found || val == nil {
			miss.issues = append(miss.issues, Issue{
				Code: apperrors.CodeBindingMiss, Prop: name, Message: "no value at " + path,
			})
			if decl.Required && !miss.fatal {
				miss.fatal, miss.path = true, path
			}
			continue
		}

		if vio := in.cat.CheckProp(kind, name, val); vio != nil {
			miss.issues = append(miss.issues, Issue{
				Code: apperrors.CodeSchemaViolation, Reason: vio.Code, Prop: name, Message: path + ": " + vio.Message,
			})
			if decl.Required && !miss.fatal {
				miss.fatal, miss.path, miss.invalid = true, path, true
			}
			continue
		}
		out[name] = val
	}
	return out, miss
}

func resolveNested(v any, snap *state.Snapshot) any {
	if path, ok := element.DataRef(v); ok {
		val, _ := snap.Get(path)
		return val
	}
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = resolveNested(vv, snap)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = resolveNested(vv, snap)
		}
		return s
	default:
		return v
	}
}
