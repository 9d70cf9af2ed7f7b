// Package element 模型生成的 UI 元素树 (不可信输入)。
//
// 支持两种文档形态:
//   - 嵌套: {"type", "props", "children": [Element...]}
//   - 扁平: {"root": id, "elements": {id: {"type", "props", "children": [id...]}}}
//
// 扁平形态是助手被要求输出的格式, 解析后统一转为嵌套树。
package element

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/util"
)

// MaxDepth 树的最大深度, 超出部分被截断。
const MaxDepth = 32

// StateKey 数据引用的唯一键: {"$state": "/path"}。
const StateKey = "$state"

// Element 一个 UI 节点。Props 的值保持 JSON 解码形态。
type Element struct {
	Type     string         `json:"type"`
	Props    map[string]any `json:"props"`
	Children []*Element     `json:"children,omitempty"`
}

// Parse 解码一份元素文档 (嵌套或扁平)。顶层不是 JSON 对象时返回错误。
func Parse(data []byte) (*Element, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "element.Parse", "invalid json: "+err.Error())
	}
	el := FromValue(v)
	if el == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "element.Parse", "document is not an element object")
	}
	return el, nil
}

// FromValue 从已解码的值构建元素树, v 不是对象时返回 nil。
//
// 非 JSON 解码形态的输入 (YAML 结果、手写 map) 先经 util.NormalizeJSON 规整。
func FromValue(v any) *Element {
	m, ok := util.NormalizeJSON(v).(map[string]any)
	if !ok {
		return nil
	}
	if root, ok := m["root"].(string); ok {
		if elements, ok := m["elements"].(map[string]any); ok {
			return fromFlat(root, elements, map[string]bool{}, 0)
		}
	}
	return fromNested(m, 0)
}

func fromNested(m map[string]any, depth int) *Element {
	el := &Element{Props: props(m)}
	el.Type, _ = m["type"].(string)
	if depth >= MaxDepth {
		return el
	}
	kids, _ := m["children"].([]any)
	for _, k := range kids {
		km, ok := k.(map[string]any)
		if !ok {
			continue
		}
		el.Children = append(el.Children, fromNested(km, depth+1))
	}
	return el
}

// fromFlat 按 id 展开扁平文档; onPath 记录当前路径上的 id, 遇到环直接截断。
func fromFlat(id string, elements map[string]any, onPath map[string]bool, depth int) *Element {
	m, ok := elements[id].(map[string]any)
	if !ok || onPath[id] {
		return nil
	}
	el := &Element{Props: props(m)}
	el.Type, _ = m["type"].(string)
	if depth >= MaxDepth {
		return el
	}

	onPath[id] = true
	defer delete(onPath, id)

	kids, _ := m["children"].([]any)
	for _, k := range kids {
		switch kv := k.(type) {
		case string:
			if child := fromFlat(kv, elements, onPath, depth+1); child != nil {
				el.Children = append(el.Children, child)
			}
		case map[string]any:
			// 部分模型会在扁平文档里内联子节点
			el.Children = append(el.Children, fromNested(kv, depth+1))
		}
	}
	return el
}

func props(m map[string]any) map[string]any {
	p, ok := m["props"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return p
}

// DataRef 识别数据引用 {"$state": "<path>"}: 必须恰好一个键且值为字符串。
func DataRef(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	path, ok := m[StateKey].(string)
	return path, ok
}

// Walk 深度优先前序遍历, fn 返回 false 时不再进入该节点的子树。
func (e *Element) Walk(fn func(el *Element, depth int) bool) {
	e.walk(fn, 0)
}

func (e *Element) walk(fn func(*Element, int) bool, depth int) {
	if e == nil || !fn(e, depth) {
		return
	}
	for _, c := range e.Children {
		c.walk(fn, depth+1)
	}
}

// String 紧凑描述, 用于日志。
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	n := 0
	e.Walk(func(*Element, int) bool { n++; return true })
	return fmt.Sprintf("%s(%d nodes)", strings.TrimSpace(e.Type), n)
}
