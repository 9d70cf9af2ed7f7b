// Package render 把经过校验的元素树解释为类型化的渲染树 (Node)。
//
// 状态机 (每个元素):
//
//	Received → Validated → Resolved → Rendered
//	    ↘ Fallback (未知 kind / reject 级违规)
//	              ↘ Fallback (必填绑定缺失 / 解析值不满足契约)
//
// 渲染是 (Element, Catalog, Snapshot) 的纯函数; 任何失败都降级为占位节点, 永不向调用方抛出。
package render

import (
	"github.com/multi-agent/go-genui/internal/chartdata"
)

// 占位 kind, 不在 Catalog 中。
const (
	KindFallback    = "Fallback"
	KindEmpty       = "Empty"
	KindUnavailable = "Unavailable"
)

// 占位文案
const (
	TextNoData      = "No data"
	TextUnavailable = "Unable to display results"
)

// Node 渲染输出, 可直接 JSON 序列化交给绘制后端。
type Node struct {
	ID       string             `json:"id,omitempty"` // 由传输层为根节点设置
	Kind     string             `json:"kind"`
	Props    map[string]any     `json:"props,omitempty"`
	Text     string             `json:"text,omitempty"`
	Data     []chartdata.Row    `json:"data,omitempty"`
	Series   []chartdata.Series `json:"series,omitempty"`
	Children []*Node            `json:"children,omitempty"`
	Issues   []Issue            `json:"issues,omitempty"`
}

// Issue 渲染过程中被恢复的问题, 随节点一起返回便于调试。
type Issue struct {
	Code    string `json:"code"`             // pkg/errors 错误码
	Reason  string `json:"reason,omitempty"` // catalog 违规码等细分原因
	Prop    string `json:"prop,omitempty"`
	Message string `json:"message"`
}

// IsPlaceholder 报告节点是否为占位节点。
func (n *Node) IsPlaceholder() bool {
	switch n.Kind {
	case KindFallback, KindEmpty, KindUnavailable:
		return true
	}
	return false
}

// Find 深度优先查找第一个满足条件的节点。
func (n *Node) Find(pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(pred); found != nil {
			return found
		}
	}
	return nil
}

// Unavailable 统一的 "无法展示" 占位节点。
func Unavailable(issues ...Issue) *Node {
	return &Node{Kind: KindUnavailable, Text: TextUnavailable, Issues: issues}
}

// Empty "无数据" 占位节点, of 为本应渲染的 kind。
func Empty(of string, props map[string]any) *Node {
	p := map[string]any{"for": of}
	for k, v := range props {
		p[k] = v
	}
	return &Node{Kind: KindEmpty, Text: TextNoData, Props: p}
}
