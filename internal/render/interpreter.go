// interpreter.go — 元素树解释器: 校验 → 数据解析 → 分发渲染, 失败走 Fallback。
package render

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/element"
	"github.com/multi-agent/go-genui/internal/state"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
)

// 元素渲染结果分类 (metrics label)。
const (
	OutcomeRendered = "rendered"
	OutcomeEmpty    = "empty"
	OutcomeFallback = "fallback"
	OutcomePanic    = "panic"
)

// Limits 渲染输出的密度上限。
type Limits struct {
	TableMaxRows int
}

// DefaultLimits 默认上限。
func DefaultLimits() Limits {
	return Limits{TableMaxRows: catalog.DefaultTableMaxRows}
}

// Observer 渲染观测钩子 (internal/metrics 实现)。
type Observer interface {
	ObserveElement(kind, outcome string)
	ObserveRender(d time.Duration)
}

// Option 解释器选项。
type Option func(*Interpreter)

// WithLimits 覆盖默认上限, 非正值保持默认。
func WithLimits(l Limits) Option {
	return func(in *Interpreter) {
		if l.TableMaxRows > 0 {
			in.limits.TableMaxRows = l.TableMaxRows
		}
	}
}

// WithObserver 设置观测钩子。
func WithObserver(o Observer) Option {
	return func(in *Interpreter) { in.observer = o }
}

// Interpreter 无状态, 可被多个 goroutine 并发使用。
type Interpreter struct {
	reg      *Registry
	cat      *catalog.Catalog
	limits   Limits
	observer Observer
}

// NewInterpreter 基于注册表创建解释器。
func NewInterpreter(reg *Registry, opts ...Option) *Interpreter {
	in := &Interpreter{reg: reg, cat: reg.Catalog(), limits: DefaultLimits()}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Catalog 解释器校验所用的 Catalog。
func (in *Interpreter) Catalog() *catalog.Catalog { return in.cat }

// Render 解释一棵元素树。snap 为渲染开始时的状态快照, 可为 nil。
func (in *Interpreter) Render(el *element.Element, snap *state.Snapshot) *Node {
	start := time.Now()
	renderID := uuid.NewString()
	log := logger.With(logger.FieldRenderID, renderID)

	node := in.renderElement(el, snap, 0, log)

	if in.observer != nil {
		in.observer.ObserveRender(time.Since(start))
	}
	log.Debug("render: done", logger.FieldKind, node.Kind, logger.FieldDurationMS, time.Since(start).Milliseconds())
	return node
}

// RenderText 渲染一段助手回复中全部 json-render 代码块。
func (in *Interpreter) RenderText(text string, snap *state.Snapshot) []*Node {
	els := element.Extract(text)
	out := make([]*Node, 0, len(els))
	for _, el := range els {
		out = append(out, in.Render(el, snap))
	}
	return out
}

func (in *Interpreter) renderElement(el *element.Element, snap *state.Snapshot, depth int, log *slog.Logger) (node *Node) {
	kind := ""
	if el != nil {
		kind = el.Type
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("render: renderer panicked", logger.FieldKind, kind, logger.FieldError, fmt.Sprint(r))
			node = in.fallback(el, snap, depth, log, fmt.Sprintf("Failed to render %s", kind), Issue{
				Code: apperrors.CodeSchemaViolation, Reason: OutcomePanic, Message: fmt.Sprint(r),
			})
			in.observe(kind, OutcomePanic)
		}
	}()

	if el == nil {
		return in.fallback(nil, snap, depth, log, "Unsupported component", Issue{
			Code: apperrors.CodeSchemaViolation, Reason: catalog.CodeUnknownKind, Message: "nil element",
		})
	}

	// Received → Validated
	violations := in.cat.Validate(el)
	if catalog.Rejected(violations) {
		log.Warn("render: element rejected", logger.FieldKind, kind, logger.FieldViolations, len(violations))
		in.observe(kind, OutcomeFallback)
		return in.fallback(el, snap, depth, log, rejectText(kind, violations), violationIssues(violations)...)
	}
	issues := violationIssues(violations)
	props := dropViolations(el.Props, violations)

	// Validated → Resolved
	resolved, miss := in.resolveProps(el.Type, props, snap)
	issues = append(issues, miss.issues...)
	if miss.fatal {
		log.Warn("render: binding unusable", logger.FieldKind, kind, logger.FieldPath, miss.path)
		in.observe(kind, OutcomeFallback)
		return in.fallback(el, snap, depth, log, miss.text(), issues...)
	}

	// Resolved → Rendered
	fn, ok := in.reg.Lookup(el.Type)
	if !ok {
		in.observe(kind, OutcomeFallback)
		return in.fallback(el, snap, depth, log, fmt.Sprintf("Unsupported component: %s", kind), issues...)
	}

	var children []*Node
	if desc, _ := in.cat.Lookup(el.Type); desc.AcceptsChildren() && depth < element.MaxDepth {
		children = make([]*Node, 0, len(el.Children))
		for _, c := range el.Children {
			children = append(children, in.renderElement(c, snap, depth+1, log))
		}
	}

	node = fn(Input{Kind: el.Type, Props: resolved, Children: children, Limits: in.limits})
	if node == nil {
		node = Empty(el.Type, nil)
	}
	node.Issues = append(node.Issues, issues...)

	if node.Kind == KindEmpty {
		in.observe(kind, OutcomeEmpty)
	} else {
		in.observe(kind, OutcomeRendered)
	}
	return node
}

// fallback 命名原 kind 的占位节点, 并递归渲染子节点以保留部分输出。
func (in *Interpreter) fallback(el *element.Element, snap *state.Snapshot, depth int, log *slog.Logger, text string, issues ...Issue) *Node {
	node := &Node{Kind: KindFallback, Text: text, Issues: issues}
	if el == nil {
		return node
	}
	node.Props = map[string]any{"kind": el.Type}
	if depth >= element.MaxDepth {
		return node
	}
	for _, c := range el.Children {
		node.Children = append(node.Children, in.renderElement(c, snap, depth+1, log))
	}
	return node
}

func (in *Interpreter) observe(kind, outcome string) {
	if in.observer == nil {
		return
	}
	if !in.cat.Has(kind) {
		// 未知 kind 统一记为 Fallback label
		kind = KindFallback
	}
	in.observer.ObserveElement(kind, outcome)
}

// rejectText 未知类型与已知类型的非法 prop 使用不同的占位文案。
func rejectText(kind string, vs []catalog.Violation) string {
	var props []string
	for _, v := range vs {
		if v.Code == catalog.CodeUnknownKind {
			return "Unsupported component: " + kind
		}
		if v.Severity == catalog.SeverityReject && v.Prop != "" {
			props = append(props, v.Prop)
		}
	}
	if len(props) == 0 {
		return "Invalid " + kind
	}
	return fmt.Sprintf("Invalid %s: %s", kind, strings.Join(props, ", "))
}

func violationIssues(vs []catalog.Violation) []Issue {
	if len(vs) == 0 {
		return nil
	}
	out := make([]Issue, 0, len(vs))
	for _, v := range vs {
		out = append(out, Issue{
			Code:    apperrors.CodeSchemaViolation,
			Reason:  v.Code,
			Prop:    v.Prop,
			Message: v.Message,
		})
	}
	return out
}

func dropViolations(props map[string]any, vs []catalog.Violation) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	for _, v := range vs {
		if v.Severity == catalog.SeverityDrop && v.Prop != "" {
			delete(out, v.Prop)
		}
	}
	return out
}
