// Package toolview 工具结果渲染注册表: 工具名 → (类型守卫, 视图构建)。
//
// 与声明式 UI 路径相互独立: 工具名由调用上下文带外提供, 负载不含自描述类型。
// 视图构建产出 Catalog 内的元素树, 再交给 render.Interpreter, 两条路径共用同一套渲染器。
package toolview

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/multi-agent/go-genui/internal/element"
	"github.com/multi-agent/go-genui/internal/render"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

// DefaultTopN 列表类结果默认展示条数。
const DefaultTopN = 10

// 渲染结果分类 (metrics label)。
const (
	OutcomeRendered    = "rendered"
	OutcomeUnavailable = "unavailable"
	OutcomeUnknown     = "unknown"
)

// Result 工具调用返回的信封。
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// ParseResult 解码工具结果信封。
func ParseResult(raw []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, apperrors.Wrapf(apperrors.ErrInvalidInput, "toolview.ParseResult", "invalid envelope: %v", err)
	}
	return r, nil
}

// Options 视图构建参数。
type Options struct {
	TopN int
}

// View 单个工具的渲染实现。
//
// Guard 在任何字段访问之前检查整个负载, 返回 nil 才会调用 Build;
// Build 只接收通过守卫的负载, 可以直接断言字段类型。
type View struct {
	Guard func(data any) error
	Build func(data any, opts Options) *element.Element
}

// Observer 工具渲染观测钩子。
type Observer interface {
	ObserveTool(tool, outcome string)
}

// Registry 工具名 → View。
type Registry struct {
	views    map[string]View
	interp   *render.Interpreter
	opts     Options
	observer Observer
}

// NewRegistry 创建空注册表; topN <= 0 时使用 DefaultTopN。
func NewRegistry(interp *render.Interpreter, topN int, observer Observer) *Registry {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Registry{
		views:    make(map[string]View),
		interp:   interp,
		opts:     Options{TopN: topN},
		observer: observer,
	}
}

// DefaultRegistry 注册全部内置工具视图。
func DefaultRegistry(interp *render.Interpreter, topN int, observer Observer) *Registry {
	r := NewRegistry(interp, topN, observer)
	for name, v := range builtinViews() {
		r.views[name] = v
	}
	return r
}

// Register 添加或替换工具视图。
func (r *Registry) Register(tool string, v View) error {
	if tool == "" || v.Guard == nil || v.Build == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "toolview.Register", "tool name, guard and build are required")
	}
	r.views[tool] = v
	return nil
}

// Tools 已注册的工具名 (排序)。
func (r *Registry) Tools() []string {
	out := make([]string, 0, len(r.views))
	for k := range r.views {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has 报告工具是否有专用视图。
func (r *Registry) Has(tool string) bool {
	_, ok := r.views[tool]
	return ok
}

// Render 渲染一次工具调用结果。
//
// 未注册的工具返回 (nil, false), 由宿主展示原始输出;
// success=false、守卫失败或构建异常统一返回 Unavailable 占位节点。
func (r *Registry) Render(tool string, res Result) (node *render.Node, ok bool) {
	v, found := r.views[tool]
	if !found {
		r.observe(tool, OutcomeUnknown)
		return nil, false
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Warn("toolview: build panicked", logger.FieldTool, tool, logger.FieldError, fmt.Sprint(p))
			r.observe(tool, OutcomeUnavailable)
			node, ok = render.Unavailable(render.Issue{Code: apperrors.CodePayloadMismatch, Message: fmt.Sprint(p)}), true
		}
	}()

	if !res.Success {
		r.observe(tool, OutcomeUnavailable)
		msg := util.FirstNonEmpty(res.Error, "tool reported success=false")
		return render.Unavailable(render.Issue{Code: apperrors.CodeUpstream, Message: msg}), true
	}

	if err := v.Guard(res.Data); err != nil {
		logger.Warn("toolview: payload rejected", logger.FieldTool, tool, logger.FieldError, err)
		r.observe(tool, OutcomeUnavailable)
		return render.Unavailable(render.Issue{Code: apperrors.CodePayloadMismatch, Message: err.Error()}), true
	}

	el := v.Build(res.Data, r.opts)
	r.observe(tool, OutcomeRendered)
	return r.interp.Render(el, nil), true
}

func (r *Registry) observe(tool, outcome string) {
	if r.observer == nil {
		return
	}
	if outcome == OutcomeUnknown {
		tool = "unknown"
	}
	r.observer.ObserveTool(tool, outcome)
}
