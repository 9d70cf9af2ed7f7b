// registry.go — kind → 渲染函数的封闭映射。
package render

import (
	"sort"

	"github.com/multi-agent/go-genui/internal/catalog"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
)

// Input 交给渲染函数的已解析元素。
//
// Props 中已不含 $state 引用与 drop 级违规 prop; 容器的 Children 已按文档顺序渲染完毕。
type Input struct {
	Kind     string
	Props    map[string]any
	Children []*Node
	Limits   Limits
}

// RenderFunc 单个 kind 的渲染实现。
type RenderFunc func(in Input) *Node

// Registry 只接受 Catalog 中存在的 kind。
type Registry struct {
	cat *catalog.Catalog
	fns map[string]RenderFunc
}

// NewRegistry 创建空注册表。
func NewRegistry(cat *catalog.Catalog) *Registry {
	return &Registry{cat: cat, fns: make(map[string]RenderFunc)}
}

// Register 绑定 kind 的渲染函数; kind 不在 Catalog 中时返回 ErrUnknownKind。
func (r *Registry) Register(kind string, fn RenderFunc) error {
	if !r.cat.Has(kind) {
		return apperrors.Wrapf(apperrors.ErrUnknownKind, "Registry.Register", "kind %q is not in the catalog", kind)
	}
	if fn == nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "Registry.Register", "nil renderer for %q", kind)
	}
	r.fns[kind] = fn
	return nil
}

// Lookup 返回 kind 的渲染函数。
func (r *Registry) Lookup(kind string) (RenderFunc, bool) {
	fn, ok := r.fns[kind]
	return fn, ok
}

// Catalog 注册表绑定的目录。
func (r *Registry) Catalog() *catalog.Catalog { return r.cat }

// Missing 返回 Catalog 中尚无渲染函数的 kind (排序后)。
func (r *Registry) Missing() []string {
	var out []string
	for _, k := range r.cat.Kinds() {
		if _, ok := r.fns[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry 内置目录 + 内置渲染函数。
func DefaultRegistry() *Registry {
	r := NewRegistry(catalog.Default())
	for kind, fn := range builtinRenderers() {
		if err := r.Register(kind, fn); err != nil {
			panic(err)
		}
	}
	return r
}

func builtinRenderers() map[string]RenderFunc {
	return map[string]RenderFunc{
		catalog.KindStack:         renderStack,
		catalog.KindCard:          renderCard,
		catalog.KindGrid:          renderGrid,
		catalog.KindHeading:       renderHeading,
		catalog.KindText:          renderText,
		catalog.KindMetric:        renderMetric,
		catalog.KindBarChart:      renderXYChart,
		catalog.KindLineChart:     renderXYChart,
		catalog.KindComposedChart: renderComposedChart,
		catalog.KindPieChart:      renderPieChart,
		catalog.KindTable:         renderTable,
	}
}
