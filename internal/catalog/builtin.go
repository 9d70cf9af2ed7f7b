// builtin.go — 内置组件目录 (布局 / 内容 / 图表与表格)。
package catalog

import (
	"sync"

	"github.com/multi-agent/go-genui/internal/chartdata"
)

// 组件分类, 提示词按此分组。
const (
	CategoryLayout  = "layout"
	CategoryContent = "content"
	CategoryCharts  = "charts"
)

// 内置 kind 名。
const (
	KindStack         = "Stack"
	KindCard          = "Card"
	KindGrid          = "Grid"
	KindHeading       = "Heading"
	KindText          = "Text"
	KindMetric        = "Metric"
	KindBarChart      = "BarChart"
	KindLineChart     = "LineChart"
	KindComposedChart = "ComposedChart"
	KindPieChart      = "PieChart"
	KindTable         = "Table"
)

// DefaultTableMaxRows 表格行数上限, 提示词规则与渲染器共用。
const DefaultTableMaxRows = 20

var childrenSlot = []string{"children"}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(Builtins()...)
	if err != nil {
		panic(err)
	}
	return c
})

// Default 进程级内置目录, 首次调用时编译。
func Default() *Catalog { return defaultCatalog() }

// ========================================
// 共享 prop 声明
// ========================================

func enum(vals ...string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

var (
	rowsProp = Prop{
		Name: "data", Type: TypeAny, Required: true, Bindable: true, Hint: "[{...}]",
		Description: "rows; a single object is one row, numeric fields may be numeric strings",
	}
	titleProp     = Prop{Name: "title", Type: TypeString}
	heightProp    = Prop{Name: "height", Type: TypeNumber}
	aggregateProp = Prop{Name: "aggregate", Type: TypeString, Enum: enum("sum", "count", "avg")}
	xKeyProp      = Prop{Name: "xKey", Type: TypeString, Required: true}
	yKeyProp      = Prop{Name: "yKey", Type: TypeString, Required: true}
	colorProp     = Prop{Name: "color", Type: TypeString}
	gapProp       = Prop{Name: "gap", Type: TypeNumber}
)

// Builtins 内置描述符, 顺序即提示词中的顺序。
func Builtins() []Descriptor {
	return []Descriptor{
		// 布局
		{
			Kind: KindStack, Category: CategoryLayout, Slots: childrenSlot,
			Description: "vertical or horizontal layout",
			Props: []Prop{
				{Name: "direction", Type: TypeString, Enum: enum("row", "column")},
				gapProp,
			},
		},
		{
			Kind: KindCard, Category: CategoryLayout, Slots: childrenSlot,
			Description: "titled container",
			Props: []Prop{
				titleProp,
				{Name: "description", Type: TypeString},
			},
		},
		{
			Kind: KindGrid, Category: CategoryLayout, Slots: childrenSlot,
			Description: "responsive grid of equal cells",
			Props: []Prop{
				{Name: "columns", Type: TypeInteger, Enum: []any{1, 2, 3, 4, 5, 6}},
				gapProp,
			},
		},

		// 内容
		{
			Kind: KindHeading, Category: CategoryContent,
			Description: "section heading",
			Props: []Prop{
				{Name: "text", Type: TypeString, Required: true},
				{Name: "level", Type: TypeInteger, Enum: []any{1, 2, 3, 4}},
			},
		},
		{
			Kind: KindText, Category: CategoryContent,
			Description: "paragraph of plain text",
			Props: []Prop{
				{Name: "text", Type: TypeString, Required: true, Bindable: true},
				{Name: "variant", Type: TypeString, Enum: enum("body", "muted", "caption")},
			},
		},
		{
			Kind: KindMetric, Category: CategoryContent,
			Description: "single headline number",
			Props: []Prop{
				{Name: "label", Type: TypeString, Required: true},
				{Name: "value", Type: TypeScalar, Required: true, Bindable: true},
				{Name: "format", Type: TypeString, Enum: enum("compact", "number", "currency", "percent")},
				{Name: "change", Type: TypeScalar, Bindable: true},
				{Name: "trend", Type: TypeString, Enum: enum("up", "down", "flat")},
			},
		},

		// 图表 / 表格
		{
			Kind: KindBarChart, Category: CategoryCharts,
			Description: "bar chart of one numeric field per x value",
			Props: []Prop{
				rowsProp, xKeyProp, yKeyProp, aggregateProp, titleProp, colorProp, heightProp,
				{Name: "horizontal", Type: TypeBoolean},
			},
		},
		{
			Kind: KindLineChart, Category: CategoryCharts,
			Description: "line chart, good for trends over time",
			Props: []Prop{
				rowsProp, xKeyProp, yKeyProp, aggregateProp, titleProp, colorProp, heightProp,
				{Name: "curveType", Type: TypeString, Enum: enum(chartdata.CurveTypes...)},
			},
		},
		{
			Kind: KindComposedChart, Category: CategoryCharts,
			Description: "several bar/line/area/scatter series sharing one x axis",
			Props: []Prop{
				rowsProp, xKeyProp,
				{
					Name: "series", Type: TypeArray, Required: true,
					Items: &Prop{Type: TypeObject, Lenient: true, Fields: []Prop{
						{Name: "type", Type: TypeString, Hint: "bar|line|area|scatter"},
						{Name: "dataKey", Type: TypeString, Required: true},
						{Name: "name", Type: TypeString},
						{Name: "stackId", Type: TypeAny},
					}},
				},
				aggregateProp, titleProp, heightProp,
			},
		},
		{
			Kind: KindPieChart, Category: CategoryCharts,
			Description: "share of a total per category",
			Props: []Prop{
				rowsProp,
				{Name: "nameKey", Type: TypeString, Required: true},
				{Name: "valueKey", Type: TypeString, Required: true},
				aggregateProp, titleProp, heightProp,
				{Name: "innerRadius", Type: TypeNumber},
			},
		},
		{
			Kind: KindTable, Category: CategoryCharts,
			Description: "data table, at most 20 rows are shown",
			Props: []Prop{
				rowsProp,
				{
					Name: "columns", Type: TypeArray,
					Items: &Prop{Type: TypeObject, Lenient: true, Fields: []Prop{
						{Name: "key", Type: TypeString, Required: true},
						{Name: "header", Type: TypeString},
						{Name: "align", Type: TypeString, Enum: enum("left", "center", "right")},
						{Name: "format", Type: TypeString, Enum: enum("text", "compact", "number", "currency", "percent")},
					}},
				},
				titleProp,
			},
		},
	}
}
