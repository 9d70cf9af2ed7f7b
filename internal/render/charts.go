// charts.go — 图表与表格: 数据统一经 chartdata 规整后输出。
package render

import (
	"sort"
	"strconv"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/chartdata"
	"github.com/multi-agent/go-genui/internal/coerce"
)

const defaultChartHeight = 300

func chartProps(in Input) map[string]any {
	props := map[string]any{"height": numberProp(in.Props, "height", defaultChartHeight)}
	copyProps(props, in.Props, "title")
	return props
}

func aggregateOf(props map[string]any) chartdata.Aggregate {
	s, _ := props["aggregate"].(string)
	agg, _ := chartdata.ParseAggregate(s)
	return agg
}

// renderXYChart BarChart / LineChart。
func renderXYChart(in Input) *Node {
	rows := chartdata.NormalizeRows(in.Props["data"])
	props := chartProps(in)
	if len(rows) == 0 {
		return Empty(in.Kind, props)
	}

	xKey := stringProp(in.Props, "xKey", "")
	yKey := stringProp(in.Props, "yKey", "")
	props["xKey"] = xKey
	props["yKey"] = yKey
	props["color"] = stringProp(in.Props, "color", chartdata.PaletteColor(0))
	switch in.Kind {
	case catalog.KindBarChart:
		props["horizontal"], _ = in.Props["horizontal"].(bool)
	case catalog.KindLineChart:
		props["curveType"] = stringProp(in.Props, "curveType", chartdata.DefaultCurveType)
	}

	return &Node{
		Kind:  in.Kind,
		Props: props,
		Data:  chartdata.ProcessChartData(rows, xKey, yKey, aggregateOf(in.Props)),
	}
}

func renderComposedChart(in Input) *Node {
	rows := chartdata.NormalizeRows(in.Props["data"])
	series := chartdata.NormalizeComposedSeries(in.Props["series"])
	props := chartProps(in)
	if len(rows) == 0 || len(series) == 0 {
		return Empty(in.Kind, props)
	}

	xKey := stringProp(in.Props, "xKey", "")
	props["xKey"] = xKey
	return &Node{
		Kind:   in.Kind,
		Props:  props,
		Data:   chartdata.ProcessComposedChartData(rows, xKey, series, aggregateOf(in.Props)),
		Series: series,
	}
}

// renderPieChart 扇区颜色按行序循环取调色板。
func renderPieChart(in Input) *Node {
	rows := chartdata.NormalizeRows(in.Props["data"])
	props := chartProps(in)
	if len(rows) == 0 {
		return Empty(in.Kind, props)
	}

	nameKey := stringProp(in.Props, "nameKey", "")
	valueKey := stringProp(in.Props, "valueKey", "")
	data := chartdata.ProcessChartData(rows, nameKey, valueKey, aggregateOf(in.Props))

	colors := make([]string, len(data))
	for i := range data {
		colors[i] = chartdata.PaletteColor(i)
	}
	props["nameKey"] = nameKey
	props["valueKey"] = valueKey
	props["colors"] = colors
	props["innerRadius"] = numberProp(in.Props, "innerRadius", 0)
	return &Node{Kind: in.Kind, Props: props, Data: data}
}

// ========================================
// 表格
// ========================================

// Column 表格列的规整形态。
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
	Align  string `json:"align"`
	Format string `json:"format"`
}

func isNumericFormat(f string) bool {
	switch f {
	case "compact", "number", "currency", "percent":
		return true
	}
	return false
}

// renderTable 行数截断到 Limits.TableMaxRows; 数字格式列的单元格强制为数字,
// 并在 Props["display"] 中给出格式化后的文本。
func renderTable(in Input) *Node {
	rows := chartdata.NormalizeRows(in.Props["data"])
	props := map[string]any{}
	copyProps(props, in.Props, "title")
	if len(rows) == 0 {
		return Empty(in.Kind, props)
	}

	cols := tableColumns(in.Props["columns"], rows)
	total := len(rows)
	limit := in.Limits.TableMaxRows
	if limit <= 0 {
		limit = catalog.DefaultTableMaxRows
	}
	if total > limit {
		rows = rows[:limit]
		props["truncated"] = true
	}
	props["totalRows"] = total
	props["columns"] = cols

	data := make([]chartdata.Row, 0, len(rows))
	display := make([][]string, 0, len(rows))
	for _, r := range rows {
		out := make(chartdata.Row, len(cols))
		line := make([]string, len(cols))
		for i, c := range cols {
			v := r[c.Key]
			if isNumericFormat(c.Format) {
				n := coerce.NumberOr(v, 0)
				out[c.Key] = n
				line[i] = formatValue(n, c.Format)
				continue
			}
			out[c.Key] = v
			line[i] = cellText(v)
		}
		data = append(data, out)
		display = append(display, line)
	}
	props["display"] = display
	return &Node{Kind: in.Kind, Props: props, Data: data}
}

// tableColumns 未声明列时取首行的键 (排序), 首行该值为数字则右对齐紧凑格式。
func tableColumns(raw any, rows []chartdata.Row) []Column {
	var cols []Column
	if list, ok := raw.([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key, _ := m["key"].(string)
			if key == "" { // 缺少 key 的列单独丢弃
				continue
			}
			c := Column{Key: key}
			c.Header = stringProp(m, "header", key)
			c.Format = stringProp(m, "format", "text")
			if c.Format != "text" && !isNumericFormat(c.Format) {
				c.Format = "text"
			}
			def := "left"
			if isNumericFormat(c.Format) {
				def = "right"
			}
			c.Align = stringProp(m, "align", def)
			switch c.Align {
			case "left", "center", "right":
			default:
				c.Align = def
			}
			cols = append(cols, c)
		}
	}
	if len(cols) > 0 {
		return cols
	}

	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := Column{Key: k, Header: k, Align: "left", Format: "text"}
		if _, isNum := rows[0][k].(float64); isNum {
			c.Align, c.Format = "right", "compact"
		}
		cols = append(cols, c)
	}
	return cols
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return "…"
	}
}
