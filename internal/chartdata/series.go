package chartdata

import (
	"strconv"

	"github.com/multi-agent/go-genui/internal/coerce"
)

// SeriesType 组合图序列类型, 闭合枚举。
type SeriesType string

const (
	SeriesBar     SeriesType = "bar"
	SeriesLine    SeriesType = "line"
	SeriesArea    SeriesType = "area"
	SeriesScatter SeriesType = "scatter"
)

// SeriesTypes 闭合枚举的全部取值 (Catalog 复用同一份)。
var SeriesTypes = []string{string(SeriesBar), string(SeriesLine), string(SeriesArea), string(SeriesScatter)}

// CurveTypes 允许的曲线插值方式。
var CurveTypes = []string{"monotone", "linear", "natural", "basis", "step", "stepBefore", "stepAfter"}

// Palette 固定调色板, 序列默认色与饼图扇区色按下标循环取用。
var Palette = []string{
	"#8884d8", "#82ca9d", "#ffc658", "#ff7c43",
	"#00c49f", "#0088fe", "#ff8042", "#a4de6c",
}

// 序列默认值
const (
	DefaultCurveType   = "monotone"
	DefaultStrokeWidth = 2.0
	DefaultFillOpacity = 0.3
)

// Series 规整后的序列配置, 所有默认值已注入。
type Series struct {
	Type        SeriesType `json:"type"`
	DataKey     string     `json:"dataKey"`
	YKey        string     `json:"yKey,omitempty"`
	Name        string     `json:"name"`
	Color       string     `json:"color"`
	CurveType   string     `json:"curveType"`
	BarSize     float64    `json:"barSize,omitempty"`
	StackID     string     `json:"stackId,omitempty"`
	StrokeWidth float64    `json:"strokeWidth"`
	FillOpacity float64    `json:"fillOpacity"`
	Dot         bool       `json:"dot"`
}

// PaletteColor 按下标循环取色。
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// NormalizeComposedSeries 规整不可信的序列数组。
//
// type 不在闭合枚举内或缺少 dataKey 的条目被丢弃 (不做默认);
// color 按过滤后的下标从调色板循环分配, 其余字段注入默认值。
func NormalizeComposedSeries(raw any) []Series {
	var items []map[string]any
	switch v := raw.(type) {
	case []map[string]any:
		items = v
	case []any:
		for _, it := range v {
			if m, ok := it.(map[string]any); ok {
				items = append(items, m)
			}
		}
	}

	out := make([]Series, 0, len(items))
	for _, m := range items {
		typ, _ := m["type"].(string)
		if !isSeriesType(typ) {
			continue
		}
		dataKey, _ := m["dataKey"].(string)
		if dataKey == "" {
			continue
		}

		s := Series{
			Type:        SeriesType(typ),
			DataKey:     dataKey,
			Name:        dataKey,
			Color:       PaletteColor(len(out)),
			CurveType:   DefaultCurveType,
			StrokeWidth: DefaultStrokeWidth,
			FillOpacity: DefaultFillOpacity,
		}
		if v, ok := m["yKey"].(string); ok {
			s.YKey = v
		}
		if v, ok := m["name"].(string); ok && v != "" {
			s.Name = v
		}
		if v, ok := m["color"].(string); ok && v != "" {
			s.Color = v
		}
		if v, ok := m["curveType"].(string); ok && contains(CurveTypes, v) {
			s.CurveType = v
		}
		if v, ok := coerce.ToNumber(m["barSize"]); ok && v > 0 {
			s.BarSize = v
		}
		s.StackID = stackID(m["stackId"])
		if v, ok := coerce.ToNumber(m["strokeWidth"]); ok && v >= 0 {
			s.StrokeWidth = v
		}
		if v, ok := coerce.ToNumber(m["fillOpacity"]); ok && v >= 0 && v <= 1 {
			s.FillOpacity = v
		}
		if v, ok := m["dot"].(bool); ok {
			s.Dot = v
		}
		out = append(out, s)
	}
	return out
}

// seriesKeys 组合图需要数值化的列: 每个序列的 dataKey 与 yKey, 去重保序。
func seriesKeys(series []Series) []string {
	seen := make(map[string]struct{}, len(series))
	var keys []string
	for _, s := range series {
		for _, k := range []string{s.DataKey, s.YKey} {
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

func stackID(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func isSeriesType(s string) bool { return contains(SeriesTypes, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
