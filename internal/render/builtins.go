// builtins.go — 布局与内容类组件的渲染函数。
package render

import (
	"fmt"

	"github.com/multi-agent/go-genui/internal/coerce"
)

// ========================================
// 布局
// ========================================

func renderStack(in Input) *Node {
	return &Node{
		Kind: in.Kind,
		Props: map[string]any{
			"direction": stringProp(in.Props, "direction", "column"),
			"gap":       numberProp(in.Props, "gap", 16),
		},
		Children: in.Children,
	}
}

func renderCard(in Input) *Node {
	props := map[string]any{}
	copyProps(props, in.Props, "title", "description")
	return &Node{Kind: in.Kind, Props: props, Children: in.Children}
}

func renderGrid(in Input) *Node {
	return &Node{
		Kind: in.Kind,
		Props: map[string]any{
			"columns": numberProp(in.Props, "columns", 2),
			"gap":     numberProp(in.Props, "gap", 16),
		},
		Children: in.Children,
	}
}

// ========================================
// 内容
// ========================================

func renderHeading(in Input) *Node {
	return &Node{
		Kind:  in.Kind,
		Props: map[string]any{"level": numberProp(in.Props, "level", 2)},
		Text:  stringProp(in.Props, "text", ""),
	}
}

func renderText(in Input) *Node {
	return &Node{
		Kind:  in.Kind,
		Props: map[string]any{"variant": stringProp(in.Props, "variant", "body")},
		Text:  stringProp(in.Props, "text", ""),
	}
}

// renderMetric 数值按 format 格式化; 非数字值原样显示。
func renderMetric(in Input) *Node {
	format := stringProp(in.Props, "format", "compact")
	props := map[string]any{
		"label":  stringProp(in.Props, "label", ""),
		"format": format,
	}

	display := fmt.Sprint(in.Props["value"])
	if v, ok := coerce.ToNumber(in.Props["value"]); ok {
		props["value"] = v
		display = formatValue(v, format)
	}
	props["display"] = display

	if change, ok := coerce.ToNumber(in.Props["change"]); ok {
		props["change"] = change
		trend := "flat"
		switch {
		case change > 0:
			trend = "up"
		case change < 0:
			trend = "down"
		}
		props["trend"] = stringProp(in.Props, "trend", trend)
	} else if t, ok := in.Props["trend"].(string); ok {
		props["trend"] = t
	}
	return &Node{Kind: in.Kind, Props: props, Text: display}
}

// formatValue 表格单元格与 Metric 共用的数字格式。
func formatValue(v float64, format string) string {
	switch format {
	case "number":
		return coerce.FormatGrouped(v)
	case "currency":
		return coerce.FormatCurrency(v)
	case "percent":
		return coerce.FormatPercent(v)
	default:
		return coerce.FormatNumber(v)
	}
}

// ========================================
// prop 读取
// ========================================

func stringProp(props map[string]any, name, def string) string {
	if s, ok := props[name].(string); ok && s != "" {
		return s
	}
	return def
}

func numberProp(props map[string]any, name string, def float64) float64 {
	if v, ok := coerce.ToNumber(props[name]); ok {
		return v
	}
	return def
}

func copyProps(dst, src map[string]any, names ...string) {
	for _, n := range names {
		if v, ok := src[n]; ok && v != nil {
			dst[n] = v
		}
	}
}
