// Package coerce 数值强制转换与紧凑格式化。
//
// 上游 (工具结果 / 模型输出) 的数字编码不一致: 同一字段可能是 12、"12" 或 "12.0"。
// 所有解析都走本包唯一入口 ToNumber, 渲染器不自行 strconv。
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer 英文 locale 分组 (1,234,567)。message.Printer 并发只读安全。
var printer = message.NewPrinter(language.English)

// ToNumber 把数字或数字文本转换为 float64。
//
// 数字类型原样返回; 文本 trim 后解析, 空串 / 非数字 / NaN / Inf 返回 ok=false;
// 其他类型 (nil, bool, map, slice) 一律 ok=false。永不 panic。
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		return parseText(string(n))
	case string:
		return parseText(n)
	default:
		return 0, false
	}
}

func parseText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumberOr ToNumber 失败时返回 def (图表/表格上下文传 0)。
func NumberOr(v any, def float64) float64 {
	if f, ok := ToNumber(v); ok {
		return f
	}
	return def
}

// IsNumeric 报告 v 能否被 ToNumber 解析, 供类型守卫使用。
func IsNumeric(v any) bool {
	_, ok := ToNumber(v)
	return ok
}

// FormatNumber 紧凑格式: >=1e6 → "M", >=1e3 → "K", 否则分组整数。
//
// 缩放后恰为整数时不带小数 (2000000 → "2M"), 否则保留一位 (1500 → "1.5K")。
func FormatNumber(v float64) string {
	switch {
	case v >= 1_000_000:
		return scaled(v/1_000_000) + "M"
	case v >= 1_000:
		return scaled(v/1_000) + "K"
	default:
		return FormatGrouped(v)
	}
}

func scaled(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatGrouped 四舍五入为整数并按千分位分组 (-5000 → "-5,000")。
func FormatGrouped(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatCurrency 美元金额, 两位小数 (1234.5 → "$1,234.50")。
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + printer.Sprintf("$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// FormatPercent 百分比, 一位小数。v 已是百分数 (12.34 → "12.3%")。
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
