// termview.go — 节点到终端文本的转换。
package termview

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/chartdata"
	"github.com/multi-agent/go-genui/internal/coerce"
	"github.com/multi-agent/go-genui/internal/render"
)

// DefaultBarWidth 柱状图最长条的字符数。
const DefaultBarWidth = 30

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Renderer 终端渲染器, 无状态可复用。
type Renderer struct {
	styles   Styles
	barWidth int
}

// New 创建渲染器; barWidth <= 0 使用 DefaultBarWidth。
func New(barWidth int) *Renderer {
	if barWidth <= 0 {
		barWidth = DefaultBarWidth
	}
	return &Renderer{styles: DefaultStyles(), barWidth: barWidth}
}

// RenderAll 多棵树之间空一行。
func (r *Renderer) RenderAll(nodes []*render.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, r.Render(n))
	}
	return strings.Join(parts, "\n\n")
}

// Render 渲染一棵节点树。
func (r *Renderer) Render(n *render.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case render.KindFallback:
		return r.fallback(n)
	case render.KindEmpty:
		return r.styles.Muted.Render(n.Text)
	case render.KindUnavailable:
		return r.styles.Fallback.Render("! " + n.Text)
	case catalog.KindStack:
		return r.stack(n)
	case catalog.KindGrid:
		return r.grid(n)
	case catalog.KindCard:
		return r.card(n)
	case catalog.KindHeading:
		return r.heading(n)
	case catalog.KindText:
		return r.text(n)
	case catalog.KindMetric:
		return r.metric(n)
	case catalog.KindBarChart:
		return r.titled(n, r.bars(n.Data, str(n.Props, "xKey"), str(n.Props, "yKey"), false))
	case catalog.KindPieChart:
		return r.titled(n, r.bars(n.Data, str(n.Props, "nameKey"), str(n.Props, "valueKey"), true))
	case catalog.KindLineChart:
		return r.titled(n, r.line(n.Data, str(n.Props, "xKey"), []chartdata.Series{{DataKey: str(n.Props, "yKey")}}))
	case catalog.KindComposedChart:
		return r.titled(n, r.line(n.Data, str(n.Props, "xKey"), n.Series))
	case catalog.KindTable:
		return r.titled(n, r.table(n))
	default:
		return r.styles.Muted.Render("<" + n.Kind + ">")
	}
}

func (r *Renderer) children(n *render.Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, r.Render(c))
	}
	return out
}

// ========================================
// 布局
// ========================================

func (r *Renderer) stack(n *render.Node) string {
	kids := r.children(n)
	if str(n.Props, "direction") == "row" {
		return joinRow(kids)
	}
	return lipgloss.JoinVertical(lipgloss.Left, kids...)
}

func (r *Renderer) grid(n *render.Node) string {
	cols := int(num(n.Props, "columns"))
	if cols < 1 {
		cols = 1
	}
	kids := r.children(n)
	var rows []string
	for i := 0; i < len(kids); i += cols {
		rows = append(rows, joinRow(kids[i:min(i+cols, len(kids))]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func joinRow(items []string) string {
	spaced := make([]string, 0, 2*len(items))
	for i, s := range items {
		if i > 0 {
			spaced = append(spaced, "  ")
		}
		spaced = append(spaced, s)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, spaced...)
}

func (r *Renderer) card(n *render.Node) string {
	var parts []string
	if t := str(n.Props, "title"); t != "" {
		parts = append(parts, r.styles.Title.Render(t))
	}
	if d := str(n.Props, "description"); d != "" {
		parts = append(parts, r.styles.Muted.Render(d))
	}
	parts = append(parts, r.children(n)...)
	return r.styles.Card.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// ========================================
// 内容
// ========================================

func (r *Renderer) heading(n *render.Node) string {
	prefix := strings.Repeat("#", max(1, int(num(n.Props, "level"))))
	return r.styles.Heading.Render(prefix + " " + n.Text)
}

func (r *Renderer) text(n *render.Node) string {
	switch str(n.Props, "variant") {
	case "muted", "caption":
		return r.styles.Muted.Render(n.Text)
	}
	return r.styles.Body.Render(n.Text)
}

func (r *Renderer) metric(n *render.Node) string {
	value := r.styles.Bold.Render(n.Text)
	switch str(n.Props, "trend") {
	case "up":
		value += " " + r.styles.Up.Render("▲")
	case "down":
		value += " " + r.styles.Down.Render("▼")
	}
	return lipgloss.JoinVertical(lipgloss.Left, r.styles.Muted.Render(str(n.Props, "label")), value)
}

// ========================================
// 图表
// ========================================

func (r *Renderer) titled(n *render.Node, body string) string {
	if t := str(n.Props, "title"); t != "" {
		return lipgloss.JoinVertical(lipgloss.Left, r.styles.Title.Render(t), body)
	}
	return body
}

// bars 每行一条方块条; share 为 true 时附带占比 (饼图)。
func (r *Renderer) bars(data []chartdata.Row, labelKey, valueKey string, share bool) string {
	labelWidth, peak, total := 0, 0.0, 0.0
	for _, row := range data {
		labelWidth = max(labelWidth, lipgloss.Width(fmt.Sprint(row[labelKey])))
		v := coerce.NumberOr(row[valueKey], 0)
		peak = math.Max(peak, v)
		total += v
	}

	lines := make([]string, 0, len(data))
	for _, row := range data {
		v := coerce.NumberOr(row[valueKey], 0)
		length := 0
		if peak > 0 && v > 0 {
			length = max(1, int(math.Round(v/peak*float64(r.barWidth))))
		}
		label := fmt.Sprintf("%-*s", labelWidth, fmt.Sprint(row[labelKey]))
		tail := coerce.FormatNumber(v)
		if share && total > 0 {
			tail += " (" + coerce.FormatPercent(v/total*100) + ")"
		}
		lines = append(lines, label+" "+r.styles.Bar.Render(strings.Repeat("█", length))+" "+tail)
	}
	return strings.Join(lines, "\n")
}

// line 每个系列一行 sparkline, 末尾给出首尾 x 值。
func (r *Renderer) line(data []chartdata.Row, xKey string, series []chartdata.Series) string {
	if len(data) == 0 {
		return ""
	}
	nameWidth := 0
	for _, s := range series {
		nameWidth = max(nameWidth, lipgloss.Width(seriesName(s)))
	}

	lines := make([]string, 0, len(series)+1)
	for _, s := range series {
		values := make([]float64, len(data))
		for i, row := range data {
			values[i] = coerce.NumberOr(row[s.DataKey], 0)
		}
		lines = append(lines, fmt.Sprintf("%-*s ", nameWidth, seriesName(s))+r.styles.Bar.Render(Sparkline(values)))
	}
	first, last := fmt.Sprint(data[0][xKey]), fmt.Sprint(data[len(data)-1][xKey])
	lines = append(lines, r.styles.Muted.Render(fmt.Sprintf("%*s %s … %s", nameWidth, "", first, last)))
	return strings.Join(lines, "\n")
}

func seriesName(s chartdata.Series) string {
	if s.Name != "" {
		return s.Name
	}
	return s.DataKey
}

// Sparkline 把数值映射到八级方块字符; 全部相等时取中间一级。
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := len(sparkRunes) / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

// ========================================
// 表格
// ========================================

func (r *Renderer) table(n *render.Node) string {
	cols, _ := n.Props["columns"].([]render.Column)
	display, _ := n.Props["display"].([][]string)
	if len(cols) == 0 {
		return ""
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.Header)
	}
	for _, line := range display {
		for i := range cols {
			if i < len(line) {
				widths[i] = max(widths[i], lipgloss.Width(line[i]))
			}
		}
	}

	cell := func(s string, i int) string {
		st := lipgloss.NewStyle().Width(widths[i])
		if cols[i].Align == "right" {
			st = st.Align(lipgloss.Right)
		}
		return st.Render(s)
	}

	var sb strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = r.styles.Header.Render(cell(c.Header, i))
	}
	sb.WriteString(strings.Join(header, " │ "))
	for _, line := range display {
		sb.WriteString("\n")
		cells := make([]string, len(cols))
		for i := range cols {
			v := ""
			if i < len(line) {
				v = line[i]
			}
			cells[i] = cell(v, i)
		}
		sb.WriteString(strings.Join(cells, " │ "))
	}
	if truncated, _ := n.Props["truncated"].(bool); truncated {
		total, _ := n.Props["totalRows"].(int)
		sb.WriteString("\n" + r.styles.Muted.Render(fmt.Sprintf("… %d of %d rows shown", len(display), total)))
	}
	return sb.String()
}

// ========================================
// 占位
// ========================================

func (r *Renderer) fallback(n *render.Node) string {
	parts := []string{r.styles.Fallback.Render("? " + n.Text)}
	parts = append(parts, r.children(n)...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func str(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func num(props map[string]any, key string) float64 {
	return coerce.NumberOr(props[key], 0)
}
