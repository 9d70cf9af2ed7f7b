// Package termview 把 render.Node 树画到终端 (lipgloss)。
//
// 浏览器端的图表库不在本仓库内; 这里是 CLI 用的简易后端:
// 柱状图画成方块条, 折线画成 sparkline, 表格按列宽补齐, 占位节点原样标出。
package termview

import "github.com/charmbracelet/lipgloss"

// 配色
var (
	colorForeground = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#f2f2f2"}
	colorMuted      = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	colorBorder     = lipgloss.AdaptiveColor{Light: "#dce0e5", Dark: "#2a3850"}
	colorAccent     = lipgloss.Color("#3b82f6")
	colorUp         = lipgloss.Color("#22c55e")
	colorDown       = lipgloss.Color("#ef4444")
	colorWarning    = lipgloss.Color("#FFC107")
)

// Styles 各类节点使用的样式。
type Styles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Card     lipgloss.Style
	Bar      lipgloss.Style
	Up       lipgloss.Style
	Down     lipgloss.Style
	Fallback lipgloss.Style
	Header   lipgloss.Style
}

// DefaultStyles 默认样式。
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(colorForeground),
		Body:     lipgloss.NewStyle().Foreground(colorForeground),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Bold:     lipgloss.NewStyle().Bold(true),
		Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		Bar:      lipgloss.NewStyle().Foreground(colorAccent),
		Up:       lipgloss.NewStyle().Foreground(colorUp),
		Down:     lipgloss.NewStyle().Foreground(colorDown),
		Fallback: lipgloss.NewStyle().Foreground(colorWarning).Border(lipgloss.NormalBorder()).BorderForeground(colorWarning).Padding(0, 1),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
	}
}
