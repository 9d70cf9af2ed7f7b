// prompt.go — 目录 → 模型系统提示词。
//
// 提示词完全由 Catalog 派生: 新增一个 Descriptor 即出现在输出中, 无需另行维护文本。
package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRules 固定使用规则, 追加在组件列表之后。
var DefaultRules = []string{
	"Only use the component types listed above; any other type is shown as a placeholder.",
	"Prefer a chart over a table or prose when it makes a trend or comparison clearer.",
	`Bind large arrays with {"$state": "/path"} instead of inlining the data.`,
	fmt.Sprintf("Keep tables to at most %d rows; summarize or aggregate the rest.", DefaultTableMaxRows),
	`Numbers may be numbers or numeric strings; never pre-format them ("1.2K", "$3").`,
	"Use aggregate=sum|count|avg instead of computing group totals yourself.",
	"Answer ordinary questions in plain markdown; emit json-render only for structured data.",
}

var titleCaser = cases.Title(language.English)

const elementShape = "```json-render\n" + `{
  "root": "page",
  "elements": {
    "page": {"type": "Card", "props": {"title": "..."}, "children": ["chart"]},
    "chart": {"type": "BarChart", "props": {"data": {"$state": "/rows"}, "xKey": "name", "yKey": "stars"}}
  }
}` + "\n```"

// Prompt 把目录与规则序列化为一段指令文本。纯函数, 无错误路径。
func Prompt(c *Catalog, rules []string) string {
	var b strings.Builder
	b.WriteString("## Generative UI (json-render)\n\n")
	b.WriteString("When the answer contains structured data (metrics, rankings, trends, tables),\n")
	b.WriteString("emit a json-render code block describing the UI:\n\n")
	b.WriteString(elementShape)
	b.WriteString("\n\nA nested form {\"type\", \"props\", \"children\": [...]} is also accepted.\n")

	b.WriteString("\n### Components\n")
	for _, cat := range categories(c) {
		fmt.Fprintf(&b, "\n**%s:**\n", titleCaser.String(cat))
		for _, d := range c.Descriptors() {
			if d.Category == cat {
				b.WriteString(descriptorLine(d))
				b.WriteByte('\n')
			}
		}
	}

	if len(rules) > 0 {
		b.WriteString("\n### Rules\n\n")
		for i, r := range rules {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
	}
	return b.String()
}

// descriptorLine 单个组件的一行签名。
func descriptorLine(d Descriptor) string {
	sigs := make([]string, 0, len(d.Props))
	for _, p := range d.Props {
		sigs = append(sigs, p.Signature())
	}
	line := fmt.Sprintf("- **%s** — %s (props: %s", d.Kind, d.Description, strings.Join(sigs, ", "))
	if d.AcceptsChildren() {
		line += "; supports children"
	}
	return line + ")"
}

// categories 按首次出现顺序去重。
func categories(c *Catalog) []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range c.Descriptors() {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out
}
