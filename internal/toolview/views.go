// views.go — 内置工具视图: 仓库排行、开发者排行、生态概览、活跃度趋势。
package toolview

import (
	"fmt"
	"sort"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/coerce"
	"github.com/multi-agent/go-genui/internal/element"
)

// 内置工具名
const (
	ToolTopRepositories  = "get_top_repositories"
	ToolTopDevelopers    = "get_top_developers"
	ToolEcosystemSummary = "get_ecosystem_summary"
	ToolActivityTrend    = "get_activity_trend"
)

func builtinViews() map[string]View {
	return map[string]View{
		ToolTopRepositories: {Guard: guardRepositories, Build: buildTopRepositories},
		ToolTopDevelopers: {
			Guard: guardEntries(requireString("login"), requireNumber("contributions"), optionalNumber("repositories")),
			Build: buildTopDevelopers,
		},
		ToolEcosystemSummary: {
			Guard: guardEntries(requireString("name"), requireNumber("repositories"), requireNumber("developers"), requireNumber("stars")),
			Build: buildEcosystemSummary,
		},
		ToolActivityTrend: {
			Guard: guardEntries(requireString("date"), requireNumber("commits"), optionalString("ecosystem")),
			Build: buildActivityTrend,
		},
	}
}

func el(kind string, props map[string]any, children ...*element.Element) *element.Element {
	if props == nil {
		props = map[string]any{}
	}
	return &element.Element{Type: kind, Props: props, Children: children}
}

func column(key, header, format string) any {
	return map[string]any{"key": key, "header": header, "format": format}
}

// ranked 按 score 降序稳定排序后取前 n 条。
func ranked(list []map[string]any, score string, n int) []map[string]any {
	sorted := append([]map[string]any(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return coerce.NumberOr(sorted[i][score], 0) > coerce.NumberOr(sorted[j][score], 0)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func subtitle(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d results", total)
	}
	return fmt.Sprintf("Top %d of %d", shown, total)
}

// ========================================
// get_top_repositories
// ========================================

// repoSlug full_name 优先, 否则拼接 owner/name。
func repoSlug(m map[string]any) string {
	if s, ok := m["full_name"].(string); ok && s != "" {
		return s
	}
	owner, _ := m["owner"].(string)
	name, _ := m["name"].(string)
	if owner == "" || name == "" {
		return ""
	}
	return owner + "/" + name
}

func guardRepositories(data any) error {
	list, err := entries(data)
	if err != nil {
		return err
	}
	checks := []fieldCheck{requireNumber("stars"), optionalNumber("forks"), optionalString("ecosystem")}
	for i, m := range list {
		if repoSlug(m) == "" {
			return mismatch("entry %d: expected full_name or owner and name", i)
		}
		for _, check := range checks {
			if msg := check(m); msg != "" {
				return mismatch("entry %d: %s", i, msg)
			}
		}
	}
	return nil
}

func buildTopRepositories(data any, opts Options) *element.Element {
	list, _ := entries(data)
	top := ranked(list, "stars", opts.TopN)

	rows := make([]any, 0, len(top))
	for i, m := range top {
		eco, _ := m["ecosystem"].(string)
		rows = append(rows, map[string]any{
			"rank":       float64(i + 1),
			"repository": repoSlug(m),
			"stars":      coerce.NumberOr(m["stars"], 0),
			"forks":      coerce.NumberOr(m["forks"], 0),
			"ecosystem":  eco,
		})
	}
	return el(catalog.KindCard, map[string]any{"title": "Top repositories", "description": subtitle(len(top), len(list))},
		el(catalog.KindTable, map[string]any{
			"data": rows,
			"columns": []any{
				column("rank", "#", "number"),
				column("repository", "Repository", "text"),
				column("stars", "Stars", "compact"),
				column("forks", "Forks", "compact"),
				column("ecosystem", "Ecosystem", "text"),
			},
		}),
	)
}

// ========================================
// get_top_developers
// ========================================

func buildTopDevelopers(data any, opts Options) *element.Element {
	list, _ := entries(data)
	top := ranked(list, "contributions", opts.TopN)

	rows := make([]any, 0, len(top))
	for i, m := range top {
		rows = append(rows, map[string]any{
			"rank":          float64(i + 1),
			"login":         m["login"],
			"contributions": coerce.NumberOr(m["contributions"], 0),
			"repositories":  coerce.NumberOr(m["repositories"], 0),
		})
	}
	return el(catalog.KindCard, map[string]any{"title": "Top developers", "description": subtitle(len(top), len(list))},
		el(catalog.KindTable, map[string]any{
			"data": rows,
			"columns": []any{
				column("rank", "#", "number"),
				column("login", "Developer", "text"),
				column("contributions", "Contributions", "compact"),
				column("repositories", "Repositories", "number"),
			},
		}),
	)
}

// ========================================
// get_ecosystem_summary
// ========================================

// buildEcosystemSummary 每个生态一张卡片, 保持上游顺序。
func buildEcosystemSummary(data any, opts Options) *element.Element {
	list, _ := entries(data)
	if len(list) > opts.TopN {
		list = list[:opts.TopN]
	}

	cards := make([]*element.Element, 0, len(list))
	for _, m := range list {
		metric := func(label, key string) *element.Element {
			return el(catalog.KindMetric, map[string]any{
				"label": label, "value": coerce.NumberOr(m[key], 0), "format": "compact",
			})
		}
		cards = append(cards, el(catalog.KindCard, map[string]any{"title": m["name"]},
			el(catalog.KindStack, map[string]any{"direction": "row"},
				metric("Repositories", "repositories"),
				metric("Developers", "developers"),
				metric("Stars", "stars"),
			),
		))
	}
	columns := float64(min(3, max(1, len(cards))))
	return el(catalog.KindGrid, map[string]any{"columns": columns}, cards...)
}

// ========================================
// get_activity_trend
// ========================================

// buildActivityTrend 同一日期的多条记录求和, 按日期升序; 趋势不截断。
func buildActivityTrend(data any, _ Options) *element.Element {
	list, _ := entries(data)
	rows := make([]any, 0, len(list))
	for _, m := range list {
		rows = append(rows, map[string]any{"date": m["date"], "commits": coerce.NumberOr(m["commits"], 0)})
	}
	return el(catalog.KindCard, map[string]any{"title": "Activity trend"},
		el(catalog.KindLineChart, map[string]any{
			"data": rows, "xKey": "date", "yKey": "commits", "aggregate": "sum",
		}),
	)
}
