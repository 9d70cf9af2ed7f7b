// Package chartdata 图表数据变换引擎: 行规整、按 x 分组聚合、日期排序、多序列配置规整。
//
// 所有函数都是纯函数: 输入行不被修改, 输出为新分配的行。
// 数值字段统一经 coerce.NumberOr(v, 0) 规整, 坏数据降级为 0 而不是报错。
package chartdata

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"github.com/multi-agent/go-genui/internal/coerce"
)

// Row 一个数据点, 标量可能是数字也可能是数字文本。
type Row = map[string]any

// Aggregate 每个 x 分组的归约方式, 空值表示不聚合。
type Aggregate string

const (
	AggregateNone  Aggregate = ""
	AggregateSum   Aggregate = "sum"
	AggregateCount Aggregate = "count"
	AggregateAvg   Aggregate = "avg"
)

// ParseAggregate 解析聚合方式; 空串返回 (AggregateNone, true), 未知值返回 false。
func ParseAggregate(s string) (Aggregate, bool) {
	switch a := Aggregate(s); a {
	case AggregateNone, AggregateSum, AggregateCount, AggregateAvg:
		return a, true
	default:
		return AggregateNone, false
	}
}

// NormalizeRows 数组原样返回 (跳过非对象元素), 单个对象包成单元素数组, 其他返回空数组。
func NormalizeRows(data any) []Row {
	switch v := data.(type) {
	case []Row:
		return v
	case []any:
		out := make([]Row, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []Row{v}
	default:
		return []Row{}
	}
}

// ProcessChartData 单序列数据准备。
//
// agg 为空: 每行 yKey 强制转数字 (失败为 0)。
// agg 为 sum/count/avg: 按 String(row[xKey]) 分组归约, 每组输出 {xKey: 原始 x, yKey: 归约值},
// 分组顺序为首次出现顺序。两种情况最后都走日期排序启发式。
func ProcessChartData(rows []Row, xKey, yKey string, agg Aggregate) []Row {
	if agg == AggregateNone || !agg.valid() {
		out := make([]Row, 0, len(rows))
		for _, r := range rows {
			c := cloneRow(r)
			c[yKey] = coerce.NumberOr(r[yKey], 0)
			out = append(out, c)
		}
		return SortByDate(out, xKey)
	}

	var order []*bucket
	index := make(map[string]*bucket)
	for _, r := range rows {
		b := lookupBucket(index, &order, r[xKey])
		b.add(yKey, r[yKey], true)
	}

	out := make([]Row, 0, len(order))
	for _, b := range order {
		out = append(out, Row{xKey: b.x, yKey: b.reduce(yKey, agg)})
	}
	return SortByDate(out, xKey)
}

// ProcessComposedChartData 多序列版本: 同一 x 分组内每个 dataKey 维护独立的 sum/count。
//
// 聚合时某一行缺少该 dataKey 不计入该序列的 count, avg 因此只对有值的行取平均。
func ProcessComposedChartData(rows []Row, xKey string, series []Series, agg Aggregate) []Row {
	keys := seriesKeys(series)

	if agg == AggregateNone || !agg.valid() {
		out := make([]Row, 0, len(rows))
		for _, r := range rows {
			c := cloneRow(r)
			for _, k := range keys {
				c[k] = coerce.NumberOr(r[k], 0)
			}
			out = append(out, c)
		}
		return SortByDate(out, xKey)
	}

	var order []*bucket
	index := make(map[string]*bucket)
	for _, r := range rows {
		b := lookupBucket(index, &order, r[xKey])
		for _, k := range keys {
			v, present := r[k]
			b.add(k, v, present && v != nil)
		}
	}

	out := make([]Row, 0, len(order))
	for _, b := range order {
		row := Row{xKey: b.x}
		for _, k := range keys {
			row[k] = b.reduce(k, agg)
		}
		out = append(out, row)
	}
	return SortByDate(out, xKey)
}

func (a Aggregate) valid() bool {
	_, ok := ParseAggregate(string(a))
	return ok
}

// ========================================
// 分组累加器
// ========================================

type bucket struct {
	x      any
	sums   map[string]float64
	counts map[string]int
}

func lookupBucket(index map[string]*bucket, order *[]*bucket, x any) *bucket {
	key := groupKey(x)
	if b, ok := index[key]; ok {
		return b
	}
	b := &bucket{x: x, sums: make(map[string]float64), counts: make(map[string]int)}
	index[key] = b
	*order = append(*order, b)
	return b
}

func (b *bucket) add(key string, v any, counted bool) {
	b.sums[key] += coerce.NumberOr(v, 0)
	if counted {
		b.counts[key]++
	}
}

func (b *bucket) reduce(key string, agg Aggregate) float64 {
	switch agg {
	case AggregateCount:
		return float64(b.counts[key])
	case AggregateAvg:
		if b.counts[key] == 0 {
			return 0
		}
		return b.sums[key] / float64(b.counts[key])
	default:
		return b.sums[key]
	}
}

// groupKey x 值的字符串形式, 数字 1 与文本 "1" 落入同一组。
func groupKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func cloneRow(r Row) Row {
	c := make(Row, len(r)+1)
	for k, v := range r {
		c[k] = v
	}
	return c
}

// ========================================
// 日期排序启发式
// ========================================

// datePrefix "数字后跟 - 或 /": 2024-01、2024/01/15、1/2/2024。
var datePrefix = regexp.MustCompile(`^\d+[-/]`)

// SortByDate 首行 x 值像日期时按日期升序稳定排序, 否则保持输入顺序。
//
// 无法解析的 x 值排在所有可解析行之后, 彼此保持原有相对顺序。
func SortByDate(rows []Row, xKey string) []Row {
	if len(rows) < 2 {
		return rows
	}
	first, ok := rows[0][xKey].(string)
	if !ok || !datePrefix.MatchString(first) {
		return rows
	}

	type keyed struct {
		row Row
		at  time.Time
		ok  bool
	}
	items := make([]keyed, len(rows))
	for i, r := range rows {
		at, ok := parseDate(r[xKey])
		items[i] = keyed{row: r, at: at, ok: ok}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.at.Before(b.at)
	})

	out := slices.Grow([]Row(nil), len(items))
	for _, it := range items {
		out = append(out, it.row)
	}
	return out
}

func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
