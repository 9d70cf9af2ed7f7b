package chartdata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRows(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"array", []any{map[string]any{"a": 1}, map[string]any{"a": 2}}, 2},
		{"array_skips_scalars", []any{map[string]any{"a": 1}, "x", 3.0}, 1},
		{"object", map[string]any{"a": 1}, 1},
		{"nil", nil, 0},
		{"string", "rows", 0},
		{"number", 12.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRows(tt.in)
			require.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseAggregate(t *testing.T) {
	for _, s := range []string{"", "sum", "count", "avg"} {
		_, ok := ParseAggregate(s)
		assert.True(t, ok, s)
	}
	a, ok := ParseAggregate("median")
	assert.False(t, ok)
	assert.Equal(t, AggregateNone, a)
}

func TestProcessChartDataCoercesAndSortsDates(t *testing.T) {
	rows := []Row{
		{"month": "2024-02", "v": "10"},
		{"month": "2024-01", "v": 5.0},
	}
	got := ProcessChartData(rows, "month", "v", AggregateNone)
	want := []Row{
		{"month": "2024-01", "v": 5.0},
		{"month": "2024-02", "v": 10.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ProcessChartData mismatch (-want +got):\n%s", diff)
	}
	// 输入不被修改
	assert.Equal(t, "10", rows[0]["v"])
}

func TestProcessChartDataBadValuesBecomeZero(t *testing.T) {
	rows := []Row{{"x": "a", "y": "oops"}, {"x": "b"}}
	got := ProcessChartData(rows, "x", "y", AggregateNone)
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0]["y"])
	assert.Equal(t, 0.0, got[1]["y"])
}

func TestProcessChartDataAggregate(t *testing.T) {
	rows := []Row{
		{"lang": "go", "stars": 10.0},
		{"lang": "rust", "stars": "4"},
		{"lang": "go", "stars": 20.0},
		{"lang": "go", "stars": "bad"},
	}

	tests := []struct {
		agg  Aggregate
		want []Row
	}{
		{AggregateSum, []Row{{"lang": "go", "stars": 30.0}, {"lang": "rust", "stars": 4.0}}},
		{AggregateCount, []Row{{"lang": "go", "stars": 3.0}, {"lang": "rust", "stars": 1.0}}},
		{AggregateAvg, []Row{{"lang": "go", "stars": 10.0}, {"lang": "rust", "stars": 4.0}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			got := ProcessChartData(rows, "lang", "stars", tt.agg)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProcessChartDataGroupsNumericAndTextX(t *testing.T) {
	rows := []Row{{"x": 1.0, "y": 2.0}, {"x": "1", "y": 3.0}}
	got := ProcessChartData(rows, "x", "y", AggregateSum)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0]["x"])
	assert.Equal(t, 5.0, got[0]["y"])
}

func TestSortByDateNonDateKeepsOrder(t *testing.T) {
	rows := []Row{{"x": "beta"}, {"x": "alpha"}}
	got := SortByDate(rows, "x")
	assert.Equal(t, "beta", got[0]["x"])
}

func TestSortByDateUnparseableLast(t *testing.T) {
	rows := []Row{
		{"x": "2024-03-01"},
		{"x": "later"},
		{"x": "2024-01-01"},
		{"x": "unknown"},
	}
	got := SortByDate(rows, "x")
	var xs []string
	for _, r := range got {
		xs = append(xs, r["x"].(string))
	}
	assert.Equal(t, []string{"2024-01-01", "2024-03-01", "later", "unknown"}, xs)
}

func TestNormalizeComposedSeries(t *testing.T) {
	raw := []any{
		map[string]any{"type": "bar", "dataKey": "a"},
		map[string]any{"type": "pie", "dataKey": "b"},
		map[string]any{"type": "line", "dataKey": "c", "name": "Trend", "curveType": "linear", "dot": true},
		map[string]any{"type": "area"},
		"garbage",
	}
	got := NormalizeComposedSeries(raw)
	require.Len(t, got, 2)

	assert.Equal(t, SeriesBar, got[0].Type)
	assert.Equal(t, Palette[0], got[0].Color)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, DefaultCurveType, got[0].CurveType)
	assert.Equal(t, DefaultStrokeWidth, got[0].StrokeWidth)
	assert.Equal(t, DefaultFillOpacity, got[0].FillOpacity)

	// pie 被丢弃后 line 取调色板第二个颜色
	assert.Equal(t, SeriesLine, got[1].Type)
	assert.Equal(t, Palette[1], got[1].Color)
	assert.Equal(t, "Trend", got[1].Name)
	assert.Equal(t, "linear", got[1].CurveType)
	assert.True(t, got[1].Dot)
}

func TestNormalizeComposedSeriesOverrides(t *testing.T) {
	got := NormalizeComposedSeries([]any{map[string]any{
		"type": "area", "dataKey": "v", "color": "#000000",
		"curveType": "wobbly", "barSize": "12", "stackId": 1.0,
		"strokeWidth": 3.0, "fillOpacity": 2.0,
	}})
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "#000000", s.Color)
	assert.Equal(t, DefaultCurveType, s.CurveType)
	assert.Equal(t, 12.0, s.BarSize)
	assert.Equal(t, "1", s.StackID)
	assert.Equal(t, 3.0, s.StrokeWidth)
	assert.Equal(t, DefaultFillOpacity, s.FillOpacity)
}

func TestNormalizeComposedSeriesNonArray(t *testing.T) {
	assert.Empty(t, NormalizeComposedSeries(nil))
	assert.Empty(t, NormalizeComposedSeries(map[string]any{"type": "bar"}))
}

func TestPaletteColorCycles(t *testing.T) {
	assert.Equal(t, Palette[0], PaletteColor(len(Palette)))
	assert.Equal(t, Palette[1], PaletteColor(len(Palette)+1))
}

func TestProcessComposedChartData(t *testing.T) {
	series := NormalizeComposedSeries([]any{
		map[string]any{"type": "bar", "dataKey": "a"},
		map[string]any{"type": "line", "dataKey": "b"},
	})
	rows := []Row{
		{"x": "q1", "a": 2.0, "b": "4"},
		{"x": "q1", "a": 4.0},
		{"x": "q2", "a": "1", "b": 1.0},
	}

	avg := ProcessComposedChartData(rows, "x", series, AggregateAvg)
	want := []Row{
		{"x": "q1", "a": 3.0, "b": 4.0},
		{"x": "q2", "a": 1.0, "b": 1.0},
	}
	if diff := cmp.Diff(want, avg); diff != "" {
		t.Errorf("avg mismatch (-want +got):\n%s", diff)
	}

	count := ProcessComposedChartData(rows, "x", series, AggregateCount)
	assert.Equal(t, 2.0, count[0]["a"])
	assert.Equal(t, 1.0, count[0]["b"])

	plain := ProcessComposedChartData(rows, "x", series, AggregateNone)
	require.Len(t, plain, 3)
	assert.Equal(t, 0.0, plain[1]["b"])
}

// TestAggregateConservation sum 与 count 守恒: 分组归约前后总和/总行数不变。
func TestAggregateConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	mkRows := func(xs []int, ys []int) []Row {
		n := min(len(xs), len(ys))
		rows := make([]Row, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, Row{"x": float64(xs[i]), "y": float64(ys[i])})
		}
		return rows
	}

	properties.Property("sum is conserved", prop.ForAll(
		func(xs []int, ys []int) bool {
			rows := mkRows(xs, ys)
			var before float64
			for _, r := range rows {
				before += r["y"].(float64)
			}
			var after float64
			for _, r := range ProcessChartData(rows, "x", "y", AggregateSum) {
				after += r["y"].(float64)
			}
			return before == after
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.Property("count is conserved", prop.ForAll(
		func(xs []int, ys []int) bool {
			rows := mkRows(xs, ys)
			var total float64
			for _, r := range ProcessChartData(rows, "x", "y", AggregateCount) {
				total += r["y"].(float64)
			}
			return int(total) == len(rows)
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t)
}
