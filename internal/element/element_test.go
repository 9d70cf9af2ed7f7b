package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNested(t *testing.T) {
	el, err := Parse([]byte(`{
		"type": "Stack",
		"props": {"direction": "column"},
		"children": [
			{"type": "Heading", "props": {"text": "Hi"}},
			"junk",
			{"type": "Metric", "props": {"label": "Stars", "value": 10}}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Stack", el.Type)
	assert.Equal(t, "column", el.Props["direction"])
	require.Len(t, el.Children, 2)
	assert.Equal(t, "Heading", el.Children[0].Type)
	assert.Equal(t, 10.0, el.Children[1].Props["value"])
}

func TestParseFlat(t *testing.T) {
	el, err := Parse([]byte(`{
		"root": "page",
		"elements": {
			"page": {"type": "Card", "props": {"title": "Summary"}, "children": ["m1", "missing", "m2"]},
			"m1": {"type": "Metric", "props": {"label": "A", "value": 1}},
			"m2": {"type": "Metric", "props": {"label": "B", "value": 2}}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Card", el.Type)
	require.Len(t, el.Children, 2)
	assert.Equal(t, "A", el.Children[0].Props["label"])
	assert.Equal(t, "B", el.Children[1].Props["label"])
}

func TestParseFlatCycle(t *testing.T) {
	el, err := Parse([]byte(`{
		"root": "a",
		"elements": {
			"a": {"type": "Stack", "children": ["b"]},
			"b": {"type": "Stack", "children": ["a", "c"]},
			"c": {"type": "Text", "props": {"text": "leaf"}}
		}
	}`))
	require.NoError(t, err)
	require.Len(t, el.Children, 1)
	b := el.Children[0]
	require.Len(t, b.Children, 1)
	assert.Equal(t, "Text", b.Children[0].Type)
	assert.NotNil(t, el.Props)
}

func TestParseDepthLimit(t *testing.T) {
	var m map[string]any
	for i := 0; i < MaxDepth+10; i++ {
		m = map[string]any{"type": "Stack", "children": []any{orEmpty(m)}}
	}
	el := FromValue(m)
	require.NotNil(t, el)

	maxDepth := 0
	el.Walk(func(_ *Element, d int) bool {
		maxDepth = max(maxDepth, d)
		return true
	})
	assert.Equal(t, MaxDepth, maxDepth)
}

func orEmpty(m map[string]any) any {
	if m == nil {
		return map[string]any{"type": "Text"}
	}
	return m
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{`not json`, `[1,2]`, `"Stack"`} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestFromValueNormalizesGoMaps(t *testing.T) {
	el := FromValue(map[string]any{
		"type":  "Table",
		"props": map[string]any{"rows": []map[string]any{{"n": 1}}},
	})
	require.NotNil(t, el)
	rows, ok := el.Props["rows"].([]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, rows[0].(map[string]any)["n"])
}

func TestDataRef(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"ref", map[string]any{"$state": "/repos"}, "/repos", true},
		{"extra_key", map[string]any{"$state": "/a", "x": 1}, "", false},
		{"non_string", map[string]any{"$state": 1.0}, "", false},
		{"scalar", "/repos", "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DataRef(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract(t *testing.T) {
	text := "Here is the overview:\n\n" +
		"```json-render\n" +
		"{\n" +
		"  \"type\": \"Metric\", // headline number\n" +
		"  \"props\": {\"label\": \"Stars\", \"value\": \"https://x//y\",},\n" +
		"}\n" +
		"```\n\n" +
		"and a broken one:\n" +
		"```json\n{ nope\n```\n" +
		"```json\n{\"type\": \"Text\", \"props\": {\"text\": \"done\"}}\n```\n"

	els := Extract(text)
	require.Len(t, els, 2)
	assert.Equal(t, "Metric", els[0].Type)
	assert.Equal(t, "https://x//y", els[0].Props["value"])
	assert.Equal(t, "Text", els[1].Type)
}

func TestExtractNoBlocks(t *testing.T) {
	assert.Empty(t, Extract("plain markdown, no UI"))
}
