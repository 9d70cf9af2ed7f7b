package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multi-agent/go-genui/internal/entity"
	"github.com/multi-agent/go-genui/internal/render"
	"github.com/multi-agent/go-genui/internal/toolview"
)

var (
	_ render.Observer   = (*Metrics)(nil)
	_ toolview.Observer = (*Metrics)(nil)
	_ entity.Observer   = (*Metrics)(nil)
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveElement("Table", "rendered")
	m.ObserveElement("Table", "rendered")
	m.ObserveElement("Fallback", "fallback")
	m.ObserveTool("get_top_repositories", "unavailable")
	m.ObserveLookup("ecosystem", "hit")
	m.ObserveRender(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.renderTotal.WithLabelValues("Table", "rendered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderTotal.WithLabelValues("Fallback", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolTotal.WithLabelValues("get_top_repositories", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entityTotal.WithLabelValues("ecosystem", "hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveTool("get_activity_trend", "rendered")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `genui_tool_render_total{outcome="rendered",tool="get_activity_trend"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestInterpreterReportsToMetrics(t *testing.T) {
	m := New()
	interp := render.NewInterpreter(render.DefaultRegistry(), render.WithObserver(m))
	raw := []byte(`{"type": "Stack", "children": [{"type": "Heading", "props": {"text": "Hi"}}, {"type": "Marquee"}]}`)

	nodes := interp.RenderText("```json-render\n"+string(raw)+"\n```", nil)
	require.Len(t, nodes, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderTotal.WithLabelValues("Heading", render.OutcomeRendered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderTotal.WithLabelValues("Fallback", render.OutcomeFallback)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderDuration))
}
