package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/entity"
	"github.com/multi-agent/go-genui/internal/metrics"
	"github.com/multi-agent/go-genui/internal/render"
	"github.com/multi-agent/go-genui/internal/state"
	"github.com/multi-agent/go-genui/internal/toolview"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
)

func init() { gin.SetMode(gin.TestMode) }

type stubSource struct{}

func (stubSource) Ecosystems(context.Context) ([]map[string]any, error) {
	return []map[string]any{{"name": "Ethereum"}}, nil
}

func (stubSource) Repositories(context.Context) ([]map[string]any, error) {
	return nil, apperrors.Wrap(apperrors.ErrUpstream, "stub", "down")
}

func (stubSource) Developer(_ context.Context, id string) (map[string]any, error) {
	return nil, apperrors.Wrapf(apperrors.ErrNotFound, "stub", "%s", id)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := metrics.New()
	interp := render.NewInterpreter(render.DefaultRegistry(), render.WithObserver(m))
	s := NewServer(Deps{
		Interp:       interp,
		Tools:        toolview.DefaultRegistry(interp, 0, m),
		State:        state.NewStore(nil),
		Resolver:     entity.NewResolver(stubSource{}, entity.WithObserver(m)),
		Metrics:      m,
		SSEKeepalive: time.Second,
	})
	t.Cleanup(s.Close)
	return s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, s *Server, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, code)
	docs := decode[[]catalog.DescriptorDoc](t, env.Data)
	assert.Len(t, docs, len(catalog.Builtins()))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/prompt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "### Components")
	assert.Contains(t, rec.Body.String(), "**ComposedChart**")
}

func TestValidateRoute(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, http.MethodPost, "/api/validate", `{"type": "Stack", "children": [{"type": "Marquee"}]}`)
	require.Equal(t, http.StatusOK, code)
	got := decode[struct {
		Valid      bool                `json:"valid"`
		Violations []catalog.Violation `json:"violations"`
	}](t, env.Data)
	assert.False(t, got.Valid)
	require.Len(t, got.Violations, 1)
	assert.Equal(t, "/children/0", got.Violations[0].Node)

	code, env = do(t, s, http.MethodPost, "/api/validate", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_element", env.Error.Code)
}

func TestRenderUsesLiveStateOrOverride(t *testing.T) {
	s := newTestServer(t)

	code, _ := do(t, s, http.MethodPut, "/api/state/sales", `[{"month": "2024-02", "revenue": "10"}, {"month": "2024-01", "revenue": 5}]`)
	require.Equal(t, http.StatusOK, code)

	chart := `{"type": "BarChart", "props": {"data": {"$state": "/sales"}, "xKey": "month", "yKey": "revenue"}}`
	code, env := do(t, s, http.MethodPost, "/api/render", `{"element": `+chart+`}`)
	require.Equal(t, http.StatusOK, code)
	node := decode[render.Node](t, env.Data)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, catalog.KindBarChart, node.Kind)
	require.Len(t, node.Data, 2)
	assert.Equal(t, "2024-01", node.Data[0]["month"])
	assert.Equal(t, 10.0, node.Data[1]["revenue"])

	code, env = do(t, s, http.MethodPost, "/api/render", `{"element": `+chart+`, "state": {}}`)
	require.Equal(t, http.StatusOK, code)
	node = decode[render.Node](t, env.Data)
	assert.Equal(t, render.KindFallback, node.Kind)
	assert.Equal(t, "No data for /sales", node.Text)

	code, env = do(t, s, http.MethodPost, "/api/render", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_element", env.Error.Code)
}

func TestRenderText(t *testing.T) {
	s := newTestServer(t)
	text := "Here is [ecosystem/Ethereum].\n```json-render\n{\"type\": \"Text\", \"props\": {\"text\": \"hi\"}}\n```"
	body, _ := json.Marshal(map[string]string{"text": text})

	code, env := do(t, s, http.MethodPost, "/api/render/text", string(body))
	require.Equal(t, http.StatusOK, code)
	got := decode[textResult](t, env.Data)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "hi", got.Nodes[0].Text)
	require.Len(t, got.Links, 1)
	assert.Equal(t, entity.TypeEcosystem, got.Links[0].Ref.Type)
}

func TestToolResults(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, http.MethodPost, "/api/tool-results/get_weather", `{"success": true, "data": {}}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[toolResult](t, env.Data).Handled)

	code, env = do(t, s, http.MethodPost, "/api/tool-results/get_top_repositories",
		`{"success": true, "data": [{"full_name": "a/b", "stars": "not-a-number"}]}`)
	require.Equal(t, http.StatusOK, code)
	got := decode[toolResult](t, env.Data)
	assert.True(t, got.Handled)
	assert.Equal(t, render.KindUnavailable, got.Node.Kind)

	code, env = do(t, s, http.MethodPost, "/api/tool-results/get_top_repositories", `nope`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_envelope", env.Error.Code)
}

func TestResolveEntity(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path string
		code int
	}{
		{"ecosystem/ETHEREUM", http.StatusOK},
		{"developer/ghost", http.StatusNotFound},
		{"repository/a/b", http.StatusBadGateway},
		{"https://example.com", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, _ := do(t, s, http.MethodGet, "/api/entities/resolve?path="+tt.path, "")
			assert.Equal(t, tt.code, code)
		})
	}

	s.deps.Resolver = nil
	code, _ := do(t, s, http.MethodGet, "/api/entities/resolve?path=ecosystem/x", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStateRoutes(t *testing.T) {
	s := newTestServer(t)

	code, _ := do(t, s, http.MethodPut, "/api/state/user/name", `"ada"`)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, code)
	data := decode[map[string]any](t, env.Data)
	assert.Equal(t, map[string]any{"name": "ada"}, data["user"])

	code, _ = do(t, s, http.MethodPut, "/api/state/user", `{bad`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodDelete, "/api/state/user/name", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodDelete, "/api/state/user/name", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStateChangesReachBus(t *testing.T) {
	s := newTestServer(t)
	id, ch := s.Bus().Subscribe()
	defer s.Bus().Unsubscribe(id)

	code, _ := do(t, s, http.MethodPut, "/api/state/flag", `true`)
	require.Equal(t, http.StatusOK, code)

	select {
	case evt := <-ch:
		assert.Equal(t, MsgStateChanged, evt.Type)
		assert.Equal(t, state.Change{Op: state.OpSet, Path: "/flag"}, evt.Data)
	case <-time.After(time.Second):
		t.Fatal("no state_changed event")
	}
}

func TestEventBusDropsForSlowSubscriber(t *testing.T) {
	b := NewEventBus()
	id, ch := b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: "x", Data: i})
	}
	assert.Len(t, ch, cap(ch))
	b.Unsubscribe(id)
	assert.Equal(t, 0, b.Len())
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/tool-results/get_weather", `{"success": true}`)

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `genui_tool_render_total{outcome="unknown",tool="unknown"} 1`)
}

func TestCheckLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1", true},
		{"http://[::1]:8080", true},
		{"https://evil.example", false},
		{"http://localhost.evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, checkLocalOrigin(r), tt.origin)
	}
}

// ========================================
// WebSocket
// ========================================

func dialWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Engine())
	t.Cleanup(srv.Close)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

type wsReply struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error *wsError        `json:"error"`
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg string) wsReply {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply wsReply
	require.NoError(t, ws.ReadJSON(&reply))
	return reply
}

func TestWebSocketSession(t *testing.T) {
	s := newTestServer(t)
	ws := dialWS(t, s)

	reply := roundTrip(t, ws, `{"type": "render", "id": "1", "element": {"type": "Heading", "props": {"text": "Hello"}}}`)
	assert.Equal(t, MsgRender, reply.Type)
	assert.Equal(t, "1", reply.ID)
	node := decode[render.Node](t, reply.Data)
	assert.Equal(t, "Hello", node.Text)

	reply = roundTrip(t, ws, `{"type": "tool_result", "id": "2", "tool": "get_activity_trend", "result": {"success": false}}`)
	got := decode[toolResult](t, reply.Data)
	assert.Equal(t, render.KindUnavailable, got.Node.Kind)

	reply = roundTrip(t, ws, `{"type": "render_text", "id": "3", "text": "no blocks"}`)
	assert.Empty(t, decode[textResult](t, reply.Data).Nodes)

	reply = roundTrip(t, ws, `{"type": "launch", "id": "4"}`)
	require.NotNil(t, reply.Error)
	assert.Equal(t, "unknown_type", reply.Error.Code)

	reply = roundTrip(t, ws, `{not json`)
	assert.Equal(t, MsgError, reply.Type)
}

func TestWebSocketPushesStateChanges(t *testing.T) {
	s := newTestServer(t)
	ws := dialWS(t, s)

	// 确认会话已建立并订阅
	roundTrip(t, ws, `{"type": "render_text", "id": "0", "text": ""}`)

	req := httptest.NewRequest(http.MethodPut, "/api/state/count", bytes.NewReader([]byte(`3`)))
	s.Engine().ServeHTTP(httptest.NewRecorder(), req)

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply wsReply
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, MsgStateChanged, reply.Type)
	change := decode[state.Change](t, reply.Data)
	assert.Equal(t, "/count", change.Path)
}
