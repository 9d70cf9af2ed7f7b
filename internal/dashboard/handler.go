// handler.go — REST API handlers。
package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/element"
	"github.com/multi-agent/go-genui/internal/entity"
	"github.com/multi-agent/go-genui/internal/render"
	"github.com/multi-agent/go-genui/internal/state"
	"github.com/multi-agent/go-genui/internal/toolview"
	apperrors "github.com/multi-agent/go-genui/pkg/errors"
)

// registerRoutes 注册路由。
func (s *Server) registerRoutes() {
	api := s.router.Group("/api")

	api.GET("/catalog", s.getCatalog)
	api.GET("/catalog/prompt", s.getPrompt)
	api.POST("/validate", s.validate)

	api.POST("/render", s.renderElement)
	api.POST("/render/text", s.renderText)
	api.POST("/tool-results/:tool", s.renderToolResult)

	api.GET("/entities/resolve", s.resolveEntity)

	api.GET("/state", s.getState)
	api.PUT("/state/*path", s.setState)
	api.DELETE("/state/*path", s.deleteState)

	api.GET("/events", s.sseHandler)
	api.GET("/ws", s.wsHandler)

	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}
}

// ========================================
// 渲染服务 (REST 与 WebSocket 共用)
// ========================================

// renderRequest POST /api/render 与 ws "render" 消息的载荷。
type renderRequest struct {
	Element json.RawMessage `json:"element"`
	State   map[string]any  `json:"state,omitempty"`
}

// textResult 一段助手回复的渲染结果。
type textResult struct {
	Nodes []*render.Node `json:"nodes"`
	Links []entity.Link  `json:"links"`
}

// toolResult 工具结果渲染; Handled=false 时宿主展示原始输出。
type toolResult struct {
	Handled bool         `json:"handled"`
	Node    *render.Node `json:"node,omitempty"`
}

// snapshot 请求携带的 state 覆盖实时状态仓库。
func (s *Server) snapshot(override map[string]any) *state.Snapshot {
	if override != nil {
		return state.NewSnapshot(override)
	}
	return s.deps.State.Snapshot()
}

func withID(n *render.Node) *render.Node {
	if n != nil {
		n.ID = uuid.NewString()
	}
	return n
}

func (s *Server) doRender(req renderRequest) (*render.Node, error) {
	if len(req.Element) == 0 {
		return nil, apperrors.New("dashboard.render", "element is required")
	}
	el, err := element.Parse(req.Element)
	if err != nil {
		return nil, err
	}
	return withID(s.deps.Interp.Render(el, s.snapshot(req.State))), nil
}

func (s *Server) doRenderText(text string, override map[string]any) textResult {
	nodes := s.deps.Interp.RenderText(text, s.snapshot(override))
	for _, n := range nodes {
		withID(n)
	}
	links := entity.FindRefs(text)
	if links == nil {
		links = []entity.Link{}
	}
	if nodes == nil {
		nodes = []*render.Node{}
	}
	return textResult{Nodes: nodes, Links: links}
}

func (s *Server) doToolResult(tool string, res toolview.Result) toolResult {
	node, ok := s.deps.Tools.Render(tool, res)
	return toolResult{Handled: ok, Node: withID(node)}
}

// ========================================
// Catalog
// ========================================

func (s *Server) getCatalog(c *gin.Context) {
	success(c, catalog.Export(s.cat))
}

func (s *Server) getPrompt(c *gin.Context) {
	c.String(http.StatusOK, catalog.Prompt(s.cat, catalog.DefaultRules))
}

func (s *Server) validate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	el, err := element.Parse(raw)
	if err != nil {
		badRequest(c, "invalid_element", err.Error())
		return
	}
	vs := s.cat.ValidateTree(el)
	if vs == nil {
		vs = []catalog.Violation{}
	}
	success(c, gin.H{"valid": !catalog.Rejected(vs), "violations": vs})
}

// ========================================
// Render
// ========================================

func (s *Server) renderElement(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	node, err := s.doRender(req)
	if err != nil {
		badRequest(c, "invalid_element", err.Error())
		return
	}
	success(c, node)
}

func (s *Server) renderText(c *gin.Context) {
	var req struct {
		Text  string         `json:"text" binding:"required"`
		State map[string]any `json:"state,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	success(c, s.doRenderText(req.Text, req.State))
}

func (s *Server) renderToolResult(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	res, err := toolview.ParseResult(raw)
	if err != nil {
		badRequest(c, "invalid_envelope", err.Error())
		return
	}
	success(c, s.doToolResult(c.Param("tool"), res))
}

// ========================================
// Entities
// ========================================

func (s *Server) resolveEntity(c *gin.Context) {
	ref, ok := entity.ParseRef(c.Query("path"))
	if !ok {
		badRequest(c, "not_entity", "path is not an entity reference")
		return
	}
	if s.deps.Resolver == nil {
		unavailable(c, "entity resolver is not configured")
		return
	}
	ent, err := s.deps.Resolver.Resolve(c.Request.Context(), ref)
	switch {
	case err == nil:
		success(c, ent)
	case apperrors.Is(err, apperrors.ErrNotFound):
		notFound(c, err.Error())
	default:
		badGateway(c, err)
	}
}

// ========================================
// State
// ========================================

func (s *Server) getState(c *gin.Context) {
	success(c, s.deps.State.Snapshot().Data())
}

func (s *Server) setState(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		badRequest(c, "invalid_request", err.Error())
		return
	}
	path := c.Param("path")
	if err := s.deps.State.Set(c.Request.Context(), path, value); err != nil {
		badRequest(c, "invalid_path", err.Error())
		return
	}
	success(c, gin.H{"path": path})
}

func (s *Server) deleteState(c *gin.Context) {
	path := c.Param("path")
	if !s.deps.State.Delete(c.Request.Context(), path) {
		notFound(c, "no value at "+path)
		return
	}
	success(c, gin.H{"path": path})
}
