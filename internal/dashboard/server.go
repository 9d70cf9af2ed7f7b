// Package dashboard 生成式 UI 的 HTTP 服务 (gin): REST + SSE + WebSocket。
package dashboard

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/multi-agent/go-genui/internal/catalog"
	"github.com/multi-agent/go-genui/internal/entity"
	"github.com/multi-agent/go-genui/internal/metrics"
	"github.com/multi-agent/go-genui/internal/render"
	"github.com/multi-agent/go-genui/internal/state"
	"github.com/multi-agent/go-genui/internal/toolview"
)

// Deps 服务依赖 (一次注入)。Resolver 与 Metrics 可为 nil。
type Deps struct {
	Interp   *render.Interpreter
	Tools    *toolview.Registry
	State    *state.Store
	Resolver *entity.Resolver
	Metrics  *metrics.Metrics

	SSEKeepalive      time.Duration
	WSMaxMessageBytes int64
}

// Server HTTP 服务。
type Server struct {
	router   *gin.Engine
	deps     Deps
	cat      *catalog.Catalog
	bus      *EventBus
	upgrader websocket.Upgrader
	unsub    func()
}

// NewServer 创建服务并把状态变更接到事件总线。
func NewServer(deps Deps) *Server {
	if deps.SSEKeepalive <= 0 {
		deps.SSEKeepalive = 30 * time.Second
	}
	if deps.WSMaxMessageBytes <= 0 {
		deps.WSMaxMessageBytes = 1 << 20
	}
	if deps.State == nil {
		deps.State = state.NewStore(nil)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s := &Server{
		router:   r,
		deps:     deps,
		cat:      deps.Interp.Catalog(),
		bus:      NewEventBus(),
		upgrader: websocket.Upgrader{CheckOrigin: checkLocalOrigin},
	}
	s.unsub = deps.State.Subscribe(func(c state.Change) {
		s.bus.Publish(Event{Type: "state_changed", Data: c})
	})
	s.registerRoutes()
	return s
}

// Engine 返回 Gin 引擎。
func (s *Server) Engine() *gin.Engine { return s.router }

// Bus 返回事件总线。
func (s *Server) Bus() *EventBus { return s.bus }

// Close 断开与状态仓库的订阅。
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}
