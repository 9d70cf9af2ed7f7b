// ws.go — WebSocket 会话: 请求-应答式渲染 + 状态变更推送。
//
// 客户端消息:
//
//	{"type": "render",      "id": "1", "element": {...}, "state": {...}}
//	{"type": "render_text", "id": "2", "text": "..."}
//	{"type": "tool_result", "id": "3", "tool": "get_top_repositories", "result": {...}}
//
// 服务端以相同 type 与 id 应答 {"type", "id", "data"} 或 {"type", "id", "error"};
// 状态仓库变更以 {"type": "state_changed", "data": {...}} 推送。
package dashboard

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/multi-agent/go-genui/internal/toolview"
	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

const wsWriteTimeout = 10 * time.Second

// 消息类型
const (
	MsgRender       = "render"
	MsgRenderText   = "render_text"
	MsgToolResult   = "tool_result"
	MsgStateChanged = "state_changed"
	MsgError        = "error"
)

type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Element json.RawMessage `json:"element,omitempty"`
	State   map[string]any  `json:"state,omitempty"`
	Text    string          `json:"text,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsResponse struct {
	Type  string   `json:"type"`
	ID    string   `json:"id,omitempty"`
	Data  any      `json:"data,omitempty"`
	Error *wsError `json:"error,omitempty"`
}

// wsConn gorilla/websocket 不允许并发写, 所有写操作经 wrMu 串行。
type wsConn struct {
	ws   *websocket.Conn
	wrMu sync.Mutex
}

func (c *wsConn) send(resp wsResponse) error {
	c.wrMu.Lock()
	defer c.wrMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.ws.WriteJSON(resp)
}

func (s *Server) wsHandler(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("dashboard: ws upgrade failed", logger.FieldError, err)
		return
	}
	ws.SetReadLimit(s.deps.WSMaxMessageBytes)
	conn := &wsConn{ws: ws}

	clientID, events := s.bus.Subscribe()
	done := make(chan struct{})
	defer func() {
		close(done)
		s.bus.Unsubscribe(clientID)
		_ = ws.Close()
		logger.Debug("dashboard: ws client disconnected", logger.FieldClientID, clientID)
	}()
	logger.Debug("dashboard: ws client connected", logger.FieldClientID, clientID)

	util.SafeGo(func() {
		for {
			select {
			case <-done:
				return
			case evt := <-events:
				if evt.Type != MsgStateChanged {
					continue
				}
				if err := conn.send(wsResponse{Type: MsgStateChanged, Data: evt.Data}); err != nil {
					return
				}
			}
		}
	})

	for {
		var req wsRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("dashboard: ws read error", logger.FieldClientID, clientID, logger.FieldError, err)
			}
			if _, isSyntax := err.(*json.SyntaxError); isSyntax {
				_ = conn.send(wsResponse{Type: MsgError, Error: &wsError{Code: "parse_error", Message: err.Error()}})
				continue
			}
			return
		}
		if err := conn.send(s.handleWS(req)); err != nil {
			return
		}
	}
}

// handleWS 分发一条客户端消息。
func (s *Server) handleWS(req wsRequest) wsResponse {
	resp := wsResponse{Type: req.Type, ID: req.ID}
	fail := func(code, msg string) wsResponse {
		resp.Error = &wsError{Code: code, Message: msg}
		return resp
	}

	switch req.Type {
	case MsgRender:
		node, err := s.doRender(renderRequest{Element: req.Element, State: req.State})
		if err != nil {
			return fail("invalid_element", err.Error())
		}
		resp.Data = node
	case MsgRenderText:
		resp.Data = s.doRenderText(req.Text, req.State)
	case MsgToolResult:
		res, err := toolview.ParseResult(req.Result)
		if err != nil {
			return fail("invalid_envelope", err.Error())
		}
		resp.Data = s.doToolResult(req.Tool, res)
	default:
		return fail("unknown_type", "unknown message type "+req.Type)
	}
	return resp
}
