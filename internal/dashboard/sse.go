// sse.go — SSE 事件总线 + handler。
package dashboard

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/multi-agent/go-genui/pkg/logger"
)

// EventBus 事件总线 (SSE 推送)。慢订阅者直接丢事件, 不阻塞发布方。
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	nextID      atomic.Int64
}

// Event SSE 事件。
type Event struct {
	Type string
	Data any
}

// NewEventBus 创建事件总线。
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string]chan Event)}
}

// Publish 广播事件。
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe 订阅, 返回订阅 ID 与事件通道。
func (b *EventBus) Subscribe() (string, chan Event) {
	id := fmt.Sprintf("sse-%d", b.nextID.Add(1))
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe 取消订阅。
//
// 不关闭 ch: sseHandler 通过 ctx.Done() 退出。
func (b *EventBus) Unsubscribe(id string) {
	b.mu.Lock()
	delete(b.subscribers, id)
	b.mu.Unlock()
}

// Len 当前订阅数。
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// sseHandler 推送 state_changed 事件, 空闲时按间隔发送 ping。
func (s *Server) sseHandler(c *gin.Context) {
	clientID, ch := s.bus.Subscribe()
	defer func() {
		s.bus.Unsubscribe(clientID)
		logger.Debug("dashboard: SSE client disconnected", logger.FieldClientID, clientID)
	}()
	logger.Debug("dashboard: SSE client connected", logger.FieldClientID, clientID)

	interval := s.deps.SSEKeepalive
	c.Stream(func(w io.Writer) bool {
		keepalive := time.NewTimer(interval)
		defer keepalive.Stop()

		select {
		case evt := <-ch:
			c.SSEvent(evt.Type, evt.Data)
			return true
		case <-keepalive.C:
			c.SSEvent("ping", "keepalive")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
