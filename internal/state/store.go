// store.go — 可变状态存储 + 变更监听 + 顶层键持久化。
package state

import (
	"context"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

// Persister 顶层键的持久化后端 (store.UIStateStore 实现)。
type Persister interface {
	LoadAll(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// 变更类型
const (
	OpSet     = "set"
	OpDelete  = "delete"
	OpReplace = "replace"
)

// Change 一次已提交的变更, 推送给监听者。
type Change struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// Store 线程安全的状态树。
type Store struct {
	mu        sync.RWMutex
	data      map[string]any
	persister Persister
	// persistMu 在释放 mu 之前获取, 保证持久化顺序与提交顺序一致
	persistMu sync.Mutex

	listenerMu sync.Mutex
	listeners  map[int]func(Change)
	nextID     int
}

// NewStore 创建空存储, persister 可为 nil。
func NewStore(persister Persister) *Store {
	return &Store{
		data:      map[string]any{},
		persister: persister,
		listeners: map[int]func(Change){},
	}
}

// Hydrate 从 persister 加载全部顶层键, 覆盖当前内容。
func (s *Store) Hydrate(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.LoadAll(ctx)
	if err != nil {
		return apperrors.Wrap(err, "Store.Hydrate", "load state")
	}
	s.mu.Lock()
	s.data = normalizeMap(data)
	s.mu.Unlock()
	logger.Info("state: hydrated", logger.FieldCount, len(data))
	return nil
}

// Snapshot 当前内容的不可变深拷贝。
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{root: deepCopy(s.data).(map[string]any)}
}

// Set 写入路径, 缺失或标量的中间段替换为对象。数组下标越界时返回 ErrInvalidInput。
func (s *Store) Set(ctx context.Context, path string, value any) error {
	segs := Segments(path)
	if len(segs) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "Store.Set", "empty path")
	}
	value = util.NormalizeJSON(value)

	s.mu.Lock()
	if err := setIn(s.data, segs, value); err != nil {
		s.mu.Unlock()
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "Store.Set", "path %q: %v", path, err)
	}
	top := deepCopy(s.data[segs[0]])
	s.persistMu.Lock()
	s.mu.Unlock()

	s.persist(ctx, segs[0], top, true)
	s.persistMu.Unlock()
	s.notify(Change{Op: OpSet, Path: "/" + joinPath(segs)})
	return nil
}

// Delete 删除路径上的值, 不存在返回 false。
func (s *Store) Delete(ctx context.Context, path string) bool {
	segs := Segments(path)
	if len(segs) == 0 {
		return false
	}

	s.mu.Lock()
	if !deleteIn(s.data, segs) {
		s.mu.Unlock()
		return false
	}
	top, topExists := s.data[segs[0]]
	top = deepCopy(top)
	s.persistMu.Lock()
	s.mu.Unlock()

	s.persist(ctx, segs[0], top, topExists)
	s.persistMu.Unlock()
	s.notify(Change{Op: OpDelete, Path: "/" + joinPath(segs)})
	return true
}

// Replace 整体替换状态树。
func (s *Store) Replace(ctx context.Context, data map[string]any) {
	next := normalizeMap(data)
	// 发布前拷贝, 发布后 next 可能被并发写入
	saved := deepCopy(next).(map[string]any)

	s.mu.Lock()
	prev := s.data
	s.data = next
	removed := make([]string, 0, len(prev))
	for k := range prev {
		if _, kept := saved[k]; !kept {
			removed = append(removed, k)
		}
	}
	s.persistMu.Lock()
	s.mu.Unlock()

	for _, k := range removed {
		s.persist(ctx, k, nil, false)
	}
	for k, v := range saved {
		s.persist(ctx, k, v, true)
	}
	s.persistMu.Unlock()
	s.notify(Change{Op: OpReplace, Path: "/"})
}

// Subscribe 注册变更监听, 返回取消函数。监听在写锁释放后同步调用。
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.listenerMu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// persist 持久化失败只记日志, 内存状态仍然生效。调用方持有 persistMu, value 已是拷贝。
func (s *Store) persist(ctx context.Context, key string, value any, exists bool) {
	if s.persister == nil {
		return
	}
	var err error
	if exists {
		err = s.persister.Save(ctx, key, value)
	} else {
		err = s.persister.Delete(ctx, key)
	}
	if err != nil {
		logger.Warn("state: persist failed", logger.FieldKey, key, logger.FieldError, err)
	}
}

// ========================================
// 路径写入
// ========================================

func setIn(root map[string]any, segs []string, value any) error {
	var cur any = root
	for i, seg := range segs {
		last := i == len(segs)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[seg] = value
				return nil
			}
			next, ok := node[seg]
			if !ok || !isContainer(next) {
				next = map[string]any{}
				node[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return apperrors.ErrNotFound
			}
			if last {
				node[idx] = value
				return nil
			}
			if !isContainer(node[idx]) {
				node[idx] = map[string]any{}
			}
			cur = node[idx]
		default:
			return apperrors.ErrInvalidInput
		}
	}
	return nil
}

func deleteIn(root map[string]any, segs []string) bool {
	var cur any = root
	for i, seg := range segs {
		last := i == len(segs)-1
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return false
			}
			if last {
				delete(node, seg)
				return true
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return false
			}
			if last {
				// 数组元素置空而不是移位, 其余下标保持稳定
				node[idx] = nil
				return true
			}
			cur = node[idx]
		default:
			return false
		}
	}
	return false
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func normalizeMap(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	if m, ok := util.NormalizeJSON(data).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPath(segs []string) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = pointerEscaper.Replace(s)
	}
	return strings.Join(parts, "/")
}
