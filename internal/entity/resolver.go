// resolver.go — 实体查询: 匹配规则、请求合并、正向缓存、加载状态回调。
package entity

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/multi-agent/go-genui/pkg/errors"
	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

// 查询结果分类 (metrics label)。
const (
	OutcomeHit      = "hit"
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Entity 查询结果。
type Entity struct {
	Ref  Ref            `json:"ref"`
	Data map[string]any `json:"data"`
}

// Observer 查询观测钩子。
type Observer interface {
	ObserveLookup(entityType, outcome string)
}

// Resolver 把 Ref 解析为摘要数据。
//
// 每次查询相互独立; 同一实体的并发查询合并为一次上游请求。
type Resolver struct {
	src      Source
	cache    Cache
	ttl      time.Duration
	observer Observer
	group    singleflight.Group
}

// Option Resolver 可选项。
type Option func(*Resolver)

// WithCache 启用正向结果缓存; ttl <= 0 等同于不缓存。
func WithCache(c Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithObserver 设置观测钩子。
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver 创建 Resolver。
func NewResolver(src Source, opts ...Option) *Resolver {
	r := &Resolver{src: src}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 查询一个实体。
//
// 匹配规则: ecosystem 名称大小写不敏感; repository 按 owner/name 精确匹配 (区分大小写);
// developer 直接按标识请求。找不到返回包装 ErrNotFound 的错误。
// ctx 取消后立即返回, 合并中的上游请求继续完成并填充缓存。
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (*Entity, error) {
	key := ref.Key()
	if r.cache != nil && r.ttl > 0 {
		if data, ok := r.cache.Get(ctx, key); ok {
			r.observe(ref.Type, OutcomeHit)
			return &Entity{Ref: ref, Data: data}, nil
		}
	}

	ch := r.group.DoChan(key, func() (any, error) {
		return r.fetch(context.WithoutCancel(ctx), ref)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), "Resolver.Resolve", ref.Path())
	case res := <-ch:
		if res.Err != nil {
			if apperrors.Is(res.Err, apperrors.ErrNotFound) {
				r.observe(ref.Type, OutcomeNotFound)
			} else {
				r.observe(ref.Type, OutcomeError)
			}
			return nil, res.Err
		}
		r.observe(ref.Type, OutcomeSuccess)
		return &Entity{Ref: ref, Data: res.Val.(map[string]any)}, nil
	}
}

func (r *Resolver) fetch(ctx context.Context, ref Ref) (map[string]any, error) {
	var (
		data map[string]any
		err  error
	)
	switch ref.Type {
	case TypeEcosystem:
		data, err = r.match(ctx, ref, r.src.Ecosystems, func(m map[string]any) bool {
			name, _ := m["name"].(string)
			return strings.EqualFold(name, ref.Identifier)
		})
	case TypeRepository:
		data, err = r.match(ctx, ref, r.src.Repositories, func(m map[string]any) bool {
			return repoSlugOf(m) == ref.Identifier
		})
	case TypeDeveloper:
		data, err = r.src.Developer(ctx, ref.Identifier)
	default:
		err = apperrors.Newf("Resolver.fetch", "unsupported entity type %q", ref.Type)
	}
	if err != nil {
		logger.Warn("entity: lookup failed", logger.FieldEntity, ref.Path(), logger.FieldError, err)
		return nil, err
	}

	if r.cache != nil && r.ttl > 0 {
		r.cache.Set(ctx, ref.Key(), data, r.ttl)
	}
	logger.Debug("entity: resolved", logger.FieldEntity, ref.Path())
	return data, nil
}

func (r *Resolver) match(ctx context.Context, ref Ref,
	list func(context.Context) ([]map[string]any, error), pred func(map[string]any) bool,
) (map[string]any, error) {
	items, err := list(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range items {
		if pred(m) {
			return m, nil
		}
	}
	return nil, apperrors.Wrapf(apperrors.ErrNotFound, "Resolver.match", "%s not in summary list", ref.Path())
}

// repoSlugOf full_name 优先, 否则 owner/name。
func repoSlugOf(m map[string]any) string {
	if s, ok := m["full_name"].(string); ok && s != "" {
		return s
	}
	owner, _ := m["owner"].(string)
	name, _ := m["name"].(string)
	if owner == "" || name == "" {
		return ""
	}
	return owner + "/" + name
}

func (r *Resolver) observe(t Type, outcome string) {
	if r.observer != nil {
		r.observer.ObserveLookup(string(t), outcome)
	}
}

// ========================================
// Watch: 每个实体独立的加载状态
// ========================================

// Status 加载状态。
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State 一次状态通知。
type State struct {
	Status Status  `json:"status"`
	Entity *Entity `json:"entity,omitempty"`
	Err    error   `json:"-"`
}

// Watch 先同步通知 loading, 再在后台查询并通知 success 或 error。
//
// 返回的 stop 取消查询并等待正在执行的回调结束; stop 返回后或 ctx 取消后
// fn 不会再被调用。
func (r *Resolver) Watch(ctx context.Context, ref Ref, fn func(State)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var mu sync.Mutex

	deliver := func(s State) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		fn(s)
	}

	deliver(State{Status: StatusLoading})
	util.SafeGo(func() {
		ent, err := r.Resolve(ctx, ref)
		if err != nil {
			deliver(State{Status: StatusError, Err: err})
			return
		}
		deliver(State{Status: StatusSuccess, Entity: ent})
	})

	return func() {
		cancel()
		mu.Lock()
		mu.Unlock() //nolint:staticcheck // 等待进行中的回调
	}
}
