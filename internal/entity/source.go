// source.go — 实体摘要数据源: Source 接口 + HTTP 实现 (令牌桶限流)。
package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/multi-agent/go-genui/pkg/errors"
)

// Source 三个只读摘要接口。
type Source interface {
	Ecosystems(ctx context.Context) ([]map[string]any, error)
	Repositories(ctx context.Context) ([]map[string]any, error)
	Developer(ctx context.Context, id string) (map[string]any, error)
}

// envelope 上游统一返回结构。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// HTTPSource 访问外部摘要接口:
//
//	GET {base}/ecosystems        → {success, data: {list: [...]}}
//	GET {base}/repositories      → {success, data: {list: [...]}}
//	GET {base}/developers/{id}   → {success, data: {...}}
type HTTPSource struct {
	baseURL string
	httpCli *http.Client
	limiter *rate.Limiter
}

// NewHTTPSource 创建数据源; rps <= 0 时不限流。
func NewHTTPSource(baseURL string, timeout time.Duration, rps float64, burst int) *HTTPSource {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Ecosystems 生态摘要列表。
func (s *HTTPSource) Ecosystems(ctx context.Context) ([]map[string]any, error) {
	return s.list(ctx, "/ecosystems")
}

// Repositories 仓库摘要列表。
func (s *HTTPSource) Repositories(ctx context.Context) ([]map[string]any, error) {
	return s.list(ctx, "/repositories")
}

// Developer 按标识直接查询单个开发者。
func (s *HTTPSource) Developer(ctx context.Context, id string) (map[string]any, error) {
	data, err := s.get(ctx, "/developers/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var dev map[string]any
	if err := json.Unmarshal(data, &dev); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "HTTPSource.Developer", "decode: %v", err)
	}
	if dev == nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "HTTPSource.Developer", "developer %q", id)
	}
	return dev, nil
}

func (s *HTTPSource) list(ctx context.Context, path string) ([]map[string]any, error) {
	data, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []map[string]any `json:"list"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "HTTPSource.list", "decode %s: %v", path, err)
	}
	return payload.List, nil
}

// get 限流后发起 GET, 解开信封返回 data 字段。
func (s *HTTPSource) get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(err, "HTTPSource.get", "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "HTTPSource.get", "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "HTTPSource.get", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, apperrors.Wrap(err, "HTTPSource.get", "read body")
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "HTTPSource.get", "%s status 404", path)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "HTTPSource.get", "%s status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "HTTPSource.get", "decode envelope: %v", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "HTTPSource.get", "%s: %s", path, msg)
	}
	return env.Data, nil
}

// String 便于日志输出。
func (s *HTTPSource) String() string { return fmt.Sprintf("HTTPSource(%s)", s.baseURL) }
