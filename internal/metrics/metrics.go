// Package metrics 渲染管线的 Prometheus 指标。
//
// 使用私有 Registry, 同时实现 render.Observer、toolview.Observer 与 entity.Observer。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "genui"

// Metrics 指标集合。
type Metrics struct {
	registry *prometheus.Registry

	renderTotal    *prometheus.CounterVec
	renderDuration prometheus.Histogram
	toolTotal      *prometheus.CounterVec
	entityTotal    *prometheus.CounterVec
}

// New 创建并注册全部指标 (含 Go runtime 与进程指标)。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Rendered elements by component kind and outcome.",
		}, []string{"kind", "outcome"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Wall time of one element tree render.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		toolTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_render_total",
			Help:      "Tool results rendered by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		entityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_lookup_total",
			Help:      "Entity lookups by entity type and outcome.",
		}, []string{"type", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.renderTotal, m.renderDuration, m.toolTotal, m.entityTotal,
	)
	return m
}

// ObserveElement 实现 render.Observer。
func (m *Metrics) ObserveElement(kind, outcome string) {
	m.renderTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRender 实现 render.Observer。
func (m *Metrics) ObserveRender(d time.Duration) {
	m.renderDuration.Observe(d.Seconds())
}

// ObserveTool 实现 toolview.Observer。
func (m *Metrics) ObserveTool(tool, outcome string) {
	m.toolTotal.WithLabelValues(tool, outcome).Inc()
}

// ObserveLookup 实现 entity.Observer。
func (m *Metrics) ObserveLookup(entityType, outcome string) {
	m.entityTotal.WithLabelValues(entityType, outcome).Inc()
}

// Registry 供测试读取。
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler /metrics 暴露端点。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
