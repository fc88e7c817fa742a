// Package metrics 提供推荐引擎的 Prometheus 指标。
// 所有方法对 nil 接收者安全，组件可以不注入 Metrics。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storerank"

// Metrics 聚合打分、后台任务与共购图相关的指标。
type Metrics struct {
	scorerRequests  *prometheus.CounterVec
	scorerDuration  *prometheus.HistogramVec
	tasks           *prometheus.CounterVec
	edgesWritten    *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	rebuildOrders   prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New 创建并注册指标；reg 为空时只创建不注册。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scorerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_requests_total",
			Help:      "Total number of scorer calls by source and status",
		}, []string{"source", "status"}),
		scorerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scorer_duration_seconds",
			Help:      "Scorer call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_tasks_total",
			Help:      "Background tasks by kind and outcome (ok, error, dropped, panic)",
		}, []string{"kind", "status"}),
		edgesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "copurchase_edges_written_total",
			Help:      "Directed co-purchase edge upserts by write path",
		}, []string{"path"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "copurchase_rebuild_duration_seconds",
			Help:      "Batch rebuild duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		rebuildOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "copurchase_rebuild_orders",
			Help:      "Orders scanned by the last batch rebuild",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.scorerRequests,
			m.scorerDuration,
			m.tasks,
			m.edgesWritten,
			m.rebuildDuration,
			m.rebuildOrders,
			m.httpRequests,
			m.httpDuration,
		)
	}
	return m
}

// ObserveScorer 记录一次打分调用。
func (m *Metrics) ObserveScorer(source string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scorerRequests.WithLabelValues(source, status).Inc()
	m.scorerDuration.WithLabelValues(source).Observe(d.Seconds())
}

// TaskDone 记录一个后台任务的结果。
func (m *Metrics) TaskDone(kind, status string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(kind, status).Inc()
}

// EdgesWritten 记录写入的有向边数量。
func (m *Metrics) EdgesWritten(path string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.edgesWritten.WithLabelValues(path).Add(float64(n))
}

// ObserveRebuild 记录一次批量重建。
func (m *Metrics) ObserveRebuild(orders int, d time.Duration) {
	if m == nil {
		return
	}
	m.rebuildOrders.Set(float64(orders))
	m.rebuildDuration.Observe(d.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求。route 应为路由模板而不是原始路径。
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
