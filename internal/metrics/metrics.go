package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics 服务的 Prometheus 指标集合，所有方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	generationAttempts *prometheus.CounterVec
	generationTokens   prometheus.Counter
	postsCreated       prometheus.Counter
	geocodingRequests  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	postsTotal         prometheus.Gauge
	averageTokens      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		generationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_generation_attempts_total",
			Help: "Content generation attempts by outcome",
		}, []string{"outcome"}),
		generationTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_generation_tokens_total",
			Help: "Total tokens reported by the generation provider",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_created_total",
			Help: "Blog posts persisted",
		}),
		geocodingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geocoding_requests_total",
			Help: "Geocoding lookups by outcome",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		postsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blog_posts_total",
			Help: "Stored blog posts at the last stats snapshot",
		}),
		averageTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blog_average_tokens",
			Help: "Average tokens per post at the last stats snapshot",
		}),
	}
	reg.MustRegister(
		m.generationAttempts,
		m.generationTokens,
		m.postsCreated,
		m.geocodingRequests,
		m.httpRequests,
		m.postsTotal,
		m.averageTokens,
	)
	return m
}

// Handler /metrics 输出
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) GenerationAttempt(ok bool) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) GenerationTokens(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.generationTokens.Add(float64(n))
}

func (m *Metrics) PostCreated() {
	if m == nil {
		return
	}
	m.postsCreated.Inc()
}

func (m *Metrics) GeocodingRequest(ok bool) {
	if m == nil {
		return
	}
	m.geocodingRequests.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) PostSnapshot(total int64, avgTokens float64) {
	if m == nil {
		return
	}
	m.postsTotal.Set(float64(total))
	m.averageTokens.Set(avgTokens)
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
