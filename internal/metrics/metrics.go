// Package metrics exposes Prometheus instrumentation for circuit generation,
// analysis, chat sessions and the HTTP layer.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application.
type Registry struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// LLM
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	AnalysesTotal      *prometheus.CounterVec
	TokensTotal        *prometheus.CounterVec
	CostUSDTotal       *prometheus.CounterVec

	// Chat
	ChatSessionsActive prometheus.Gauge
	ChatMessagesTotal  *prometheus.CounterVec
	ViewerMountsTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric registered, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.initHTTPMetrics()
	r.initLLMMetrics()
	r.initChatMetrics()
	return r
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuitchat_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

func (r *Registry) initLLMMetrics() {
	r.GenerationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_generations_total",
			Help: "Circuit generation attempts by outcome",
		},
		[]string{"provider", "status"},
	)

	r.GenerationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuitchat_generation_duration_seconds",
			Help:    "End-to-end circuit generation latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"provider"},
	)

	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_analyses_total",
			Help: "Circuit analysis requests by outcome",
		},
		[]string{"provider", "status"},
	)

	r.TokensTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_llm_tokens_total",
			Help: "Tokens exchanged with the LLM provider",
		},
		[]string{"provider", "direction"},
	)

	r.CostUSDTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_llm_cost_usd_total",
			Help: "Estimated LLM spend in USD",
		},
		[]string{"provider"},
	)
}

func (r *Registry) initChatMetrics() {
	r.ChatSessionsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "circuitchat_chat_sessions_active",
			Help: "Open chat websocket sessions",
		},
	)

	r.ChatMessagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_chat_messages_total",
			Help: "Chat messages by role",
		},
		[]string{"role"},
	)

	r.ViewerMountsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitchat_viewer_mounts_total",
			Help: "Circuit mounts reported by browsers, by result",
		},
		[]string{"result"},
	)
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGeneration records one circuit generation attempt.
func (r *Registry) RecordGeneration(provider, status string, duration time.Duration) {
	r.GenerationsTotal.WithLabelValues(provider, status).Inc()
	r.GenerationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAnalysis records one circuit analysis request.
func (r *Registry) RecordAnalysis(provider, status string) {
	r.AnalysesTotal.WithLabelValues(provider, status).Inc()
}

// RecordUsage adds token counts and estimated cost for one completion.
func (r *Registry) RecordUsage(provider string, inputTokens, outputTokens int, costUSD float64) {
	r.TokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	r.TokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	if costUSD > 0 {
		r.CostUSDTotal.WithLabelValues(provider).Add(costUSD)
	}
}

// RecordMount records a browser mount acknowledgement.
func (r *Registry) RecordMount(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.ViewerMountsTotal.WithLabelValues(result).Inc()
}

// RecordChatMessage counts one chat message.
func (r *Registry) RecordChatMessage(role string) {
	r.ChatMessagesTotal.WithLabelValues(role).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
