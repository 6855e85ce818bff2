// Package metrics exposes layer store and HTTP metrics for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	layers          prometheus.Gauge
	subscribers     prometheus.Gauge
}

// New creates a fresh registry with all layer metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "layers",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests served",
	}, []string{"method", "path", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "layers",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "layers",
		Name:      "store_commands_total",
		Help:      "Layer store commands by name and outcome",
	}, []string{"command", "outcome"})

	commandDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "layers",
		Name:      "store_command_duration_seconds",
		Help:      "Time spent applying a layer store command",
		Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
	}, []string{"command"})

	layers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "layers",
		Name:      "top_level",
		Help:      "Number of top-level layers in the store",
	})

	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "layers",
		Name:      "event_subscribers",
		Help:      "Open event stream subscriptions",
	})

	registry.MustRegister(httpRequests, httpDuration, commands, commandDuration, layers, subscribers)

	return &Metrics{
		registry:        registry,
		httpRequests:    httpRequests,
		httpDuration:    httpDuration,
		commands:        commands,
		commandDuration: commandDuration,
		layers:          layers,
		subscribers:     subscribers,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpDuration.With(labels).Observe(duration.Seconds())
}

// ObserveCommand records one store command. outcome is "ok", "noop" or "error".
func (m *Metrics) ObserveCommand(command, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// SetLayerCount sets the top-level layer gauge.
func (m *Metrics) SetLayerCount(n int) {
	if m == nil {
		return
	}
	m.layers.Set(float64(n))
}

// AddSubscribers adjusts the event subscriber gauge by delta.
func (m *Metrics) AddSubscribers(delta int) {
	if m == nil {
		return
	}
	m.subscribers.Add(float64(delta))
}

// Middleware records every request passing through next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.ObserveHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streams working through the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
