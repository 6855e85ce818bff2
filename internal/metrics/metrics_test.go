package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerNilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "metrics unavailable")

	// nil receivers are no-ops
	m.ObserveCommand("reorder", "ok", time.Millisecond)
	m.SetLayerCount(3)
	m.AddSubscribers(1)
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveCommand("reorder", "ok", 2*time.Millisecond)
	m.SetLayerCount(4)
	m.AddSubscribers(1)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `layers_store_commands_total{command="reorder",outcome="ok"} 1`)
	assert.Contains(t, body, "layers_top_level 4")
	assert.Contains(t, body, "layers_event_subscribers 1")
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `layers_http_requests_total{method="GET",path="/health",status="418"} 1`)
}
