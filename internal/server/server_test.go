package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-layers/internal/api/editor"
	"github.com/joeblew999/plat-layers/internal/logging"
)

const themesYAML = `
themes:
  - id: city
    title: City
    url: https://maps.example.org/ows/city
    sublayers:
      - name: roads
      - name: parcels
        opacity: 128
    backgroundLayers:
      - name: osm
`

func newTestServer(t *testing.T, settings string, noDB bool) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "themes.yaml"), []byte(themesYAML), 0o644))
	if settings != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "layers.toml"), []byte(settings), 0o644))
	}
	srv, err := New(Config{Host: "localhost", Port: "0", DataDir: dir, NoDB: noDB, Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, `defaultTheme = "city"`, true)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "roads,parcels[50]", body["permalink"])
	assert.Contains(t, strings.Join(rec.Header().Values("Link"), ","), `</openapi.json>; rel="service-desc"`)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nowhere").Code)
}

func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer(t, "", true)

	rec := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = get(t, srv, "/api/v1/info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db":false`)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/api/v1/bookmarks").Code)
	assert.NotNil(t, srv.OpenAPI().Paths["/api/v1/layers/{uuid}/reorder"])
}

func TestDatabase(t *testing.T) {
	srv := newTestServer(t, "", false)
	require.NotNil(t, srv.Services().Bookmarks)

	rec := get(t, srv, "/api/v1/info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db":true`)
	assert.Contains(t, rec.Body.String(), `"bookmarks"`)
}

func TestSettingsFromFile(t *testing.T) {
	srv := newTestServer(t, "reverseLayerOrder = true\ndefaultTheme = \"city\"", true)
	assert.True(t, srv.Services().Store.Config().ReverseLayerOrder)
	assert.Equal(t, "parcels[50],roads", srv.Services().Store.Permalink())
}

func TestUnknownDefaultTheme(t *testing.T) {
	srv := newTestServer(t, `defaultTheme = "village"`, true)
	assert.Empty(t, srv.Services().Store.List())
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, `defaultTheme = "city"`, true)
	get(t, srv, "/health")

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "layers_http_requests_total")
	assert.Contains(t, body, `layers_store_commands_total{command="load_theme",outcome="ok"} 1`)
	assert.Contains(t, body, "layers_top_level 2")
}

func readUntil(t *testing.T, sc *bufio.Scanner, substr string) string {
	t.Helper()
	for sc.Scan() {
		if line := sc.Text(); strings.Contains(line, substr) {
			return line
		}
	}
	t.Fatalf("stream ended before %q: %v", substr, sc.Err())
	return ""
}

func TestEditorEvents(t *testing.T) {
	srv := newTestServer(t, `defaultTheme = "city"`, true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/editor/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	sc := bufio.NewScanner(resp.Body)
	readUntil(t, sc, `roads,parcels[50]`)

	store := srv.Services().Store
	roots := store.List()
	require.NoError(t, store.Reorder(roots[0].UUID, []int{1}, -1))

	assert.Contains(t, readUntil(t, sc, `"l"`), `parcels[50],roads`)
	readUntil(t, sc, editor.ChangedEvent)
}

func TestEditorRestore(t *testing.T) {
	srv := newTestServer(t, `defaultTheme = "city"`, true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/editor/restore", "application/json", strings.NewReader(`{"l":"parcels!,wms:https://ext/wms#rivers"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pending":1`)
	assert.Contains(t, string(data), `"success"`)
	assert.Equal(t, "roads!,parcels!", srv.Services().Store.Permalink())

	resp, err = http.Post(ts.URL+"/api/v1/editor/restore", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEditorReorder(t *testing.T) {
	srv := newTestServer(t, `defaultTheme = "city"`, true)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	theme := srv.Services().Store.List()[0]
	body := `{"uuid":"` + theme.UUID + `","path":[0],"delta":1}`
	resp, err := http.Post(ts.URL+"/api/v1/editor/reorder", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(data), "Layer moved")
	assert.Equal(t, "parcels[50],roads", srv.Services().Store.Permalink())

	resp, err = http.Post(ts.URL+"/api/v1/editor/reorder", "application/json", strings.NewReader(`{"uuid":"missing","delta":1}`))
	require.NoError(t, err)
	data, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error"`)
}
