package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/observability"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

const flow = "graph TD; A-->B; B-->C;"

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { runner.Close() })
	return New(runner, logger, cfg)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/convert?from=bogus", strings.NewReader(flow))
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "req-42", decodeError(t, rec).RequestID)
}

func TestFormats(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodGet, "/v1/formats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []formatInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	names := make([]string, len(got))
	for i, f := range got {
		names[i] = f.Name
	}
	assert.Subset(t, names, []string{"json", "dot", "drawio", "excalidraw", "mermaid"})
}

func TestConvert(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/v1/convert?from=mermaid&to=dot", flow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypes[format.DOT], rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("X-Diagramkit-Nodes"))
	assert.Equal(t, "2", rec.Header().Get("X-Diagramkit-Edges"))
	assert.Equal(t, "miss", rec.Header().Get("X-Diagramkit-Cache"))
	assert.Contains(t, rec.Body.String(), "digraph")

	rec = do(t, s, http.MethodPost, "/v1/convert?from=mermaid&to=dot", flow)
	assert.Equal(t, "hit", rec.Header().Get("X-Diagramkit-Cache"))

	rec = do(t, s, http.MethodPost, "/v1/convert?from=mermaid&to=dot&refresh=true", flow)
	assert.Equal(t, "miss", rec.Header().Get("X-Diagramkit-Cache"))
}

func TestConvertDetect(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/v1/convert?to=json", flow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "mermaid", rec.Header().Get("X-Diagramkit-From"))
}

func TestConvertWithLayout(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/v1/convert?from=mermaid&to=json&direction=lr", flow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	g, err := format.Import(format.JSON, rec.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, g.HasPositions())
	assert.Equal(t, "LR", string(g.Direction))
}

func TestConvertErrors(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"unknown format", "/v1/convert?from=bogus", flow, http.StatusUnsupportedMediaType, "UNSUPPORTED"},
		{"empty body", "/v1/convert?from=dot", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad bool", "/v1/convert?from=mermaid&layout=maybe", flow, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad engine", "/v1/convert?from=mermaid&engine=spring", flow, http.StatusBadRequest, "INVALID_OPTIONS"},
		{"syntax", "/v1/convert?from=dot&to=json", "digraph { a -> }", http.StatusUnprocessableEntity, "PARSE_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/v1/convert?from=dot&to=json", "digraph {\n  a -> \n}")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Greater(t, body.Line, 0)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t, Config{MaxBodySize: 8})
	rec := do(t, s, http.MethodPost, "/v1/convert?from=mermaid", flow)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestInspect(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/v1/inspect?from=mermaid", flow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary pipeline.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, format.Mermaid, summary.Format)
	assert.Equal(t, 3, summary.Nodes)
	assert.Equal(t, 2, summary.Edges)
	assert.Equal(t, 0, summary.Isolated)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.status = append(h.status, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	s := newTestServer(t, Config{})
	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodPost, "/v1/convert?from=bogus", flow)

	assert.Equal(t, []string{"/healthz", "/v1/convert"}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusUnsupportedMediaType}, hooks.status)
}
