package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/observability"
	"github.com/matzehuels/diagramkit/pkg/pipeline"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[format.Format]string{
	format.DOT:        "text/vnd.graphviz; charset=utf-8",
	format.Drawio:     "application/xml; charset=utf-8",
	format.Excalidraw: "application/json",
	format.JSON:       "application/json",
	format.Mermaid:    "text/plain; charset=utf-8",
}

// handleHealth returns a JSON health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type formatInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Aliases    []string `json:"aliases"`
}

// handleFormats lists the registered formats.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	out := []formatInfo{}
	for _, c := range format.Codecs() {
		info := formatInfo{Name: string(c.Format), Extensions: c.Extensions, Aliases: c.Aliases}
		if info.Extensions == nil {
			info.Extensions = []string{}
		}
		if info.Aliases == nil {
			info.Aliases = []string{}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleConvert converts the request body and returns the result.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	req, err := s.convertRequest(r, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Convert(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[res.To])
	h.Set("X-Diagramkit-From", string(res.From))
	h.Set("X-Diagramkit-Nodes", strconv.Itoa(res.Stats.NodeCount))
	h.Set("X-Diagramkit-Edges", strconv.Itoa(res.Stats.EdgeCount))
	h.Set("X-Diagramkit-Cache", cacheStatus(res.CacheHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// handleInspect summarizes the request body.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	from, err := parseFormat(q.Get("from"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := pipeline.Inspect(r.Context(), from, q.Get("filename"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// convertRequest builds a pipeline request from query parameters.
func (s *Server) convertRequest(r *http.Request, data []byte) (pipeline.Request, error) {
	q := r.URL.Query()
	req := pipeline.Request{
		Filename:      q.Get("filename"),
		Data:          data,
		LayoutOptions: s.cfg.LayoutOptions,
		Compress:      s.cfg.Compress,
	}

	var err error
	if req.From, err = parseFormat(q.Get("from")); err != nil {
		return req, err
	}
	if req.To, err = parseFormat(q.Get("to")); err != nil {
		return req, err
	}
	if req.Layout, err = parseBool(q, "layout", false); err != nil {
		return req, err
	}
	if req.Compress, err = parseBool(q, "compress", req.Compress); err != nil {
		return req, err
	}
	if req.Refresh, err = parseBool(q, "refresh", false); err != nil {
		return req, err
	}
	if engine := q.Get("engine"); engine != "" {
		req.LayoutOptions.Engine = engine
		req.Layout = true
	}
	if dir := q.Get("direction"); dir != "" {
		req.LayoutOptions.Direction = graph.Direction(strings.ToUpper(dir))
		req.Layout = true
	}
	return req, nil
}

// readBody reads at most MaxBodySize bytes. It writes the error response
// itself and reports false when the body is unusable.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	data, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if stderrors.As(err, &mbe) {
			s.writeErrorStatus(w, r, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput,
				fmt.Sprintf("request body exceeds %d bytes", mbe.Limit), nil)
			return nil, false
		}
		s.writeErrorStatus(w, r, http.StatusBadRequest, errors.ErrCodeInvalidInput, "cannot read request body", nil)
		return nil, false
	}
	return data, true
}

func parseFormat(name string) (format.Format, error) {
	if name == "" {
		return "", nil
	}
	return format.Parse(name)
}

func parseBool(q map[string][]string, key string, def bool) (bool, error) {
	vals := q[key]
	if len(vals) == 0 || vals[0] == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(vals[0])
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", key, vals[0])
	}
	return v, nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// =============================================================================
// Errors
// =============================================================================

// errorBody is the JSON error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	Line      int    `json:"line,omitempty"`
	Col       int    `json:"col,omitempty"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeParse, errors.ErrCodeReference, errors.ErrCodeLayout:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidOptions:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported, errors.ErrCodeUnsupportedShape:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	s.writeErrorStatus(w, r, status, code, msg, err)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, code errors.Code, msg string, err error) {
	body := errorBody{Error: msg, Code: string(code), RequestID: middleware.GetReqID(r.Context())}
	var pe *errors.ParseError
	if err != nil && stderrors.As(err, &pe) && pe.Pos != nil {
		body.Line, body.Col = pe.Pos.Line, pe.Pos.Col
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
