// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/untangle/pkg/errors"
	"github.com/matzehuels/untangle/pkg/graphio"
	"github.com/matzehuels/untangle/pkg/pipeline"
)

// Server serves the analysis API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// NewServer builds the HTTP handler around a configured runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/analyze", s.handleAnalyze)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyzeRequest is the POST /v1/analyze payload: a wiring graph in the
// interchange format plus pipeline options.
type analyzeRequest struct {
	Graph   json.RawMessage  `json:"graph"`
	Options pipeline.Options `json:"options"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Graph) == 0 {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "graph is required"))
		return
	}

	g, err := graphio.ReadJSON(bytes.NewReader(req.Graph))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), g, req.Options)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrCodeInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	s.logger.Info("analysis served",
		"run_id", result.RunID,
		"cycles", len(result.Cycles),
		"resolved", result.Resolved,
		"cache_hit", result.CacheInfo.ReportHit)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}
