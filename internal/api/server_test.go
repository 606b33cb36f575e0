package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/untangle/pkg/pipeline"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return NewServer(pipeline.NewRunner(nil, nil, logger), logger)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAnalyze(t *testing.T) {
	body := `{
	  "graph": {
	    "components": [{"id": "a"}, {"id": "b"}],
	    "edges": [
	      {"from": "a", "to": "b", "kind": "constructor"},
	      {"from": "b", "to": "a", "kind": "field"}
	    ]
	  },
	  "options": {"passes": 1}
	}`
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body)
	}
	var result pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Resolved {
		t.Errorf("result not resolved: %+v", result.Remaining)
	}
	if len(result.Cycles) != 1 {
		t.Errorf("got %d cycles, want 1", len(result.Cycles))
	}
	if result.RunID == "" {
		t.Error("response missing run_id")
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing graph", `{"options": {}}`},
		{"duplicate component", `{"graph": {"components": [{"id": "a"}, {"id": "a"}], "edges": []}}`},
		{"unknown endpoint", `{"graph": {"components": [{"id": "a"}], "edges": [{"from": "a", "to": "ghost", "kind": "field"}]}}`},
		{"bad options", `{"graph": {"components": [], "edges": []}, "options": {"passes": 99}}`},
	}
	srv := newTestServer(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(tc.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code == "" {
				t.Error("error response missing code")
			}
		})
	}
}
