// Package frontend implements the thin request/response front end spec.md
// §1 and §6 describe as an external collaborator: a single POST / endpoint
// that takes {"operation", "command"} and returns parse+execute results as
// canonical JSON, plus a /health and /metrics endpoint alongside it, the
// way the teacher's pkg/api.HealthServer sits beside its gRPC API.
//
// Only operation "query" is wired through the parser, planner, and
// executor today; every other operation value is a Value error, per the
// forward-compatibility note in SPEC_FULL.md §12 item 5 (the prototype's
// test harness exercises insert/create_collection directly against the
// executor, but never exposed them over HTTP).
package frontend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/kuiperdb/pkg/ast"
	"github.com/cuemby/kuiperdb/pkg/exec"
	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/lang"
	"github.com/cuemby/kuiperdb/pkg/log"
	"github.com/cuemby/kuiperdb/pkg/metrics"
	"github.com/cuemby/kuiperdb/pkg/plan"
)

// Frontend is the HTTP front end bound to one Executor.
type Frontend struct {
	executor *exec.Executor
	mux      *http.ServeMux
	log      zerolog.Logger
}

// New builds a Frontend wired to executor, registering its routes on a
// fresh ServeMux.
func New(executor *exec.Executor) *Frontend {
	f := &Frontend{executor: executor, mux: http.NewServeMux(), log: log.WithComponent("frontend")}

	f.mux.HandleFunc("/", f.commandHandler)
	f.mux.HandleFunc("/health", healthHandler)
	f.mux.Handle("/metrics", metrics.Handler())

	return f
}

// Handler returns the front end's http.Handler, for embedding or for tests
// that want to drive it with httptest without opening a real listener.
func (f *Frontend) Handler() http.Handler { return f.mux }

// Start runs the front end's HTTP server on addr until it errors or is
// shut down, following the teacher's pkg/api.HealthServer.Start shape.
func (f *Frontend) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      f.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// commandRequest is the wire shape of POST /'s body (spec.md §6).
type commandRequest struct {
	Operation string `json:"operation"`
	Command   string `json:"command"`
}

// commandResponse is the wire shape of POST /'s response (spec.md §6).
type commandResponse struct {
	Result            []map[string]interface{} `json:"result,omitempty"`
	Error             string                    `json:"error,omitempty"`
	ExecutionPlan     string                    `json:"execution_plan,omitempty"`
	TimeElapsedMs     float64                   `json:"time_elapsed_ms,omitempty"`
	TimeElapsedMicros int64                     `json:"time_elapsed_µs,omitempty"`
}

func (f *Frontend) commandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.New().String()
	start := time.Now()

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.writeError(w, requestID, kerrors.Value(fmt.Sprintf("malformed request body: %v", err)))
		return
	}

	f.log.Debug().Str("request_id", requestID).Str("operation", req.Operation).Str("command", req.Command).Msg("request received")

	resp, err := f.runCommand(req)
	elapsed := time.Since(start)
	resp.TimeElapsedMs = float64(elapsed.Microseconds()) / 1000.0
	resp.TimeElapsedMicros = elapsed.Microseconds()

	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		f.writeError(w, requestID, err)
		return
	}

	metrics.RequestsTotal.WithLabelValues("ok").Inc()
	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	metrics.QueryDuration.Observe(elapsed.Seconds())
	writeJSON(w, http.StatusOK, resp)
}

// runCommand dispatches req.Operation. Only "query" reaches the parser,
// planner, and executor; every other value is an unsupported-operation
// Value error.
func (f *Frontend) runCommand(req commandRequest) (commandResponse, error) {
	if req.Operation != "query" {
		return commandResponse{}, kerrors.Value("unsupported operation: " + req.Operation)
	}

	nodes, err := lang.Parse(req.Command)
	if err != nil {
		return commandResponse{}, err
	}
	if len(nodes) == 0 || nodes[0].Kind != ast.NodeQuery {
		return commandResponse{}, kerrors.Value("top-level statement is not a query")
	}

	p := plan.FromAST(nodes[0].Query)
	result, err := f.executor.ExecuteSelect(p)
	if err != nil {
		return commandResponse{}, err
	}

	rows := make([]map[string]interface{}, len(result.Records))
	for i, doc := range result.Records {
		rows[i] = doc.ToJSON()
	}

	return commandResponse{
		Result:        rows,
		ExecutionPlan: describePlan(p),
	}, nil
}

func describePlan(p plan.QueryPlan) string {
	cs := p.Root.CollectionScan
	if cs == nil {
		return ""
	}
	return fmt.Sprintf("CollectionScan(schema=%s, collection=%s)", cs.Schema, cs.Collection)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *Frontend) writeError(w http.ResponseWriter, requestID string, err error) {
	f.log.Warn().Str("request_id", requestID).Err(err).Msg("request failed")
	writeJSON(w, http.StatusOK, commandResponse{Error: err.Error()})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
