// Package http exposes the workflow engine over a JSON REST API with
// server-sent events for run progress.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/weftworks/weft"
	"github.com/weftworks/weft/pkg/definition"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// Engine defines what the server needs from the workflow engine core.
type Engine interface {
	ExecuteRun(ctx context.Context, runID string, graph *domain.Graph, initialState map[string]any) (*weft.Result, error)
	BuildGraph(def *definition.GraphDefinition) (*domain.Graph, error)
	ValidateDefinition(def *definition.GraphDefinition) ([]string, error)
	Functions() map[string]string
}

type storedGraph struct {
	def   *definition.GraphDefinition
	graph *domain.Graph
}

// Server hosts registered graph definitions and runs them on request.
type Server struct {
	engine  Engine
	store   ports.RunStore
	streams *StreamManager
	logger  *slog.Logger

	mu     sync.RWMutex
	graphs map[string]storedGraph
}

// NewServer creates a server. The stream manager should also be attached to
// the engine as an observer so run progress reaches SSE subscribers.
func NewServer(engine Engine, store ports.RunStore, streams *StreamManager, logger *slog.Logger) *Server {
	if streams == nil {
		streams = NewStreamManager()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  engine,
		store:   store,
		streams: streams,
		logger:  logger,
		graphs:  make(map[string]storedGraph),
	}
}

// Streams returns the SSE stream manager, for observer wiring.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/functions", s.ListFunctions)

	r.Post("/graphs", s.CreateGraph)
	r.Get("/graphs", s.ListGraphs)
	r.Get("/graphs/{name}", s.GetGraph)
	r.Delete("/graphs/{name}", s.DeleteGraph)
	r.Post("/graphs/{name}/runs", s.StartRun)
	r.Post("/graphs/{name}/validate", s.ValidateGraph)

	r.Get("/runs", s.ListRuns)
	r.Get("/runs/{id}", s.GetRun)
	r.Get("/events", s.SubscribeEvents)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CreateGraph handles POST /graphs. The body is a graph definition; it is
// compiled immediately so bad references or guards fail at registration.
func (s *Server) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("CreateGraph: invalid request body", "err", err)
		return
	}

	def, err := definition.FromMap(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	graph, err := s.engine.BuildGraph(def)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		s.logger.Warn("CreateGraph: build failed", "graph", def.Name, "err", err)
		return
	}

	s.mu.Lock()
	s.graphs[def.Name] = storedGraph{def: def, graph: graph}
	s.mu.Unlock()

	s.logger.Info("graph registered", "graph", def.Name, "nodes", len(def.Nodes))
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":     def.Name,
		"nodes":    len(def.Nodes),
		"edges":    len(def.Edges),
		"findings": graph.Validate(),
	})
}

// ListGraphs handles GET /graphs.
func (s *Server) ListGraphs(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.graphs))
	for name := range s.graphs {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]any{"graphs": names})
}

// GetGraph handles GET /graphs/{name}.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.RLock()
	stored, ok := s.graphs[name]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("graph not found: %s", name))
		return
	}
	writeJSON(w, http.StatusOK, stored.def)
}

// DeleteGraph handles DELETE /graphs/{name}.
func (s *Server) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	delete(s.graphs, name)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// ValidateGraph handles POST /graphs/{name}/validate and reports structural
// findings for a registered graph.
func (s *Server) ValidateGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.RLock()
	stored, ok := s.graphs[name]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("graph not found: %s", name))
		return
	}
	findings := stored.graph.Validate()
	writeJSON(w, http.StatusOK, map[string]any{
		"graph":    name,
		"valid":    len(findings) == 0,
		"findings": findings,
	})
}

type startRunRequest struct {
	InitialState map[string]any `json:"initial_state"`
}

// StartRun handles POST /graphs/{name}/runs. The run executes in the
// background; the response carries the run ID to poll or stream.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.RLock()
	stored, ok := s.graphs[name]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("graph not found: %s", name))
		return
	}

	var body startRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			s.logger.Warn("StartRun: invalid request body", "err", err)
			return
		}
	}
	if body.InitialState == nil {
		body.InitialState = map[string]any{}
	}

	runID := uuid.NewString()
	record := &ports.RunRecord{
		ID:           runID,
		GraphName:    name,
		Status:       ports.RunPending,
		InitialState: body.InitialState,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Save(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist run")
		s.logger.Error("StartRun: save failed", "run_id", runID, "err", err)
		return
	}

	go s.runAndRecord(record, stored.graph)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id": runID,
		"graph":  name,
		"status": ports.RunPending,
	})
}

// ExecuteStoredRun runs a pending record synchronously against its
// registered graph. StartRun uses the asynchronous path; this one serves
// hosts that already persisted a record and want to drive it themselves.
func (s *Server) ExecuteStoredRun(record *ports.RunRecord) error {
	s.mu.RLock()
	stored, ok := s.graphs[record.GraphName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("graph not found: %s", record.GraphName)
	}
	s.runAndRecord(record, stored.graph)
	return nil
}

// runAndRecord drives one background run and keeps the stored record
// current. It must not use the originating request context, which dies when
// the response is written.
func (s *Server) runAndRecord(record *ports.RunRecord, graph *domain.Graph) {
	ctx := context.Background()

	record.Status = ports.RunRunning
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Error("run: status update failed", "run_id", record.ID, "err", err)
	}

	result, err := s.engine.ExecuteRun(ctx, record.ID, graph, record.InitialState)

	now := time.Now().UTC()
	record.CompletedAt = &now
	if result != nil {
		record.Trace = result.Trace
		record.StepsExecuted = result.StepsExecuted
		record.FinalState = result.FinalState
	}
	if err != nil {
		record.Status = ports.RunFailed
		record.Error = err.Error()
		s.logger.Warn("run failed", "run_id", record.ID, "graph", record.GraphName, "err", err)
	} else {
		record.Status = ports.RunCompleted
		s.logger.Info("run completed", "run_id", record.ID, "graph", record.GraphName, "steps", record.StepsExecuted)
	}

	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Error("run: final save failed", "run_id", record.ID, "err", err)
	}
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		s.logger.Error("ListRuns failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": ids})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run not found: %s", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run")
		s.logger.Error("GetRun failed", "run_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListFunctions handles GET /functions.
func (s *Server) ListFunctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"functions": s.engine.Functions()})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "weft-http",
		"version": strings.TrimSpace(weft.Version),
	})
}

// SubscribeEvents handles GET /events?run_id= (SSE). Each event is one JSON
// object per SSE data line; a greeting confirms the subscription before any
// run progress arrives.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run_id query parameter is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(runID)
	defer cancel()

	greeting, _ := json.Marshal(domain.Event{
		Type:      domain.EventConnected,
		RunID:     runID,
		Message:   "subscribed",
		Timestamp: time.Now().UTC(),
	})
	fmt.Fprintf(w, "data: %s\n\n", greeting)
	flusher.Flush()

	s.logger.Info("SSE: subscribed", "run_id", runID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
