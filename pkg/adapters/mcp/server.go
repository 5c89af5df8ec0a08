// Package mcp exposes the workflow engine as a Model Context Protocol
// server, so agent hosts can define, validate and run workflows as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/weftworks/weft"
	"github.com/weftworks/weft/pkg/definition"
	"github.com/weftworks/weft/pkg/domain"
)

// RunResponse is the structured result of the run_workflow tool.
type RunResponse struct {
	RunID         string         `json:"run_id" jsonschema_description:"Identifier of the run"`
	Status        string         `json:"status" jsonschema_description:"Terminal status of the run (completed or failed)"`
	FinalState    map[string]any `json:"final_state,omitempty" jsonschema_description:"The state after the last executed node"`
	StepsExecuted int            `json:"steps_executed" jsonschema_description:"Number of node executions"`
	Trace         domain.Trace   `json:"trace,omitempty" jsonschema_description:"Per-step audit trail"`
	Error         string         `json:"error,omitempty" jsonschema_description:"Failure reason, if the run failed"`
}

// ValidateResponse is the structured result of the validate_workflow tool.
type ValidateResponse struct {
	Graph    string   `json:"graph" jsonschema_description:"Name of the validated graph"`
	Valid    bool     `json:"valid" jsonschema_description:"True when no structural findings were reported"`
	Findings []string `json:"findings" jsonschema_description:"Human-readable structural problems"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	ExecuteDefinition(ctx context.Context, def *definition.GraphDefinition, initialState map[string]any) (*weft.Result, error)
	ValidateDefinition(def *definition.GraphDefinition) ([]string, error)
	Functions() map[string]string
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("weft-mcp", strings.TrimSpace(weft.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_workflow
	runTool := mcp.NewTool("run_workflow",
		mcp.WithDescription("Run a workflow graph to completion. The graph is a JSON definition; node functions must already be registered on the host."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON graph definition: name, nodes, edges, optional start_node")),
		mcp.WithString("initial_state", mcp.Description("JSON object used as the initial workflow state (defaults to empty)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunWorkflow))

	// TOOL: validate_workflow
	validateTool := mcp.NewTool("validate_workflow",
		mcp.WithDescription("Validate a workflow graph definition without running it. Reports unknown functions, bad guard expressions and structural findings."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON graph definition to validate")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidateWorkflow))

	// TOOL: list_functions
	s.mcpServer.AddTool(mcp.NewTool("list_functions",
		mcp.WithDescription("List the node functions registered on this host, with their descriptions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Functions())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) parseDefinition(args map[string]interface{}) (*definition.GraphDefinition, error) {
	graphStr, ok := args["graph"].(string)
	if !ok || graphStr == "" {
		return nil, fmt.Errorf("graph argument is required")
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(graphStr), &raw); err != nil {
		return nil, fmt.Errorf("graph is not valid JSON: %w", err)
	}
	return definition.FromMap(raw)
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	def, err := s.parseDefinition(args)
	if err != nil {
		return RunResponse{}, err
	}

	initial := map[string]any{}
	if stateStr, ok := args["initial_state"].(string); ok && stateStr != "" {
		if err := json.Unmarshal([]byte(stateStr), &initial); err != nil {
			return RunResponse{}, fmt.Errorf("initial_state is not valid JSON: %w", err)
		}
	}

	result, err := s.engine.ExecuteDefinition(ctx, def, initial)
	if err != nil {
		resp := RunResponse{Status: "failed", Error: err.Error()}
		if result != nil {
			resp.RunID = result.RunID
			resp.StepsExecuted = result.StepsExecuted
			resp.Trace = result.Trace
		}
		return resp, nil
	}

	return RunResponse{
		RunID:         result.RunID,
		Status:        "completed",
		FinalState:    result.FinalState,
		StepsExecuted: result.StepsExecuted,
		Trace:         result.Trace,
	}, nil
}

func (s *Server) handleValidateWorkflow(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	def, err := s.parseDefinition(args)
	if err != nil {
		return ValidateResponse{}, err
	}

	findings, err := s.engine.ValidateDefinition(def)
	if err != nil {
		// Build errors are findings from the caller's point of view.
		return ValidateResponse{Graph: def.Name, Valid: false, Findings: []string{err.Error()}}, nil
	}
	if findings == nil {
		findings = []string{}
	}
	return ValidateResponse{Graph: def.Name, Valid: len(findings) == 0, Findings: findings}, nil
}
