// Package mcp exposes the tour engine to model-context-protocol
// clients. Agents drive tours with four tools: list_tours, start_tour,
// advance_tour, and tour_state.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docentlabs/docent"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// TourSummary is the list_tours projection of a catalog entry.
type TourSummary struct {
	Name  string `json:"name" jsonschema_description:"Tour name, the start_tour argument"`
	Title string `json:"title,omitempty" jsonschema_description:"Human-readable title"`
	View  string `json:"view,omitempty" jsonschema_description:"View the tour auto-launches on"`
	Steps int    `json:"steps" jsonschema_description:"Number of steps"`
}

// ToursResponse is the structured result of list_tours.
type ToursResponse struct {
	Tours []TourSummary `json:"tours"`
}

// StateResponse is the structured result of the session tools. Running
// reports whether a session exists; Snapshot is omitted when it does
// not.
type StateResponse struct {
	Running  bool             `json:"running" jsonschema_description:"Whether a tour session is active"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty" jsonschema_description:"The session state, when active"`
}

// TourLister is the slice of the catalog the server needs.
type TourLister interface {
	Tours(ctx context.Context) ([]domain.Tour, error)
}

// Server exposes a tour runner as an MCP server.
type Server struct {
	runner    ports.TourRunner
	tours     TourLister
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(runner ports.TourRunner, tours TourLister) *Server {
	s := &Server{
		runner:    runner,
		tours:     tours,
		mcpServer: server.NewMCPServer("docent-mcp", strings.TrimSpace(docent.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, shutting
// down gracefully when the context is canceled.
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_tours",
		mcp.WithDescription("List the tours available in the catalog."),
		mcp.WithOutputSchema[ToursResponse](),
	), mcp.NewStructuredToolHandler(s.handleListTours))

	s.mcpServer.AddTool(mcp.NewTool("start_tour",
		mcp.WithDescription("Start the named tour. A tour already running is force-ended as skipped."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tour name, as reported by list_tours")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartTour))

	s.mcpServer.AddTool(mcp.NewTool("advance_tour",
		mcp.WithDescription("Move the running tour: next, previous, skip, or jump to a step by ID."),
		mcp.WithString("direction", mcp.Required(), mcp.Description("One of: next, previous, skip, jump")),
		mcp.WithString("step_id", mcp.Description("Target step ID, required when direction is jump")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleAdvanceTour))

	s.mcpServer.AddTool(mcp.NewTool("tour_state",
		mcp.WithDescription("Report the running tour session, if any."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleTourState))
}

func (s *Server) handleListTours(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ToursResponse, error) {
	tours, err := s.tours.Tours(ctx)
	if err != nil {
		return ToursResponse{}, fmt.Errorf("list tours: %w", err)
	}
	resp := ToursResponse{Tours: make([]TourSummary, len(tours))}
	for i, t := range tours {
		resp.Tours[i] = TourSummary{
			Name:  t.Name,
			Title: t.Title,
			View:  t.View,
			Steps: len(t.Steps),
		}
	}
	return resp, nil
}

func (s *Server) handleStartTour(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return StateResponse{}, fmt.Errorf("name is required")
	}
	snap, err := s.runner.Start(ctx, name)
	if err != nil {
		return StateResponse{}, fmt.Errorf("start tour %q: %w", name, err)
	}
	return StateResponse{Running: true, Snapshot: &snap}, nil
}

func (s *Server) handleAdvanceTour(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	direction, _ := args["direction"].(string)

	var snap domain.Snapshot
	var err error
	switch direction {
	case "next":
		snap, err = s.runner.Next(ctx)
	case "previous":
		snap, err = s.runner.Previous(ctx)
	case "skip":
		snap, err = s.runner.Skip(ctx)
	case "jump":
		stepID, _ := args["step_id"].(string)
		if stepID == "" {
			return StateResponse{}, fmt.Errorf("step_id is required when direction is jump")
		}
		snap, err = s.runner.JumpTo(ctx, stepID)
	default:
		return StateResponse{}, fmt.Errorf("unknown direction %q: want next, previous, skip, or jump", direction)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			return StateResponse{Running: false}, nil
		}
		return StateResponse{}, fmt.Errorf("advance tour: %w", err)
	}
	return StateResponse{Running: !snap.Status.Terminal(), Snapshot: &snap}, nil
}

func (s *Server) handleTourState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	snap, err := s.runner.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			return StateResponse{Running: false}, nil
		}
		return StateResponse{}, fmt.Errorf("tour state: %w", err)
	}
	return StateResponse{Running: !snap.Status.Terminal(), Snapshot: &snap}, nil
}
