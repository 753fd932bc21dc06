// Package httpapi exposes the tour engine over HTTP. Routes cover the
// catalog, the single active session, and stored outcome records; the
// OpenAPI document describing them is embedded and served alongside a
// Swagger UI page. JSON request bodies are validated against the
// embedded document before they reach the engine.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

//go:embed openapi.yaml
var specYAML []byte

// TourLister is the slice of the catalog the API needs for GET /v1/tours.
type TourLister interface {
	Tours(ctx context.Context) ([]domain.Tour, error)
}

// Server routes HTTP requests onto a tour runner. Construct it with
// NewHandler.
type Server struct {
	runner  ports.TourRunner
	tours   TourLister
	records ports.RecordStore
	metrics http.Handler
	logger  *slog.Logger
	spec    *openapi3.T
}

// Option configures the server.
type Option func(*Server)

// WithRecordStore enables GET /v1/records/{name} against the store.
func WithRecordStore(store ports.RecordStore) Option {
	return func(s *Server) { s.records = store }
}

// WithMetricsHandler mounts the handler at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the structured logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler builds the HTTP handler for the engine. It parses and
// validates the embedded OpenAPI document once; an embedded document
// that does not parse is a build defect, not a runtime condition, so
// the error surfaces here.
func NewHandler(runner ports.TourRunner, tours TourLister, opts ...Option) (http.Handler, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("parse embedded openapi document: %w", err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid embedded openapi document: %w", err)
	}

	s := &Server{
		runner: runner,
		tours:  tours,
		spec:   spec,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(specYAML)
	})
	r.Get("/swagger", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/v1/tours", s.listTours)
	r.Post("/v1/tours/{name}/start", s.startTour)
	r.Get("/v1/sessions/active", s.activeSession)
	r.Post("/v1/sessions/active/next", s.step(ports.TourRunner.Next))
	r.Post("/v1/sessions/active/previous", s.step(ports.TourRunner.Previous))
	r.Post("/v1/sessions/active/skip", s.step(ports.TourRunner.Skip))
	r.Post("/v1/sessions/active/jump", s.jumpToStep)
	if s.records != nil {
		r.Get("/v1/records/{name}", s.tourRecord)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r, nil
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Docent API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// tourSummary is the list-view projection of a tour. Step bodies stay
// out of the listing; clients fetch them by starting the tour.
type tourSummary struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	View  string `json:"view,omitempty"`
	Steps int    `json:"steps"`
}

type jumpRequest struct {
	StepID string `json:"stepId"`
}

func (s *Server) listTours(w http.ResponseWriter, r *http.Request) {
	tours, err := s.tours.Tours(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summaries := make([]tourSummary, len(tours))
	for i, t := range tours {
		summaries[i] = tourSummary{
			Name:  t.Name,
			Title: t.Title,
			View:  t.View,
			Steps: len(t.Steps),
		}
	}
	s.writeJSON(w, r, http.StatusOK, summaries)
}

func (s *Server) startTour(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, err := s.runner.Start(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) activeSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.runner.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

// step adapts one runner method into a handler. Next, previous, and
// skip share the same shape: no body in, a snapshot out.
func (s *Server) step(op func(ports.TourRunner, context.Context) (domain.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op(s.runner, r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, snap)
	}
}

func (s *Server) jumpToStep(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validateBody("JumpRequest", payload); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var body jumpRequest
	raw, _ := json.Marshal(payload)
	if err := json.Unmarshal(raw, &body); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := s.runner.JumpTo(r.Context(), body.StepID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) tourRecord(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	record, err := s.records.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, record)
}

// validateBody checks a decoded JSON body against a named schema from
// the embedded document.
func (s *Server) validateBody(schema string, payload any) error {
	ref, ok := s.spec.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema %q not in embedded document", schema)
	}
	if err := ref.Value.VisitJSON(payload); err != nil {
		return fmt.Errorf("body does not match schema %s: %w", schema, err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNoTour), errors.Is(err, domain.ErrRecordNotFound):
		s.writeStatus(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotRunning):
		s.writeStatus(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnknownStep):
		s.writeStatus(w, r, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.writeStatus(w, r, http.StatusInternalServerError, err.Error())
	}
}
