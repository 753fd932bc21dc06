package docent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	loamAdapter "github.com/docentlabs/docent/pkg/adapters/loam"
	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/catalog"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
	"github.com/docentlabs/docent/pkg/session"
)

// Engine is the high-level entry point for the docent library. It wires
// the session manager, the tour catalog, and the auto-launch gate into
// one object with a simplified API for hosts.
type Engine struct {
	manager *session.Manager
	catalog *catalog.Catalog
	gate    *catalog.Gate

	source      ports.CatalogSource
	store       ports.RecordStore
	logger      *slog.Logger
	sessionOpts []session.Option
	gateOpts    []catalog.GateOption

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource injects a custom catalog source, bypassing the default
// Loam initialization.
func WithSource(source ports.CatalogSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithRecordStore sets the store for visited/completed/skipped records.
// The default keeps records in memory, scoped to the process.
func WithRecordStore(store ports.RecordStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks on the session manager.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithHooks(hooks))
	}
}

// WithAnalyticsSink enables publishing of terminal tour outcomes.
func WithAnalyticsSink(sink ports.AnalyticsSink) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithAnalyticsSink(sink))
	}
}

// WithActionDispatcher wires the handler for step advance actions.
func WithActionDispatcher(d ports.ActionDispatcher) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithActionDispatcher(d))
	}
}

// WithSessionOptions appends raw session manager options, for knobs the
// facade does not surface directly (clock, tooltip size, retry policy).
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithGateOptions appends auto-launch gate options (launch delay, gate
// clock).
func WithGateOptions(opts ...catalog.GateOption) Option {
	return func(e *Engine) {
		e.gateOpts = append(e.gateOpts, opts...)
	}
}

// New initializes a docent Engine on the given surface.
// By default, tours are read from a Loam repository at tourPath. If the
// WithSource option is provided, tourPath can be empty and Loam is
// skipped.
func New(surface ports.Surface, tourPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}

	// Apply options first to check whether a source was provided.
	for _, opt := range opts {
		opt(eng)
	}

	if eng.source == nil {
		if tourPath == "" {
			return nil, fmt.Errorf("tourPath is required when no custom source is provided")
		}
		source, err := loamAdapter.Open(tourPath)
		if err != nil {
			return nil, fmt.Errorf("open tour repository: %w", err)
		}
		eng.source = source
	}
	if tourPath != "" {
		absPath, err := filepath.Abs(tourPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
	}

	// Never pass a nil logger down; the manager would install its own
	// default and the catalog another.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("catalog", eng.Name)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	eng.catalog = catalog.New(eng.source, catalog.WithLogger(eng.logger))

	sessionOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithRecordStore(eng.store),
	}
	sessionOpts = append(sessionOpts, eng.sessionOpts...)
	eng.manager = session.NewManager(surface, eng.catalog, sessionOpts...)

	gateOpts := []catalog.GateOption{catalog.WithGateLogger(eng.logger)}
	gateOpts = append(gateOpts, eng.gateOpts...)
	eng.gate = catalog.NewGate(eng.catalog, eng.store, eng.manager, gateOpts...)

	return eng, nil
}

// Start begins the named tour, force-ending any tour already running.
func (e *Engine) Start(ctx context.Context, tourName string) (domain.Snapshot, error) {
	return e.manager.Start(ctx, tourName)
}

// Next advances the running tour one step, completing it on the last.
func (e *Engine) Next(ctx context.Context) (domain.Snapshot, error) {
	return e.manager.Next(ctx)
}

// Previous steps the running tour back. At the first step it is a
// no-op.
func (e *Engine) Previous(ctx context.Context) (domain.Snapshot, error) {
	return e.manager.Previous(ctx)
}

// Skip ends the running tour as skipped.
func (e *Engine) Skip(ctx context.Context) (domain.Snapshot, error) {
	return e.manager.Skip(ctx)
}

// JumpTo navigates the running tour directly to a step by ID.
func (e *Engine) JumpTo(ctx context.Context, stepID string) (domain.Snapshot, error) {
	return e.manager.JumpTo(ctx, stepID)
}

// Snapshot reports the running session. Returns domain.ErrNotRunning
// when no tour is active.
func (e *Engine) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return e.manager.Snapshot(ctx)
}

// Active reports whether a tour session is currently running.
func (e *Engine) Active() bool {
	return e.manager.Active()
}

// EnterView tells the auto-launch gate the host navigated to a view.
// It returns true when a tour was launched for it.
func (e *Engine) EnterView(ctx context.Context, view string) (bool, error) {
	return e.gate.OnViewEnter(ctx, view)
}

// Tours lists the tour definitions in the catalog.
func (e *Engine) Tours(ctx context.Context) ([]domain.Tour, error) {
	return e.catalog.Tours(ctx)
}

// Reload re-indexes the catalog from its source.
func (e *Engine) Reload(ctx context.Context) error {
	return e.catalog.Load(ctx)
}

// AutoReload re-indexes the catalog whenever the source signals a
// change, until the context is canceled. Returns an error if the source
// does not support watching.
func (e *Engine) AutoReload(ctx context.Context) error {
	return e.catalog.AutoReload(ctx)
}

// WatchResize re-solves the current placement on surface resize events,
// until the context is canceled.
func (e *Engine) WatchResize(ctx context.Context) error {
	return e.manager.WatchResize(ctx)
}

// Manager exposes the underlying session manager, for transports that
// speak ports.TourRunner.
func (e *Engine) Manager() *session.Manager {
	return e.manager
}

// Catalog exposes the underlying tour catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Records exposes the underlying record store.
func (e *Engine) Records() ports.RecordStore {
	return e.store
}
