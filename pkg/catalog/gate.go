package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// DefaultLaunchDelay is the settle window between a view becoming
// active and the auto-launch, so the view's first paint finishes before
// the engine starts querying it.
const DefaultLaunchDelay = 500 * time.Millisecond

// Starter is the slice of the session manager the gate drives.
type Starter interface {
	Start(ctx context.Context, tourName string) (domain.Snapshot, error)
	Active() bool
}

// Gate decides whether entering a view should auto-launch its tour.
// A tour launches at most once per process, only when the persisted
// record says it was never visited, and never while another tour runs.
type Gate struct {
	catalog *Catalog
	store   ports.RecordStore
	starter Starter
	clock   ports.Clock
	logger  *slog.Logger
	delay   time.Duration

	mu       sync.Mutex
	launched map[string]bool
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLaunchDelay overrides the settle window before an auto-launch.
func WithLaunchDelay(d time.Duration) GateOption {
	return func(g *Gate) {
		g.delay = d
	}
}

// WithGateClock substitutes the gate's time source.
func WithGateClock(c ports.Clock) GateOption {
	return func(g *Gate) {
		g.clock = c
	}
}

// WithGateLogger configures a logger for launch decisions.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logging.OrNop(logger)
	}
}

// NewGate builds the auto-launch gate over a catalog, a record store,
// and whatever starts tours (normally the session manager).
func NewGate(catalog *Catalog, store ports.RecordStore, starter Starter, opts ...GateOption) *Gate {
	g := &Gate{
		catalog:  catalog,
		store:    store,
		starter:  starter,
		clock:    ports.SystemClock{},
		logger:   logging.NewNop(),
		delay:    DefaultLaunchDelay,
		launched: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OnViewEnter evaluates the auto-launch policy for a view becoming
// active and returns whether a tour was started. It blocks for the
// settle delay before launching; pass a view-scoped context so leaving
// the view cancels a pending launch, and run it on a goroutine when the
// caller must not block.
//
// The launch claim is consumed at decision time: even if the start
// later fails, the tour will not be auto-attempted again this process.
func (g *Gate) OnViewEnter(ctx context.Context, view string) (bool, error) {
	tour, err := g.catalog.ByView(ctx, view)
	if err != nil {
		if errors.Is(err, domain.ErrNoTour) {
			return false, nil
		}
		return false, err
	}
	if g.starter.Active() {
		return false, nil
	}

	visited, err := ports.HasVisited(ctx, g.store, tour.Name)
	if err != nil {
		return false, fmt.Errorf("gate: %w", err)
	}
	if visited {
		return false, nil
	}

	// Claim the launch before the settle delay: a second evaluation
	// racing through here must lose even though the visited write has
	// not landed yet.
	g.mu.Lock()
	if g.launched[tour.Name] {
		g.mu.Unlock()
		return false, nil
	}
	g.launched[tour.Name] = true
	g.mu.Unlock()

	if err := g.clock.Sleep(ctx, g.delay); err != nil {
		return false, err
	}
	if g.starter.Active() {
		// Something started a tour while we waited. Auto-launch never
		// preempts it.
		return false, nil
	}

	if _, err := g.starter.Start(ctx, tour.Name); err != nil {
		return false, fmt.Errorf("gate: start %q: %w", tour.Name, err)
	}
	g.logger.Info("Auto-launched tour", "tour", tour.Name, "view", view)
	return true, nil
}
