// Package catalog maps view identities to tour definitions and decides
// when a tour should launch on its own. It wraps any CatalogSource with
// validation, a view index, and optional reload-on-change.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// Catalog validates and indexes tours from a source. It caches the last
// good load, so a failed reload keeps serving the previous set. Catalog
// itself implements ports.CatalogSource and is what the session manager
// should be handed.
type Catalog struct {
	source ports.CatalogSource
	logger *slog.Logger

	mu     sync.RWMutex
	loaded bool
	byName map[string]domain.Tour
	byView map[string]string // view identity to tour name
	order  []string
}

// Option configures the Catalog.
type Option func(*Catalog)

// WithLogger configures a logger for load and reload events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logging.OrNop(logger)
	}
}

// New wraps a source. Tours are loaded lazily on first access; call
// Load to surface authoring errors eagerly.
func New(source ports.CatalogSource, opts ...Option) *Catalog {
	c := &Catalog{
		source: source,
		logger: logging.NewNop(),
		byName: make(map[string]domain.Tour),
		byView: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.CatalogSource = (*Catalog)(nil)

// Load reads every tour from the source, validates it, and rebuilds the
// indexes. The whole load fails on the first invalid tour, duplicate
// tour name, or view claimed by two tours; the previous set keeps
// serving in that case.
func (c *Catalog) Load(ctx context.Context) error {
	tours, err := c.source.Tours(ctx)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	byName := make(map[string]domain.Tour, len(tours))
	byView := make(map[string]string)
	order := make([]string, 0, len(tours))
	for _, tour := range tours {
		if err := tour.Validate(); err != nil {
			return fmt.Errorf("catalog: tour %q: %w", tour.Name, err)
		}
		if _, dup := byName[tour.Name]; dup {
			return fmt.Errorf("catalog: duplicate tour name %q", tour.Name)
		}
		byName[tour.Name] = tour
		order = append(order, tour.Name)

		if tour.View == "" {
			continue
		}
		if prior, dup := byView[tour.View]; dup {
			return fmt.Errorf("catalog: view %q is claimed by both %q and %q", tour.View, prior, tour.Name)
		}
		byView[tour.View] = tour.Name
	}

	c.mu.Lock()
	c.loaded = true
	c.byName, c.byView, c.order = byName, byView, order
	c.mu.Unlock()

	c.logger.Info("Catalog loaded", "tours", len(order))
	return nil
}

// Tour returns the named tour, or ErrNoTour.
func (c *Catalog) Tour(ctx context.Context, name string) (*domain.Tour, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	tour, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("tour %q: %w", name, domain.ErrNoTour)
	}
	ret := tour
	return &ret, nil
}

// Tours lists the loaded tours in source order.
func (c *Catalog) Tours(ctx context.Context) ([]domain.Tour, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Tour, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out, nil
}

// ByView returns the tour mapped to a view identity, or ErrNoTour when
// no tour claims the view.
func (c *Catalog) ByView(ctx context.Context, view string) (*domain.Tour, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.byView[view]
	if !ok {
		return nil, fmt.Errorf("view %q: %w", view, domain.ErrNoTour)
	}
	ret := c.byName[name]
	return &ret, nil
}

// AutoReload reloads the catalog whenever the source reports a change.
// It returns an error when the source is not watchable. Reload failures
// keep the previous set and are logged; the watch stops with ctx.
func (c *Catalog) AutoReload(ctx context.Context) error {
	watchable, ok := c.source.(ports.Watchable)
	if !ok {
		return fmt.Errorf("catalog source %T does not support watching", c.source)
	}
	changes, err := watchable.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := c.Load(ctx); err != nil {
					c.logger.Warn("Catalog reload failed, keeping previous set", "err", err)
				}
			}
		}
	}()
	return nil
}

func (c *Catalog) ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Load(ctx)
}
