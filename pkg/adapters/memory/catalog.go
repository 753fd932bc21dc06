package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/docentlabs/docent/pkg/domain"
)

// Catalog implements ports.CatalogSource from a static tour list.
// Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	tours map[string]domain.Tour
	order []string
}

// NewCatalog creates a catalog source holding the given tours.
func NewCatalog(tours ...domain.Tour) *Catalog {
	c := &Catalog{tours: make(map[string]domain.Tour)}
	for _, tour := range tours {
		c.Put(tour)
	}
	return c
}

// Put upserts a tour definition.
func (c *Catalog) Put(tour domain.Tour) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tours[tour.Name]; !exists {
		c.order = append(c.order, tour.Name)
	}
	c.tours[tour.Name] = tour
}

// Tour retrieves one tour by name.
func (c *Catalog) Tour(ctx context.Context, name string) (*domain.Tour, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tour, ok := c.tours[name]
	if !ok {
		return nil, fmt.Errorf("tour %q: %w", name, domain.ErrNoTour)
	}
	ret := tour
	return &ret, nil
}

// Tours lists the tours in insertion order.
func (c *Catalog) Tours(ctx context.Context) ([]domain.Tour, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Tour, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tours[name])
	}
	return out, nil
}
