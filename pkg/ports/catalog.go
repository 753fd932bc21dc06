package ports

import (
	"context"

	"github.com/docentlabs/docent/pkg/domain"
)

// CatalogSource defines how the engine retrieves tour definitions.
// This decouples the authoring storage (YAML trees, Loam repositories,
// memory) from the catalog and the auto-launch gate.
type CatalogSource interface {
	// Tour retrieves one tour definition by name.
	// Returns domain.ErrNoTour if the name is unknown.
	Tour(ctx context.Context, name string) (*domain.Tour, error)

	// Tours lists every tour definition in the source. Order is not
	// significant; the catalog indexes the result by name and view.
	Tours(ctx context.Context) ([]domain.Tour, error)
}

// Watchable defines a catalog source that can notify about backend
// changes. This is typically used for hot-reload in development: the
// catalog re-indexes between sessions when signaled.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying source
	// changes. It abstracts away event details, signaling only that a
	// reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
