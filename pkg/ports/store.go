package ports

import (
	"context"

	"github.com/docentlabs/docent/pkg/domain"
)

// RecordStore defines the interface for persisting per-tour outcome
// records. Durable records let the auto-launch gate honor "first visit
// only" across restarts.
type RecordStore interface {
	// Load retrieves the record for a tour name.
	// Returns domain.ErrRecordNotFound if the tour was never recorded.
	Load(ctx context.Context, tourName string) (*domain.Record, error)

	// Save persists the record for a tour name, replacing any previous
	// record whole. Saves are idempotent and last-write-wins; a record is
	// never partially overwritten.
	Save(ctx context.Context, record *domain.Record) error

	// Delete removes the record for a tour name. Deleting a record that
	// does not exist is not an error.
	Delete(ctx context.Context, tourName string) error

	// List returns the tour names that have stored records.
	List(ctx context.Context) ([]string, error)
}
