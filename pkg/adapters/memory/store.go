package memory

import (
	"context"
	"sync"

	"github.com/docentlabs/docent/pkg/domain"
)

// Store implements ports.RecordStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Record),
	}
}

// Load retrieves the record for a tour.
func (s *Store) Load(ctx context.Context, tourName string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[tourName]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	// Copy on read so the caller can't mutate store state by pointer
	ret := *record
	return &ret, nil
}

// Save persists the record, replacing any previous one whole.
func (s *Store) Save(ctx context.Context, record *domain.Record) error {
	// Copy to ensure isolation, similar to serialization
	copied := *record

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.TourName] = &copied
	return nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, tourName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, tourName)
	return nil
}

// List returns recorded tour names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	return names, nil
}
