package middleware

import (
	"context"
	"errors"
	"sync"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

type cacheMiddleware struct {
	next ports.RecordStore

	mu      sync.Mutex
	records map[string]*domain.Record // nil value caches a confirmed miss
}

// NewCacheMiddleware memoizes reads so the auto-launch gate's HasVisited
// probe does not hit a remote store on every view transition. Writes go
// through to the backing store and refresh the cached entry; confirmed
// misses are cached too, since "never visited" is the common answer on a
// fresh profile. The cache assumes this process is the only writer.
func NewCacheMiddleware() Middleware {
	return func(next ports.RecordStore) ports.RecordStore {
		return &cacheMiddleware{
			next:    next,
			records: make(map[string]*domain.Record),
		}
	}
}

func (m *cacheMiddleware) Load(ctx context.Context, tourName string) (*domain.Record, error) {
	m.mu.Lock()
	cached, ok := m.records[tourName]
	m.mu.Unlock()
	if ok {
		if cached == nil {
			return nil, domain.ErrRecordNotFound
		}
		ret := *cached
		return &ret, nil
	}

	record, err := m.next.Load(ctx, tourName)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			m.put(tourName, nil)
		}
		return nil, err
	}
	m.put(tourName, record)
	ret := *record
	return &ret, nil
}

func (m *cacheMiddleware) Save(ctx context.Context, record *domain.Record) error {
	if err := m.next.Save(ctx, record); err != nil {
		// The backing write failed; drop the entry rather than guessing
		// which side is right now.
		m.evict(record.TourName)
		return err
	}
	m.put(record.TourName, record)
	return nil
}

func (m *cacheMiddleware) Delete(ctx context.Context, tourName string) error {
	if err := m.next.Delete(ctx, tourName); err != nil {
		m.evict(tourName)
		return err
	}
	m.put(tourName, nil)
	return nil
}

// List always reaches the backing store; only point reads are cached.
func (m *cacheMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *cacheMiddleware) put(tourName string, record *domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record == nil {
		m.records[tourName] = nil
		return
	}
	copied := *record
	m.records[tourName] = &copied
}

func (m *cacheMiddleware) evict(tourName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, tourName)
}
