// Package redis persists tour records in Redis, one hash per tour.
package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// Store implements ports.RecordStore using Redis. Each tour record is a
// hash keyed by the prefixed tour name, with fields following the shared
// flat record schema, so records stay readable by other backends.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.RecordStore = (*Store)(nil)

type Option func(*Store)

// WithTTL sets the expiration for records. Zero (the default) keeps them
// forever; a TTL effectively re-enables a tour after the window passes.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "docent:record:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(tourName string) string {
	return s.prefix + tourName
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save replaces the record hash whole. Deleting before writing keeps the
// write last-wins: stale fields from a prior outcome never linger.
func (s *Store) Save(ctx context.Context, record *domain.Record) error {
	fields := ports.RecordFields(record)
	flat := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		flat[k] = v
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(record.TourName))
	pipe.HSet(ctx, s.key(record.TourName), flat)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(record.TourName), s.ttl)
	}
	pipe.SAdd(ctx, s.indexKey(), record.TourName)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save record to redis: %w", err)
	}
	return nil
}

// Load retrieves the record for a tour.
func (s *Store) Load(ctx context.Context, tourName string) (*domain.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key(tourName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get record from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	record, err := ports.RecordFromFields(tourName, fields)
	if err != nil {
		return nil, fmt.Errorf("corrupt record for %q: %w", tourName, err)
	}
	return record, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, tourName string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(tourName))
	pipe.SRem(ctx, s.indexKey(), tourName)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns recorded tour names from the index set.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	// Records may have expired since they were indexed.
	out := names[:0]
	for _, name := range names {
		exists, err := s.client.Exists(ctx, s.key(name)).Result()
		if err != nil {
			return nil, err
		}
		if exists > 0 {
			out = append(out, name)
		}
	}
	return out, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
