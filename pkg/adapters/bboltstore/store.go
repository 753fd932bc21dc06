// Package bboltstore persists tour records in a local bbolt file, for
// embedders that want durable first-visit gating without a server.
package bboltstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

var bucketRecords = []byte("records")

// Store implements ports.RecordStore on a bbolt database. Records are
// stored as one entry per field of the shared flat schema, keyed
// "<tourName>.<field>", so the on-disk layout matches the other
// backends key for key.
type Store struct {
	db *bolt.DB
}

var _ ports.RecordStore = (*Store)(nil)

// Open creates or opens a record database at path, creating parent
// directories as needed. The open times out instead of blocking forever
// on a file another process holds.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("bboltstore: db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bboltstore: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the tour's entries in a single transaction: stale fields
// from a prior outcome are cleared before the new ones are written.
func (s *Store) Save(ctx context.Context, record *domain.Record) error {
	fields := ports.RecordFields(record)
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if err := deletePrefix(bucket, record.TourName); err != nil {
			return err
		}
		for key, value := range fields {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load retrieves the record for a tour.
func (s *Store) Load(ctx context.Context, tourName string) (*domain.Record, error) {
	fields := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketRecords).Cursor()
		prefix := []byte(tourName + ".")
		for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
			fields[string(k)] = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	record, err := ports.RecordFromFields(tourName, fields)
	if err != nil {
		return nil, fmt.Errorf("bboltstore: corrupt record for %q: %w", tourName, err)
	}
	return record, nil
}

// Delete removes the record for a tour.
func (s *Store) Delete(ctx context.Context, tourName string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deletePrefix(tx.Bucket(bucketRecords), tourName)
	})
}

// List returns the tour names that have stored records, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			if tourName, _, ok := ports.SplitRecordKey(string(k)); ok {
				seen[tourName] = true
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func deletePrefix(bucket *bolt.Bucket, tourName string) error {
	cursor := bucket.Cursor()
	prefix := []byte(tourName + ".")
	var stale [][]byte
	for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cursor.Next() {
		stale = append(stale, append([]byte(nil), k...))
	}
	for _, k := range stale {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
