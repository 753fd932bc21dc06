package middleware

import (
	"context"
	"strings"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

type namespaceMiddleware struct {
	next   ports.RecordStore
	prefix string
}

// NewNamespaceMiddleware scopes every record under a namespace, so one
// backing store can hold per-user tour histories: the same tour seen by
// two users produces two independent records. The separator is ":" to
// stay clear of the "." the flat field schema splits on.
func NewNamespaceMiddleware(namespace string) Middleware {
	prefix := namespace + ":"
	return func(next ports.RecordStore) ports.RecordStore {
		return &namespaceMiddleware{next: next, prefix: prefix}
	}
}

func (m *namespaceMiddleware) Load(ctx context.Context, tourName string) (*domain.Record, error) {
	record, err := m.next.Load(ctx, m.prefix+tourName)
	if err != nil {
		return nil, err
	}
	record.TourName = tourName
	return record, nil
}

func (m *namespaceMiddleware) Save(ctx context.Context, record *domain.Record) error {
	scoped := *record
	scoped.TourName = m.prefix + record.TourName
	return m.next.Save(ctx, &scoped)
}

func (m *namespaceMiddleware) Delete(ctx context.Context, tourName string) error {
	return m.next.Delete(ctx, m.prefix+tourName)
}

// List returns only the records of this namespace, unscoped.
func (m *namespaceMiddleware) List(ctx context.Context) ([]string, error) {
	all, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, name := range all {
		if strings.HasPrefix(name, m.prefix) {
			names = append(names, strings.TrimPrefix(name, m.prefix))
		}
	}
	return names, nil
}
