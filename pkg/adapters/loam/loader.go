// Package loam adapts a Loam markdown repository as a tour catalog
// source: one document per tour, front matter carrying the tour and its
// steps in the authoring schema, the body serving as the tour title when
// none is given.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// Source adapts the Loam library to the docent CatalogSource interface.
type Source struct {
	Repo *loam.TypedRepository[TourMetadata]
}

var (
	_ ports.CatalogSource = (*Source)(nil)
	_ ports.Watchable     = (*Source)(nil)
)

// New creates a new Loam catalog source.
func New(repo *loam.TypedRepository[TourMetadata]) *Source {
	return &Source{Repo: repo}
}

// Open initializes a read-only Loam repository at path and wraps it as
// a catalog source. Strict mode keeps front matter types consistent
// across Loam's adapters; the source never writes to the repository.
func Open(path string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TourMetadata](repo)), nil
}

// Tour retrieves one tour document by name. Loam's normalized retrieval
// finds "welcome.md" when asked for "welcome".
func (s *Source) Tour(ctx context.Context, name string) (*domain.Tour, error) {
	doc, err := s.Repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("tour %q: %w", name, domain.ErrNoTour)
	}
	tour, err := s.toTour(doc.ID, doc.Data)
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

// Tours lists every tour document in the repository.
func (s *Source) Tours(ctx context.Context) ([]domain.Tour, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	tours := make([]domain.Tour, 0, len(docs))
	for _, doc := range docs {
		tour, err := s.toTour(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}
	return tours, nil
}

// Watch implements ports.Watchable over Loam's recursive file watcher.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// toTour maps one document onto the domain shape. The document filename
// names the tour when the front matter does not.
func (s *Source) toTour(docID string, meta TourMetadata) (domain.Tour, error) {
	name := meta.Name
	if name == "" {
		name = trimExtension(docID)
	}

	tour := domain.Tour{
		Name:  name,
		Title: meta.Title,
		View:  meta.View,
		Steps: make([]domain.Step, 0, len(meta.Steps)),
	}
	for i, step := range meta.Steps {
		locators, err := normalizeSelectors(step.TargetSelector)
		if err != nil {
			return domain.Tour{}, fmt.Errorf("tour %q step %d: %w", name, i, err)
		}
		tour.Steps = append(tour.Steps, domain.Step{
			ID:            step.ID,
			Locators:      locators,
			Title:         step.Title,
			Body:          step.Content,
			Side:          domain.Side(strings.ToLower(step.Position)),
			WaitForTarget: step.WaitForElement,
			AppearDelay:   time.Duration(step.DelayMs) * time.Millisecond,
			OnAdvance:     step.OnAdvance,
			Requires:      step.Requires,
		})
	}
	return tour, nil
}

// normalizeSelectors accepts the authoring forms of targetSelector:
// a single string or a list of fallback strings.
func normalizeSelectors(v any) ([]string, error) {
	switch sel := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{sel}, nil
	default:
		var list []string
		if err := mapstructure.Decode(v, &list); err != nil {
			return nil, fmt.Errorf("targetSelector must be a string or a list of strings: %w", err)
		}
		return list, nil
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
