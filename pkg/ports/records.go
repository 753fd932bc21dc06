package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docentlabs/docent/pkg/domain"
)

// HasVisited reports whether the tour was ever shown to this user in any
// form (visited, completed, or skipped). A missing record reads as not
// visited.
func HasVisited(ctx context.Context, store RecordStore, tourName string) (bool, error) {
	record, err := store.Load(ctx, tourName)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load record %q: %w", tourName, err)
	}
	return record.Seen(), nil
}

// MarkVisited flags the tour as seen without recording an outcome. The
// auto-launch gate writes this at launch time so a delayed terminal
// write cannot re-trigger the same tour on a later visit. An existing
// record is left untouched.
func MarkVisited(ctx context.Context, store RecordStore, now time.Time, tourName string) error {
	_, err := store.Load(ctx, tourName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("load record %q: %w", tourName, err)
	}
	return store.Save(ctx, &domain.Record{
		TourName:  tourName,
		Visited:   true,
		VisitedAt: &now,
	})
}

// RecordOutcome writes the terminal record for an outcome. The write is
// last-write-wins: recording Completed after Skipped (or the reverse)
// replaces the prior outcome entirely, never accumulating both. Only the
// visited flag and its timestamp survive from an earlier record.
func RecordOutcome(ctx context.Context, store RecordStore, now time.Time, outcome domain.Outcome) error {
	record := &domain.Record{
		TourName:             outcome.TourName,
		Visited:              true,
		Completed:            outcome.Completed,
		Skipped:              outcome.Skipped,
		StepsCompletedAtExit: outcome.StepsCompleted,
	}

	prior, err := store.Load(ctx, outcome.TourName)
	switch {
	case err == nil:
		record.VisitedAt = prior.VisitedAt
	case errors.Is(err, domain.ErrRecordNotFound):
		// First write for this tour.
	default:
		return fmt.Errorf("load record %q: %w", outcome.TourName, err)
	}
	if record.VisitedAt == nil {
		record.VisitedAt = &now
	}

	if outcome.Completed {
		record.CompletedAt = &now
	}
	if outcome.Skipped {
		record.SkippedAt = &now
	}
	return store.Save(ctx, record)
}
