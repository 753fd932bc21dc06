package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// SurfaceFixture describes what a surface under contract test contains.
type SurfaceFixture struct {
	// MatchLocator must match at least one element.
	MatchLocator string
	// MatchCount is the exact number of elements MatchLocator matches.
	MatchCount int
	// MissingLocator is syntactically valid but matches nothing.
	MissingLocator string
	// BadLocator must be rejected as unparseable.
	BadLocator string
}

// SurfaceContractTest is a reusable test suite that verifies if an adapter complies with ports.Surface.
func SurfaceContractTest(t *testing.T, surface ports.Surface, fixture SurfaceFixture) {
	t.Helper()
	ctx := context.Background()

	// 1. Find returns matches in stable traversal order
	t.Run("Find_Order", func(t *testing.T) {
		first, err := surface.Find(ctx, fixture.MatchLocator)
		if err != nil {
			t.Fatalf("unexpected error finding %q: %v", fixture.MatchLocator, err)
		}
		if len(first) != fixture.MatchCount {
			t.Fatalf("expected %d matches, got %d", fixture.MatchCount, len(first))
		}

		second, err := surface.Find(ctx, fixture.MatchLocator)
		if err != nil {
			t.Fatalf("unexpected error on repeat find: %v", err)
		}
		if len(second) != len(first) {
			t.Fatalf("match count changed between finds: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Errorf("traversal order not stable at %d: %q vs %q", i, first[i].ID, second[i].ID)
			}
		}
	})

	// 2. Find with no match is an empty result, not an error
	t.Run("Find_Missing", func(t *testing.T) {
		matches, err := surface.Find(ctx, fixture.MissingLocator)
		if err != nil {
			t.Fatalf("unexpected error for missing locator: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %d", len(matches))
		}
	})

	// 3. Unparseable locators surface ErrBadLocator
	t.Run("Find_BadLocator", func(t *testing.T) {
		_, err := surface.Find(ctx, fixture.BadLocator)
		if !errors.Is(err, domain.ErrBadLocator) {
			t.Errorf("expected ErrBadLocator, got %v", err)
		}
	})

	// 4. Measure agrees with the rect reported by Find
	t.Run("Measure", func(t *testing.T) {
		matches, err := surface.Find(ctx, fixture.MatchLocator)
		if err != nil || len(matches) == 0 {
			t.Fatalf("fixture locator failed: %v", err)
		}
		rect, err := surface.Measure(ctx, matches[0].ID)
		if err != nil {
			t.Fatalf("unexpected error measuring: %v", err)
		}
		if rect != matches[0].Rect {
			t.Errorf("measure mismatch: got %+v, want %+v", rect, matches[0].Rect)
		}
	})

	// 5. Measuring a detached element reports the target gone
	t.Run("Measure_Gone", func(t *testing.T) {
		_, err := surface.Measure(ctx, "contract-test-no-such-element")
		if !errors.Is(err, domain.ErrTargetNotFound) {
			t.Errorf("expected ErrTargetNotFound, got %v", err)
		}
	})

	// 6. Viewport has positive extent
	t.Run("Viewport", func(t *testing.T) {
		size, err := surface.Viewport(ctx)
		if err != nil {
			t.Fatalf("unexpected error reading viewport: %v", err)
		}
		if size.Width <= 0 || size.Height <= 0 {
			t.Errorf("expected positive viewport, got %+v", size)
		}
	})

	// 7. Patches revert idempotently
	t.Run("Patch_Revert_Idempotent", func(t *testing.T) {
		matches, err := surface.Find(ctx, fixture.MatchLocator)
		if err != nil || len(matches) == 0 {
			t.Fatalf("fixture locator failed: %v", err)
		}
		patch, err := surface.Apply(ctx, matches[0].ID, ports.PatchEmphasis)
		if err != nil {
			t.Fatalf("unexpected error applying patch: %v", err)
		}
		if patch.Kind() != ports.PatchEmphasis {
			t.Errorf("expected emphasis kind, got %q", patch.Kind())
		}
		if err := patch.Revert(ctx); err != nil {
			t.Fatalf("first revert failed: %v", err)
		}
		if err := patch.Revert(ctx); err != nil {
			t.Errorf("second revert must be a no-op, got %v", err)
		}
	})

	// 8. ScrollIntoView succeeds for attached elements
	t.Run("ScrollIntoView", func(t *testing.T) {
		matches, err := surface.Find(ctx, fixture.MatchLocator)
		if err != nil || len(matches) == 0 {
			t.Fatalf("fixture locator failed: %v", err)
		}
		if err := surface.ScrollIntoView(ctx, matches[0].ID); err != nil {
			t.Errorf("unexpected error scrolling: %v", err)
		}
	})
}

// CatalogSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.CatalogSource.
func CatalogSourceContractTest(t *testing.T, source ports.CatalogSource, wantTours []string) {
	t.Helper()
	ctx := context.Background()

	// 1. Tours lists everything the fixture promised
	t.Run("Tours", func(t *testing.T) {
		tours, err := source.Tours(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing tours: %v", err)
		}
		if len(tours) != len(wantTours) {
			t.Errorf("expected %d tours, got %d", len(wantTours), len(tours))
		}

		lookup := make(map[string]bool)
		for _, tour := range tours {
			lookup[tour.Name] = true
		}
		for _, name := range wantTours {
			if !lookup[name] {
				t.Errorf("tour %s missing from list", name)
			}
		}
	})

	// 2. Tour retrieves valid definitions by name
	t.Run("Tour_Success", func(t *testing.T) {
		for _, name := range wantTours {
			tour, err := source.Tour(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting tour %s: %v", name, err)
			}
			if tour.Name != name {
				t.Errorf("name mismatch: got %q, want %q", tour.Name, name)
			}
			if err := tour.Validate(); err != nil {
				t.Errorf("tour %s fails validation: %v", name, err)
			}
		}
	})

	// 3. Unknown names report ErrNoTour
	t.Run("Tour_NotFound", func(t *testing.T) {
		_, err := source.Tour(ctx, "non-existent-tour")
		if !errors.Is(err, domain.ErrNoTour) {
			t.Errorf("expected ErrNoTour, got %v", err)
		}
	})
}
