package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/pkg/catalog"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports/tests"
)

const onboardingYAML = `name: onboarding
title: Welcome tour
view: dashboard
steps:
  - id: welcome
    targetSelector: "#menu"
    title: Welcome
    content: |
      This is **your** menu.
    position: bottom
    delay: 500
  - id: search
    targetSelector:
      - "#search"
      - ".navbar .search"
    title: Search
    waitForElement: true
    delay: 1.5s
    onAdvance: focus-search
  - id: wrap-up
    title: All done
    position: center
    requires: [search]
`

func writeTourFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestFileSource_LoadsAndMapsTours(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTourFile(t, dir, "onboarding.yaml", onboardingYAML)

	source := catalog.NewFileSource(dir)
	tours, err := source.Tours(ctx)
	require.NoError(t, err)
	require.Len(t, tours, 1)

	tour := tours[0]
	assert.Equal(t, "onboarding", tour.Name)
	assert.Equal(t, "Welcome tour", tour.Title)
	assert.Equal(t, "dashboard", tour.View)
	require.NoError(t, tour.Validate())
	require.Len(t, tour.Steps, 3)

	welcome := tour.Steps[0]
	assert.Equal(t, []string{"#menu"}, welcome.Locators)
	assert.Equal(t, domain.SideBottom, welcome.Side)
	assert.Equal(t, 500*time.Millisecond, welcome.AppearDelay, "bare integers are milliseconds")
	assert.Contains(t, welcome.Body, "**your** menu")

	search := tour.Steps[1]
	assert.Equal(t, []string{"#search", ".navbar .search"}, search.Locators)
	assert.True(t, search.WaitForTarget)
	assert.Equal(t, 1500*time.Millisecond, search.AppearDelay, "duration strings parse as-is")
	assert.Equal(t, "focus-search", search.OnAdvance)
	assert.Equal(t, domain.SideBottom, search.EffectiveSide(), "position defaults to bottom")

	wrapUp := tour.Steps[2]
	assert.Equal(t, domain.SideCenter, wrapUp.Side)
	assert.Empty(t, wrapUp.Locators)
	assert.Equal(t, []string{"search"}, wrapUp.Requires)
}

func TestFileSource_NameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	writeTourFile(t, dir, "billing-intro.yml", `view: billing
steps:
  - id: intro
    targetSelector: "#invoices"
`)

	tour, err := catalog.NewFileSource(dir).Tour(context.Background(), "billing-intro")
	require.NoError(t, err)
	assert.Equal(t, "billing-intro", tour.Name)
}

func TestFileSource_UnknownTour(t *testing.T) {
	dir := t.TempDir()
	writeTourFile(t, dir, "onboarding.yaml", onboardingYAML)

	_, err := catalog.NewFileSource(dir).Tour(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNoTour)
}

func TestFileSource_MalformedFileNamesTheFile(t *testing.T) {
	dir := t.TempDir()
	writeTourFile(t, dir, "broken.yaml", "steps: [\n")

	_, err := catalog.NewFileSource(dir).Tours(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestFileSource_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTourFile(t, dir, "onboarding.yaml", onboardingYAML)
	writeTourFile(t, dir, "README.md", "# not a tour")

	tours, err := catalog.NewFileSource(dir).Tours(context.Background())
	require.NoError(t, err)
	assert.Len(t, tours, 1)
}

func TestFileSource_WatchSignalsChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeTourFile(t, dir, "onboarding.yaml", onboardingYAML)

	source := catalog.NewFileSource(dir)
	changes, err := source.Watch(ctx)
	require.NoError(t, err)

	writeTourFile(t, dir, "reports.yaml", `view: reports
steps:
  - id: intro
    targetSelector: "#chart"
`)

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after writing a tour file")
	}
}

func TestFileSource_Contract(t *testing.T) {
	dir := t.TempDir()
	writeTourFile(t, dir, "onboarding.yaml", onboardingYAML)
	writeTourFile(t, dir, "reports.yaml", `name: reports
view: reports
steps:
  - id: intro
    targetSelector: "#chart"
`)

	tests.CatalogSourceContractTest(t, catalog.NewFileSource(dir), []string{"onboarding", "reports"})
}

func TestCatalog_AutoReloadPicksUpNewTours(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeTourFile(t, dir, "onboarding.yaml", onboardingYAML)

	cat := catalog.New(catalog.NewFileSource(dir))
	require.NoError(t, cat.Load(ctx))
	require.NoError(t, cat.AutoReload(ctx))

	_, err := cat.Tour(ctx, "reports")
	assert.ErrorIs(t, err, domain.ErrNoTour)

	writeTourFile(t, dir, "reports.yaml", `name: reports
view: reports
steps:
  - id: intro
    targetSelector: "#chart"
`)

	assert.Eventually(t, func() bool {
		_, err := cat.Tour(ctx, "reports")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "reload never picked up the new tour")
}
