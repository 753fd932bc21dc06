package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/catalog"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports/tests"
)

func tourFixture(name, view string) domain.Tour {
	return domain.Tour{
		Name: name,
		View: view,
		Steps: []domain.Step{
			{ID: "intro", Locators: []string{"#menu"}},
		},
	}
}

func TestCatalog_LazyLoadAndLookup(t *testing.T) {
	ctx := context.Background()
	source := memory.NewCatalog(
		tourFixture("onboarding", "dashboard"),
		tourFixture("reports", "reports"),
	)
	cat := catalog.New(source)

	tour, err := cat.Tour(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "dashboard", tour.View)

	tour, err = cat.ByView(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, "reports", tour.Name)

	_, err = cat.ByView(ctx, "settings")
	assert.ErrorIs(t, err, domain.ErrNoTour)

	tours, err := cat.Tours(ctx)
	require.NoError(t, err)
	require.Len(t, tours, 2)
	assert.Equal(t, "onboarding", tours[0].Name)
}

func TestCatalog_RejectsDuplicateView(t *testing.T) {
	source := memory.NewCatalog(
		tourFixture("onboarding", "dashboard"),
		tourFixture("welcome-redux", "dashboard"),
	)
	cat := catalog.New(source)

	err := cat.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard")
	assert.Contains(t, err.Error(), "welcome-redux")
}

func TestCatalog_RejectsInvalidTour(t *testing.T) {
	bad := tourFixture("broken", "dashboard")
	bad.Steps = append(bad.Steps, domain.Step{ID: "intro", Locators: []string{"#other"}})
	cat := catalog.New(memory.NewCatalog(bad))

	err := cat.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step id")
}

func TestCatalog_FailedReloadKeepsPreviousSet(t *testing.T) {
	ctx := context.Background()
	source := memory.NewCatalog(tourFixture("onboarding", "dashboard"))
	cat := catalog.New(source)
	require.NoError(t, cat.Load(ctx))

	// Poison the source; the reload must fail without dropping the
	// catalog that already loaded.
	source.Put(domain.Tour{Name: "broken"})
	require.Error(t, cat.Load(ctx))

	tour, err := cat.Tour(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "onboarding", tour.Name)
	_, err = cat.Tour(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrNoTour)
}

func TestCatalog_ImplementsCatalogSource(t *testing.T) {
	source := memory.NewCatalog(
		tourFixture("onboarding", "dashboard"),
		tourFixture("reports", "reports"),
	)
	tests.CatalogSourceContractTest(t, catalog.New(source), []string{"onboarding", "reports"})
}
