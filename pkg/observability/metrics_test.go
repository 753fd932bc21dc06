package observability_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/internal/clock"
	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/observability"
	"github.com/docentlabs/docent/pkg/session"
)

func tourEvent(tour string, outcome *domain.Outcome) *domain.TourEvent {
	return &domain.TourEvent{
		EventBase: domain.EventBase{TourName: tour},
		Outcome:   outcome,
	}
}

func stepEvent(tour string, locatorIndex int, degraded bool) *domain.StepEvent {
	return &domain.StepEvent{
		EventBase:    domain.EventBase{TourName: tour},
		LocatorIndex: locatorIndex,
		Degraded:     degraded,
		Elapsed:      120 * time.Millisecond,
	}
}

func TestMetrics_RecordsLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()
	hooks := m.Hooks()

	hooks.OnTourStart(ctx, tourEvent("onboarding", nil))
	for range 3 {
		hooks.OnStepShown(ctx, stepEvent("onboarding", 0, false))
	}
	hooks.OnStepResolved(ctx, stepEvent("onboarding", 0, false))
	hooks.OnStepResolved(ctx, stepEvent("onboarding", 2, false))
	hooks.OnStepResolved(ctx, stepEvent("onboarding", -1, true))
	hooks.OnTourEnd(ctx, tourEvent("onboarding", &domain.Outcome{
		TourName:       "onboarding",
		Completed:      true,
		StepsCompleted: 3,
	}))

	expected := `
# HELP docent_active_sessions Tour sessions currently running.
# TYPE docent_active_sessions gauge
docent_active_sessions 0
# HELP docent_step_resolutions_total Step target resolutions, by how the target was found.
# TYPE docent_step_resolutions_total counter
docent_step_resolutions_total{result="degraded",tour="onboarding"} 1
docent_step_resolutions_total{result="fallback",tour="onboarding"} 1
docent_step_resolutions_total{result="primary",tour="onboarding"} 1
# HELP docent_steps_shown_total Steps that became current.
# TYPE docent_steps_shown_total counter
docent_steps_shown_total{tour="onboarding"} 3
# HELP docent_tours_ended_total Tour sessions ended, by outcome.
# TYPE docent_tours_ended_total counter
docent_tours_ended_total{outcome="completed",tour="onboarding"} 1
# HELP docent_tours_started_total Tour sessions started.
# TYPE docent_tours_started_total counter
docent_tours_started_total{tour="onboarding"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"docent_active_sessions",
		"docent_step_resolutions_total",
		"docent_steps_shown_total",
		"docent_tours_ended_total",
		"docent_tours_started_total",
	))

	series, err := testutil.GatherAndCount(m.Registry(), "docent_step_resolve_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, series, "latency histogram keyed by tour")
}

func TestMetrics_NilOutcomeCountsAsSkipped(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()
	hooks := m.Hooks()

	hooks.OnTourStart(ctx, tourEvent("onboarding", nil))
	hooks.OnTourEnd(ctx, tourEvent("onboarding", nil))

	expected := `
# HELP docent_tours_ended_total Tour sessions ended, by outcome.
# TYPE docent_tours_ended_total counter
docent_tours_ended_total{outcome="skipped",tour="onboarding"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"docent_tours_ended_total",
	))
}

// Wires the hooks into a real session manager and reads the exposition
// endpoint the way a scraper would.
func TestMetrics_ObservesManagerEndToEnd(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()

	surface := memory.NewSurface(domain.Size{Width: 1000, Height: 800},
		memory.Node{ID: "menu", Locators: []string{"#menu"}, Rect: domain.Rect{X: 10, Y: 10, Width: 100, Height: 30}},
		memory.Node{ID: "search", Locators: []string{"#search"}, Rect: domain.Rect{X: 200, Y: 10, Width: 120, Height: 30}},
	)
	tour := domain.Tour{
		Name:  "onboarding",
		Title: "Welcome",
		View:  "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}, Title: "Menu", Body: "Start here.", Side: domain.SideBottom},
			{ID: "search", Locators: []string{"#search"}, Title: "Search", Body: "Find things.", Side: domain.SideRight},
		},
	}
	mgr := session.NewManager(surface, memory.NewCatalog(tour),
		session.WithClock(clock.NewFake(time.Unix(1700000000, 0).UTC())),
		session.WithSettleDelay(0),
		session.WithHooks(m.Hooks()),
	)

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")
	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "search")
	snap, err := mgr.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, snap.Status)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	wantLines := []string{
		`docent_tours_started_total{tour="onboarding"} 1`,
		`docent_steps_shown_total{tour="onboarding"} 2`,
		`docent_step_resolutions_total{result="primary",tour="onboarding"} 2`,
		`docent_tours_ended_total{outcome="completed",tour="onboarding"} 1`,
		`docent_active_sessions 0`,
	}
	assert.Eventually(t, func() bool {
		body := scrape(t, srv.URL)
		for _, line := range wantLines {
			if !strings.Contains(body, line) {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func waitPlaced(t *testing.T, mgr *session.Manager, stepID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := mgr.Snapshot(context.Background())
		return err == nil && snap.StepID == stepID && snap.Placement != nil
	}, 2*time.Second, 2*time.Millisecond)
}

func scrape(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
