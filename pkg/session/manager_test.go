package session_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/internal/clock"
	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
	"github.com/docentlabs/docent/pkg/resolve"
	"github.com/docentlabs/docent/pkg/session"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

// RecordingSink captures published outcomes so tests can assert on the
// analytics contract without a server.
type RecordingSink struct {
	mu       sync.Mutex
	fail     bool
	outcomes []domain.Outcome
}

func (s *RecordingSink) Publish(ctx context.Context, outcome domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *RecordingSink) Outcomes() []domain.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Outcome(nil), s.outcomes...)
}

// RecordingDispatcher captures advance actions.
type RecordingDispatcher struct {
	mu    sync.Mutex
	fail  bool
	calls []string
}

func (d *RecordingDispatcher) Dispatch(ctx context.Context, action string, step domain.Step) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, action+"@"+step.ID)
	if d.fail {
		return errors.New("handler exploded")
	}
	return nil
}

func (d *RecordingDispatcher) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func demoSurface() *memory.Surface {
	return memory.NewSurface(domain.Size{Width: 1000, Height: 800},
		memory.Node{ID: "menu", Locators: []string{"#menu"}, Rect: domain.Rect{X: 10, Y: 10, Width: 100, Height: 30}},
		memory.Node{ID: "search", Locators: []string{"#search"}, Rect: domain.Rect{X: 200, Y: 10, Width: 120, Height: 30}},
		memory.Node{ID: "profile", Locators: []string{"#profile"}, Rect: domain.Rect{X: 860, Y: 700, Width: 60, Height: 30}},
	)
}

func demoTour() domain.Tour {
	return domain.Tour{
		Name: "onboarding",
		View: "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}, Title: "Welcome", Side: domain.SideBottom},
			{ID: "search", Locators: []string{"#search"}, Title: "Find anything", Side: domain.SideRight},
			{ID: "profile", Locators: []string{"#profile"}, Title: "Your profile", Side: domain.SideTop},
		},
	}
}

// newManager builds a manager on a fake clock with settle disabled, so
// tests only observe the delays they script themselves. Options appended
// later override these defaults.
func newManager(t *testing.T, surface *memory.Surface, tours []domain.Tour, opts ...session.Option) (*session.Manager, *memory.Store, *clock.Fake) {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFake(time.Unix(1700000000, 0).UTC())
	base := []session.Option{
		session.WithClock(clk),
		session.WithRecordStore(store),
		session.WithSettleDelay(0),
	}
	mgr := session.NewManager(surface, memory.NewCatalog(tours...), append(base, opts...)...)
	return mgr, store, clk
}

// waitPlaced polls until the named step has a solved placement.
func waitPlaced(t *testing.T, mgr *session.Manager, stepID string) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	require.Eventually(t, func() bool {
		s, err := mgr.Snapshot(context.Background())
		if err != nil {
			return false
		}
		snap = s
		return s.StepID == stepID && s.Placement != nil
	}, waitFor, tick, "step %q never got a placement", stepID)
	return snap
}

func TestStart_ResolvesAndHighlightsFirstStep(t *testing.T) {
	ctx := context.Background()
	surface := demoSurface()
	mgr, store, _ := newManager(t, surface, []domain.Tour{demoTour()})

	snap, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, snap.Status)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, "welcome", snap.StepID)
	assert.NotEmpty(t, snap.SessionID)

	snap = waitPlaced(t, mgr, "welcome")
	assert.Equal(t, "menu", snap.TargetID)
	assert.Equal(t, domain.SideBottom, snap.Placement.Side)
	assert.False(t, snap.Placement.Degraded)
	// menu centers at x=60; the tooltip is 320 wide, so the x clamp pins
	// it at the padding. y sits 10 under the target's bottom edge.
	assert.Equal(t, domain.Point{X: 10, Y: 50}, snap.Placement.Position)

	assert.ElementsMatch(t,
		[]ports.PatchKind{ports.PatchEmphasis, ports.PatchBackdrop},
		surface.ActivePatches(),
	)
	assert.Contains(t, surface.Scrolled(), "menu")

	visited, err := ports.HasVisited(ctx, store, "onboarding")
	require.NoError(t, err)
	assert.True(t, visited)
}

func TestStart_UnknownTour(t *testing.T) {
	mgr, _, _ := newManager(t, demoSurface(), []domain.Tour{demoTour()})

	_, err := mgr.Start(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNoTour)
	assert.False(t, mgr.Active())
}

func TestNext_CompletesTourAndRecordsOutcome(t *testing.T) {
	ctx := context.Background()
	surface := demoSurface()
	sink := &RecordingSink{}
	mgr, store, _ := newManager(t, surface, []domain.Tour{demoTour()},
		session.WithAnalyticsSink(sink))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	snap, err := mgr.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Index)
	snap = waitPlaced(t, mgr, "search")
	// right of the search box: x = 320 + 10, y centers then clamps up.
	assert.Equal(t, domain.Point{X: 330, Y: 10}, snap.Placement.Position)

	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "profile")

	snap, err = mgr.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.Index)

	record, err := store.Load(ctx, "onboarding")
	require.NoError(t, err)
	assert.True(t, record.Completed)
	assert.False(t, record.Skipped)
	assert.Equal(t, 3, record.StepsCompletedAtExit)
	assert.NotNil(t, record.CompletedAt)

	assert.Empty(t, surface.ActivePatches(), "highlight must be released on completion")

	_, err = mgr.Snapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)
	_, err = mgr.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)

	assert.Eventually(t, func() bool {
		outcomes := sink.Outcomes()
		return len(outcomes) == 1 &&
			outcomes[0].Completed &&
			!outcomes[0].Skipped &&
			outcomes[0].StepsCompleted == 3
	}, waitFor, tick)
}

func TestMissingTarget_DegradesToCenterAndRecovers(t *testing.T) {
	ctx := context.Background()
	surface := demoSurface()

	var resolved []domain.StepEvent
	var mu sync.Mutex
	hooks := domain.Hooks{
		OnStepResolved: func(_ context.Context, e *domain.StepEvent) {
			mu.Lock()
			resolved = append(resolved, *e)
			mu.Unlock()
		},
	}

	tour := domain.Tour{
		Name: "onboarding",
		View: "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}},
			{ID: "ghost", Locators: []string{"#missing"}, WaitForTarget: true},
			{ID: "profile", Locators: []string{"#profile"}, Side: domain.SideTop},
		},
	}
	mgr, _, _ := newManager(t, surface, []domain.Tour{tour},
		session.WithHooks(hooks),
		session.WithRetryPolicy(resolve.RetryPolicy{MaxAttempts: 5, Interval: 50 * time.Millisecond}))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	_, err = mgr.Next(ctx)
	require.NoError(t, err)

	snap := waitPlaced(t, mgr, "ghost")
	assert.True(t, snap.Placement.Degraded)
	assert.Equal(t, domain.SideCenter, snap.Placement.Side)
	assert.Equal(t, domain.Point{X: 340, Y: 310}, snap.Placement.Position)
	assert.Empty(t, snap.TargetID)
	assert.Empty(t, surface.ActivePatches(), "degraded steps carry no highlight")
	assert.Equal(t, 5, surface.FindCount("#missing"), "retry budget must be exhausted")

	// The resolved hook fires after the placement commits; wait for it.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(resolved) == 0 {
			return false
		}
		last := resolved[len(resolved)-1]
		return last.StepID == "ghost" && last.LocatorIndex == -1 && last.Degraded
	}, waitFor, tick)

	// The session stays navigable past the degraded step.
	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	snap = waitPlaced(t, mgr, "profile")
	assert.Equal(t, "profile", snap.TargetID)
	assert.False(t, snap.Placement.Degraded)
}

// faultySurface fails every query outright, as a page whose connection
// dropped would.
type faultySurface struct {
	*memory.Surface
}

func (s *faultySurface) Find(ctx context.Context, locator string) ([]ports.Element, error) {
	return nil, errors.New("page connection lost")
}

func TestSurfaceFailure_DegradesToCenter(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1700000000, 0).UTC())
	surface := &faultySurface{Surface: demoSurface()}
	mgr := session.NewManager(surface, memory.NewCatalog(demoTour()),
		session.WithClock(clk),
		session.WithRecordStore(memory.NewStore()),
		session.WithSettleDelay(0),
	)

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)

	snap := waitPlaced(t, mgr, "welcome")
	assert.Equal(t, domain.SideCenter, snap.Placement.Side)
	assert.True(t, snap.Placement.Degraded)
	assert.Empty(t, snap.TargetID, "nothing anchored, nothing highlighted")

	// The tour stays navigable despite the broken surface.
	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	snap = waitPlaced(t, mgr, "search")
	assert.True(t, snap.Placement.Degraded)
}

func TestStart_PreemptsRunningTour(t *testing.T) {
	ctx := context.Background()
	surface := demoSurface()
	sink := &RecordingSink{}
	reports := domain.Tour{
		Name: "reports",
		View: "reports",
		Steps: []domain.Step{
			{ID: "intro", Locators: []string{"#profile"}, Side: domain.SideTop},
		},
	}
	mgr, store, _ := newManager(t, surface, []domain.Tour{demoTour(), reports},
		session.WithAnalyticsSink(sink))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")
	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "search")

	snap, err := mgr.Start(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, "reports", snap.TourName)
	assert.Equal(t, 0, snap.Index)

	record, err := store.Load(ctx, "onboarding")
	require.NoError(t, err)
	assert.True(t, record.Skipped)
	assert.False(t, record.Completed)
	assert.Equal(t, 2, record.StepsCompletedAtExit, "preemption counts the step that was current")

	snap = waitPlaced(t, mgr, "intro")
	assert.Equal(t, "profile", snap.TargetID)
	assert.Len(t, surface.ActivePatches(), 2, "only the new tour's highlight survives")

	assert.Eventually(t, func() bool {
		outcomes := sink.Outcomes()
		return len(outcomes) == 1 && outcomes[0].TourName == "onboarding" &&
			outcomes[0].Skipped && outcomes[0].StepsCompleted == 2
	}, waitFor, tick)
}

func TestSkip_RecordsExitArithmetic(t *testing.T) {
	ctx := context.Background()
	sink := &RecordingSink{}
	mgr, store, _ := newManager(t, demoSurface(), []domain.Tour{demoTour()},
		session.WithAnalyticsSink(sink))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")
	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "search")

	snap, err := mgr.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, snap.Status)

	record, err := store.Load(ctx, "onboarding")
	require.NoError(t, err)
	assert.True(t, record.Skipped)
	assert.Equal(t, 2, record.StepsCompletedAtExit)
	assert.NotNil(t, record.SkippedAt)
	assert.Nil(t, record.CompletedAt)
}

func TestSkip_CancelsInFlightResolution(t *testing.T) {
	ctx := context.Background()
	surface := demoSurface()
	tour := domain.Tour{
		Name: "onboarding",
		View: "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}},
			{ID: "ghost", Locators: []string{"#missing"}, WaitForTarget: true},
		},
	}
	mgr, store, _ := newManager(t, surface, []domain.Tour{tour},
		session.WithClock(ports.SystemClock{}),
		session.WithRetryPolicy(resolve.RetryPolicy{MaxAttempts: 100000, Interval: 5 * time.Millisecond}))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")
	_, err = mgr.Next(ctx)
	require.NoError(t, err)

	// Let the retry loop spin a few times before bailing out.
	require.Eventually(t, func() bool {
		return surface.FindCount("#missing") > 3
	}, waitFor, tick)

	snap, err := mgr.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, snap.Status)

	record, err := store.Load(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, 2, record.StepsCompletedAtExit)

	// The cancelled resolver must stop polling the surface.
	time.Sleep(25 * time.Millisecond)
	count := surface.FindCount("#missing")
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, count, surface.FindCount("#missing"), "resolution kept running after skip")
	assert.Empty(t, surface.ActivePatches())

	_, err = mgr.Snapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)
}

func TestPrevious_NoOpAtFirstStep(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t, demoSurface(), []domain.Tour{demoTour()})

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	snap, err := mgr.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Index)
	assert.NotNil(t, snap.Placement, "a no-op must not clear the solved placement")
	assert.Equal(t, "menu", snap.TargetID)
}

func TestPrevious_NeverReappliesAppearDelay(t *testing.T) {
	ctx := context.Background()
	tour := domain.Tour{
		Name: "onboarding",
		View: "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}},
			{ID: "search", Locators: []string{"#search"}, AppearDelay: 2 * time.Second},
		},
	}
	mgr, _, clk := newManager(t, demoSurface(), []domain.Tour{tour})

	count2s := func() int {
		n := 0
		for _, d := range clk.Slept() {
			if d == 2*time.Second {
				n++
			}
		}
		return n
	}

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "search")
	assert.Equal(t, 1, count2s(), "first entry applies the appear delay")

	_, err = mgr.Previous(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "search")
	assert.Equal(t, 1, count2s(), "revisits must not re-apply the appear delay")
}

func TestJumpTo_PrerequisiteGating(t *testing.T) {
	ctx := context.Background()
	tour := domain.Tour{
		Name: "onboarding",
		View: "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}},
			{ID: "search", Locators: []string{"#search"}},
			{ID: "profile", Locators: []string{"#profile"}, Requires: []string{"search"}},
		},
	}
	mgr, _, _ := newManager(t, demoSurface(), []domain.Tour{tour})

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	snap, err := mgr.JumpTo(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Index, "unmet prerequisites make the jump a no-op")

	_, err = mgr.JumpTo(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownStep)

	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitPlaced(t, mgr, "search")

	snap, err = mgr.JumpTo(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Index)
	waitPlaced(t, mgr, "profile")

	snap, err = mgr.JumpTo(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Index, "backward jumps are always allowed")
}

func TestNext_DispatchesAdvanceAction(t *testing.T) {
	ctx := context.Background()
	dispatcher := &RecordingDispatcher{}
	tour := demoTour()
	tour.Steps[0].OnAdvance = "open-menu"
	mgr, _, _ := newManager(t, demoSurface(), []domain.Tour{tour},
		session.WithActionDispatcher(dispatcher))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"open-menu@welcome"}, dispatcher.Calls())

	// A failing handler must not block navigation.
	dispatcher.fail = true
	tour2 := demoTour()
	tour2.Name = "second"
	tour2.Steps[0].OnAdvance = "boom"
	mgr2, _, _ := newManager(t, demoSurface(), []domain.Tour{tour2},
		session.WithActionDispatcher(dispatcher))
	_, err = mgr2.Start(ctx, "second")
	require.NoError(t, err)
	waitPlaced(t, mgr2, "welcome")
	snap, err := mgr2.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Index)
}

func TestWatchResize_ResolvesPlacementAgain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	surface := demoSurface()
	tour := domain.Tour{
		Name: "reports",
		View: "reports",
		Steps: []domain.Step{
			{ID: "intro", Locators: []string{"#profile"}, Side: domain.SideTop},
		},
	}
	mgr, _, _ := newManager(t, surface, []domain.Tour{tour})
	require.NoError(t, mgr.WatchResize(ctx))

	_, err := mgr.Start(ctx, "reports")
	require.NoError(t, err)
	snap := waitPlaced(t, mgr, "intro")
	assert.Equal(t, domain.Point{X: 670, Y: 510}, snap.Placement.Position)

	surface.SetViewport(domain.Size{Width: 500, Height: 400})

	assert.Eventually(t, func() bool {
		s, err := mgr.Snapshot(ctx)
		if err != nil || s.Placement == nil {
			return false
		}
		return s.Placement.Position == domain.Point{X: 170, Y: 210}
	}, waitFor, tick, "placement must re-clamp to the shrunken viewport")
}

func TestHooks_EventSequence(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var events []string
	record := func(format string, args ...any) {
		mu.Lock()
		events = append(events, fmt.Sprintf(format, args...))
		mu.Unlock()
	}
	hooks := domain.Hooks{
		OnTourStart: func(_ context.Context, e *domain.TourEvent) {
			record("start:%s", e.TourName)
		},
		OnStepShown: func(_ context.Context, e *domain.StepEvent) {
			record("shown:%s", e.StepID)
		},
		OnStepResolved: func(_ context.Context, e *domain.StepEvent) {
			record("resolved:%s:%d", e.StepID, e.LocatorIndex)
		},
		OnTourEnd: func(_ context.Context, e *domain.TourEvent) {
			record("end:%v:%d", e.Outcome.Completed, e.Outcome.StepsCompleted)
		},
	}

	tour := domain.Tour{
		Name: "onboarding",
		View: "dashboard",
		Steps: []domain.Step{
			{ID: "welcome", Locators: []string{"#menu"}},
			{ID: "search", Locators: []string{"#search"}},
		},
	}
	mgr, _, _ := newManager(t, demoSurface(), []domain.Tour{tour},
		session.WithHooks(hooks))

	// Wait on the resolved event itself, not the placement: the hook
	// fires just after the placement commits, and advancing in that
	// window would interleave the end event ahead of it.
	waitEvent := func(want string) {
		t.Helper()
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return slices.Contains(events, want)
		}, waitFor, tick, "missing event %q", want)
	}

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitEvent("resolved:welcome:0")
	_, err = mgr.Next(ctx)
	require.NoError(t, err)
	waitEvent("resolved:search:0")
	_, err = mgr.Next(ctx)
	require.NoError(t, err)

	want := []string{
		"start:onboarding",
		"shown:welcome",
		"resolved:welcome:0",
		"shown:search",
		"resolved:search:0",
		"end:true:2",
	}
	mu.Lock()
	assert.Equal(t, want, events)
	mu.Unlock()
}

func TestAnalyticsFailure_DoesNotBlockCompletion(t *testing.T) {
	ctx := context.Background()
	sink := &RecordingSink{fail: true}
	tour := domain.Tour{
		Name:  "onboarding",
		View:  "dashboard",
		Steps: []domain.Step{{ID: "welcome", Locators: []string{"#menu"}}},
	}
	mgr, store, _ := newManager(t, demoSurface(), []domain.Tour{tour},
		session.WithAnalyticsSink(sink))

	_, err := mgr.Start(ctx, "onboarding")
	require.NoError(t, err)
	waitPlaced(t, mgr, "welcome")

	snap, err := mgr.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, snap.Status)

	record, err := store.Load(ctx, "onboarding")
	require.NoError(t, err)
	assert.True(t, record.Completed, "the record write must not depend on the sink")
}

func TestIdleManager_RejectsTransitions(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newManager(t, demoSurface(), []domain.Tour{demoTour()})

	_, err := mgr.Next(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)
	_, err = mgr.Previous(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)
	_, err = mgr.Skip(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)
	_, err = mgr.JumpTo(ctx, "welcome")
	assert.ErrorIs(t, err, domain.ErrNotRunning)
	_, err = mgr.Snapshot(ctx)
	assert.ErrorIs(t, err, domain.ErrNotRunning)
	assert.False(t, mgr.Active())
}
