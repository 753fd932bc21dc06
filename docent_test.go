package docent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent"
	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/catalog"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/dsl"
	"github.com/docentlabs/docent/pkg/session"
)

func demoSurface() *memory.Surface {
	return memory.NewSurface(domain.Size{Width: 1000, Height: 800},
		memory.Node{ID: "menu", Locators: []string{"#menu"}, Rect: domain.Rect{X: 10, Y: 10, Width: 100, Height: 30}},
		memory.Node{ID: "search", Locators: []string{"#search"}, Rect: domain.Rect{X: 200, Y: 10, Width: 120, Height: 30}},
	)
}

func demoSource(t *testing.T) *memory.Catalog {
	t.Helper()
	b := dsl.New()
	b.Tour("onboarding").
		Title("Getting started").
		View("dashboard").
		Step("welcome").Target("#menu").Title("Welcome!").
		Step("search").Target("#search").Title("Find anything")
	source, err := b.Build()
	require.NoError(t, err)
	return source
}

func TestNew_RequiresSourceOrPath(t *testing.T) {
	_, err := docent.New(demoSurface(), "")
	assert.Error(t, err)
}

func TestEngine_Lifecycle(t *testing.T) {
	ctx := context.Background()
	eng, err := docent.New(demoSurface(), "",
		docent.WithSource(demoSource(t)),
		docent.WithSessionOptions(session.WithSettleDelay(0)),
		docent.WithGateOptions(catalog.WithLaunchDelay(0)),
	)
	require.NoError(t, err)

	snap, err := eng.Start(ctx, "onboarding")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, snap.Status)
	assert.Equal(t, "welcome", snap.StepID)
	assert.True(t, eng.Active())

	snap, err = eng.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "search", snap.StepID)

	snap, err = eng.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, "welcome", snap.StepID)

	snap, err = eng.JumpTo(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, "search", snap.StepID)

	// Completing past the last step ends the session.
	snap, err = eng.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, snap.Status)
	assert.False(t, eng.Active())
}

func TestEngine_AutoLaunchOncePerView(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	eng, err := docent.New(demoSurface(), "",
		docent.WithSource(demoSource(t)),
		docent.WithRecordStore(store),
		docent.WithSessionOptions(session.WithSettleDelay(0)),
		docent.WithGateOptions(catalog.WithLaunchDelay(0)),
	)
	require.NoError(t, err)

	launched, err := eng.EnterView(ctx, "dashboard")
	require.NoError(t, err)
	assert.True(t, launched)
	assert.True(t, eng.Active())

	_, err = eng.Skip(ctx)
	require.NoError(t, err)

	// Seen tours never relaunch.
	launched, err = eng.EnterView(ctx, "dashboard")
	require.NoError(t, err)
	assert.False(t, launched)

	// Views without a tour are quiet.
	launched, err = eng.EnterView(ctx, "settings")
	require.NoError(t, err)
	assert.False(t, launched)
}

func TestEngine_RecordsSurviveAcrossEngines(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	build := func() *docent.Engine {
		eng, err := docent.New(demoSurface(), "",
			docent.WithSource(demoSource(t)),
			docent.WithRecordStore(store),
			docent.WithSessionOptions(session.WithSettleDelay(0)),
		docent.WithGateOptions(catalog.WithLaunchDelay(0)),
		)
		require.NoError(t, err)
		return eng
	}

	eng := build()
	launched, err := eng.EnterView(ctx, "dashboard")
	require.NoError(t, err)
	require.True(t, launched)
	_, err = eng.Skip(ctx)
	require.NoError(t, err)

	// A fresh engine on the same store remembers the visit.
	eng = build()
	launched, err = eng.EnterView(ctx, "dashboard")
	require.NoError(t, err)
	assert.False(t, launched)
}

func TestEngine_ToursAndReload(t *testing.T) {
	ctx := context.Background()
	source := demoSource(t)
	eng, err := docent.New(demoSurface(), "", docent.WithSource(source))
	require.NoError(t, err)

	tours, err := eng.Tours(ctx)
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, "onboarding", tours[0].Name)

	source.Put(domain.Tour{
		Name:  "advanced",
		Steps: []domain.Step{{ID: "a", Locators: []string{"#menu"}, Title: "A"}},
	})
	require.NoError(t, eng.Reload(ctx))

	tours, err = eng.Tours(ctx)
	require.NoError(t, err)
	assert.Len(t, tours, 2)
}
