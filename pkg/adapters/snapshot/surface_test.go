package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/pkg/adapters/snapshot"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
	"github.com/docentlabs/docent/pkg/ports/tests"
	"github.com/docentlabs/docent/pkg/resolve"
)

const fixture = `{
  "viewport": {"width": 1280, "height": 800},
  "tree": [
    {
      "id": "header",
      "selectors": ["header.top-bar"],
      "rect": {"x": 0, "y": 0, "width": 1280, "height": 56},
      "children": [
        {
          "id": "search",
          "selectors": ["#search", ".search-box"],
          "rect": {"x": 900, "y": 10, "width": 240, "height": 36}
        }
      ]
    },
    {
      "id": "sidebar",
      "selectors": ["nav.sidebar"],
      "rect": {"x": 0, "y": 56, "width": 220, "height": 744},
      "children": [
        {
          "id": "reports-link",
          "selectors": [".nav-item", "#nav-reports"],
          "rect": {"x": 12, "y": 180, "width": 196, "height": 40},
          "hidden": true
        },
        {
          "id": "settings-link",
          "selectors": [".nav-item"],
          "rect": {"x": 12, "y": 228, "width": 196, "height": 40}
        }
      ]
    }
  ]
}`

func newTestSurface(t *testing.T) *snapshot.Surface {
	t.Helper()
	surface, err := snapshot.Parse([]byte(fixture))
	require.NoError(t, err)
	return surface
}

func TestSnapshotSurface_Contract(t *testing.T) {
	tests.SurfaceContractTest(t, newTestSurface(t), tests.SurfaceFixture{
		MatchLocator:   ".nav-item",
		MatchCount:     2,
		MissingLocator: "#no-such-node",
		BadLocator:     "   ",
	})
}

func TestSnapshotSurface_DocumentOrder(t *testing.T) {
	surface := newTestSurface(t)
	ctx := context.Background()

	matches, err := surface.Find(ctx, ".nav-item")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	// Pre-order traversal: the reports link precedes the settings link.
	assert.Equal(t, "reports-link", matches[0].ID)
	assert.Equal(t, "settings-link", matches[1].ID)
}

func TestSnapshotSurface_HiddenNodes(t *testing.T) {
	surface := newTestSurface(t)
	ctx := context.Background()

	rect, err := surface.Measure(ctx, "reports-link")
	require.NoError(t, err)
	assert.True(t, rect.Empty(), "hidden nodes measure zero extent")

	patch, err := surface.Apply(ctx, "reports-link", ports.PatchForceVisible)
	require.NoError(t, err)

	rect, err = surface.Measure(ctx, "reports-link")
	require.NoError(t, err)
	assert.False(t, rect.Empty(), "force-visible reveals the captured rect")

	require.NoError(t, patch.Revert(ctx))
	rect, err = surface.Measure(ctx, "reports-link")
	require.NoError(t, err)
	assert.True(t, rect.Empty(), "revert restores the hidden state")
}

func TestSnapshotSurface_ResolverIntegration(t *testing.T) {
	surface := newTestSurface(t)
	resolver := resolve.New(surface, resolve.WithRetryPolicy(resolve.RetryPolicy{MaxAttempts: 1}))

	// Falls through a selector that matches nothing to the working one.
	result, err := resolver.Resolve(context.Background(), domain.Step{
		ID:       "find-search",
		Locators: []string{"#renamed-search", ".search-box"},
	})
	require.NoError(t, err)
	assert.Equal(t, "search", result.Element.ID)
	assert.Equal(t, 1, result.LocatorIndex, "audit reporting relies on the matched fallback index")
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"invalid json", `{"viewport"`},
		{"missing viewport", `{"tree": []}`},
		{"duplicate ids", `{
			"viewport": {"width": 100, "height": 100},
			"tree": [
				{"id": "a", "rect": {"x":0,"y":0,"width":1,"height":1}},
				{"id": "a", "rect": {"x":0,"y":0,"width":1,"height":1}}
			]}`},
		{"node without id", `{
			"viewport": {"width": 100, "height": 100},
			"tree": [{"rect": {"x":0,"y":0,"width":1,"height":1}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := snapshot.Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}
