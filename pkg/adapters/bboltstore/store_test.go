package bboltstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/pkg/adapters/bboltstore"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

func newTestStore(t *testing.T) *bboltstore.Store {
	t.Helper()
	store, err := bboltstore.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBboltStore_Contract(t *testing.T) {
	store := newTestStore(t)
	ports.RunRecordStoreContract(t, store)
}

func TestBboltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	store, err := bboltstore.Open(path)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, &domain.Record{
		TourName:             "welcome",
		Visited:              true,
		Completed:            true,
		StepsCompletedAtExit: 3,
		VisitedAt:            &now,
		CompletedAt:          &now,
	}))
	require.NoError(t, store.Close())

	reopened, err := bboltstore.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "welcome")
	require.NoError(t, err)
	assert.True(t, loaded.Completed)
	assert.Equal(t, 3, loaded.StepsCompletedAtExit)
	require.NotNil(t, loaded.CompletedAt)
	assert.True(t, loaded.CompletedAt.Equal(now))
}

func TestBboltStore_DottedTourNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Tour names can contain dots; the field split must not mangle them.
	require.NoError(t, store.Save(ctx, &domain.Record{TourName: "dashboard.v2", Visited: true}))

	loaded, err := store.Load(ctx, "dashboard.v2")
	require.NoError(t, err)
	assert.Equal(t, "dashboard.v2", loaded.TourName)
	assert.True(t, loaded.Visited)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "dashboard.v2")
}
