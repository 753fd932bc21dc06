package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/pkg/adapters/memory"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/persistence/middleware"
	"github.com/docentlabs/docent/pkg/ports"
)

// countingStore wraps a store to count Load calls reaching the backend.
type countingStore struct {
	ports.RecordStore
	loads int
}

func (c *countingStore) Load(ctx context.Context, tourName string) (*domain.Record, error) {
	c.loads++
	return c.RecordStore.Load(ctx, tourName)
}

func TestNamespaceMiddleware_Contract(t *testing.T) {
	store := middleware.NewNamespaceMiddleware("user-42")(memory.NewStore())
	ports.RunRecordStoreContract(t, store)
}

func TestNamespaceMiddleware_Isolation(t *testing.T) {
	backing := memory.NewStore()
	alice := middleware.NewNamespaceMiddleware("alice")(backing)
	bob := middleware.NewNamespaceMiddleware("bob")(backing)
	ctx := context.Background()

	require.NoError(t, alice.Save(ctx, &domain.Record{TourName: "welcome", Visited: true, Completed: true}))

	_, err := bob.Load(ctx, "welcome")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound, "records must not leak across namespaces")

	loaded, err := alice.Load(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "welcome", loaded.TourName, "namespace prefix must not leak into loaded records")

	names, err := bob.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = alice.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"welcome"}, names)
}

func TestCacheMiddleware_Contract(t *testing.T) {
	store := middleware.NewCacheMiddleware()(memory.NewStore())
	ports.RunRecordStoreContract(t, store)
}

func TestCacheMiddleware_MemoizesReads(t *testing.T) {
	counting := &countingStore{RecordStore: memory.NewStore()}
	store := middleware.NewCacheMiddleware()(counting)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{TourName: "welcome", Visited: true}))

	for i := 0; i < 5; i++ {
		_, err := store.Load(ctx, "welcome")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, counting.loads, "reads after a write must come from the cache")

	// A confirmed miss is cached too.
	for i := 0; i < 5; i++ {
		_, err := store.Load(ctx, "never-seen")
		require.True(t, errors.Is(err, domain.ErrRecordNotFound))
	}
	assert.Equal(t, 1, counting.loads, "a miss resolves against the backend once")
}

func TestChain_Order(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.Chain(backing,
		middleware.NewNamespaceMiddleware("user-7"),
		middleware.NewCacheMiddleware(),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{TourName: "welcome", Visited: true}))

	// The backing store sees the namespaced key.
	raw, err := backing.Load(ctx, "user-7:welcome")
	require.NoError(t, err)
	assert.True(t, raw.Visited)

	loaded, err := store.Load(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "welcome", loaded.TourName)
}
