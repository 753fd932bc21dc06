package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentlabs/docent/pkg/domain"
)

// RunRecordStoreContract runs a suite of tests to verify that a
// RecordStore implementation adheres to the defined interface contract,
// in particular idempotence and last-write-wins replacement.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	tourName := "contract-tour-" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		record := &domain.Record{
			TourName:             tourName,
			Visited:              true,
			Completed:            true,
			StepsCompletedAtExit: 4,
			VisitedAt:            &now,
			CompletedAt:          &now,
		}

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, tourName)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, tourName, loaded.TourName)
		assert.True(t, loaded.Visited)
		assert.True(t, loaded.Completed)
		assert.False(t, loaded.Skipped)
		assert.Equal(t, 4, loaded.StepsCompletedAtExit)
		require.NotNil(t, loaded.CompletedAt)
		assert.True(t, loaded.CompletedAt.Equal(now), "CompletedAt should round-trip")
		assert.Nil(t, loaded.SkippedAt)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+tourName)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		// Completed first, then skipped. Only the skip must remain.
		err := RecordOutcome(ctx, store, now, domain.Outcome{
			TourName: tourName, Completed: true, StepsCompleted: 5,
		})
		require.NoError(t, err)

		later := now.Add(time.Minute)
		err = RecordOutcome(ctx, store, later, domain.Outcome{
			TourName: tourName, Skipped: true, StepsCompleted: 2,
		})
		require.NoError(t, err)

		loaded, err := store.Load(ctx, tourName)
		require.NoError(t, err)
		assert.False(t, loaded.Completed, "completed flag must be replaced, not accumulated")
		assert.True(t, loaded.Skipped)
		assert.Equal(t, 2, loaded.StepsCompletedAtExit)
		assert.Nil(t, loaded.CompletedAt)
		require.NotNil(t, loaded.SkippedAt)
		assert.True(t, loaded.SkippedAt.Equal(later))
	})

	t.Run("Idempotent Save", func(t *testing.T) {
		record := &domain.Record{TourName: tourName, Visited: true, Skipped: true, StepsCompletedAtExit: 2}
		require.NoError(t, store.Save(ctx, record))
		require.NoError(t, store.Save(ctx, record))

		names, err := store.List(ctx)
		require.NoError(t, err)
		count := 0
		for _, n := range names {
			if n == tourName {
				count++
			}
		}
		assert.Equal(t, 1, count, "repeated saves must not duplicate the record")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.Record{TourName: tourName, Visited: true}))

		err := store.Delete(ctx, tourName)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, tourName)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Load after Delete should return ErrRecordNotFound")

		assert.NoError(t, store.Delete(ctx, tourName), "deleting a missing record is not an error")
	})

	t.Run("List", func(t *testing.T) {
		name1 := tourName + "-1"
		name2 := tourName + "-2"
		_ = store.Save(ctx, &domain.Record{TourName: name1, Visited: true})
		_ = store.Save(ctx, &domain.Record{TourName: name2, Visited: true})

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, name1)
			_ = store.Delete(ctx, name2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, name1)
		assert.Contains(t, names, name2)
	})
}
