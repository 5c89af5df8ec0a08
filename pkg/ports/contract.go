package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := &RunRecord{
			ID:           runID,
			GraphName:    "contract-graph",
			Status:       RunCompleted,
			InitialState: map[string]any{"foo": "bar"},
			FinalState:   map[string]any{"foo": "bar", "count": 3.0},
			CreatedAt:    time.Now().UTC(),
		}

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.GraphName, loaded.GraphName)
		assert.Equal(t, RunCompleted, loaded.Status)
		assert.Equal(t, "bar", loaded.FinalState["foo"])
		// JSON persistence may widen numbers; presence is what matters here.
		assert.NotNil(t, loaded.FinalState["count"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("Overwrite Updates Status", func(t *testing.T) {
		record := &RunRecord{ID: runID, GraphName: "contract-graph", Status: RunRunning, CreatedAt: time.Now().UTC()}
		require.NoError(t, store.Save(ctx, record))

		record.Status = RunFailed
		record.Error = "boom"
		require.NoError(t, store.Save(ctx, record))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, RunFailed, loaded.Status)
		assert.Equal(t, "boom", loaded.Error)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &RunRecord{ID: runID, Status: RunPending, CreatedAt: time.Now().UTC()}))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, &RunRecord{ID: id1, Status: RunPending, CreatedAt: time.Now().UTC()})
		_ = store.Save(ctx, &RunRecord{ID: id2, Status: RunPending, CreatedAt: time.Now().UTC()})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
