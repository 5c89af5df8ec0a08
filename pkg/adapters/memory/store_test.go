package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/adapters/memory"
	"github.com/weftworks/weft/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	record := &ports.RunRecord{
		ID:           "run-1",
		GraphName:    "counter",
		Status:       ports.RunCompleted,
		InitialState: map[string]any{"count": 0.0},
	}
	require.NoError(t, store.Save(ctx, record))

	// Mutating the saved record must not affect the stored copy.
	record.Status = ports.RunFailed

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, ports.RunCompleted, loaded.Status)
}

func TestMemoryStore_SaveWithoutID(t *testing.T) {
	err := memory.NewStore().Save(context.Background(), &ports.RunRecord{})
	assert.Error(t, err)
}
