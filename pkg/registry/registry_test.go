package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/ports"
	"github.com/weftworks/weft/pkg/registry"
)

func noop(ctx context.Context, state map[string]any) (map[string]any, error) {
	return state, nil
}

func TestRegistry_RegisterResolve(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register("echo", noop, "returns the state unchanged"))

	fn, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.NotNil(t, fn)

	_, err = r.Resolve("missing")
	assert.ErrorIs(t, err, ports.ErrFuncNotFound)
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register("echo", noop, ""))
	assert.Error(t, r.Register("echo", noop, ""), "duplicate registration must fail, not overwrite")
}

func TestRegistry_List(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register("a", noop, "first"))
	require.NoError(t, r.Register("b", noop, ""))

	list := r.List()
	assert.Equal(t, "first", list["a"])
	assert.Equal(t, "Function: b", list["b"], "empty descriptions get a default")
	assert.Len(t, list, 2)
}

func TestRegistry_IsolatedInstances(t *testing.T) {
	a := registry.New()
	b := registry.New()
	require.NoError(t, a.Register("only-in-a", noop, ""))

	_, err := b.Resolve("only-in-a")
	assert.ErrorIs(t, err, ports.ErrFuncNotFound, "registries must not share state")
}
