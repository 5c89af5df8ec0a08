package functions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/weft/pkg/functions"
	"github.com/weftworks/weft/pkg/registry"
)

func TestRegister(t *testing.T) {
	reg := registry.New()
	require.NoError(t, functions.Register(reg))

	list := reg.List()
	for _, name := range []string{"echo", "increment", "stamp_time", "fail"} {
		assert.Contains(t, list, name)
	}
}

func TestIncrement(t *testing.T) {
	out, err := functions.Increment(context.Background(), map[string]any{"count": 2.0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out["count"])

	out, err = functions.Increment(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out["count"], "a missing count starts at zero")
}

func TestStampTime(t *testing.T) {
	out, err := functions.StampTime(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.NotEmpty(t, out["timestamp"])
}

func TestFail(t *testing.T) {
	_, err := functions.Fail(context.Background(), map[string]any{"fail_message": "boom"})
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())

	_, err = functions.Fail(context.Background(), map[string]any{})
	assert.EqualError(t, err, "node failed")
}
