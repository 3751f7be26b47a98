package hub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chub "github.com/next-trace/scg-event-hub/contract/hub"
	"github.com/next-trace/scg-event-hub/hub"
)

func constant(v any) chub.RoutineFunc {
	return func(context.Context, chub.Args) (any, error) { return v, nil }
}

func TestRoutines_RegisterLookupUnregister(t *testing.T) {
	r := hub.NewRoutines()

	_, ok := r.Lookup("r")
	require.False(t, ok)

	r.Register("r", constant(1))

	h, ok := r.Lookup("r")
	require.True(t, ok)

	v, err := h.Handle(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	r.Unregister("r")
	r.Unregister("r") // absent: no-op

	_, ok = r.Lookup("r")
	assert.False(t, ok)
}

func TestRoutines_LastWriteWins(t *testing.T) {
	r := hub.NewRoutines()
	r.Register("r", constant("first"))
	r.Register("r", constant("second"))

	h, ok := r.Lookup("r")
	require.True(t, ok)

	v, _ := h.Handle(t.Context(), nil)
	assert.Equal(t, "second", v)
	assert.Equal(t, []string{"r"}, r.Names())
}

func TestRoutines_NilHandlerUnregisters(t *testing.T) {
	r := hub.NewRoutines()
	r.Register("r", constant(1))
	r.Register("r", nil)

	_, ok := r.Lookup("r")
	assert.False(t, ok)
	assert.Empty(t, r.Names())
}
