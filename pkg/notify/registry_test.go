package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EmitOrderAndUnsubscribe(t *testing.T) {
	var r Registry[string]
	var got []string

	unsubA := r.Subscribe(func(v string) { got = append(got, "a:"+v) })
	r.Subscribe(func(v string) { got = append(got, "b:"+v) })
	require.Equal(t, 2, r.Len())

	r.Emit("x")
	assert.Equal(t, []string{"a:x", "b:x"}, got)

	unsubA()
	unsubA()
	require.Equal(t, 1, r.Len())

	got = nil
	r.Emit("y")
	assert.Equal(t, []string{"b:y"}, got)
}

func TestRegistry_UnsubscribeFromObserver(t *testing.T) {
	var r Registry[int]
	calls := 0
	var unsub func()
	unsub = r.Subscribe(func(int) {
		calls++
		unsub()
	})

	r.Emit(1)
	r.Emit(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, r.Len())
}
