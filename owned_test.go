package wstask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnedTasks_BindRemove(t *testing.T) {
	o := newOwnedTasks()
	task := newTestTask()

	require.NoError(t, o.bind(task))
	assert.True(t, o.assertOwner(task))
	assert.Equal(t, 1, o.len())

	assert.True(t, o.remove(task))
	assert.False(t, o.assertOwner(task))
	assert.False(t, o.remove(task), "removing twice reports not-live")
}

func TestOwnedTasks_BindAfterCloseFails(t *testing.T) {
	o := newOwnedTasks()
	o.closeAndShutdownAll()
	assert.True(t, o.isClosed())

	err := o.bind(newTestTask())
	assert.ErrorIs(t, err, ErrOwnedClosed)
}

func TestOwnedTasks_CloseAndShutdownAllReturnsLiveSnapshot(t *testing.T) {
	o := newOwnedTasks()
	a, b := newTestTask(), newTestTask()
	require.NoError(t, o.bind(a))
	require.NoError(t, o.bind(b))

	live := o.closeAndShutdownAll()
	assert.ElementsMatch(t, []Task{a, b}, live)
	assert.True(t, o.isEmpty())

	// A second call (e.g. a racing worker) sees nothing left to hand back.
	assert.Empty(t, o.closeAndShutdownAll())
}
