package wstask

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectionQueue_FIFO(t *testing.T) {
	q := newInjectionQueue()
	pushed := make([]*testTask, injectionChunkSize+5)
	for i := range pushed {
		pushed[i] = newTestTask()
		require.NoError(t, q.push(pushed[i]))
	}
	require.Equal(t, len(pushed), q.len())

	for i := range pushed {
		task, ok := q.pop()
		require.True(t, ok)
		assert.Same(t, pushed[i], task)
	}
	assert.True(t, q.isEmpty())
}

func TestInjectionQueue_PushBatch(t *testing.T) {
	q := newInjectionQueue()
	batch := []Task{newTestTask(), newTestTask(), newTestTask()}
	q.pushBatch(batch)
	assert.Equal(t, 3, q.len())

	got := q.popN(10)
	assert.Len(t, got, 3)
}

func TestInjectionQueue_CloseRejectsPush(t *testing.T) {
	q := newInjectionQueue()
	q.close()
	assert.True(t, q.isClosed())

	err := q.push(newTestTask())
	assert.ErrorIs(t, err, ErrInjectionClosed)

	// pushBatch silently no-ops once closed.
	q.pushBatch([]Task{newTestTask()})
	assert.Equal(t, 0, q.len())
}

func TestInjectionQueue_AlreadyQueuedTasksStillPoppableAfterClose(t *testing.T) {
	q := newInjectionQueue()
	task := newTestTask()
	require.NoError(t, q.push(task))
	q.close()

	got, ok := q.pop()
	require.True(t, ok)
	assert.Same(t, task, got)
}

func TestInjectionQueue_ConcurrentPushPop(t *testing.T) {
	q := newInjectionQueue()
	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				_ = q.push(newTestTask())
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		_, ok := q.pop()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, producers*perProducer, count)
}
