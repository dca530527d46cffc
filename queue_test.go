package wstask

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTask is a pointer-identity Task usable as a comparable map/set key,
// matching Task's documented requirement ("in practice a pointer type").
type testTask struct {
	fn func(core *Core)
}

func (t *testTask) Run(core *Core) {
	if t.fn != nil {
		t.fn(core)
	}
}

func newTestTask() *testTask { return &testTask{} }

func TestLocalQueue_PushPopFIFO(t *testing.T) {
	q := newLocalQueue()
	inj := newInjectionQueue()

	pushed := make([]*testTask, 10)
	for i := range pushed {
		pushed[i] = newTestTask()
		require.False(t, q.pushBack(pushed[i], inj))
	}

	for i := range pushed {
		task, ok := q.pop()
		require.True(t, ok)
		assert.Same(t, pushed[i], task)
	}
	_, ok := q.pop()
	assert.False(t, ok)
}

func TestLocalQueue_OverflowSpillsHalfToInjection(t *testing.T) {
	q := newLocalQueue()
	inj := newInjectionQueue()

	var overflowed bool
	for i := 0; i < queueCapacity+1; i++ {
		if q.pushBack(newTestTask(), inj) {
			overflowed = true
		}
	}

	require.True(t, overflowed)
	assert.True(t, q.len() <= queueCapacity)
	assert.True(t, inj.len() > 0)

	total := q.len() + inj.len()
	assert.Equal(t, queueCapacity+1, total)
}

func TestLocalQueue_StealIntoTakesHalf(t *testing.T) {
	victim := newLocalQueue()
	inj := newInjectionQueue()
	for i := 0; i < 8; i++ {
		require.False(t, victim.pushBack(newTestTask(), inj))
	}

	thief := newLocalQueue()
	first, ok := victim.stealInto(thief)
	require.True(t, ok)
	assert.NotNil(t, first)

	// 8 tasks total: 1 returned directly, the rest (3) pushed into thief.
	assert.Equal(t, 3, thief.len())
	assert.Equal(t, 4, victim.len())
}

func TestLocalQueue_StealFromEmptyFails(t *testing.T) {
	victim := newLocalQueue()
	thief := newLocalQueue()
	_, ok := victim.stealInto(thief)
	assert.False(t, ok)
}

func TestLocalQueue_ConcurrentStealersNeverDuplicateATask(t *testing.T) {
	victim := newLocalQueue()
	inj := newInjectionQueue()
	const n = 200
	for i := 0; i < n; i++ {
		require.False(t, victim.pushBack(newTestTask(), inj))
	}

	var mu sync.Mutex
	seen := map[Task]struct{}{}
	record := func(t Task) {
		mu.Lock()
		defer mu.Unlock()
		if _, dup := seen[t]; dup {
			panic("duplicate task claimed by more than one stealer")
		}
		seen[t] = struct{}{}
	}

	var wg sync.WaitGroup
	thieves := make([]*localQueue, 4)
	for i := range thieves {
		thieves[i] = newLocalQueue()
	}
	for _, thief := range thieves {
		thief := thief
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := victim.stealInto(thief)
				if !ok {
					break
				}
				record(task)
				for {
					t2, ok := thief.pop()
					if !ok {
						break
					}
					record(t2)
				}
			}
		}()
	}
	wg.Wait()

	for {
		task, ok := victim.pop()
		if !ok {
			break
		}
		record(task)
	}

	assert.Len(t, seen, n)
}
