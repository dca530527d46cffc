package wstask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdleCoordinator_SearchingCapAtHalfPool(t *testing.T) {
	c := newIdleCoordinator(4)

	assert.True(t, c.transitionWorkerToSearching())
	assert.True(t, c.transitionWorkerToSearching())
	// 2 of 4 already searching: 2*2 >= 4, so a third is refused.
	assert.False(t, c.transitionWorkerToSearching())
	assert.Equal(t, 2, c.numSearching())
}

func TestIdleCoordinator_FromSearchingReportsLastSearcher(t *testing.T) {
	c := newIdleCoordinator(4)
	require := assert.New(t)

	require.True(c.transitionWorkerToSearching())
	require.True(c.transitionWorkerToSearching())

	require.False(c.transitionWorkerFromSearching(), "one searcher remains")
	require.True(c.transitionWorkerFromSearching(), "now the last one")
	require.False(c.transitionWorkerFromSearching(), "nobody left to remove")
}

func TestIdleCoordinator_ParkAndNotify(t *testing.T) {
	c := newIdleCoordinator(2)

	isLast := c.transitionWorkerToParked(0, false)
	assert.False(t, isLast)
	assert.Equal(t, 1, c.numParked())

	idx, ok := c.workerToNotify()
	require := assert.New(t)
	require.True(ok)
	require.Equal(uint32(0), idx)
	require.Equal(0, c.numParked())

	// The worker named by workerToNotify wakes and accounts for its own
	// transition exactly once.
	isSearching := c.transitionWorkerFromParked(0)
	require.True(isSearching)
	require.Equal(1, c.numSearching())
}

func TestIdleCoordinator_NotifyOnEmptyFails(t *testing.T) {
	c := newIdleCoordinator(2)
	_, ok := c.workerToNotify()
	assert.False(t, ok)
}

func TestIdleCoordinator_WokenByArbitraryWorkerDoesNotDoubleCount(t *testing.T) {
	c := newIdleCoordinator(3)

	c.transitionWorkerToParked(0, false)
	c.transitionWorkerToParked(1, false)

	// workerToNotify names worker 1 (the most recently parked), but (since
	// every worker blocks on one shared Driver) worker 0 is the one that
	// actually wakes up.
	named, ok := c.workerToNotify()
	assert := assert.New(t)
	assert.True(ok)
	assert.Equal(uint32(1), named)

	assert.True(c.transitionWorkerFromParked(0))
	assert.Equal(1, c.numSearching())
	assert.Equal(0, c.numParked(), "worker 1's entry was popped by workerToNotify; worker 0 removed its own")

	// Worker 1 wakes later; it is no longer in the parked set, but is still
	// counted as searching exactly once.
	assert.True(c.transitionWorkerFromParked(1))
	assert.Equal(2, c.numSearching())
	assert.Equal(0, c.numParked())
}
