package wstask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCore_BudgetConsumeAndReset(t *testing.T) {
	cfg := &config{defaultTaskBudget: 5}
	c := newCore(0, cfg, 1)

	assert.Equal(t, 5, c.Budget())
	assert.Equal(t, 3, c.ConsumeBudget(2))
	assert.Equal(t, 0, c.ConsumeBudget(100), "budget floors at zero")

	c.resetBudget(cfg)
	assert.Equal(t, 5, c.Budget())
}

func TestCore_DeferQueuesWithoutRunningImmediately(t *testing.T) {
	cfg := &config{defaultTaskBudget: 1}
	c := newCore(0, cfg, 1)

	a, b := newTestTask(), newTestTask()
	c.Defer(a)
	c.Defer(b)

	assert.Equal(t, []Task{a, b}, c.deferred, "Defer only queues; takeDeferred drains")
}

func TestCore_TakeDeferredDrainsAndClears(t *testing.T) {
	cfg := &config{defaultTaskBudget: 1}
	c := newCore(0, cfg, 1)

	a, b := newTestTask(), newTestTask()
	c.Defer(a)
	c.Defer(b)

	got := c.takeDeferred()
	assert.Equal(t, []Task{a, b}, got)
	assert.Nil(t, c.takeDeferred(), "second drain is empty")
}

func TestCore_IndexAndIsShutdown(t *testing.T) {
	cfg := &config{defaultTaskBudget: 1}
	c := newCore(3, cfg, 1)
	assert.Equal(t, 3, c.Index())
	assert.False(t, c.IsShutdown(), "no scheduler attached yet")

	sched := &Scheduler{shared: newShared(cfg, []*Remote{{runQueue: c.runQueue}})}
	c.sched = sched
	assert.False(t, c.IsShutdown())

	sched.shared.beginShutdown()
	assert.True(t, c.IsShutdown(), "IsShutdown reads through Shared, so every Core sharing it observes shutdown")
}
