package wstask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfig_Defaults(t *testing.T) {
	c := resolveConfig(nil)
	assert.Greater(t, c.workerCount, 0)
	assert.EqualValues(t, 61, c.eventInterval)
	assert.EqualValues(t, 61, c.globalQueueInterval)
	assert.Equal(t, 128, c.defaultTaskBudget)
	assert.NotNil(t, c.logger)
	assert.NotNil(t, c.driver)
	assert.NotNil(t, c.blockingSpawner)
	assert.NotNil(t, c.seedGenerator)
	assert.False(t, c.disableLIFOSlot)
}

func TestResolveConfig_OptionsOverrideDefaults(t *testing.T) {
	c := resolveConfig([]Option{
		WithWorkerCount(7),
		WithDisableLIFOSlot(true),
		WithEventInterval(30),
		WithGlobalQueueInterval(10),
		WithTaskBudget(256),
		WithMetrics(true),
	})
	assert.Equal(t, 7, c.workerCount)
	assert.True(t, c.disableLIFOSlot)
	assert.EqualValues(t, 30, c.eventInterval)
	assert.EqualValues(t, 10, c.globalQueueInterval)
	assert.Equal(t, 256, c.defaultTaskBudget)
	assert.True(t, c.metricsEnabled)
}

func TestResolveConfig_InvalidOverridesAreIgnored(t *testing.T) {
	c := resolveConfig([]Option{
		WithWorkerCount(-1),
		WithEventInterval(0),
		WithGlobalQueueInterval(1), // below the documented minimum of 2
		WithTaskBudget(0),
	})
	assert.Greater(t, c.workerCount, 0)
	assert.EqualValues(t, 61, c.eventInterval)
	assert.EqualValues(t, 61, c.globalQueueInterval)
	assert.Equal(t, 128, c.defaultTaskBudget)
}

func TestResolveConfig_NilOptionIsSkipped(t *testing.T) {
	assert.NotPanics(t, func() {
		resolveConfig([]Option{nil, WithWorkerCount(2)})
	})
}
