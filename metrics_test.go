package wstask

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerStats_RecordPollFeedsLatency(t *testing.T) {
	s := newWorkerStats()
	for i := 0; i < 20; i++ {
		s.recordPoll(10 * time.Microsecond)
	}
	assert.EqualValues(t, 20, s.pollCount)
	assert.InDelta(t, float64(10*time.Microsecond), s.latency.Quantile(1), float64(5*time.Microsecond))
}

func TestWorkerStats_TunedGlobalQueueIntervalWidensOnFastPolls(t *testing.T) {
	s := newWorkerStats()
	for i := 0; i < 20; i++ {
		s.recordPoll(time.Microsecond)
	}
	assert.Greater(t, s.tunedGlobalQueueInterval(61), uint32(61))
}

func TestWorkerStats_TunedGlobalQueueIntervalNarrowsOnSlowPolls(t *testing.T) {
	s := newWorkerStats()
	for i := 0; i < 20; i++ {
		s.recordPoll(500 * time.Microsecond)
	}
	assert.Less(t, s.tunedGlobalQueueInterval(61), uint32(61))
}

func TestWorkerStats_SubmitPublishesSnapshot(t *testing.T) {
	s := newWorkerStats()
	s.recordPoll(time.Microsecond)
	s.recordSteal(3)
	s.recordOverflow()
	s.recordPark()
	s.recordNoopWake()

	var dst WorkerMetrics
	s.submit(&dst)

	snap := dst.Snapshot()
	assert.EqualValues(t, 1, snap.PollCount)
	assert.EqualValues(t, 3, snap.StealCount)
	assert.EqualValues(t, 1, snap.OverflowCount)
	assert.EqualValues(t, 1, snap.ParkCount)
	assert.EqualValues(t, 1, snap.NoopWakeCount)
}

func TestSchedulerMetrics_RecordSpawn(t *testing.T) {
	m := &SchedulerMetrics{}
	m.recordSpawn(false)
	m.recordSpawn(true)
	assert.EqualValues(t, 2, m.spawnCount.Load())
	assert.EqualValues(t, 1, m.remoteSpawnCount.Load())
}
