package wstask

import (
	"sync"
	"sync/atomic"
	"time"
)

// workerStats accumulates one Core's runtime statistics: poll counts,
// steal counts, and a streaming poll-latency estimate that feeds the
// adaptive global_queue_interval retuning described in spec §9's
// resolution of its second Open Question. Owned exclusively by its
// Core; no synchronization needed.
type workerStats struct {
	pollCount      uint64
	stealCount     uint64
	overflowCount  uint64
	parkCount      uint64
	noopCount      uint64
	latency        *pSquareMultiQuantile
	lastTuneTick   uint32
}

func newWorkerStats() workerStats {
	return workerStats{latency: newPSquareMultiQuantile(0.50, 0.90, 0.99)}
}

// recordPoll folds a single task-poll duration into the latency
// estimator and bumps the poll counter.
func (s *workerStats) recordPoll(d time.Duration) {
	s.pollCount++
	s.latency.Update(float64(d))
}

func (s *workerStats) recordSteal(n int)    { s.stealCount += uint64(n) }
func (s *workerStats) recordOverflow()      { s.overflowCount++ }
func (s *workerStats) recordPark()          { s.parkCount++ }
func (s *workerStats) recordNoopWake()      { s.noopCount++ }

// tunedGlobalQueueInterval derives a new global_queue_interval from the
// P90 poll latency: workers that spend longer per poll should check the
// injection queue more often (a smaller interval), since each tick is
// already more expensive — mirroring the source scheduler's own
// intent (cheaper average latency tolerates less frequent checks) while
// adapting it to a streaming estimator instead of a fixed-window mean.
func (s *workerStats) tunedGlobalQueueInterval(base uint32) uint32 {
	p90 := time.Duration(s.latency.Quantile(1))
	switch {
	case p90 <= 0:
		return base
	case p90 < 15*time.Microsecond:
		return base + 4
	case p90 > 200*time.Microsecond:
		if base > 8 {
			return base / 2
		}
		return 4
	default:
		return base
	}
}

// submit publishes this worker's stats snapshot into the scheduler-wide
// WorkerMetrics slot at the same index, under the Metrics' mutex.
func (s *workerStats) submit(dst *WorkerMetrics) {
	dst.mu.Lock()
	defer dst.mu.Unlock()
	dst.PollCount = s.pollCount
	dst.StealCount = s.stealCount
	dst.OverflowCount = s.overflowCount
	dst.ParkCount = s.parkCount
	dst.NoopWakeCount = s.noopCount
	dst.P50Latency = time.Duration(s.latency.Quantile(0))
	dst.P90Latency = time.Duration(s.latency.Quantile(1))
	dst.P99Latency = time.Duration(s.latency.Quantile(2))
}

// WorkerMetrics is the published, thread-safe snapshot of one worker's
// stats, reachable from Scheduler.Metrics().
type WorkerMetrics struct {
	mu            sync.Mutex
	PollCount     uint64
	StealCount    uint64
	OverflowCount uint64
	ParkCount     uint64
	NoopWakeCount uint64
	P50Latency    time.Duration
	P90Latency    time.Duration
	P99Latency    time.Duration
}

// Snapshot returns a copy of m safe to read without further locking.
func (m *WorkerMetrics) Snapshot() WorkerMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m
	cp.mu = sync.Mutex{}
	return cp
}

// SchedulerMetrics tracks scheduler-wide counters not attributable to a
// single worker: total spawns, remote (outside-worker) spawns, and
// injection-queue pushes.
type SchedulerMetrics struct {
	spawnCount      atomic.Uint64
	remoteSpawnCount atomic.Uint64
	injectionPushes atomic.Uint64
}

func (m *SchedulerMetrics) recordSpawn(remote bool) {
	m.spawnCount.Add(1)
	if remote {
		m.remoteSpawnCount.Add(1)
	}
}

func (m *SchedulerMetrics) recordInjectionPush() { m.injectionPushes.Add(1) }

// Metrics is the aggregate, point-in-time snapshot returned by
// Scheduler.Metrics(). Workers always has one entry per worker; its
// per-worker counters only reflect reality once WithMetrics(true) is
// set, since workerStats.submit is only called (during maintenance and
// shutdown) when metrics are enabled — otherwise every field reads zero.
type Metrics struct {
	SpawnCount       uint64
	RemoteSpawnCount uint64
	InjectionPushes  uint64
	InjectionQueued  int
	OwnedTasks       int
	Workers          []WorkerMetrics
}
