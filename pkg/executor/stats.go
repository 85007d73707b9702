package executor

import (
	"sync"
	"time"
)

// ToolStats is the rolling execution record for one tool. It feeds the
// scorer's performance score and recommendation latency estimates.
type ToolStats struct {
	Name        string        `json:"name"`
	Total       int64         `json:"total"`
	Successes   int64         `json:"successes"`
	SuccessRate float64       `json:"success_rate"`
	AvgTime     time.Duration `json:"avg_time"`
	LastUsed    time.Time     `json:"last_used"`
}

// StatsTracker keeps per-tool rolling statistics. Updates for one tool are
// serialized by the tracker lock; this and the worker-pool gate are the
// only cross-call shared state in the engine.
type StatsTracker struct {
	stats map[string]*ToolStats
	mu    sync.RWMutex
}

// NewStatsTracker creates an empty tracker.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{
		stats: make(map[string]*ToolStats),
	}
}

// Record folds one execution outcome into the rolling stats.
func (st *StatsTracker) Record(name string, success bool, latency time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.stats[name]
	if !ok {
		s = &ToolStats{Name: name}
		st.stats[name] = s
	}

	s.AvgTime = time.Duration((int64(s.AvgTime)*s.Total + int64(latency)) / (s.Total + 1))
	s.Total++
	if success {
		s.Successes++
	}
	s.SuccessRate = float64(s.Successes) / float64(s.Total)
	s.LastUsed = time.Now()
}

// Get returns a copy of one tool's stats.
func (st *StatsTracker) Get(name string) (ToolStats, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.stats[name]
	if !ok {
		return ToolStats{}, false
	}
	return *s, true
}

// Snapshot returns a copy of all rolling stats.
func (st *StatsTracker) Snapshot() map[string]ToolStats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make(map[string]ToolStats, len(st.stats))
	for name, s := range st.stats {
		out[name] = *s
	}
	return out
}

// AverageExecutionTime satisfies scorer.LatencyProvider.
func (st *StatsTracker) AverageExecutionTime(name string) (time.Duration, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.stats[name]
	if !ok || s.Total == 0 {
		return 0, false
	}
	return s.AvgTime, true
}
