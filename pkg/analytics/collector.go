// Package analytics defines the optional usage-analytics collaborator and
// an in-process implementation backed by the executor's rolling stats.
package analytics

import (
	"fmt"
	"sync"
	"time"
)

// Collector is the analytics collaborator surface. Both methods are
// treated defensively by callers: errors are swallowed and defaults
// applied, so implementations may fail freely.
type Collector interface {
	ToolSuccessRate(name string, days int) (float64, error)
	RecordToolUsage(name, query string, success bool, quality float64, latency time.Duration) error
}

// usageRecord is one tool's aggregate usage as seen by the collector.
type usageRecord struct {
	total      int64
	successes  int64
	qualitySum float64
	latencySum time.Duration
	lastUsed   time.Time
}

// StatsCollector is an in-process Collector. It aggregates whatever the
// executor reports to it; the days parameter of ToolSuccessRate is
// accepted for interface compatibility but the window is the process
// lifetime.
type StatsCollector struct {
	usage map[string]*usageRecord
	mu    sync.RWMutex
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		usage: make(map[string]*usageRecord),
	}
}

// ToolSuccessRate reports the observed success rate for a tool. Unknown
// tools are an error so the scorer falls back to its default.
func (c *StatsCollector) ToolSuccessRate(name string, days int) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.usage[name]
	if !ok || rec.total == 0 {
		return 0, fmt.Errorf("no usage recorded for tool: %s", name)
	}
	return float64(rec.successes) / float64(rec.total), nil
}

// RecordToolUsage folds one usage report into the aggregates.
func (c *StatsCollector) RecordToolUsage(name, query string, success bool, quality float64, latency time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.usage[name]
	if !ok {
		rec = &usageRecord{}
		c.usage[name] = rec
	}
	rec.total++
	if success {
		rec.successes++
	}
	rec.qualitySum += quality
	rec.latencySum += latency
	rec.lastUsed = time.Now()

	return nil
}

// UsageSummary is a read-only aggregate for one tool.
type UsageSummary struct {
	Name        string        `json:"name"`
	Total       int64         `json:"total"`
	SuccessRate float64       `json:"success_rate"`
	AvgQuality  float64       `json:"avg_quality"`
	AvgLatency  time.Duration `json:"avg_latency"`
	LastUsed    time.Time     `json:"last_used"`
}

// Summaries returns per-tool aggregates.
func (c *StatsCollector) Summaries() []UsageSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]UsageSummary, 0, len(c.usage))
	for name, rec := range c.usage {
		summary := UsageSummary{
			Name:     name,
			Total:    rec.total,
			LastUsed: rec.lastUsed,
		}
		if rec.total > 0 {
			summary.SuccessRate = float64(rec.successes) / float64(rec.total)
			summary.AvgQuality = rec.qualitySum / float64(rec.total)
			summary.AvgLatency = rec.latencySum / time.Duration(rec.total)
		}
		out = append(out, summary)
	}
	return out
}
