package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollector_SuccessRate(t *testing.T) {
	c := NewStatsCollector()

	require.NoError(t, c.RecordToolUsage("search", "q1", true, 0.9, 100*time.Millisecond))
	require.NoError(t, c.RecordToolUsage("search", "q2", true, 0.8, 200*time.Millisecond))
	require.NoError(t, c.RecordToolUsage("search", "q3", false, 0.0, 300*time.Millisecond))

	rate, err := c.ToolSuccessRate("search", 30)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, rate, 1e-9)
}

func TestStatsCollector_UnknownToolIsError(t *testing.T) {
	c := NewStatsCollector()

	_, err := c.ToolSuccessRate("never_seen", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never_seen")
}

func TestStatsCollector_Summaries(t *testing.T) {
	c := NewStatsCollector()
	assert.Empty(t, c.Summaries())

	require.NoError(t, c.RecordToolUsage("a", "q", true, 0.8, 100*time.Millisecond))
	require.NoError(t, c.RecordToolUsage("a", "q", false, 0.4, 300*time.Millisecond))
	require.NoError(t, c.RecordToolUsage("b", "q", true, 1.0, 50*time.Millisecond))

	summaries := c.Summaries()
	require.Len(t, summaries, 2)

	byName := map[string]UsageSummary{}
	for _, s := range summaries {
		byName[s.Name] = s
	}

	a := byName["a"]
	assert.Equal(t, int64(2), a.Total)
	assert.InDelta(t, 0.5, a.SuccessRate, 1e-9)
	assert.InDelta(t, 0.6, a.AvgQuality, 1e-9)
	assert.Equal(t, 200*time.Millisecond, a.AvgLatency)
	assert.False(t, a.LastUsed.IsZero())

	b := byName["b"]
	assert.Equal(t, int64(1), b.Total)
	assert.InDelta(t, 1.0, b.SuccessRate, 1e-9)
}

func TestReporter_Lifecycle(t *testing.T) {
	c := NewStatsCollector()

	t.Run("bad schedule rejected", func(t *testing.T) {
		r := NewReporter(c, "not a schedule")
		require.Error(t, r.Start())
	})

	t.Run("start stop and restart", func(t *testing.T) {
		r := NewReporter(c, "@every 1h")
		require.NoError(t, r.Start())
		assert.Error(t, r.Start(), "double start must fail")

		r.Stop()
		require.NoError(t, r.Start(), "a stopped reporter can be restarted")
		r.Stop()
	})

	t.Run("empty schedule gets a default", func(t *testing.T) {
		r := NewReporter(c, "")
		assert.Equal(t, "@every 5m", r.schedule)
	})
}
