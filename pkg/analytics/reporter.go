package analytics

import (
	"fmt"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Reporter periodically logs a usage summary from a StatsCollector. It is
// operational plumbing only; nothing in the engine depends on it running.
type Reporter struct {
	collector *StatsCollector
	schedule  string
	cron      *cron.Cron
}

// NewReporter creates a reporter with a cron schedule ("@every 5m",
// "0 * * * *", ...).
func NewReporter(collector *StatsCollector, schedule string) *Reporter {
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &Reporter{
		collector: collector,
		schedule:  schedule,
	}
}

// Start begins periodic reporting.
func (r *Reporter) Start() error {
	if r.cron != nil {
		return fmt.Errorf("reporter already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.report); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c

	log.Info().Str("schedule", r.schedule).Msg("Usage reporter started")

	return nil
}

// Stop halts periodic reporting.
func (r *Reporter) Stop() {
	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
}

func (r *Reporter) report() {
	summaries := r.collector.Summaries()
	if len(summaries) == 0 {
		return
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Total > summaries[j].Total
	})

	for _, s := range summaries {
		log.Info().
			Str("tool", s.Name).
			Int64("total", s.Total).
			Float64("success_rate", s.SuccessRate).
			Dur("avg_latency", s.AvgLatency).
			Msg("Tool usage summary")
	}
}
