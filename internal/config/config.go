package config

import (
	"encoding/json"
	"time"

	"github.com/selma/toolforge/pkg/executor"
	"github.com/selma/toolforge/pkg/orchestrator"
	"github.com/selma/toolforge/pkg/registry"
	"github.com/selma/toolforge/pkg/scorer"
)

// Config is the toolforge configuration: engine limits, scoring weights,
// and the externalized tool metadata (keywords, dependency table, fallback
// chains) that earlier incarnations of this engine hardcoded.
type Config struct {
	// Selection
	Selection SelectionConfig `json:"selection" mapstructure:"selection"`

	// Executor limits
	Executor ExecutorConfig `json:"executor" mapstructure:"executor"`

	// Scoring weights
	Scoring scorer.Weights `json:"scoring" mapstructure:"scoring"`

	// Analytics reporting
	Analytics AnalyticsConfig `json:"analytics" mapstructure:"analytics"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Tools carries the data-only tool definitions.
	Tools map[string]registry.Metadata `json:"tools" mapstructure:"tools"`
}

// SelectionConfig holds the recommendation cutoffs.
type SelectionConfig struct {
	Threshold float64 `json:"threshold" mapstructure:"threshold"`
	MaxTools  int     `json:"max_tools" mapstructure:"max_tools"`
}

// ExecutorConfig holds the worker-pool limits.
type ExecutorConfig struct {
	MaxConcurrent         int `json:"max_concurrent" mapstructure:"max_concurrent"`
	DefaultTimeoutSeconds int `json:"default_timeout_seconds" mapstructure:"default_timeout_seconds"`
}

// AnalyticsConfig holds usage-reporting settings.
type AnalyticsConfig struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled"`
	ReportSchedule string `json:"report_schedule" mapstructure:"report_schedule"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Selection: SelectionConfig{
			Threshold: 0.3,
			MaxTools:  5,
		},
		Executor: ExecutorConfig{
			MaxConcurrent:         3,
			DefaultTimeoutSeconds: 30,
		},
		Scoring: scorer.DefaultWeights(),
		Analytics: AnalyticsConfig{
			Enabled:        true,
			ReportSchedule: "@every 5m",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Tools: map[string]registry.Metadata{},
	}
}

// Orchestrator maps the file-level config onto the engine config.
func (c *Config) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		SelectionThreshold: c.Selection.Threshold,
		MaxTools:           c.Selection.MaxTools,
		Executor: executor.Config{
			MaxConcurrent:  c.Executor.MaxConcurrent,
			DefaultTimeout: time.Duration(c.Executor.DefaultTimeoutSeconds) * time.Second,
		},
		Weights: c.Scoring,
	}
}

// String returns a JSON representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
