package orchestrator

import (
	"github.com/selma/toolforge/pkg/executor"
	"github.com/selma/toolforge/pkg/scorer"
)

// Config holds the orchestration settings: selection cutoffs, executor
// limits, and scoring weights.
type Config struct {
	// SelectionThreshold is the minimum final score a tool needs to be
	// recommended.
	SelectionThreshold float64 `json:"selection_threshold" mapstructure:"selection_threshold"`

	// MaxTools caps how many tools one selection recommends.
	MaxTools int `json:"max_tools" mapstructure:"max_tools"`

	Executor executor.Config `json:"executor" mapstructure:"executor"`
	Weights  scorer.Weights  `json:"weights" mapstructure:"weights"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SelectionThreshold: 0.3,
		MaxTools:           5,
		Executor:           executor.DefaultConfig(),
		Weights:            scorer.DefaultWeights(),
	}
}

// withDefaults fills zero values so a partially-populated config behaves.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SelectionThreshold <= 0 {
		c.SelectionThreshold = def.SelectionThreshold
	}
	if c.MaxTools <= 0 {
		c.MaxTools = def.MaxTools
	}
	if c.Executor.MaxConcurrent <= 0 {
		c.Executor.MaxConcurrent = def.Executor.MaxConcurrent
	}
	if c.Executor.DefaultTimeout <= 0 {
		c.Executor.DefaultTimeout = def.Executor.DefaultTimeout
	}
	if c.Weights == (scorer.Weights{}) {
		c.Weights = def.Weights
	}
	return c
}
