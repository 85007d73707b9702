package config

import (
	"fmt"

	"github.com/selma/toolforge/pkg/registry"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Selection.Threshold < 0 || c.Selection.Threshold > 1 {
		return fmt.Errorf("selection threshold must be in [0,1], got %v", c.Selection.Threshold)
	}
	if c.Selection.MaxTools < 1 {
		return fmt.Errorf("selection max_tools must be at least 1, got %d", c.Selection.MaxTools)
	}

	if c.Executor.MaxConcurrent < 1 {
		return fmt.Errorf("executor max_concurrent must be at least 1, got %d", c.Executor.MaxConcurrent)
	}
	if c.Executor.DefaultTimeoutSeconds < 1 {
		return fmt.Errorf("executor default_timeout_seconds must be at least 1, got %d", c.Executor.DefaultTimeoutSeconds)
	}

	weightPairs := []struct {
		name string
		a, b float64
	}{
		{"metadata/keyword", c.Scoring.MetadataWeight, c.Scoring.KeywordWeight},
		{"base/performance", c.Scoring.BaseWeight, c.Scoring.PerformanceWeight},
	}
	for _, p := range weightPairs {
		if p.a < 0 || p.b < 0 {
			return fmt.Errorf("scoring weights (%s) cannot be negative", p.name)
		}
		sum := p.a + p.b
		if sum < 0.99 || sum > 1.01 {
			return fmt.Errorf("scoring weights (%s) must sum to 1.0, got %v", p.name, sum)
		}
	}
	if c.Scoring.TotalBoostCap < 0 || c.Scoring.TotalBoostCap > 1 {
		return fmt.Errorf("total_boost_cap must be in [0,1], got %v", c.Scoring.TotalBoostCap)
	}

	if err := registry.ValidateMetadata(c.Tools); err != nil {
		return err
	}

	// Dependency and fallback references must resolve within the
	// configured tool set.
	for name, meta := range c.Tools {
		for _, dep := range meta.Dependencies {
			if _, ok := c.Tools[dep]; !ok {
				return fmt.Errorf("tool %s depends on unknown tool: %s", name, dep)
			}
		}
		for _, fb := range meta.Fallbacks {
			if _, ok := c.Tools[fb]; !ok {
				return fmt.Errorf("tool %s lists unknown fallback: %s", name, fb)
			}
		}
	}

	return nil
}
