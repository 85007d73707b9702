package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selma/toolforge/pkg/registry"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 0.3, cfg.Selection.Threshold, 1e-9)
	assert.Equal(t, 5, cfg.Selection.MaxTools)
	assert.Equal(t, 3, cfg.Executor.MaxConcurrent)
	assert.Equal(t, 30, cfg.Executor.DefaultTimeoutSeconds)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Selection.Threshold = 1.5 },
			wantErr: "threshold",
		},
		{
			name:    "threshold negative",
			mutate:  func(c *Config) { c.Selection.Threshold = -0.1 },
			wantErr: "threshold",
		},
		{
			name:    "max tools zero",
			mutate:  func(c *Config) { c.Selection.MaxTools = 0 },
			wantErr: "max_tools",
		},
		{
			name:    "max concurrent zero",
			mutate:  func(c *Config) { c.Executor.MaxConcurrent = 0 },
			wantErr: "max_concurrent",
		},
		{
			name:    "timeout zero",
			mutate:  func(c *Config) { c.Executor.DefaultTimeoutSeconds = 0 },
			wantErr: "default_timeout_seconds",
		},
		{
			name: "base and performance weights must sum to one",
			mutate: func(c *Config) {
				c.Scoring.BaseWeight = 0.9
				c.Scoring.PerformanceWeight = 0.3
			},
			wantErr: "sum to 1.0",
		},
		{
			name: "metadata and keyword weights must sum to one",
			mutate: func(c *Config) {
				c.Scoring.MetadataWeight = 0.5
				c.Scoring.KeywordWeight = 0.3
			},
			wantErr: "sum to 1.0",
		},
		{
			name:    "boost cap above one",
			mutate:  func(c *Config) { c.Scoring.TotalBoostCap = 1.2 },
			wantErr: "total_boost_cap",
		},
		{
			name: "unknown dependency",
			mutate: func(c *Config) {
				c.Tools = map[string]registry.Metadata{
					"a": {Category: "x", BaseScore: 0.5, Dependencies: []string{"ghost"}},
				}
			},
			wantErr: "unknown tool",
		},
		{
			name: "unknown fallback",
			mutate: func(c *Config) {
				c.Tools = map[string]registry.Metadata{
					"a": {Category: "x", BaseScore: 0.5, Fallbacks: []string{"ghost"}},
				}
			},
			wantErr: "unknown fallback",
		},
		{
			name: "resolvable references pass",
			mutate: func(c *Config) {
				c.Tools = map[string]registry.Metadata{
					"a": {Category: "x", BaseScore: 0.5, Dependencies: []string{"b"}},
					"b": {Category: "x", BaseScore: 0.5, Fallbacks: []string{"a"}},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_Orchestrator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Selection.Threshold = 0.4
	cfg.Selection.MaxTools = 2
	cfg.Executor.MaxConcurrent = 7
	cfg.Executor.DefaultTimeoutSeconds = 10

	oc := cfg.Orchestrator()
	assert.InDelta(t, 0.4, oc.SelectionThreshold, 1e-9)
	assert.Equal(t, 2, oc.MaxTools)
	assert.Equal(t, 7, oc.Executor.MaxConcurrent)
	assert.Equal(t, 10*time.Second, oc.Executor.DefaultTimeout)
}

func TestLoader_Load(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		loader := NewLoader(filepath.Join(t.TempDir(), "nope.json"))

		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Selection, cfg.Selection)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolforge.json")
		content := `{
			"selection": {"threshold": 0.5, "max_tools": 3},
			"tools": {
				"BTWebsiteSearch": {
					"category": "information",
					"keywords": ["search", "website"],
					"base_score": 0.8,
					"timeout_seconds": 20
				}
			}
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)

		assert.InDelta(t, 0.5, cfg.Selection.Threshold, 1e-9)
		assert.Equal(t, 3, cfg.Selection.MaxTools)
		// Unset sections keep defaults.
		assert.Equal(t, 3, cfg.Executor.MaxConcurrent)

		meta, ok := cfg.Tools["BTWebsiteSearch"]
		require.True(t, ok)
		assert.Equal(t, "information", meta.Category)
		assert.Equal(t, []string{"search", "website"}, meta.Keywords)
		assert.Equal(t, 20, meta.TimeoutSeconds)
	})

	t.Run("invalid file rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolforge.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"selection": {"threshold": 5}}`), 0o644))

		_, err := NewLoader(path).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolforge.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		_, err := NewLoader(path).Load()
		require.Error(t, err)
	})

	t.Run("explicit path wins", func(t *testing.T) {
		loader := NewLoader("/some/explicit/path.json")
		path, err := loader.Path()
		require.NoError(t, err)
		assert.Equal(t, "/some/explicit/path.json", path)
	})
}
