package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selma/toolforge/internal/config"
	"github.com/selma/toolforge/pkg/registry"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	d, err := New(config.DefaultConfig(), "", "127.0.0.1:0")
	require.NoError(t, err)
	return d
}

func TestNew_RegistersBuiltinsAndConfigTools(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tools = map[string]registry.Metadata{
		"BTWebsiteSearch": {Category: "information", Keywords: []string{"search"}, BaseScore: 0.8},
	}

	d, err := New(cfg, "", "127.0.0.1:0")
	require.NoError(t, err)

	_, ok := d.registry.Get("echo")
	assert.True(t, ok, "builtins must be registered")
	_, ok = d.registry.Get("BTWebsiteSearch")
	assert.True(t, ok, "config tools must be registered")
}

func TestNew_InvalidMetadataRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tools = map[string]registry.Metadata{
		"bad": {Category: "x", BaseScore: 2.0},
	}

	_, err := New(cfg, "", "127.0.0.1:0")
	require.Error(t, err)
}

func TestDaemon_StartStop(t *testing.T) {
	d := newTestDaemon(t)

	require.NoError(t, d.Start())
	assert.Error(t, d.Start(), "double start must fail")

	require.NoError(t, d.Stop())
	assert.NoError(t, d.Stop(), "stopping a stopped daemon is a no-op")
}

func TestDaemon_Handlers(t *testing.T) {
	d := newTestDaemon(t)

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		d.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("tools", func(t *testing.T) {
		rec := httptest.NewRecorder()
		d.handleTools(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body)

		names := make([]string, 0, len(body))
		for _, tool := range body {
			names = append(names, tool["name"].(string))
		}
		assert.Contains(t, names, "echo")
		assert.IsIncreasing(t, names, "tool list must be sorted")
	})

	t.Run("stats", func(t *testing.T) {
		rec := httptest.NewRecorder()
		d.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "executions")
		assert.Contains(t, body, "errors")
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		d.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
