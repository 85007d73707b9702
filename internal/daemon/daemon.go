// Package daemon runs the long-lived toolforge service: the HTTP surface
// (Prometheus metrics, health, execution and error statistics), the tool
// metadata hot-reload watcher, and the periodic usage reporter.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/selma/toolforge/internal/config"
	"github.com/selma/toolforge/internal/metrics"
	"github.com/selma/toolforge/pkg/analytics"
	"github.com/selma/toolforge/pkg/coretools"
	"github.com/selma/toolforge/pkg/orchestrator"
	"github.com/selma/toolforge/pkg/registry"
)

// Daemon wires the engine into a supervised service.
type Daemon struct {
	cfg        *config.Config
	configPath string
	addr       string

	registry     *registry.Registry
	metrics      *metrics.Metrics
	collector    *analytics.StatsCollector
	orchestrator *orchestrator.Orchestrator
	reporter     *analytics.Reporter
	watcher      *registry.Watcher
	server       *http.Server

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// New builds a daemon from a loaded config. configPath may be empty, in
// which case metadata hot reload is disabled.
func New(cfg *config.Config, configPath, addr string) (*Daemon, error) {
	reg := registry.New()
	if err := coretools.RegisterBuiltins(reg); err != nil {
		return nil, err
	}
	if len(cfg.Tools) > 0 {
		if err := reg.ApplyMetadata(cfg.Tools); err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	collector := analytics.NewStatsCollector()

	d := &Daemon{
		cfg:          cfg,
		configPath:   configPath,
		addr:         addr,
		registry:     reg,
		metrics:      m,
		collector:    collector,
		orchestrator: orchestrator.New(reg, cfg.Orchestrator(), m, collector),
	}

	if cfg.Analytics.Enabled {
		d.reporter = analytics.NewReporter(collector, cfg.Analytics.ReportSchedule)
	}

	return d, nil
}

// Start brings up the HTTP surface, the metadata watcher, and the usage
// reporter.
func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())
	mux.HandleFunc("/healthz", d.handleHealth)
	mux.HandleFunc("/stats", d.handleStats)
	mux.HandleFunc("/tools", d.handleTools)

	d.server = &http.Server{
		Addr:              d.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", d.addr).Msg("HTTP server failed")
		}
	}()

	if d.configPath != "" {
		watcher, err := registry.NewWatcher(log.Logger, d.configPath, d.reloadMetadata)
		if err != nil {
			log.Warn().Err(err).Str("file", d.configPath).
				Msg("Metadata hot reload disabled")
		} else {
			d.watcher = watcher
		}
	}

	if d.reporter != nil {
		if err := d.reporter.Start(); err != nil {
			log.Warn().Err(err).Msg("Usage reporter disabled")
			d.reporter = nil
		}
	}

	d.startTime = time.Now()
	d.running = true

	log.Info().
		Str("addr", d.addr).
		Int("tools", d.registry.Count()).
		Bool("hot_reload", d.watcher != nil).
		Msg("Daemon started")

	return nil
}

// Run starts the daemon and blocks until SIGINT or SIGTERM.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal")

	return d.Stop()
}

// Stop shuts down the HTTP server, the watcher, and the reporter.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop metadata watcher")
		}
		d.watcher = nil
	}
	if d.reporter != nil {
		d.reporter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	d.running = false

	log.Info().Dur("uptime", time.Since(d.startTime)).Msg("Daemon stopped")

	return nil
}

// Orchestrator exposes the engine for embedding callers.
func (d *Daemon) Orchestrator() *orchestrator.Orchestrator {
	return d.orchestrator
}

// reloadMetadata re-reads the config file and swaps the tool metadata. A
// bad file leaves the registry untouched.
func (d *Daemon) reloadMetadata() {
	cfg, err := config.NewLoader(d.configPath).Load()
	if err != nil {
		log.Error().Err(err).Msg("Metadata reload failed: config unreadable")
		return
	}

	if err := d.registry.ApplyMetadata(cfg.Tools); err != nil {
		log.Error().Err(err).Msg("Metadata reload failed: invalid tool metadata")
		return
	}

	log.Info().Int("tools", len(cfg.Tools)).Msg("Tool metadata reloaded")
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	payload := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(d.startTime).String(),
		"tools":  d.registry.Count(),
	}
	d.mu.RUnlock()

	writeJSON(w, payload)
}

func (d *Daemon) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"executions": d.orchestrator.ExecutionStats(),
		"errors":     d.orchestrator.ErrorStatistics(),
		"usage":      d.collector.Summaries(),
	})
}

func (d *Daemon) handleTools(w http.ResponseWriter, r *http.Request) {
	names := d.registry.List()
	sort.Strings(names)

	type toolInfo struct {
		Name         string   `json:"name"`
		Category     string   `json:"category"`
		Keywords     []string `json:"keywords,omitempty"`
		Dependencies []string `json:"dependencies,omitempty"`
		Fallbacks    []string `json:"fallbacks,omitempty"`
		BaseScore    float64  `json:"base_score"`
	}

	out := make([]toolInfo, 0, len(names))
	for _, name := range names {
		tool, ok := d.registry.Get(name)
		if !ok {
			continue
		}
		out = append(out, toolInfo{
			Name:         tool.Name,
			Category:     tool.Category,
			Keywords:     tool.Keywords,
			Dependencies: tool.Dependencies,
			Fallbacks:    tool.Fallbacks,
			BaseScore:    tool.BaseScore,
		})
	}

	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
