// Package executor runs tool batches under a bounded worker pool with
// per-tool timeouts. Every requested tool yields exactly one Result; a
// failing tool never aborts its siblings or the call.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/selma/toolforge/internal/metrics"
	"github.com/selma/toolforge/pkg/registry"
)

// Error kinds stamped onto failed Results so recovery can classify without
// string sniffing.
const (
	ErrKindTimeout   = "timeout"
	ErrKindExecution = "execution"
	ErrKindPanic     = "panic"
	ErrKindCancelled = "cancelled"
	ErrKindNotFound  = "not_found"
)

// Result is the immutable outcome of one tool invocation. Exactly one is
// produced per requested tool per call.
type Result struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Success       bool          `json:"success"`
	Output        interface{}   `json:"output,omitempty"`
	Error         string        `json:"error,omitempty"`
	ErrorKind     string        `json:"error_kind,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   time.Time     `json:"completed_at"`
	Via           string        `json:"via,omitempty"` // actual tool when a fallback substituted
}

// UsageRecorder receives fire-and-forget usage reports. Failures and
// panics are swallowed; a nil recorder is fine.
type UsageRecorder interface {
	RecordToolUsage(name, query string, success bool, quality float64, latency time.Duration) error
}

// Config holds executor limits.
type Config struct {
	MaxConcurrent  int           `json:"max_concurrent" mapstructure:"max_concurrent"`
	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
}

// DefaultConfig returns the production defaults: at most 3 tools in
// flight, 30s per invocation.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  3,
		DefaultTimeout: 30 * time.Second,
	}
}

// Executor runs tools from a registry under the call's worker-pool gate.
type Executor struct {
	registry *registry.Registry
	stats    *StatsTracker
	metrics  *metrics.Metrics
	recorder UsageRecorder
	cfg      Config
}

// New creates an executor. metrics and recorder may be nil.
func New(reg *registry.Registry, cfg Config, m *metrics.Metrics, recorder UsageRecorder) *Executor {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultConfig().DefaultTimeout
	}

	return &Executor{
		registry: reg,
		stats:    NewStatsTracker(),
		metrics:  m,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Config returns the executor limits in effect.
func (e *Executor) Config() Config {
	return e.cfg
}

// Stats returns the rolling stats tracker.
func (e *Executor) Stats() *StatsTracker {
	return e.stats
}

// Execute runs the planned batches. The gate inside execCtx is shared
// across all batches of the call, so tools unlocked by a later batch
// compete for slots freed by earlier ones. The returned slice has exactly
// one entry per requested tool, in batch order.
func (e *Executor) Execute(ctx context.Context, batches [][]string, execCtx *ExecutionContext) []Result {
	started := time.Now()
	total := 0

	for _, batch := range batches {
		done := make(chan struct{}, len(batch))
		for _, name := range batch {
			total++
			go func(toolName string) {
				res := e.Run(ctx, toolName, execCtx, 0)
				execCtx.Record(res)
				done <- struct{}{}
			}(name)
		}
		// Batch barrier: dependents never start before every tool in
		// this batch has produced a result.
		for range batch {
			<-done
		}
	}

	log.Debug().
		Str("call_id", execCtx.ID).
		Int("tools", total).
		Dur("duration", time.Since(started)).
		Msg("Batch execution completed")

	results := make([]Result, 0, total)
	for _, batch := range batches {
		for _, name := range batch {
			if res, ok := execCtx.Result(name); ok {
				results = append(results, res)
			}
		}
	}
	return results
}

// Run executes a single tool under the call's gate and timeout budget.
// timeoutOverride, when positive, replaces the tool's configured budget;
// recovery uses it for doubled-timeout retries. Run never returns an
// error: every outcome is a Result.
func (e *Executor) Run(ctx context.Context, name string, execCtx *ExecutionContext, timeoutOverride time.Duration) Result {
	if !execCtx.acquire(ctx.Done()) {
		now := time.Now()
		return Result{
			ID:          uuid.NewString(),
			Name:        name,
			Success:     false,
			Error:       "call cancelled before tool could start",
			ErrorKind:   ErrKindCancelled,
			StartedAt:   now,
			CompletedAt: now,
		}
	}
	defer execCtx.release()

	startedAt := time.Now()
	execCtx.recordStart(name, startedAt)

	tool, ok := e.registry.Get(name)
	if !ok || tool.Handler == nil {
		res := e.finish(execCtx, Result{
			ID:          uuid.NewString(),
			Name:        name,
			Success:     false,
			Error:       fmt.Sprintf("tool not found: %s", name),
			ErrorKind:   ErrKindNotFound,
			StartedAt:   startedAt,
			CompletedAt: time.Now(),
		})
		return res
	}

	timeout := e.cfg.DefaultTimeout
	if tool.Timeout > 0 {
		timeout = tool.Timeout
	}
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}

	// Cancelling here affects only this invocation, never siblings.
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("tool panicked: %v", r)
			}
		}()
		output, err := tool.Handler(toolCtx, execCtx.Query, nil)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- output
		}
	}()

	var res Result
	select {
	case output := <-resultChan:
		res = Result{
			ID:      uuid.NewString(),
			Name:    name,
			Success: true,
			Output:  output,
		}

	case err := <-errChan:
		kind := ErrKindExecution
		if toolCtx.Err() == context.DeadlineExceeded {
			kind = ErrKindTimeout
		}
		res = Result{
			ID:        uuid.NewString(),
			Name:      name,
			Success:   false,
			Error:     err.Error(),
			ErrorKind: kind,
		}

	case <-toolCtx.Done():
		kind := ErrKindTimeout
		msg := fmt.Sprintf("tool %s timed out after %v", name, timeout)
		if ctx.Err() != nil {
			kind = ErrKindCancelled
			msg = fmt.Sprintf("tool %s cancelled: %v", name, ctx.Err())
		}
		res = Result{
			ID:        uuid.NewString(),
			Name:      name,
			Success:   false,
			Error:     msg,
			ErrorKind: kind,
		}
	}

	res.StartedAt = startedAt
	res.CompletedAt = time.Now()
	res.ExecutionTime = res.CompletedAt.Sub(startedAt)

	return e.finish(execCtx, res)
}

// finish folds a result into stats, metrics, and the analytics
// collaborator, then logs it.
func (e *Executor) finish(execCtx *ExecutionContext, res Result) Result {
	e.stats.Record(res.Name, res.Success, res.ExecutionTime)

	if e.metrics != nil {
		status := "success"
		if !res.Success {
			status = "failure"
			e.metrics.ToolExecutionErrorsTotal.WithLabelValues(res.Name, res.ErrorKind).Inc()
			if res.ErrorKind == ErrKindTimeout {
				e.metrics.ToolTimeoutsTotal.WithLabelValues(res.Name).Inc()
			}
		}
		e.metrics.ToolExecutionsTotal.WithLabelValues(res.Name, status).Inc()
		e.metrics.ToolExecutionDuration.WithLabelValues(res.Name).Observe(res.ExecutionTime.Seconds())
	}

	if e.recorder != nil {
		go func(recorder UsageRecorder, res Result, query string) {
			defer func() {
				if r := recover(); r != nil {
					log.Debug().Str("tool", res.Name).Msgf("Usage recorder panicked: %v", r)
				}
			}()
			quality := 0.0
			if res.Success {
				quality = 1.0
			}
			if err := recorder.RecordToolUsage(res.Name, query, res.Success, quality, res.ExecutionTime); err != nil {
				log.Debug().Str("tool", res.Name).Err(err).Msg("Usage report failed")
			}
		}(e.recorder, res, execCtx.Query)
	}

	evt := log.Debug()
	if !res.Success {
		evt = log.Warn().Str("error_kind", res.ErrorKind).Str("error", res.Error)
	}
	evt.
		Str("call_id", execCtx.ID).
		Str("tool", res.Name).
		Bool("success", res.Success).
		Dur("duration", res.ExecutionTime).
		Msg("Tool execution finished")

	return res
}
