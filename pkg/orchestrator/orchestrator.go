// Package orchestrator is the facade over tool selection, planned
// concurrent execution, and failure recovery. Callers hand it a query plus
// conversation context; it hands back one result per requested tool no
// matter what failed along the way.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/selma/toolforge/internal/metrics"
	"github.com/selma/toolforge/pkg/analytics"
	"github.com/selma/toolforge/pkg/executor"
	"github.com/selma/toolforge/pkg/planner"
	"github.com/selma/toolforge/pkg/recovery"
	"github.com/selma/toolforge/pkg/registry"
	"github.com/selma/toolforge/pkg/scorer"
)

// Orchestrator wires the engine components around one registry.
type Orchestrator struct {
	registry *registry.Registry
	scorer   *scorer.Scorer
	executor *executor.Executor
	recovery *recovery.Engine
	metrics  *metrics.Metrics
	cfg      Config
}

// New creates an orchestrator. metrics and collector may be nil; the
// engine degrades to defaults without them.
func New(reg *registry.Registry, cfg Config, m *metrics.Metrics, collector analytics.Collector) *Orchestrator {
	cfg = cfg.withDefaults()

	var perf scorer.PerformanceProvider
	var recorder executor.UsageRecorder
	if collector != nil {
		perf = collector
		recorder = collector
	}

	sc := scorer.New(reg, perf, cfg.Weights)
	ex := executor.New(reg, cfg.Executor, m, recorder)
	re := recovery.NewEngine(reg, sc, m, cfg.Executor.DefaultTimeout)

	return &Orchestrator{
		registry: reg,
		scorer:   sc,
		executor: ex,
		recovery: re,
		metrics:  m,
		cfg:      cfg,
	}
}

// SelectTools scores the full registry against the query and context and
// returns recommendations above the selection threshold, best first.
func (o *Orchestrator) SelectTools(ctx context.Context, query string, entries []scorer.ContextEntry) ([]scorer.ToolRecommendation, error) {
	scores, err := o.scorer.ScoreTools(ctx, query, o.registry.List())
	if err != nil {
		return nil, err
	}

	if len(entries) > 0 {
		scores = o.scorer.ApplyContextBoost(scores, entries)
	}

	selected := make([]scorer.ToolScore, 0, len(scores))
	for _, score := range scores {
		if score.FinalScore < o.cfg.SelectionThreshold {
			continue
		}
		selected = append(selected, score)
		if len(selected) == o.cfg.MaxTools {
			break
		}
	}

	recs := o.scorer.Recommendations(selected, o.executor.Stats())

	if o.metrics != nil {
		o.metrics.SelectionsTotal.Inc()
		o.metrics.ToolsPerSelection.Observe(float64(len(recs)))
	}

	log.Debug().
		Str("query", query).
		Int("recommended", len(recs)).
		Msg("Tools selected")

	return recs, nil
}

// ExecuteTools plans and runs the requested tools, driving recovery for
// every failure. The returned slice always has exactly one entry per
// requested id, in request order, regardless of how many invocations
// failed underneath.
func (o *Orchestrator) ExecuteTools(ctx context.Context, ids []string, query string, entries []scorer.ContextEntry) ([]executor.Result, error) {
	if len(ids) == 0 {
		return []executor.Result{}, nil
	}

	batches, err := planner.BuildPlan(ids, o.registry.Dependencies)
	if err != nil {
		return nil, &scorer.SelectionError{Reason: err.Error()}
	}

	execCtx := executor.NewExecutionContext(query, entries, o.cfg.Executor.MaxConcurrent)
	o.executor.Execute(ctx, batches, execCtx)

	// Recovery pass: every failed result gets a strategy; retries and
	// fallbacks run through the same pool and replace the failed entry.
	for _, id := range ids {
		res, ok := execCtx.Result(id)
		if !ok || res.Success {
			continue
		}
		o.recover(ctx, res, execCtx)
	}

	final := make([]executor.Result, 0, len(ids))
	for _, id := range ids {
		if res, ok := execCtx.Result(id); ok {
			final = append(final, res)
		} else {
			// Should not happen; keep the one-result-per-tool contract
			// anyway.
			final = append(final, executor.Result{
				Name:      id,
				Success:   false,
				Error:     fmt.Sprintf("no result produced for tool: %s", id),
				ErrorKind: executor.ErrKindExecution,
			})
		}
	}
	return final, nil
}

// recover executes the engine's chosen strategy for one failed result.
func (o *Orchestrator) recover(ctx context.Context, failed executor.Result, execCtx *executor.ExecutionContext) {
	cerr := resultError(failed)
	decision := o.recovery.HandleToolFailure(ctx, failed.Name, cerr, execCtx)

	switch decision.Strategy {
	case recovery.StrategyRetry:
		if decision.Retry == nil {
			return
		}
		for attempt := 1; attempt <= decision.Retry.MaxAttempts; attempt++ {
			log.Info().
				Str("tool", failed.Name).
				Int("attempt", attempt).
				Dur("timeout", decision.Retry.Timeout).
				Msg("Retrying failed tool")

			res := o.executor.Run(ctx, failed.Name, execCtx, decision.Retry.Timeout)
			execCtx.Record(res)
			if res.Success {
				return
			}
		}

	case recovery.StrategyFallbackTool:
		for _, candidate := range decision.Fallbacks {
			log.Info().
				Str("tool", failed.Name).
				Str("fallback", candidate).
				Msg("Trying fallback tool")

			res := o.executor.Run(ctx, candidate, execCtx, 0)
			if !res.Success {
				continue
			}

			substitute := res
			substitute.Name = failed.Name
			substitute.Via = candidate
			execCtx.Record(substitute)
			return
		}

	case recovery.StrategyGracefulDegradation, recovery.StrategyUserIntervention,
		recovery.StrategyPartialResults, recovery.StrategySkipAndContinue:
		// Terminal for this tool: the failed result stands and the
		// engine's message travels with it for the response composer.
		annotated := failed
		annotated.Error = decision.Message
		execCtx.Record(annotated)
	}
}

// ComposeAnswer packages the call's results into a user-facing partial (or
// complete) answer with confidence and failure disclosure.
func (o *Orchestrator) ComposeAnswer(results []executor.Result, query string) recovery.PartialResult {
	successes := make([]executor.Result, 0, len(results))
	failed := make([]string, 0)
	for _, res := range results {
		if res.Success {
			successes = append(successes, res)
		} else {
			failed = append(failed, res.Name)
		}
	}
	return recovery.CreatePartialResult(successes, failed, query)
}

// HandleContextFailure routes a context-retrieval fault through the
// recovery engine.
func (o *Orchestrator) HandleContextFailure(err error, execCtx *executor.ExecutionContext) recovery.RecoveryResult {
	return o.recovery.HandleContextFailure(err, execCtx)
}

// HandleRenderingFailure routes a rendering fault through the recovery
// engine.
func (o *Orchestrator) HandleRenderingFailure(err error, payload interface{}) recovery.RecoveryResult {
	return o.recovery.HandleRenderingFailure(err, payload)
}

// ExecutionStats returns the per-tool rolling execution statistics.
func (o *Orchestrator) ExecutionStats() map[string]executor.ToolStats {
	return o.executor.Stats().Snapshot()
}

// ErrorStatistics returns the per-bucket error statistics snapshots.
func (o *Orchestrator) ErrorStatistics() map[string]recovery.ErrorStatistics {
	return o.recovery.ErrorStatistics()
}

// Scorer exposes the scorer for callers that drive the pipeline manually.
func (o *Orchestrator) Scorer() *scorer.Scorer {
	return o.scorer
}

// Executor exposes the executor for callers that drive the pipeline
// manually.
func (o *Orchestrator) Executor() *executor.Executor {
	return o.executor
}

// resultError rebuilds a typed error from a failed result.
func resultError(res executor.Result) error {
	switch recovery.ClassifyResult(res) {
	case recovery.KindTimeout:
		return recovery.NewTimeoutError(res.Name, res.Error)
	default:
		return recovery.NewExecutionError(res.Name, res.Error)
	}
}
