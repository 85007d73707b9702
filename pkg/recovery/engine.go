// Package recovery classifies failed tool invocations and selects a
// remediation: retry, fallback substitution, partial results, graceful
// degradation, escalation, or skip.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/selma/toolforge/internal/metrics"
	"github.com/selma/toolforge/pkg/executor"
	"github.com/selma/toolforge/pkg/registry"
	"github.com/selma/toolforge/pkg/scorer"
)

// Strategy is a remediation for a failed invocation.
type Strategy string

const (
	StrategyRetry               Strategy = "retry"
	StrategyFallbackTool        Strategy = "fallback_tool"
	StrategyPartialResults      Strategy = "partial_results"
	StrategyGracefulDegradation Strategy = "graceful_degradation"
	StrategyUserIntervention    Strategy = "user_intervention"
	StrategySkipAndContinue     Strategy = "skip_and_continue"
)

// RetryConfig tells the caller how to re-invoke a tool.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	Timeout     time.Duration `json:"timeout"`
}

// RecoveryResult is the executed outcome of a recovery decision.
type RecoveryResult struct {
	Strategy  Strategy       `json:"strategy"`
	Tool      string         `json:"tool,omitempty"`
	Kind      Kind           `json:"kind"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Retry     *RetryConfig   `json:"retry,omitempty"`
	Fallbacks []string       `json:"fallbacks,omitempty"`
	Partial   *PartialResult `json:"partial,omitempty"`
}

// AlternativeSource ranks substitute candidates. *scorer.Scorer satisfies
// it.
type AlternativeSource interface {
	ScoreTools(ctx context.Context, query string, candidates []string) ([]scorer.ToolScore, error)
}

// Catalog exposes the registry surface the engine needs.
type Catalog interface {
	Fallbacks(name string) []string
	List() []string
	Get(name string) (registry.Tool, bool)
}

// Thresholds for the decision table: a tool with this many failures of a
// kind in its recent history stops being retried.
const (
	recentTimeoutLimit   = 2
	recentExecutionLimit = 2
	maxTimeoutRetries    = 1
	maxExecutionRetries  = 2
	maxFallbackCount     = 3
)

// Component buckets for non-tool failures.
const (
	componentContext   = "context"
	componentRendering = "rendering"
)

// Engine decides and executes recovery strategies. All state it keeps is
// the bounded per-bucket error history; each call is otherwise stateless.
type Engine struct {
	history        *historyBook
	alternatives   AlternativeSource
	catalog        Catalog
	metrics        *metrics.Metrics
	defaultTimeout time.Duration
}

// NewEngine creates a recovery engine. alternatives and metrics may be
// nil; fallback candidates then come from the static chains alone.
func NewEngine(catalog Catalog, alternatives AlternativeSource, m *metrics.Metrics, defaultTimeout time.Duration) *Engine {
	if defaultTimeout <= 0 {
		defaultTimeout = executor.DefaultConfig().DefaultTimeout
	}
	return &Engine{
		history:        newHistoryBook(),
		alternatives:   alternatives,
		catalog:        catalog,
		metrics:        m,
		defaultTimeout: defaultTimeout,
	}
}

// HandleToolFailure classifies one failed invocation and returns the
// chosen remediation. The failure is folded into the rolling history after
// the decision, so the history consulted is strictly past failures.
func (e *Engine) HandleToolFailure(ctx context.Context, tool string, err error, execCtx *executor.ExecutionContext) RecoveryResult {
	kind := Classify(err)
	severity := SeverityOf(kind)

	recentTimeouts := e.history.recentKindCount(tool, KindTimeout)
	recentFailures := e.history.recentKindCount(tool, KindExecution)

	var result RecoveryResult
	switch {
	case kind == KindTimeout && recentTimeouts < recentTimeoutLimit:
		result = RecoveryResult{
			Strategy: StrategyRetry,
			Message:  fmt.Sprintf("Retrying %s with an extended time budget.", tool),
			Retry: &RetryConfig{
				MaxAttempts: maxTimeoutRetries,
				Timeout:     e.retryTimeout(tool),
			},
		}

	case kind == KindTimeout:
		result = RecoveryResult{
			Strategy:  StrategyFallbackTool,
			Message:   fmt.Sprintf("%s keeps timing out; trying an alternative.", tool),
			Fallbacks: e.fallbackCandidates(ctx, tool, execCtx),
		}

	case kind == KindExecution && recentFailures < recentExecutionLimit:
		result = RecoveryResult{
			Strategy: StrategyRetry,
			Message:  fmt.Sprintf("Retrying %s after an execution error.", tool),
			Retry: &RetryConfig{
				MaxAttempts: maxExecutionRetries,
				Timeout:     0, // normal budget
			},
		}

	case kind == KindExecution:
		result = RecoveryResult{
			Strategy:  StrategyFallbackTool,
			Message:   fmt.Sprintf("%s keeps failing; trying an alternative.", tool),
			Fallbacks: e.fallbackCandidates(ctx, tool, execCtx),
		}

	case kind == KindResourceLimit:
		result = RecoveryResult{
			Strategy: StrategyGracefulDegradation,
			Message:  "The system is under heavy load, so this answer may be less complete than usual. Please try again shortly for full results.",
		}

	case severity == SeverityCritical:
		result = RecoveryResult{
			Strategy: StrategyUserIntervention,
			Message:  "Something went wrong that I can't recover from automatically. Please rephrase your request or contact support if the problem persists.",
		}

	default:
		result = RecoveryResult{
			Strategy: StrategyGracefulDegradation,
			Message:  fmt.Sprintf("Part of the answer (%s) is unavailable right now, so this response may be incomplete.", tool),
		}
	}

	result.Tool = tool
	result.Kind = kind
	result.Severity = severity

	e.record(tool, kind, err)
	e.observe(result.Strategy)

	log.Info().
		Str("tool", tool).
		Str("kind", string(kind)).
		Str("strategy", string(result.Strategy)).
		Int("recent_timeouts", recentTimeouts).
		Int("recent_failures", recentFailures).
		Msg("Recovery strategy selected")

	return result
}

// HandleContextFailure recovers from a context-retrieval fault. With
// successes already accumulated the call degrades to partial results;
// otherwise the caller gets a reduced-functionality answer.
func (e *Engine) HandleContextFailure(err error, execCtx *executor.ExecutionContext) RecoveryResult {
	e.record(componentContext, KindContextRetrieval, err)

	successes := execCtx.SuccessfulResults()
	if len(successes) > 0 {
		failed := failedNames(execCtx)
		partial := CreatePartialResult(successes, failed, execCtx.Query)
		result := RecoveryResult{
			Strategy: StrategyPartialResults,
			Kind:     KindContextRetrieval,
			Severity: SeverityOf(KindContextRetrieval),
			Message:  partial.Content,
			Partial:  &partial,
		}
		e.observe(result.Strategy)
		return result
	}

	result := RecoveryResult{
		Strategy: StrategyGracefulDegradation,
		Kind:     KindContextRetrieval,
		Severity: SeverityOf(KindContextRetrieval),
		Message:  "I couldn't access the conversation history, so this answer is based on your current question alone.",
	}
	e.observe(result.Strategy)
	return result
}

// HandleRenderingFailure recovers from a rendering fault by skipping the
// formatter and passing the raw payload through as plain text.
func (e *Engine) HandleRenderingFailure(err error, payload interface{}) RecoveryResult {
	e.record(componentRendering, KindRendering, err)

	result := RecoveryResult{
		Strategy: StrategySkipAndContinue,
		Kind:     KindRendering,
		Severity: SeverityOf(KindRendering),
		Message:  fmt.Sprintf("%v", payload),
	}
	e.observe(result.Strategy)
	return result
}

// ErrorStatistics returns a read-only snapshot of per-bucket error
// statistics: totals, per-kind counts, and the last 10 recorded errors.
func (e *Engine) ErrorStatistics() map[string]ErrorStatistics {
	return e.history.snapshot()
}

// retryTimeout doubles the tool's configured budget.
func (e *Engine) retryTimeout(tool string) time.Duration {
	budget := e.defaultTimeout
	if e.catalog != nil {
		if t, ok := e.catalog.Get(tool); ok && t.Timeout > 0 {
			budget = t.Timeout
		}
	}
	return 2 * budget
}

// fallbackCandidates merges the static fallback chain with the top-2
// scorer alternatives, excluding the failed tool, capped at 3.
func (e *Engine) fallbackCandidates(ctx context.Context, failed string, execCtx *executor.ExecutionContext) []string {
	candidates := []string{}
	seen := map[string]struct{}{failed: {}}

	if e.catalog != nil {
		for _, name := range e.catalog.Fallbacks(failed) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			candidates = append(candidates, name)
		}
	}

	if e.alternatives != nil && e.catalog != nil {
		pool := []string{}
		for _, name := range e.catalog.List() {
			if name != failed {
				pool = append(pool, name)
			}
		}

		scores, err := e.alternatives.ScoreTools(ctx, execCtx.Query, pool)
		if err != nil {
			log.Debug().Err(err).Msg("Alternative scoring failed during fallback selection")
		} else {
			picked := 0
			for _, score := range scores {
				if picked == 2 {
					break
				}
				if _, dup := seen[score.Name]; dup {
					continue
				}
				seen[score.Name] = struct{}{}
				candidates = append(candidates, score.Name)
				picked++
			}
		}
	}

	if len(candidates) > maxFallbackCount {
		candidates = candidates[:maxFallbackCount]
	}
	return candidates
}

func (e *Engine) record(bucket string, kind Kind, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	rec := ErrorRecord{
		Kind:      kind,
		Tool:      bucket,
		Message:   msg,
		Timestamp: time.Now(),
	}
	e.history.record(bucket, rec)
}

func (e *Engine) observe(strategy Strategy) {
	if e.metrics != nil {
		e.metrics.RecoveriesTotal.WithLabelValues(string(strategy)).Inc()
	}
}

func failedNames(execCtx *executor.ExecutionContext) []string {
	failures := execCtx.FailedResults()
	names := make([]string, 0, len(failures))
	for _, res := range failures {
		names = append(names, res.Name)
	}
	return names
}
