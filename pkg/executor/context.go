package executor

import (
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/selma/toolforge/pkg/scorer"
)

// ExecutionContext is the per-call mutable state of one orchestration
// call: the query, its context entries, the shared concurrency gate, and
// everything produced so far. Each call owns exactly one; there is no
// cross-call cancellation or sharing.
type ExecutionContext struct {
	ID      string
	Query   string
	Entries []scorer.ContextEntry

	gate chan struct{}

	mu         sync.Mutex
	results    map[string]Result
	order      []string
	startTimes map[string]time.Time
}

// NewExecutionContext creates the state for one orchestration call.
// maxConcurrent sizes the worker-pool gate shared across the whole call.
func NewExecutionContext(query string, entries []scorer.ContextEntry, maxConcurrent int) *ExecutionContext {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	id, _ := gonanoid.New()

	return &ExecutionContext{
		ID:         id,
		Query:      query,
		Entries:    entries,
		gate:       make(chan struct{}, maxConcurrent),
		results:    make(map[string]Result),
		startTimes: make(map[string]time.Time),
	}
}

// acquire takes a worker slot, or reports false if done closed first.
func (ec *ExecutionContext) acquire(done <-chan struct{}) bool {
	select {
	case ec.gate <- struct{}{}:
		return true
	case <-done:
		return false
	}
}

// release frees a worker slot.
func (ec *ExecutionContext) release() {
	<-ec.gate
}

// recordStart notes when a tool invocation began.
func (ec *ExecutionContext) recordStart(name string, at time.Time) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.startTimes[name] = at
}

// Record accumulates a result, keeping first-requested order and exactly
// one entry per tool: a later write for the same name (a retry or fallback
// substitution) replaces the earlier one.
func (ec *ExecutionContext) Record(res Result) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if _, exists := ec.results[res.Name]; !exists {
		ec.order = append(ec.order, res.Name)
	}
	ec.results[res.Name] = res
}

// StartTime returns when the named tool started, if it has.
func (ec *ExecutionContext) StartTime(name string) (time.Time, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	t, ok := ec.startTimes[name]
	return t, ok
}

// Results returns accumulated results in first-recorded order.
func (ec *ExecutionContext) Results() []Result {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	out := make([]Result, 0, len(ec.order))
	for _, name := range ec.order {
		out = append(out, ec.results[name])
	}
	return out
}

// Result returns the accumulated result for one tool.
func (ec *ExecutionContext) Result(name string) (Result, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	res, ok := ec.results[name]
	return res, ok
}

// SuccessfulResults returns only the successes, in first-recorded order.
func (ec *ExecutionContext) SuccessfulResults() []Result {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	out := make([]Result, 0, len(ec.order))
	for _, name := range ec.order {
		if res := ec.results[name]; res.Success {
			out = append(out, res)
		}
	}
	return out
}

// FailedResults returns only the failures, in first-recorded order.
func (ec *ExecutionContext) FailedResults() []Result {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	out := make([]Result, 0, len(ec.order))
	for _, name := range ec.order {
		if res := ec.results[name]; !res.Success {
			out = append(out, res)
		}
	}
	return out
}
