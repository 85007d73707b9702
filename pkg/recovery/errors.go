package recovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/selma/toolforge/pkg/executor"
)

// Kind is the failure taxonomy shared by every collaborator routed
// through the engine.
type Kind string

const (
	KindSelection        Kind = "selection"
	KindExecution        Kind = "execution"
	KindTimeout          Kind = "timeout"
	KindResourceLimit    Kind = "resource_limit"
	KindContextRetrieval Kind = "context_retrieval"
	KindRendering        Kind = "rendering"
	KindUnknown          Kind = "unknown"
)

// Severity orders failures by how much of the call they threaten.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityByKind is the fixed classification table.
var severityByKind = map[Kind]Severity{
	KindSelection:        SeverityHigh,
	KindExecution:        SeverityMedium,
	KindTimeout:          SeverityMedium,
	KindResourceLimit:    SeverityHigh,
	KindContextRetrieval: SeverityMedium,
	KindRendering:        SeverityLow,
	KindUnknown:          SeverityCritical,
}

// ClassifiedError carries a failure kind through error wrapping.
type ClassifiedError struct {
	Kind    Kind
	Tool    string
	Message string
	Err     error
}

func (e *ClassifiedError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Tool, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// NewTimeoutError builds a timeout-kind error for a tool.
func NewTimeoutError(tool, message string) *ClassifiedError {
	return &ClassifiedError{Kind: KindTimeout, Tool: tool, Message: message}
}

// NewExecutionError builds an execution-kind error for a tool.
func NewExecutionError(tool, message string) *ClassifiedError {
	return &ClassifiedError{Kind: KindExecution, Tool: tool, Message: message}
}

// NewResourceLimitError builds a resource-pressure error. Callers raise it
// when they need the engine to signal reduced concurrency.
func NewResourceLimitError(message string) *ClassifiedError {
	return &ClassifiedError{Kind: KindResourceLimit, Message: message}
}

// Classify determines the failure kind of an arbitrary error. Typed errors
// win; otherwise the message is sniffed as a last resort.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "resource"), strings.Contains(msg, "too many"):
		return KindResourceLimit
	case strings.Contains(msg, "panic"):
		return KindExecution
	default:
		return KindExecution
	}
}

// ClassifyResult maps a failed executor result onto the taxonomy using the
// error kind the executor stamped.
func ClassifyResult(res executor.Result) Kind {
	switch res.ErrorKind {
	case executor.ErrKindTimeout:
		return KindTimeout
	case executor.ErrKindExecution, executor.ErrKindPanic,
		executor.ErrKindNotFound, executor.ErrKindCancelled:
		return KindExecution
	default:
		return KindUnknown
	}
}

// SeverityOf returns the fixed severity for a kind.
func SeverityOf(kind Kind) Severity {
	if sev, ok := severityByKind[kind]; ok {
		return sev
	}
	return SeverityCritical
}
