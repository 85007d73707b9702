// Package coretools registers the built-in baseline tools. They are small,
// dependency-free capabilities that make a fresh installation usable before
// any domain tools are configured, and they give the CLI something real to
// select, plan, and execute.
package coretools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/selma/toolforge/pkg/registry"
	"github.com/selma/toolforge/pkg/scorer"
)

// RegisterBuiltins registers the baseline tools. Config metadata may later
// override any of their keywords, scores, or timeouts via ApplyMetadata.
func RegisterBuiltins(reg *registry.Registry) error {
	if reg == nil {
		return fmt.Errorf("registry is required")
	}

	tools := []registry.Tool{
		echoTool(),
		clockTool(),
		keywordsTool(),
		wordCountTool(),
		summaryTool(),
	}

	for _, tool := range tools {
		if err := reg.Register(tool); err != nil {
			return fmt.Errorf("failed to register builtin %s: %w", tool.Name, err)
		}
	}
	return nil
}

func echoTool() registry.Tool {
	return registry.Tool{
		Name:        "echo",
		Description: "Repeats the query back. Useful for verifying the pipeline end to end.",
		Category:    "information",
		Keywords:    []string{"echo", "repeat", "say"},
		BaseScore:   0.3,
		Handler: func(ctx context.Context, query string, params map[string]interface{}) (interface{}, error) {
			return query, nil
		},
	}
}

func clockTool() registry.Tool {
	return registry.Tool{
		Name:        "clock",
		Description: "Reports the current local time.",
		Category:    "information",
		Keywords:    []string{"time", "clock", "date", "now", "today"},
		BaseScore:   0.5,
		Handler: func(ctx context.Context, query string, params map[string]interface{}) (interface{}, error) {
			return time.Now().Format(time.RFC1123), nil
		},
	}
}

func keywordsTool() registry.Tool {
	return registry.Tool{
		Name:        "keywords",
		Description: "Extracts the significant terms from the query.",
		Category:    "analysis",
		Keywords:    []string{"keywords", "terms", "extract", "analyze"},
		BaseScore:   0.4,
		Handler: func(ctx context.Context, query string, params map[string]interface{}) (interface{}, error) {
			tokens := scorer.Tokenize(query)
			if len(tokens) == 0 {
				return "no significant terms found", nil
			}
			return strings.Join(tokens, ", "), nil
		},
	}
}

func wordCountTool() registry.Tool {
	return registry.Tool{
		Name:        "word_count",
		Description: "Counts the words in the query.",
		Category:    "analysis",
		Keywords:    []string{"count", "words", "length"},
		BaseScore:   0.3,
		Handler: func(ctx context.Context, query string, params map[string]interface{}) (interface{}, error) {
			return fmt.Sprintf("%d words", len(strings.Fields(query))), nil
		},
	}
}

// summaryTool depends on keywords so a default installation exercises the
// planner's batching, not just flat parallel execution.
func summaryTool() registry.Tool {
	return registry.Tool{
		Name:         "summary",
		Description:  "Produces a one-line profile of the query.",
		Category:     "analysis",
		Keywords:     []string{"summary", "profile", "describe", "overview"},
		Dependencies: []string{"keywords"},
		Fallbacks:    []string{"word_count"},
		BaseScore:    0.4,
		Handler: func(ctx context.Context, query string, params map[string]interface{}) (interface{}, error) {
			tokens := scorer.Tokenize(query)
			return fmt.Sprintf("%d words, %d significant terms", len(strings.Fields(query)), len(tokens)), nil
		},
	}
}
