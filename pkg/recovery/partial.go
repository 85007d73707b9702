package recovery

import (
	"fmt"
	"strings"

	"github.com/selma/toolforge/pkg/executor"
)

// apologyMessage is the fixed low-confidence response when nothing
// succeeded.
const apologyMessage = "I'm sorry, I wasn't able to gather the information needed to answer that right now. Please try again in a moment."

// apologyConfidence is the confidence attached to a total failure.
const apologyConfidence = 0.1

// PartialResult packages whatever succeeded into a user-facing answer with
// explicit disclosure of what did not.
type PartialResult struct {
	Content     string   `json:"content"`
	FailedTools []string `json:"failed_tools,omitempty"`
	Confidence  float64  `json:"confidence"`
	Complete    bool     `json:"complete"`
}

// CreatePartialResult concatenates successful payloads and discloses the
// failed tools. Confidence is successes/(successes+failures); a call with
// no successes gets the fixed apology.
func CreatePartialResult(successes []executor.Result, failedNames []string, query string) PartialResult {
	if len(successes) == 0 {
		return PartialResult{
			Content:     apologyMessage,
			FailedTools: failedNames,
			Confidence:  apologyConfidence,
			Complete:    false,
		}
	}

	var b strings.Builder
	for i, res := range successes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("%v", res.Output))
	}

	if len(failedNames) > 0 {
		b.WriteString(fmt.Sprintf(
			"\n\nNote: some sources were unavailable (%s), so this answer may be incomplete.",
			strings.Join(failedNames, ", ")))
	}

	total := len(successes) + len(failedNames)
	confidence := float64(len(successes)) / float64(total)

	return PartialResult{
		Content:     b.String(),
		FailedTools: failedNames,
		Confidence:  confidence,
		Complete:    len(failedNames) == 0,
	}
}
