package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"leetmate/agent/internal/model"
)

// Provider defines the interface for the hosted text-generation service.
// GenerateStream writes a finite, ordered sequence of events to ch and closes
// it when the stream ends; each call opens a fresh provider stream, the
// sequence is not restartable. Consumers cancel by stopping iteration (via
// ctx), not through a separate signal.
type Provider interface {
	GenerateStream(ctx context.Context, req *ChatRequest, ch chan<- model.StreamEvent) error
}

// ChatRequest carries one turn's worth of input: the prior history in order,
// the literal latest user message, and the scraped page context it is
// grounded in.
type ChatRequest struct {
	History []model.ChatMessage
	Message string
	Context *model.UnifiedUpdate // problem + code + test result; nil pieces become placeholders
	Thinking bool
}

const notProvided = "not provided"

// buildUserTurn synthesizes the final user turn: problem, code, and
// test-result context (explicit placeholders when absent) followed by the
// literal latest message.
func buildUserTurn(req *ChatRequest) string {
	problem := notProvided
	code := notProvided
	testResult := notProvided

	if c := req.Context; c != nil {
		if c.Title != "" || c.Description != "" {
			var sb strings.Builder
			sb.WriteString(c.Title)
			if c.Description != "" {
				sb.WriteString("\n")
				sb.WriteString(c.Description)
			}
			for _, ex := range c.Examples {
				sb.WriteString("\nExample:\n")
				sb.WriteString(ex)
			}
			if c.Constraints != "" {
				sb.WriteString("\nConstraints:\n")
				sb.WriteString(c.Constraints)
			}
			problem = sb.String()
		}
		if c.Code != "" {
			code = c.Code
		}
		if len(c.TestResult) > 0 {
			testResult = formatTestResult(c.TestResult)
		}
	}

	return fmt.Sprintf(
		"Problem:\n%s\n\nMy current code:\n%s\n\nLatest test result:\n%s\n\nUser message:\n%s",
		problem, code, testResult, req.Message,
	)
}

func formatTestResult(cases []model.TestCase) string {
	var sb strings.Builder
	for i, tc := range cases {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Case %d:\n", i+1)
		keys := make([]string, 0, len(tc.Input))
		for k := range tc.Input {
			keys = append(keys, k)
		}
		// Stable key order keeps the synthesized prompt identical across runs.
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s = %v\n", k, tc.Input[k])
		}
		fmt.Fprintf(&sb, "  output: %s\n", tc.Output)
		if tc.Expected != nil {
			fmt.Fprintf(&sb, "  expected: %s", *tc.Expected)
		} else {
			sb.WriteString("  expected: (runtime error)")
		}
	}
	return sb.String()
}
