package model

import "time"

// ProblemDetails is the normalized form of a scraped problem statement.
// It is replaced wholesale when the page navigates to a new problem and is
// immutable once constructed.
type ProblemDetails struct {
	Title       string   `json:"title"`
	Description string   `json:"description"` // raw markup, everything before the first example marker
	Examples    []string `json:"examples"`
	Constraints string   `json:"constraints"` // raw markup of the constraint list, or ""
}

// TestCase is one reconciled test case from the run-result panel.
//
// Two sentinel forms exist: a compile error produces a single case whose
// Input and Expected both carry CompileErrorSentinel, and a runtime error
// produces a single case with Expected == nil and Input holding the
// last-executed input extracted from the error panel.
type TestCase struct {
	Input    map[string]any `json:"input"`
	Output   string         `json:"output"`
	Expected *string        `json:"expected"`
}

// CompileErrorSentinel marks the degenerate compile-error test case.
const CompileErrorSentinel = "NA (compile error)"

// UnifiedUpdate is the ephemeral payload emitted whenever the coalescer
// decides a change is worth forwarding. The core never persists it itself;
// the background store does.
type UnifiedUpdate struct {
	ProblemSlug string     `json:"problemSlug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Examples    []string   `json:"examples"`
	Constraints string     `json:"constraints"`
	Code        string     `json:"code"`
	TestResult  []TestCase `json:"testResult,omitempty"`
	Timestamp   string     `json:"timestamp"` // ISO-8601
}

// StreamEvent is one element of the provider's lazy event sequence. At most
// one of Text/Thought is set. ThinkingStartTime is attached exactly once, on
// the first thought; ThinkingEndTime exactly once, on the first text event
// that follows a thought run. Times are epoch milliseconds.
type StreamEvent struct {
	Text              string `json:"text,omitempty"`
	Thought           string `json:"thought,omitempty"`
	ThinkingStartTime int64  `json:"thinkingStartTime,omitempty"`
	ThinkingEndTime   int64  `json:"thinkingEndTime,omitempty"`
}

// MessageStatus is the lifecycle state of a chat message.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusStreaming MessageStatus = "streaming"
	StatusSucceeded MessageStatus = "succeeded"
	StatusFailed    MessageStatus = "failed"
)

// ChatMessage is the single canonical message shape. The UI layers never see
// any other representation.
type ChatMessage struct {
	ID                string        `json:"id"`
	Text              string        `json:"text"`
	IsUser            bool          `json:"isUser"`
	Status            MessageStatus `json:"status"`
	Thinking          []string      `json:"thinking,omitempty"`
	ThinkingStartTime int64         `json:"thinkingStartTime,omitempty"`
	ThinkingEndTime   int64         `json:"thinkingEndTime,omitempty"`
}

// Chat is one session owned by a problem slug. LastUpdated is epoch
// milliseconds; entries loaded without one get it backfilled.
type Chat struct {
	ID          string        `json:"id"`
	Messages    []ChatMessage `json:"messages"`
	LastUpdated int64         `json:"lastUpdated"`
}

// MessageUpdate is one chunk of the session controller's outbound stream.
// Exactly one in-flight assistant message exists per stream, so the update
// carries the whole message snapshot after the event was applied.
type MessageUpdate struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NowMillis returns the current time as epoch milliseconds, the unit used for
// all thinking timestamps and Chat.LastUpdated.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// NowISO returns the current time in the ISO-8601 form used by UnifiedUpdate.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
