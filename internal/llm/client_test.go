package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leetmate/agent/internal/model"
)

func TestBuildUserTurn_NoContext(t *testing.T) {
	turn := buildUserTurn(&ChatRequest{Message: "why does this fail?"})

	assert.Contains(t, turn, "Problem:\nnot provided")
	assert.Contains(t, turn, "My current code:\nnot provided")
	assert.Contains(t, turn, "Latest test result:\nnot provided")
	assert.Contains(t, turn, "User message:\nwhy does this fail?")
}

func TestBuildUserTurn_FullContext(t *testing.T) {
	expected := "[0,1]"
	turn := buildUserTurn(&ChatRequest{
		Message: "help",
		Context: &model.UnifiedUpdate{
			Title:       "1. Two Sum",
			Description: "<p>Find indices.</p>",
			Examples:    []string{"Input: nums = [2,7]"},
			Constraints: "<ul><li>n &gt;= 2</li></ul>",
			Code:        "func twoSum() {}",
			TestResult: []model.TestCase{{
				Input:    map[string]any{"target": float64(9)},
				Output:   "[1,0]",
				Expected: &expected,
			}},
		},
	})

	assert.Contains(t, turn, "1. Two Sum")
	assert.Contains(t, turn, "Find indices.")
	assert.Contains(t, turn, "Example:\nInput: nums = [2,7]")
	assert.Contains(t, turn, "Constraints:\n<ul>")
	assert.Contains(t, turn, "func twoSum() {}")
	assert.Contains(t, turn, "Case 1:")
	assert.Contains(t, turn, "target = 9")
	assert.Contains(t, turn, "output: [1,0]")
	assert.Contains(t, turn, "expected: [0,1]")
	assert.NotContains(t, turn, "not provided")
}

func TestBuildUserTurn_PartialContext(t *testing.T) {
	turn := buildUserTurn(&ChatRequest{
		Message: "review this",
		Context: &model.UnifiedUpdate{Code: "print(1)"},
	})

	assert.Contains(t, turn, "Problem:\nnot provided")
	assert.Contains(t, turn, "My current code:\nprint(1)")
	assert.Contains(t, turn, "Latest test result:\nnot provided")
}

func TestFormatTestResult_StableKeyOrder(t *testing.T) {
	expected := "ok"
	tc := model.TestCase{
		Input:    map[string]any{"z": float64(1), "a": float64(2), "m": float64(3)},
		Output:   "ok",
		Expected: &expected,
	}

	want := "Case 1:\n  a = 2\n  m = 3\n  z = 1\n  output: ok\n  expected: ok"
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, formatTestResult([]model.TestCase{tc}))
	}
}

func TestFormatTestResult_RuntimeError(t *testing.T) {
	out := formatTestResult([]model.TestCase{{
		Input:  map[string]any{"n": float64(3)},
		Output: "NullPointerException",
	}})

	assert.Contains(t, out, "n = 3")
	assert.Contains(t, out, "output: NullPointerException")
	assert.Contains(t, out, "expected: (runtime error)")
}
