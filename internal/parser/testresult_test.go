package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetmate/agent/internal/model"
)

func section(header string, lines ...string) string {
	var sb strings.Builder
	sb.WriteString("<div><div>")
	sb.WriteString(header)
	sb.WriteString("</div><div class=\"font-menlo\">")
	if len(lines) == 1 && !strings.Contains(lines[0], "<div>") {
		sb.WriteString(lines[0])
	} else {
		for _, l := range lines {
			sb.WriteString("<div>")
			sb.WriteString(l)
			sb.WriteString("</div>")
		}
	}
	sb.WriteString("</div></div>")
	return sb.String()
}

func lineSection(header string, lines ...string) string {
	var sb strings.Builder
	sb.WriteString("<div><div>")
	sb.WriteString(header)
	sb.WriteString("</div><div class=\"font-menlo\">")
	for _, l := range lines {
		sb.WriteString("<div>")
		sb.WriteString(l)
		sb.WriteString("</div>")
	}
	sb.WriteString("</div></div>")
	return sb.String()
}

func mustParse(t *testing.T, s string) []model.TestCase {
	t.Helper()
	root, err := ParseFragment(s)
	require.NoError(t, err)
	return ParseTestResult(root)
}

func TestParseTestResult_CollapsedCases(t *testing.T) {
	page := lineSection("Input", "nums = [3,2,4]", "target = 6") +
		section("Output", "[1,2]") +
		section("Expected", "[1,2]") +
		lineSection("Input", "[3,2,4]", "6", "[1,2,3]", "5") +
		lineSection("Output", "[1,2]", "[0,2]") +
		lineSection("Expected", "[1,2]", "[0,2]")

	cases := mustParse(t, page)
	require.Len(t, cases, 2)

	assert.Equal(t, map[string]any{
		"nums":   []any{float64(3), float64(2), float64(4)},
		"target": float64(6),
	}, cases[0].Input)
	assert.Equal(t, "[1,2]", cases[0].Output)
	require.NotNil(t, cases[0].Expected)
	assert.Equal(t, "[1,2]", *cases[0].Expected)

	assert.Equal(t, map[string]any{
		"nums":   []any{float64(1), float64(2), float64(3)},
		"target": float64(5),
	}, cases[1].Input)
	assert.Equal(t, "[0,2]", cases[1].Output)
	require.NotNil(t, cases[1].Expected)
	assert.Equal(t, "[0,2]", *cases[1].Expected)
}

func TestParseTestResult_NonDivisibleLineCount(t *testing.T) {
	page := lineSection("Input", "nums = [3,2,4]", "target = 6") +
		section("Output", "[1,2]") +
		section("Expected", "[1,2]") +
		lineSection("Input", "[3,2,4]", "6", "[1,2,3]")

	cases := mustParse(t, page)
	assert.Empty(t, cases)
}

// Sweeps the divisibility invariant: L collapsed lines against K keys must
// produce exactly L/K cases when K divides L, and zero cases otherwise.
func TestParseTestResult_DivisibilityInvariant(t *testing.T) {
	for K := 1; K <= 3; K++ {
		for L := 1; L <= 12; L++ {
			t.Run(fmt.Sprintf("K=%d L=%d", K, L), func(t *testing.T) {
				var keyLines []string
				for i := 0; i < K; i++ {
					keyLines = append(keyLines, fmt.Sprintf("k%d = %d", i, i))
				}
				var collapsed []string
				for i := 0; i < L; i++ {
					collapsed = append(collapsed, fmt.Sprintf("%d", i))
				}

				page := lineSection("Input", keyLines...) +
					section("Output", "1") +
					section("Expected", "1") +
					lineSection("Input", collapsed...)

				cases := mustParse(t, page)
				if L%K == 0 {
					assert.Len(t, cases, L/K)
				} else {
					assert.Empty(t, cases)
				}
			})
		}
	}
}

// A plain-text Output/Expected block has no per-line layout, so every case
// in the chunk set gets the same repeated string. That mirrors what the page
// exposes and is intentionally not corrected.
func TestParseTestResult_PlainTextOutputRepeats(t *testing.T) {
	page := lineSection("Input", "n = 1") +
		section("Output", "42") +
		section("Expected", "43") +
		lineSection("Input", "2", "3", "4")

	cases := mustParse(t, page)
	require.Len(t, cases, 3)
	for _, c := range cases {
		assert.Equal(t, "42", c.Output)
		require.NotNil(t, c.Expected)
		assert.Equal(t, "43", *c.Expected)
	}
}

func TestParseTestResult_VisibleCaseOnly(t *testing.T) {
	page := lineSection("Input", "s = \"abc\"", "k = 2") +
		section("Output", "true") +
		section("Expected", "false")

	cases := mustParse(t, page)
	require.Len(t, cases, 1)
	assert.Equal(t, map[string]any{"s": "abc", "k": float64(2)}, cases[0].Input)
	assert.Equal(t, "true", cases[0].Output)
	require.NotNil(t, cases[0].Expected)
	assert.Equal(t, "false", *cases[0].Expected)
}

func TestParseTestResult_MissingBuckets(t *testing.T) {
	t.Run("no sections at all", func(t *testing.T) {
		assert.Empty(t, mustParse(t, "<div><p>Nothing here</p></div>"))
	})

	t.Run("input without output", func(t *testing.T) {
		page := lineSection("Input", "n = 1")
		assert.Empty(t, mustParse(t, page))
	})

	t.Run("partial header text does not match", func(t *testing.T) {
		page := section("Input value", "n = 1") +
			section("Output", "1") +
			section("Expected", "1")
		assert.Empty(t, mustParse(t, page))
	})

	t.Run("nil root", func(t *testing.T) {
		assert.Empty(t, ParseTestResult(nil))
	})
}

func TestParseTestResult_CompileError(t *testing.T) {
	page := `
<div>
  <span data-e2e-locator="console-result">Compile Error</span>
  <div class="text-red-60">Line 3: error: ';' expected</div>
</div>`

	cases := mustParse(t, page)
	require.Len(t, cases, 1)
	require.NotNil(t, cases[0].Expected)
	assert.Equal(t, model.CompileErrorSentinel, *cases[0].Expected)
	assert.Equal(t, map[string]any{model.CompileErrorSentinel: any(model.CompileErrorSentinel)}, cases[0].Input)
	assert.Contains(t, cases[0].Output, "';' expected")
}

func TestParseTestResult_RuntimeError(t *testing.T) {
	page := `
<div>
  <span data-e2e-locator="console-result">Runtime Error</span>
  <div class="text-red-60">java.lang.NullPointerException</div>
  <div>
    <div class="text-label-3">nums =</div>
    <div class="font-menlo">[1,2,3]</div>
    <div class="text-label-3">target =</div>
    <div class="font-menlo">not-json</div>
  </div>
</div>`

	cases := mustParse(t, page)
	require.Len(t, cases, 1)
	assert.Nil(t, cases[0].Expected)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, cases[0].Input["nums"])
	// Values that fail to decode fall back to the raw string.
	assert.Equal(t, "not-json", cases[0].Input["target"])
	assert.Contains(t, cases[0].Output, "NullPointerException")
}

func TestResultIndicatorText(t *testing.T) {
	root, err := ParseFragment(`<div><span data-e2e-locator="console-result">Accepted</span></div>`)
	require.NoError(t, err)
	assert.Equal(t, "Accepted", ResultIndicatorText(root))

	empty, err := ParseFragment(`<div></div>`)
	require.NoError(t, err)
	assert.Equal(t, "", ResultIndicatorText(empty))
}
