package parser

import (
	"strings"

	"github.com/bytedance/sonic"
	"golang.org/x/net/html"

	"leetmate/agent/internal/model"
)

// Result-panel markers, same caveat as the problem selectors: a fragile
// compatibility surface with the host page.
const (
	resultIndicatorAttr  = "data-e2e-locator"
	resultIndicatorValue = "console-result"
	errorDetailClass     = "text-red-60"
	inputLabelClass      = "text-label-3"
)

// contentBlockClasses gates the header-to-content pairing: a candidate
// sibling counts as the header's content block only when it carries one of
// these markers.
var contentBlockClasses = []string{"font-menlo", "bg-fill-3", "bg-fill-quaternary"}

const (
	headerInput    = "Input"
	headerOutput   = "Output"
	headerExpected = "Expected"

	compileErrorText = "Compile Error"
	runtimeErrorText = "Runtime Error"
)

// ParseTestResult reconciles the run-result panel into a normalized test-case
// list. Compile and runtime errors yield a single sentinel case; a panel
// without the expected structure yields an empty list. It never fails.
func ParseTestResult(root *html.Node) []model.TestCase {
	if root == nil {
		return []model.TestCase{}
	}

	if indicator := resultIndicator(root); indicator != nil {
		text := textContent(indicator)
		if strings.Contains(text, compileErrorText) {
			return compileErrorCase(root)
		}
		if strings.Contains(text, runtimeErrorText) {
			return runtimeErrorCase(root)
		}
	}

	return normalCases(root)
}

// ResultIndicatorText returns the trimmed text of the console result badge,
// or "" when the panel has none. The run monitor polls this for terminal
// verdict keywords.
func ResultIndicatorText(root *html.Node) string {
	if root == nil {
		return ""
	}
	indicator := resultIndicator(root)
	if indicator == nil {
		return ""
	}
	return textContent(indicator)
}

func resultIndicator(root *html.Node) *html.Node {
	return findFirst(root, func(n *html.Node) bool {
		return attrVal(n, resultIndicatorAttr) == resultIndicatorValue
	})
}

func errorDetailText(root *html.Node) string {
	detail := findFirst(root, func(n *html.Node) bool { return hasClass(n, errorDetailClass) })
	if detail == nil {
		return ""
	}
	return textContent(detail)
}

func compileErrorCase(root *html.Node) []model.TestCase {
	expected := model.CompileErrorSentinel
	return []model.TestCase{{
		Input:    map[string]any{model.CompileErrorSentinel: any(model.CompileErrorSentinel)},
		Output:   errorDetailText(root),
		Expected: &expected,
	}}
}

// runtimeErrorCase extracts the last-executed input from the error panel's
// labeled groups. Expected stays nil to mark the runtime-error form.
func runtimeErrorCase(root *html.Node) []model.TestCase {
	input := map[string]any{}
	for _, label := range findAll(root, func(n *html.Node) bool { return hasClass(n, inputLabelClass) }) {
		value := nextElementSibling(label)
		if value == nil {
			continue
		}
		key := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(textContent(label)), "="))
		if key == "" {
			continue
		}
		input[key] = decodeValue(textContent(value))
	}
	return []model.TestCase{{
		Input:    input,
		Output:   errorDetailText(root),
		Expected: nil,
	}}
}

// normalCases handles the visible + collapsed layout. The first
// Input/Output/Expected triple fixes the ordered key set; a second Input
// block, when present, is the collapsed multi-case view whose line count must
// divide exactly by the key count.
func normalCases(root *html.Node) []model.TestCase {
	inputs := contentBlocksFor(root, headerInput)
	outputs := contentBlocksFor(root, headerOutput)
	expecteds := contentBlocksFor(root, headerExpected)
	if len(inputs) == 0 || len(outputs) == 0 || len(expecteds) == 0 {
		return []model.TestCase{}
	}

	globalKeys, firstValues := inputKeys(inputs[0])
	if len(globalKeys) == 0 {
		return []model.TestCase{}
	}

	if len(inputs) < 2 {
		// Only the visible case exists.
		input := map[string]any{}
		for i, k := range globalKeys {
			input[k] = decodeValue(firstValues[i])
		}
		expected := blockValueAt(expecteds[0], 0)
		return []model.TestCase{{
			Input:    input,
			Output:   blockValueAt(outputs[0], 0),
			Expected: &expected,
		}}
	}

	lines := blockLines(inputs[1])
	if len(lines) == 0 || len(lines)%len(globalKeys) != 0 {
		return []model.TestCase{}
	}

	outputBlock := outputs[0]
	if len(outputs) > 1 {
		outputBlock = outputs[1]
	}
	expectedBlock := expecteds[0]
	if len(expecteds) > 1 {
		expectedBlock = expecteds[1]
	}

	count := len(lines) / len(globalKeys)
	cases := make([]model.TestCase, 0, count)
	for chunk := 0; chunk < count; chunk++ {
		input := map[string]any{}
		for i, k := range globalKeys {
			input[k] = decodeValue(lines[chunk*len(globalKeys)+i])
		}
		expected := blockValueAt(expectedBlock, chunk)
		cases = append(cases, model.TestCase{
			Input:    input,
			Output:   blockValueAt(outputBlock, chunk),
			Expected: &expected,
		})
	}
	return cases
}

// contentBlocksFor finds headers whose trimmed text is exactly the given
// label (no partial matches) and pairs each with its structurally adjacent
// content block: first the header's next sibling, else the parent's next
// sibling, in both cases only when the candidate carries a known content
// class.
func contentBlocksFor(root *html.Node, label string) []*html.Node {
	var blocks []*html.Node
	for _, header := range findAll(root, func(n *html.Node) bool {
		if n.FirstChild == nil {
			return false
		}
		return textContent(n) == label && len(elementChildren(n)) == 0
	}) {
		if block := adjacentContentBlock(header); block != nil {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func adjacentContentBlock(header *html.Node) *html.Node {
	if sib := nextElementSibling(header); sib != nil && hasAnyClass(sib, contentBlockClasses) {
		return sib
	}
	if header.Parent != nil {
		if sib := nextElementSibling(header.Parent); sib != nil && hasAnyClass(sib, contentBlockClasses) {
			return sib
		}
	}
	return nil
}

// inputKeys derives the ordered key set from the first visible Input block,
// from "key = value" lines when present, else from label/value groups.
func inputKeys(block *html.Node) (keys []string, values []string) {
	for _, line := range blockLines(block) {
		if idx := strings.Index(line, "="); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			if key == "" {
				continue
			}
			keys = append(keys, key)
			values = append(values, strings.TrimSpace(line[idx+1:]))
		}
	}
	if len(keys) > 0 {
		return keys, values
	}

	for _, label := range findAll(block, func(n *html.Node) bool { return hasClass(n, inputLabelClass) }) {
		value := nextElementSibling(label)
		if value == nil {
			continue
		}
		key := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(textContent(label)), "="))
		if key == "" {
			continue
		}
		keys = append(keys, key)
		values = append(values, textContent(value))
	}
	return keys, values
}

// blockValueAt reads the output/expected value for one chunk. Line-based
// blocks are indexed by chunk position; a plain-text block ignores the index
// and always returns the same string. The latter degrades multi-case outputs
// to one repeated value, which mirrors what the page actually exposes and is
// kept as-is.
func blockValueAt(block *html.Node, index int) string {
	if isLineBased(block) {
		lines := blockLines(block)
		if index < len(lines) {
			return lines[index]
		}
		return ""
	}
	return textContent(block)
}

// decodeValue attempts to JSON-decode a scraped value, falling back to the
// raw trimmed string. Decode failures are expected (the page shows plenty of
// non-JSON text) and never surface.
func decodeValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	var v any
	if err := sonic.Unmarshal([]byte(trimmed), &v); err != nil {
		return trimmed
	}
	return v
}
