// Package parser turns host-page DOM snapshots into plain data. All entry
// points are pure functions over an already-parsed tree and never return an
// error: the page DOM is a volatile third-party surface, so unexpected shapes
// degrade to empty values instead of failing.
package parser

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseDocument parses a raw HTML snapshot into a traversable tree.
func ParseDocument(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseFragment is a convenience wrapper for snapshots held as strings.
func ParseFragment(s string) (*html.Node, error) {
	return html.Parse(strings.NewReader(s))
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAnyClass(n *html.Node, classes []string) bool {
	for _, c := range classes {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}

// findFirst walks the subtree depth-first and returns the first element
// matching pred, or nil.
func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects every element in the subtree matching pred, in document
// order.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// textContent returns the concatenated text of the subtree, trimmed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// outerHTML renders the node back to markup. Render failures (writer errors
// cannot happen on a strings.Builder, but malformed nodes can) degrade to "".
func outerHTML(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// blockLines returns the line-based representation of a content block: one
// line per element child. Blocks with no element children fall back to
// newline-splitting their text, which covers plain multi-line input blocks.
func blockLines(n *html.Node) []string {
	kids := elementChildren(n)
	if len(kids) > 0 {
		lines := make([]string, 0, len(kids))
		for _, k := range kids {
			lines = append(lines, textContent(k))
		}
		return lines
	}
	var lines []string
	for _, l := range strings.Split(textContent(n), "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// isLineBased reports whether the block uses the per-line element layout.
// Plain-text blocks ignore chunk position when indexed (see testresult.go).
func isLineBased(n *html.Node) bool {
	return len(elementChildren(n)) > 0
}
