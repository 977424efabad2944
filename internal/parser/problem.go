package parser

import (
	"strings"

	"golang.org/x/net/html"

	"leetmate/agent/internal/model"
)

// Selectors and text markers the host page is scraped by. These are a
// compatibility surface with a third-party page, not a contract this system
// controls; when the page changes, this is the list to revisit.
const (
	titleClass            = "text-title-large"
	descriptionTrackAttr  = "data-track-load"
	descriptionTrackValue = "description_content"
	exampleMarkerClass    = "example"
	constraintsMarker     = "Constraints:"
)

// ParseProblem reads a problem statement out of a page snapshot. Missing
// elements degrade to empty strings and slices; it never fails.
func ParseProblem(root *html.Node) model.ProblemDetails {
	details := model.ProblemDetails{Examples: []string{}}
	if root == nil {
		return details
	}

	if title := findFirst(root, func(n *html.Node) bool { return hasClass(n, titleClass) }); title != nil {
		details.Title = textContent(title)
	}

	desc := findFirst(root, func(n *html.Node) bool {
		return attrVal(n, descriptionTrackAttr) == descriptionTrackValue
	})
	if desc == nil {
		return details
	}

	details.Description = descriptionMarkup(desc)

	for _, pre := range findAll(desc, func(n *html.Node) bool { return n.Data == "pre" }) {
		details.Examples = append(details.Examples, textContent(pre))
	}

	details.Constraints = constraintsMarkup(desc)
	return details
}

// descriptionMarkup accumulates the markup of the description container's
// children, stopping at the first child that is or contains an example
// marker. The stop is inclusive of the scan, exclusive of the content.
func descriptionMarkup(desc *html.Node) string {
	var sb strings.Builder
	for c := desc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && containsExampleMarker(c) {
			break
		}
		sb.WriteString(outerHTML(c))
	}
	return strings.TrimSpace(sb.String())
}

func containsExampleMarker(n *html.Node) bool {
	if hasClass(n, exampleMarkerClass) {
		return true
	}
	return findFirst(n, func(m *html.Node) bool { return hasClass(m, exampleMarkerClass) }) != nil
}

// constraintsMarkup looks for a bold "Constraints:" heading and takes the
// element that follows it (falling back to the parent's next sibling) when
// that element is a list.
func constraintsMarkup(desc *html.Node) string {
	heading := findFirst(desc, func(n *html.Node) bool {
		if n.Data != "strong" && n.Data != "b" {
			return false
		}
		return strings.TrimSpace(textContent(n)) == constraintsMarker
	})
	if heading == nil {
		return ""
	}

	list := nextElementSibling(heading)
	if list == nil && heading.Parent != nil {
		list = nextElementSibling(heading.Parent)
	}
	if list == nil || (list.Data != "ul" && list.Data != "ol") {
		return ""
	}
	return outerHTML(list)
}

// SlugFromPath extracts the problem slug from a location path. A location is
// problem-shaped when a literal "problems" segment is immediately followed by
// a non-empty identifier segment; the identifier is the slug. Returns "" for
// anything else.
func SlugFromPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg != "problems" {
			continue
		}
		if i+1 < len(segments) && segments[i+1] != "" {
			return segments[i+1]
		}
		return ""
	}
	return ""
}

// DisplayTitleFromSlug derives a human-readable fallback title from a slug,
// used when the cached problem title cannot be loaded.
func DisplayTitleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
