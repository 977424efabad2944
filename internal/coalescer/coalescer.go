// Package coalescer suppresses redundant problem updates while surfacing
// every real change. It is the single owner of the "last sent" memory; the
// content path is the only writer, so methods are not safe for concurrent use
// and callers serialize access.
package coalescer

import (
	"reflect"

	"leetmate/agent/internal/model"
)

// Coalescer tracks the last known problem identity, code, and test result,
// and decides whether a candidate change is worth forwarding.
type Coalescer struct {
	slug       string
	problem    *model.ProblemDetails
	lastResult []model.TestCase

	lastSentCode   string
	codeKnown      bool
	lastSentResult []model.TestCase
}

func New() *Coalescer {
	return &Coalescer{}
}

// Problem returns the currently known problem details, or nil.
func (c *Coalescer) Problem() *model.ProblemDetails {
	return c.problem
}

// Slug returns the currently known problem slug, or "".
func (c *Coalescer) Slug() string {
	return c.slug
}

// SetProblem installs a newly parsed problem under the given slug. The
// test-result memory is reset before re-evaluation, and when code was already
// known it is immediately re-emitted under the new identity.
func (c *Coalescer) SetProblem(slug string, details model.ProblemDetails) *model.UnifiedUpdate {
	c.slug = slug
	c.problem = &details
	c.lastResult = nil
	c.lastSentResult = nil

	if !c.codeKnown {
		return nil
	}
	return c.emit()
}

// OfferCode evaluates a candidate code change. Returns the update to forward,
// or nil when the change is suppressed.
func (c *Coalescer) OfferCode(code string) *model.UnifiedUpdate {
	if c.codeKnown && code == c.lastSentCode {
		return nil
	}
	c.lastSentCode = code
	c.codeKnown = true
	if !c.resolvable() {
		return nil
	}
	return c.emit()
}

// OfferResult evaluates a newly parsed test result. Equality is deep value
// equality over the structured form, so a reparse of an unchanged panel is a
// no-op.
func (c *Coalescer) OfferResult(result []model.TestCase) *model.UnifiedUpdate {
	c.lastResult = result
	if reflect.DeepEqual(result, c.lastSentResult) {
		return nil
	}
	if !c.resolvable() {
		return nil
	}
	c.lastSentResult = result
	return c.emit()
}

// resolvable reports whether a problem identity exists to attach updates to.
func (c *Coalescer) resolvable() bool {
	return c.slug != "" && c.problem != nil
}

func (c *Coalescer) emit() *model.UnifiedUpdate {
	if !c.resolvable() {
		return nil
	}
	return &model.UnifiedUpdate{
		ProblemSlug: c.slug,
		Title:       c.problem.Title,
		Description: c.problem.Description,
		Examples:    c.problem.Examples,
		Constraints: c.problem.Constraints,
		Code:        c.lastSentCode,
		TestResult:  c.lastSentResult,
		Timestamp:   model.NowISO(),
	}
}
