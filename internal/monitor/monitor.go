// Package monitor is the page-observer half of the content path: it owns the
// debounce timer for navigation rechecks, the run-result poll loop, and the
// teardown of both. All timers and the latest snapshot are tracked by one
// Monitor instance so the whole thing can be released with a single Close.
package monitor

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"leetmate/agent/internal/coalescer"
	"leetmate/agent/internal/model"
	"leetmate/agent/internal/parser"
)

// terminalKeywords end the run-result poll loop as soon as one shows up in
// the console result badge.
var terminalKeywords = []string{"Wrong Answer", "Accepted", "Compile Error", "Runtime Error"}

// Options tune the observer's timing. Zero values fall back to the defaults
// (200ms debounce, 500ms poll, 40 attempts).
type Options struct {
	Debounce        time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 200 * time.Millisecond
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.PollMaxAttempts <= 0 {
		o.PollMaxAttempts = 40
	}
	return o
}

// Monitor consumes page snapshots and editor updates, feeds the coalescer,
// and forwards emitted updates to the sink. Safe for concurrent use; the
// internal lock serializes the coalescer's single-writer path.
type Monitor struct {
	opts Options
	co   *coalescer.Coalescer
	sink func(*model.UnifiedUpdate)

	mu                 sync.Mutex
	root               *html.Node
	path               string
	lastProcessedTitle string

	debounceTimer *time.Timer
	pollTimer     *time.Timer
	pollGen       uint64
	pollAttempt   int
	closed        bool
}

func New(co *coalescer.Coalescer, sink func(*model.UnifiedUpdate), opts Options) *Monitor {
	return &Monitor{
		opts: opts.withDefaults(),
		co:   co,
		sink: sink,
	}
}

// OnSnapshot installs a new DOM snapshot and schedules a debounced
// navigation recheck. Rapid mutations within the debounce window supersede
// each other; only the last observed state is acted upon.
func (m *Monitor) OnSnapshot(path, rawHTML string) {
	root, err := parser.ParseFragment(rawHTML)
	if err != nil {
		slog.Warn("Discarding unparseable page snapshot", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.root = root
	m.path = path

	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(m.opts.Debounce, m.recheckNavigation)
}

// OnCode offers a candidate code change to the coalescer.
func (m *Monitor) OnCode(code string) {
	m.mu.Lock()
	update := m.co.OfferCode(code)
	m.mu.Unlock()
	m.forward(update)
}

// recheckNavigation runs after the debounce window. The displayed title must
// differ both from the currently known problem and from the last title
// already processed, so repeated identical mutations stay cheap.
func (m *Monitor) recheckNavigation() {
	m.mu.Lock()
	if m.closed || m.root == nil {
		m.mu.Unlock()
		return
	}
	slug := parser.SlugFromPath(m.path)
	if slug == "" {
		m.mu.Unlock()
		return
	}

	details := parser.ParseProblem(m.root)
	if details.Title == "" || details.Title == m.lastProcessedTitle {
		m.mu.Unlock()
		return
	}
	if known := m.co.Problem(); known != nil && known.Title == details.Title {
		m.mu.Unlock()
		return
	}
	m.lastProcessedTitle = details.Title
	update := m.co.SetProblem(slug, details)
	m.mu.Unlock()

	slog.Info("Problem navigation detected", "slug", slug, "title", details.Title)
	m.forward(update)
}

// TriggerRunCheck starts polling the result panel for a terminal verdict.
// Any outstanding poll is cancelled first; at most one poll cycle is ever
// live. Stop() alone cannot guarantee that: a callback already dispatched
// keeps running and would re-arm itself, so each trigger bumps a generation
// and callbacks from older generations bail out.
func (m *Monitor) TriggerRunCheck() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.pollTimer != nil {
		m.pollTimer.Stop()
	}
	m.pollGen++
	gen := m.pollGen
	m.pollAttempt = 0
	m.pollTimer = time.AfterFunc(m.opts.PollInterval, func() { m.pollResult(gen) })
	slog.Debug("Run-result polling started")
}

func (m *Monitor) pollResult(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.pollGen {
		m.mu.Unlock()
		return
	}
	m.pollAttempt++

	indicator := parser.ResultIndicatorText(m.root)
	if !isTerminal(indicator) {
		if m.pollAttempt >= m.opts.PollMaxAttempts {
			m.mu.Unlock()
			slog.Debug("Run-result polling gave up", "attempts", m.pollAttempt)
			return
		}
		m.pollTimer = time.AfterFunc(m.opts.PollInterval, func() { m.pollResult(gen) })
		m.mu.Unlock()
		return
	}

	result := parser.ParseTestResult(m.root)
	update := m.co.OfferResult(result)
	m.mu.Unlock()

	slog.Info("Run result captured", "verdict", indicator, "cases", len(result))
	m.forward(update)
}

// Close stops every live timer. Further snapshots and triggers become no-ops.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
		m.debounceTimer = nil
	}
	if m.pollTimer != nil {
		m.pollTimer.Stop()
		m.pollTimer = nil
	}
}

func (m *Monitor) forward(update *model.UnifiedUpdate) {
	if update == nil || m.sink == nil {
		return
	}
	m.sink(update)
}

func isTerminal(indicator string) bool {
	if indicator == "" {
		return false
	}
	for _, kw := range terminalKeywords {
		if strings.Contains(indicator, kw) {
			return true
		}
	}
	return false
}
