package llm

import "leetmate/agent/internal/model"

// eventDeriver turns raw provider content parts into tagged stream events,
// attaching the thinking boundary timestamps. ThinkingStartTime goes on the
// first thought of the call; ThinkingEndTime on the first text part that
// follows at least one thought. Each is attached at most once. Parts with no
// text are skipped entirely.
type eventDeriver struct {
	sawThought  bool
	endRecorded bool
	now         func() int64
}

func newEventDeriver(now func() int64) *eventDeriver {
	if now == nil {
		now = model.NowMillis
	}
	return &eventDeriver{now: now}
}

// derive maps one content part to an event. ok is false when the part is
// empty and nothing should be emitted.
func (d *eventDeriver) derive(text string, thought bool) (ev model.StreamEvent, ok bool) {
	if text == "" {
		return model.StreamEvent{}, false
	}

	if thought {
		ev = model.StreamEvent{Thought: text}
		if !d.sawThought {
			d.sawThought = true
			ev.ThinkingStartTime = d.now()
		}
		return ev, true
	}

	ev = model.StreamEvent{Text: text}
	if d.sawThought && !d.endRecorded {
		d.endRecorded = true
		ev.ThinkingEndTime = d.now()
	}
	return ev, true
}
