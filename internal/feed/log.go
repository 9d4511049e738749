package feed

import "gmfeed/internal/model"

// MaxEvents bounds the in-memory event log.
const MaxEvents = 3000

// Log is the newest-first greeting log. It is owned by a single goroutine
// and hands out copies only.
type Log struct {
	events []model.GreetingEvent
	limit  int
}

// NewLog creates an empty log holding at most limit events.
// A non-positive limit falls back to MaxEvents.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = MaxEvents
	}
	return &Log{limit: limit}
}

// Replace loads chronological (oldest first) history, keeping the most
// recent events newest first.
func (l *Log) Replace(ascending []model.GreetingEvent) {
	start := 0
	if len(ascending) > l.limit {
		start = len(ascending) - l.limit
	}
	kept := ascending[start:]

	events := make([]model.GreetingEvent, len(kept))
	for i, event := range kept {
		events[len(kept)-1-i] = event
	}
	l.events = events
}

// Prepend adds a live event at the front and re-truncates.
func (l *Log) Prepend(event model.GreetingEvent) {
	size := len(l.events) + 1
	if size > l.limit {
		size = l.limit
	}
	events := make([]model.GreetingEvent, size)
	events[0] = event
	copy(events[1:], l.events)
	l.events = events
}

// Len returns the number of events held.
func (l *Log) Len() int {
	return len(l.events)
}

// Snapshot returns a copy of the whole log.
func (l *Log) Snapshot() []model.GreetingEvent {
	return l.Newest(len(l.events))
}

// Newest returns a copy of the first n events.
func (l *Log) Newest(n int) []model.GreetingEvent {
	if n > len(l.events) {
		n = len(l.events)
	}
	if n <= 0 {
		return []model.GreetingEvent{}
	}
	out := make([]model.GreetingEvent, n)
	copy(out, l.events[:n])
	return out
}

// Events exposes the backing slice for read-only scans on the owning goroutine.
func (l *Log) Events() []model.GreetingEvent {
	return l.events
}
