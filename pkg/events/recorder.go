package events

import (
	"sync"
	"time"
)

// Recorder keeps the last N events.
type Recorder struct {
	MaxRecordCount int

	mu     sync.Mutex
	events []Event
}

// NewRecorder returns a Recorder keeping at most maxRecordCount events.
// A non-positive count keeps a single event.
func NewRecorder(maxRecordCount int) *Recorder {
	if maxRecordCount <= 0 {
		maxRecordCount = 1
	}
	return &Recorder{
		MaxRecordCount: maxRecordCount,
		events:         make([]Event, 0, maxRecordCount),
	}
}

// Add appends e, dropping the oldest event when full.
func (r *Recorder) Add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) >= r.MaxRecordCount {
		r.events = append(r.events[:0], r.events[len(r.events)-r.MaxRecordCount+1:]...)
	}
	r.events = append(r.events, e)
}

// Resize changes the capacity, dropping the oldest events if needed.
func (r *Recorder) Resize(maxRecordCount int) {
	if maxRecordCount <= 0 {
		maxRecordCount = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.MaxRecordCount = maxRecordCount
	if over := len(r.events) - maxRecordCount; over > 0 {
		r.events = append([]Event(nil), r.events[over:]...)
	}
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// EventsSince returns the recorded events newer than t, oldest first.
func (r *Recorder) EventsSince(t time.Time) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.events {
		if e.Time.After(t) {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes all records.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = r.events[:0]
}
