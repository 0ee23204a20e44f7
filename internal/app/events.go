package app

import (
	"sync"
	"time"
)

type RunEventType string

const (
	EventRunStarted      RunEventType = "run_started"
	EventRowVisited      RunEventType = "row_visited"
	EventActionPerformed RunEventType = "action_performed"
	EventActionSkipped   RunEventType = "action_skipped"
	EventRunFinished     RunEventType = "run_finished"
	EventRunFailed       RunEventType = "run_failed"
)

// RunEvent reports progress of a run to subscribers.
type RunEvent struct {
	RunID string       `json:"run_id"`
	Type  RunEventType `json:"type"`
	Time  time.Time    `json:"time"`

	// Row is the 1-based CSV row the event refers to.
	Row      int    `json:"row,omitempty"`
	Total    int    `json:"total,omitempty"`
	URL      string `json:"url,omitempty"`
	Captured int    `json:"captured,omitempty"`
	Detail   string `json:"detail,omitempty"`

	Passed int    `json:"passed,omitempty"`
	Failed int    `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Events fans run events out to subscribers.
type Events struct {
	mu   sync.Mutex
	next int
	subs map[int]chan RunEvent
}

func NewEvents() *Events {
	return &Events{subs: make(map[int]chan RunEvent)}
}

// Subscribe returns a buffered event channel and a function that removes the
// subscription and closes the channel.
func (e *Events) Subscribe(buffer int) (<-chan RunEvent, func()) {
	ch := make(chan RunEvent, buffer)

	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber. Slow subscribers miss events
// rather than blocking the run.
func (e *Events) Publish(ev RunEvent) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (e *Events) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
