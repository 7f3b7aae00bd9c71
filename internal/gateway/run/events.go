// Package run tracks in-flight expansion runs and fans their progress out to
// subscribers.
package run

import (
	"strings"
	"sync"
	"time"

	"requify/internal/pipeline"
)

const completedRunRetention = 30 * time.Second

// Event is one progress update from an expansion run. Final is set on the
// last event of the run; Err carries the failure message if it aborted.
type Event struct {
	RunID     string              `json:"runId"`
	ProjectID string              `json:"projectId"`
	Step      pipeline.Step       `json:"step,omitempty"`
	Status    pipeline.StepStatus `json:"status,omitempty"`
	Detail    string              `json:"detail,omitempty"`
	Final     bool                `json:"final,omitempty"`
	Err       string              `json:"error,omitempty"`
}

// EventBroker manages per-run event channels.
type EventBroker struct {
	mu     sync.RWMutex
	events map[string]chan Event
}

func NewEventBroker() *EventBroker {
	return &EventBroker{events: make(map[string]chan Event)}
}

// Allocate creates and registers a new event channel for a run.
func (b *EventBroker) Allocate(runID string, size int) chan Event {
	if size <= 0 {
		size = 1
	}
	ch := make(chan Event, size)
	b.mu.Lock()
	b.events[strings.TrimSpace(runID)] = ch
	b.mu.Unlock()
	return ch
}

// Get returns the event channel for a run.
func (b *EventBroker) Get(runID string) (chan Event, bool) {
	b.mu.RLock()
	ch, ok := b.events[strings.TrimSpace(runID)]
	b.mu.RUnlock()
	return ch, ok
}

// Publish drops the event if the run's channel is full or gone; progress is
// advisory, the run itself never blocks on a slow reader.
func (b *EventBroker) Publish(ev Event) {
	ch, ok := b.Get(ev.RunID)
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

// ScheduleCleanup removes a run's event channel after a retention period.
func (b *EventBroker) ScheduleCleanup(runID string) {
	time.AfterFunc(completedRunRetention, func() {
		b.mu.Lock()
		delete(b.events, strings.TrimSpace(runID))
		b.mu.Unlock()
	})
}
