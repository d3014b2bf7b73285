package pipeline

import (
	"time"

	"github.com/go-logr/logr"
)

// EventType is the kind of a pipeline event.
type EventType string

// Pipeline events.
const (
	EventChainStarted   EventType = "chain.started"
	EventChainCompleted EventType = "chain.completed"
	EventChainFailed    EventType = "chain.failed"
	EventStepStarted    EventType = "step.started"
	EventStepCompleted  EventType = "step.completed"
	EventStepFailed     EventType = "step.failed"
	EventStepAbsorbed   EventType = "step.absorbed"
	EventStepDegraded   EventType = "step.degraded"
)

// Event is one structured pipeline event.
type Event struct {
	Type      EventType
	Chain     string
	Step      string
	Message   string
	Code      int
	Duration  time.Duration
	Timestamp time.Time
}

// Observer receives pipeline events.
type Observer interface {
	Event(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

// Event implements Observer.
func (f ObserverFunc) Event(e Event) { f(e) }

// Observers fans events out to every non-nil observer in order.
type Observers []Observer

// Event implements Observer.
func (obs Observers) Event(e Event) {
	for _, o := range obs {
		if o != nil {
			o.Event(e)
		}
	}
}

// LogObserver writes events to a logr.Logger.
type LogObserver struct {
	log logr.Logger
}

// NewLogObserver returns an observer logging to log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// Event implements Observer.
func (o *LogObserver) Event(e Event) {
	kv := []any{"chain", e.Chain}
	if e.Step != "" {
		kv = append(kv, "step", e.Step)
	}
	if e.Code != 0 {
		kv = append(kv, "code", e.Code)
	}
	if e.Duration > 0 {
		kv = append(kv, "duration", e.Duration.Round(time.Millisecond))
	}
	if e.Message != "" {
		kv = append(kv, "message", e.Message)
	}
	level := 1
	switch e.Type {
	case EventStepFailed, EventChainFailed, EventStepDegraded:
		level = 0
	}
	o.log.V(level).Info(string(e.Type), kv...)
}
