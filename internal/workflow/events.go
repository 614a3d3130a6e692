package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted over the progress feed.
const (
	EventPhaseTransition = "phase_transition"
	EventVote            = "vote"
	EventEscalation      = "escalation"
	EventRunComplete     = "run_complete"
)

// Event is one observable step of a run. Advisory only: sinks must never
// influence the state machine.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	Type      string    `json:"type"`
	Phase     Phase     `json:"phase"`
	Iteration int       `json:"iteration"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// EventSink receives events as they happen. Publish must not block.
type EventSink interface {
	Publish(Event)
}

func (o *Orchestrator) emit(eventType, message string) {
	if o.sink == nil {
		return
	}
	o.sink.Publish(Event{
		ID:        uuid.NewString(),
		RunID:     o.state.RunID,
		Type:      eventType,
		Phase:     o.state.Phase,
		Iteration: o.state.Iteration,
		Message:   message,
		Time:      o.now(),
	})
}
