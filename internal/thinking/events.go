package thinking

// EventType identifies one decoded event from the reasoning stream.
type EventType string

const (
	EventThinking EventType = "thinking" // intermediate narrative update
	EventStage    EventType = "stage"    // one completed unit of work
	EventError    EventType = "error"    // terminal, reported by the stream
	EventDone     EventType = "done"     // terminal, successful completion
)

// Event is one record decoded from the wire or synthesized by the simulator.
// The wire format is a JSON object with a required "type" field; the other
// fields are populated depending on the type.
type Event struct {
	Type     EventType `json:"type"`
	Stage    string    `json:"stage,omitempty"`
	Content  string    `json:"content,omitempty"`
	Thinking string    `json:"thinking,omitempty"`
	Progress int       `json:"progress,omitempty"` // 0-100
	Error    string    `json:"error,omitempty"`
}

// Terminal reports whether the event ends a session.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventDone
}

// Callbacks is the consumer-facing notification surface. Every slot is
// optional; nil slots are skipped. Callbacks fire synchronously in event
// order from the session's goroutine, so implementations must not block and
// must not call back into the Manager.
type Callbacks struct {
	OnThinking func(Event)
	OnStage    func(Event)
	OnError    func(message string)
	OnComplete func(final Session)
}
