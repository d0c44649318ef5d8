// Package agent defines the capability contract shared by every fitmesh
// agent role. A capability consumes a parsed Request and produces a stream
// of discriminated events; how those events are framed on the wire (SSE,
// buffered JSON-RPC) is the dispatcher's concern, not the capability's.
package agent

import "context"

type EventType int

const (
	EventStatus EventType = iota
	EventChunk
	EventResult
	EventError
)

// Event is one increment of a capability's output. Exactly one terminal
// event (EventResult or EventError) closes every stream.
type Event struct {
	Type    EventType
	Message string
	Chunk   string
	Result  *Result
	Err     error
}

// Result is the final output of a capability: a human-readable summary and
// an optional structured payload carried as a data part on the wire.
type Result struct {
	Text string
	Data map[string]any
}

// Constraints are the machine-parseable limits attached to a request.
type Constraints struct {
	Duration     int      `json:"duration"`
	Equipment    []string `json:"equipment"`
	MuscleGroups []string `json:"muscleGroups"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// Request is the dispatcher-parsed view of an inbound task message. Text
// always carries the concatenated free text; Goal, Constraints and
// Compromise come from a structured data part when present, or from
// best-effort keyword extraction otherwise. Data holds the raw structured
// part for capabilities that need fields beyond the common ones.
type Request struct {
	Goal        string
	Text        string
	Constraints Constraints
	Compromise  bool
	Data        map[string]any
}

// Capability executes one task. The returned channel is closed after the
// terminal event. Implementations must not emit further events after an
// EventResult or EventError.
type Capability interface {
	Name() string
	Execute(ctx context.Context, req Request) (<-chan Event, error)
}

type taskIDKey struct{}

// WithTaskID tags the context with the id of the task being executed, so
// downstream calls made on the task's behalf can attribute their records.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskIDFromContext returns the executing task's id, or "" outside a task.
func TaskIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(taskIDKey{}).(string); ok {
		return id
	}
	return ""
}
