package a2a

type AgentCard struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	URL          string       `json:"url"`
	Version      string       `json:"version"`
	Capabilities Capabilities `json:"capabilities"`
	Skills       []Skill      `json:"skills,omitempty"`
}

type Capabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCanceled  TaskState = "canceled"
)

// Terminal reports whether no further transition may leave the state.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	}
	return false
}

type Task struct {
	ID      string    `json:"id"`
	Message Message   `json:"message"`
	State   TaskState `json:"status,omitempty"`
	Result  *Message  `json:"result,omitempty"`
}

type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is one segment of a message: type "text" carries Text, type "data"
// carries Data.
type Part struct {
	Type string         `json:"type"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

func TextPart(text string) Part {
	return Part{Type: "text", Text: text}
}

func DataPart(data map[string]any) Part {
	return Part{Type: "data", Data: data}
}

func UserMessage(parts ...Part) Message {
	return Message{Role: "user", Parts: parts}
}

func AssistantMessage(parts ...Part) Message {
	return Message{Role: "assistant", Parts: parts}
}

// TaskResult is the JSON-RPC result payload for the task methods.
type TaskResult struct {
	TaskID string    `json:"taskId"`
	State  TaskState `json:"status"`
	Result *Message  `json:"result,omitempty"`
}
