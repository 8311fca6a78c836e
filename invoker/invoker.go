package invoker

import (
	"context"
	"fmt"
	"strings"
)

// EventKind discriminates the incremental notifications a model call can
// surface while it runs.
type EventKind string

const (
	// EventThinking signals reasoning activity before visible output.
	EventThinking EventKind = "thinking"
	// EventToolUse signals the model started using a named tool.
	EventToolUse EventKind = "tool_use"
	// EventToolResult signals a named tool returned its result.
	EventToolResult EventKind = "tool_result"
	// EventText carries an incremental chunk of the answer.
	EventText EventKind = "text"
	// EventComplete signals the provider finished the turn itself.
	EventComplete EventKind = "complete"
	// EventError signals a provider-surfaced failure mid-stream.
	EventError EventKind = "error"
)

// Event is one incremental notification delivered to the EmitFunc. Field
// presence depends on Kind: Text on text events, ToolName on tool events,
// Message on error events.
type Event struct {
	Kind     EventKind
	Text     string
	ToolName string
	Message  string
}

// EmitFunc receives events synchronously during Stream. Returning false
// demands a cooperative stop: the invoker must cease emitting and return
// promptly with Result.Stopped set.
type EmitFunc func(Event) bool

// Message is one prior conversation entry passed as model context.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request captures the normalized input for one persona's model call.
type Request struct {
	Persona  string    `json:"persona"`
	System   string    `json:"system"`
	Messages []Message `json:"messages"`
}

// Usage captures token usage statistics for a finished call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the final outcome of a Stream call. Text holds the full
// accumulated answer, Usage is nil when the provider reports none, and
// Stopped records that the callback demanded a stop before completion.
type Result struct {
	Text    string `json:"text"`
	Usage   *Usage `json:"usage,omitempty"`
	Stopped bool   `json:"stopped,omitempty"`
}

// Info contains metadata about an invoker implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "anthropic", "openai", "bedrock", "mock"
}

// Invoker is the minimal interface the engine needs to drive one persona's
// turn. Stream performs one model call, forwarding incremental events to
// emit; it blocks until the call finishes, fails, or is stopped.
type Invoker interface {
	Stream(ctx context.Context, req Request, emit EmitFunc) (*Result, error)

	// Info returns information about the invoker implementation.
	Info() Info
}

// Mock is a lightweight in-memory Invoker useful for tests and examples. It
// replays canned answers word by word through the callback.
type Mock struct {
	info      Info
	responses map[string]string
}

// NewMock constructs a Mock with an empty response table.
func NewMock() *Mock {
	return &Mock{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned answer for an input prompt.
func (m *Mock) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Stream implements Invoker; it emits word chunks for the canned answer and
// leaves the terminal frame to the caller.
func (m *Mock) Stream(ctx context.Context, req Request, emit EmitFunc) (*Result, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	full := m.responses[prompt]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", prompt)
	}

	var acc strings.Builder
	for _, chunk := range strings.SplitAfter(full, " ") {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if !emit(Event{Kind: EventText, Text: chunk}) {
			return &Result{Text: acc.String(), Stopped: true}, nil
		}
		acc.WriteString(chunk)
	}
	return &Result{Text: full}, nil
}

// Info implements Invoker.
func (m *Mock) Info() Info { return m.info }
