package frame

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the frame types a round can publish.
type Kind string

const (
	// KindStart opens a persona's turn. Always the first frame on a persona topic.
	KindStart Kind = "start"
	// KindThinking signals the model is reasoning before producing text.
	KindThinking Kind = "thinking"
	// KindToolUse signals the model started using a named tool.
	KindToolUse Kind = "tool_use"
	// KindToolResult signals a named tool returned its result to the model.
	KindToolResult Kind = "tool_result"
	// KindText carries an incremental chunk of the persona's answer.
	KindText Kind = "text"
	// KindComplete closes a successful turn.
	KindComplete Kind = "complete"
	// KindError closes a failed turn, carrying the failure message.
	KindError Kind = "error"
	// KindCancelled closes a turn (or a round that never started) after a
	// cooperative cancellation.
	KindCancelled Kind = "cancelled"
	// KindAllComplete is the round-level bookend published on the done topic.
	KindAllComplete Kind = "all_complete"
)

// knownKinds guards Decode against payloads with an unrecognized discriminant.
var knownKinds = map[Kind]struct{}{
	KindStart: {}, KindThinking: {}, KindToolUse: {}, KindToolResult: {},
	KindText: {}, KindComplete: {}, KindError: {}, KindCancelled: {},
	KindAllComplete: {},
}

// Usage carries token counters for observability. All counters are best
// effort: providers that do not report usage leave it nil on the frame.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Frame is one structured event published to a topic. After publication it
// should be treated as immutable. Field presence depends on Type:
//
//   - Persona is set on every persona-scoped frame and absent on round-level
//     frames (all_complete, pre-start cancelled).
//   - Content carries the incremental chunk on text frames.
//   - ToolName is set on tool_use / tool_result frames.
//   - Message carries the failure text on error frames.
//   - Text, SessionID and Usage may be attached to complete frames so a
//     subscriber that missed the incremental stream still receives the full
//     answer and its accounting.
type Frame struct {
	Type      Kind   `json:"type"`
	Persona   string `json:"persona,omitempty"`
	Content   string `json:"content,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Message   string `json:"message,omitempty"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Usage     *Usage `json:"usage,omitempty"`
}

// NewStart opens the given persona's turn.
func NewStart(persona string) Frame {
	return Frame{Type: KindStart, Persona: persona}
}

// NewThinking reports reasoning activity for the given persona.
func NewThinking(persona string) Frame {
	return Frame{Type: KindThinking, Persona: persona}
}

// NewToolUse reports that the persona's model started using a tool.
func NewToolUse(persona, toolName string) Frame {
	return Frame{Type: KindToolUse, Persona: persona, ToolName: toolName}
}

// NewToolResult reports that a tool returned its result to the persona's model.
func NewToolResult(persona, toolName string) Frame {
	return Frame{Type: KindToolResult, Persona: persona, ToolName: toolName}
}

// NewText carries one incremental chunk of the persona's answer.
func NewText(persona, content string) Frame {
	return Frame{Type: KindText, Persona: persona, Content: content}
}

// NewComplete closes a successful turn. Callers may attach the accumulated
// Text, a SessionID echo and Usage before publishing.
func NewComplete(persona string) Frame {
	return Frame{Type: KindComplete, Persona: persona}
}

// NewError closes a failed turn with the failure message.
func NewError(persona, message string) Frame {
	return Frame{Type: KindError, Persona: persona, Message: message}
}

// NewCancelled closes the given persona's turn after a cooperative cancel.
func NewCancelled(persona string) Frame {
	return Frame{Type: KindCancelled, Persona: persona}
}

// NewRoundCancelled is the round-level cancelled frame published on the done
// topic when a round is cancelled before any turn starts. It carries no
// persona.
func NewRoundCancelled() Frame {
	return Frame{Type: KindCancelled}
}

// NewAllComplete is the round-level bookend published exactly once per
// completed round on the done topic. It carries no persona.
func NewAllComplete() Frame {
	return Frame{Type: KindAllComplete}
}

// Terminal reports whether this frame ends a persona's turn.
func (f Frame) Terminal() bool {
	switch f.Type {
	case KindComplete, KindError, KindCancelled:
		return true
	default:
		return false
	}
}

// RoundLevel reports whether this frame belongs on the round's done topic
// rather than a persona topic: the all_complete bookend or a pre-start
// cancelled frame without a persona.
func (f Frame) RoundLevel() bool {
	if f.Type == KindAllComplete {
		return true
	}
	return f.Type == KindCancelled && f.Persona == ""
}

// Encode serializes the frame for publication.
func (f Frame) Encode() ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return b, nil
}

// Decode parses a published payload and validates its discriminant.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if _, ok := knownKinds[f.Type]; !ok {
		return Frame{}, fmt.Errorf("decode frame: unknown type %q", f.Type)
	}
	return f, nil
}
