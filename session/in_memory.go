package session

import (
	"strings"
	"sync"
	"unicode"

	"github.com/parley-ai/parley/invoker"
)

// Entry is one raw transcript turn. Persona is set on assistant entries so
// history consumers can tell which persona said what.
type Entry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
	Persona string `json:"persona,omitempty"`
}

// InMemoryStore is a volatile transcript store keeping sessions in a process
// local map. It is safe for concurrent access: the engine appends from a
// round goroutine while debug handlers read. Best suited for single-process
// deployments; all history is lost on restart.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Entry
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]Entry)}
}

// AppendUser adds a user message to the session. The append is skipped when
// the last entry is a user message with identical content: within a round the
// same question reaches every persona, and storing it once keeps the
// transcript coherent for the model.
func (s *InMemoryStore) AppendUser(sessionID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.sessions[sessionID]
	if n := len(history); n > 0 && history[n-1].Role == "user" && history[n-1].Content == content {
		return
	}
	s.sessions[sessionID] = append(history, Entry{Role: "user", Content: content})
}

// AppendAssistant adds a persona's finalized answer to the session.
func (s *InMemoryStore) AppendAssistant(sessionID, content, persona string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], Entry{Role: "assistant", Content: content, Persona: persona})
}

// Messages returns the session transcript as a role/content array ready for
// a model call. Assistant entries are prefixed with a natural-language
// attribution like "(Gandalf said)" rather than a bracket tag, which smaller
// models tend to mimic in their own output.
func (s *InMemoryStore) Messages(sessionID string) []invoker.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	out := make([]invoker.Message, 0, len(history))
	for _, turn := range history {
		content := turn.Content
		if turn.Role == "assistant" && turn.Persona != "" {
			content = "(" + displayName(turn.Persona) + " said) " + content
		}
		out = append(out, invoker.Message{Role: turn.Role, Content: content})
	}
	return out
}

// PromptText renders the transcript as a single string for invocation
// patterns that take one prompt instead of a messages array. A transcript
// holding only the current user message is returned verbatim.
func (s *InMemoryStore) PromptText(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	if len(history) == 0 {
		return ""
	}
	if len(history) == 1 {
		return history[0].Content
	}
	parts := make([]string, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case "user":
			parts = append(parts, "User: "+turn.Content)
		case "assistant":
			persona := turn.Persona
			if persona == "" {
				persona = "assistant"
			}
			parts = append(parts, "("+displayName(persona)+" said) "+turn.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// History returns a copy of the raw transcript including persona tags.
// Used by the debug history endpoint.
func (s *InMemoryStore) History(sessionID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	out := make([]Entry, len(history))
	copy(out, history)
	return out
}

// Len reports the number of entries stored for a session.
func (s *InMemoryStore) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// displayName humanizes a persona identifier for attribution prefixes:
// "ships_cat" becomes "Ships Cat".
func displayName(persona string) string {
	words := strings.Fields(strings.ReplaceAll(persona, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
