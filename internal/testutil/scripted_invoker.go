package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/parley-ai/parley/invoker"
)

// step is one scripted action within a turn: an optional hook to run, then
// an optional event to emit.
type step struct {
	hook  func()
	emit  bool
	event invoker.Event
}

// TurnScript describes what the scripted invoker does for one persona.
// Chain only the parts you need; an unscripted persona answers with a single
// deterministic text chunk.
type TurnScript struct {
	steps []step
	err   error
	usage *invoker.Usage
}

// Text appends one text event per chunk (chainable).
func (t *TurnScript) Text(chunks ...string) *TurnScript {
	for _, c := range chunks {
		t.steps = append(t.steps, step{emit: true, event: invoker.Event{Kind: invoker.EventText, Text: c}})
	}
	return t
}

// Thinking appends a thinking event (chainable).
func (t *TurnScript) Thinking() *TurnScript {
	t.steps = append(t.steps, step{emit: true, event: invoker.Event{Kind: invoker.EventThinking}})
	return t
}

// ToolUse appends a tool_use event for the named tool (chainable).
func (t *TurnScript) ToolUse(name string) *TurnScript {
	t.steps = append(t.steps, step{emit: true, event: invoker.Event{Kind: invoker.EventToolUse, ToolName: name}})
	return t
}

// ToolResult appends a tool_result event for the named tool (chainable).
func (t *TurnScript) ToolResult(name string) *TurnScript {
	t.steps = append(t.steps, step{emit: true, event: invoker.Event{Kind: invoker.EventToolResult, ToolName: name}})
	return t
}

// Emit appends a raw event, for kinds the other helpers do not cover
// (chainable).
func (t *TurnScript) Emit(ev invoker.Event) *TurnScript {
	t.steps = append(t.steps, step{emit: true, event: ev})
	return t
}

// Then runs fn between events, e.g. to flip a cancellation flag mid-stream
// (chainable).
func (t *TurnScript) Then(fn func()) *TurnScript {
	t.steps = append(t.steps, step{hook: fn})
	return t
}

// Fail makes Stream return an error with the given message after the
// scripted events (chainable).
func (t *TurnScript) Fail(message string) *TurnScript {
	t.err = errors.New(message)
	return t
}

// Usage attaches token counters to the final result (chainable).
func (t *TurnScript) Usage(prompt, completion int) *TurnScript {
	t.usage = &invoker.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	return t
}

// ScriptedInvoker is an invoker.Invoker test double that replays per-persona
// scripts and records every request it receives.
type ScriptedInvoker struct {
	mu       sync.Mutex
	scripts  map[string]*TurnScript
	requests []invoker.Request
}

// NewScriptedInvoker constructs a ScriptedInvoker with no scripts.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{scripts: make(map[string]*TurnScript)}
}

// OnPersona returns the script for the named persona, creating it on first
// use.
func (s *ScriptedInvoker) OnPersona(name string) *TurnScript {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scripts[name]
	if !ok {
		sc = &TurnScript{}
		s.scripts[name] = sc
	}
	return sc
}

// Calls reports how many Stream calls were made.
func (s *ScriptedInvoker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request received, in call order.
func (s *ScriptedInvoker) Requests() []invoker.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]invoker.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestFor returns the first request recorded for the named persona.
func (s *ScriptedInvoker) RequestFor(persona string) (invoker.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.Persona == persona {
			return req, true
		}
	}
	return invoker.Request{}, false
}

// Stream implements invoker.Invoker by replaying the persona's script.
func (s *ScriptedInvoker) Stream(_ context.Context, req invoker.Request, emit invoker.EmitFunc) (*invoker.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	sc := s.scripts[req.Persona]
	s.mu.Unlock()

	if sc == nil {
		text := fmt.Sprintf("%s answers", req.Persona)
		if !emit(invoker.Event{Kind: invoker.EventText, Text: text}) {
			return &invoker.Result{Stopped: true}, nil
		}
		return &invoker.Result{Text: text}, nil
	}

	var acc strings.Builder
	for _, st := range sc.steps {
		if st.hook != nil {
			st.hook()
		}
		if !st.emit {
			continue
		}
		if !emit(st.event) {
			return &invoker.Result{Text: acc.String(), Stopped: true}, nil
		}
		if st.event.Kind == invoker.EventText {
			acc.WriteString(st.event.Text)
		}
	}

	if sc.err != nil {
		return nil, sc.err
	}
	return &invoker.Result{Text: acc.String(), Usage: sc.usage}, nil
}

// Info implements invoker.Invoker.
func (s *ScriptedInvoker) Info() invoker.Info {
	return invoker.Info{Name: "scripted", Provider: "test"}
}
