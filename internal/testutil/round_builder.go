package testutil

import "github.com/parley-ai/parley/engine"

// RoundBuilder provides a fluent helper for constructing round requests in
// tests. Example:
//
//	req := NewRoundBuilder().Personas("gandalf", "terminator").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type RoundBuilder struct {
	req engine.RoundRequest
}

// NewRoundBuilder creates a builder with a default message, round ID and
// topic base.
func NewRoundBuilder() *RoundBuilder {
	return &RoundBuilder{req: engine.RoundRequest{
		Message:   "What is the best way to make tea?",
		RoundID:   "round-1",
		TopicBase: "rounds/round-1",
	}}
}

// Message sets the user message (chainable).
func (b *RoundBuilder) Message(m string) *RoundBuilder { b.req.Message = m; return b }

// Session sets the session ID (chainable).
func (b *RoundBuilder) Session(id string) *RoundBuilder { b.req.SessionID = id; return b }

// Round sets the round ID (chainable).
func (b *RoundBuilder) Round(id string) *RoundBuilder { b.req.RoundID = id; return b }

// Base sets the topic base (chainable).
func (b *RoundBuilder) Base(base string) *RoundBuilder { b.req.TopicBase = base; return b }

// Personas sets the ordered persona list (chainable).
func (b *RoundBuilder) Personas(names ...string) *RoundBuilder { b.req.Personas = names; return b }

// Build returns the assembled request.
func (b *RoundBuilder) Build() engine.RoundRequest { return b.req }
