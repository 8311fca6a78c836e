package engine_test

import (
	"context"
	"testing"

	"github.com/parley-ai/parley/engine"
	"github.com/parley-ai/parley/frame"
	"github.com/parley-ai/parley/internal/testutil"
	"github.com/parley-ai/parley/invoker"
	"github.com/parley-ai/parley/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSelector struct {
	calls     int
	index     int
	objective string
	ok        bool
}

func (s *stubSelector) SelectObjective(roundID string, personas []string) (int, string, bool) {
	s.calls++
	return s.index, s.objective, s.ok
}

func TestEngine_FullRound(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Text("A ", "wizard answers.")
	si.OnPersona("terminator").Text("Affirmative.")
	si.OnPersona("ships_cat").Text("Meow.")

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	req := testutil.NewRoundBuilder().Personas("gandalf", "terminator", "ships_cat").Build()
	e.Run(context.Background(), req)

	want := []struct {
		topic string
		kind  frame.Kind
	}{
		{"rounds/round-1/gandalf", frame.KindStart},
		{"rounds/round-1/gandalf", frame.KindText},
		{"rounds/round-1/gandalf", frame.KindText},
		{"rounds/round-1/gandalf", frame.KindComplete},
		{"rounds/round-1/terminator", frame.KindStart},
		{"rounds/round-1/terminator", frame.KindText},
		{"rounds/round-1/terminator", frame.KindComplete},
		{"rounds/round-1/ships_cat", frame.KindStart},
		{"rounds/round-1/ships_cat", frame.KindText},
		{"rounds/round-1/ships_cat", frame.KindComplete},
		{"rounds/round-1/done", frame.KindAllComplete},
	}
	all := pub.All()
	require.Len(t, all, len(want))
	for i, w := range want {
		assert.Equal(t, w.topic, all[i].Topic, "frame %d topic", i)
		assert.Equal(t, w.kind, all[i].Frame.Type, "frame %d kind", i)
	}

	// Each later persona sees every earlier finalized answer, attributed,
	// with the original message exactly once.
	termReq, ok := si.RequestFor("terminator")
	require.True(t, ok)
	require.Len(t, termReq.Messages, 2)
	assert.Equal(t, "user", termReq.Messages[0].Role)
	assert.Equal(t, "What is the best way to make tea?", termReq.Messages[0].Content)
	assert.Equal(t, "assistant", termReq.Messages[1].Role)
	assert.Equal(t, "(Gandalf said) A wizard answers.", termReq.Messages[1].Content)

	catReq, ok := si.RequestFor("ships_cat")
	require.True(t, ok)
	require.Len(t, catReq.Messages, 3)
	assert.Equal(t, "(Terminator said) Affirmative.", catReq.Messages[2].Content)

	// Without a selector no prompt is augmented.
	gandalfReq, ok := si.RequestFor("gandalf")
	require.True(t, ok)
	assert.Equal(t, persona.Default().PromptOrDefault("gandalf"), gandalfReq.System)
}

func TestEngine_PersonaFailureContinuesRound(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Fail("Connection lost")
	si.OnPersona("terminator").Text("Affirmative.")

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	e.Run(context.Background(), testutil.NewRoundBuilder().Personas("gandalf", "terminator").Build())

	gandalf := pub.Topic("rounds/round-1/gandalf")
	require.Len(t, gandalf, 2)
	assert.Equal(t, frame.KindStart, gandalf[0].Type)
	assert.Equal(t, frame.KindError, gandalf[1].Type)
	assert.Equal(t, "Connection lost", gandalf[1].Message)

	assert.Equal(t,
		[]frame.Kind{frame.KindStart, frame.KindText, frame.KindComplete},
		pub.Kinds("rounds/round-1/terminator"))

	// The failed persona contributed nothing to the next persona's context.
	termReq, ok := si.RequestFor("terminator")
	require.True(t, ok)
	require.Len(t, termReq.Messages, 1)
	assert.Equal(t, "user", termReq.Messages[0].Role)

	done := pub.Topic("rounds/round-1/done")
	require.Len(t, done, 1)
	assert.Equal(t, frame.KindAllComplete, done[0].Type)

	last, ok := pub.Last()
	require.True(t, ok)
	assert.Equal(t, frame.KindAllComplete, last.Frame.Type)
}

func TestEngine_EmptyPersonaList(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	e.Run(context.Background(), testutil.NewRoundBuilder().Personas().Build())

	assert.Equal(t, 0, si.Calls())
	all := pub.All()
	require.Len(t, all, 1)
	assert.Equal(t, "rounds/round-1/done", all[0].Topic)
	assert.Equal(t, frame.KindAllComplete, all[0].Frame.Type)
}

func TestEngine_SecretObjectiveAugmentsOnePersona(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	pub := testutil.NewRecordingPublisher()
	sel := &stubSelector{index: 1, objective: "Work the word 'banana' into every answer.", ok: true}
	e := engine.New(si, pub, func(o *engine.Options) { o.Selector = sel })

	e.Run(context.Background(), testutil.NewRoundBuilder().Personas("gandalf", "terminator").Build())

	assert.Equal(t, 1, sel.calls, "selector is consulted once per round")

	roster := persona.Default()
	gandalfReq, ok := si.RequestFor("gandalf")
	require.True(t, ok)
	assert.Equal(t, roster.PromptOrDefault("gandalf"), gandalfReq.System)

	termReq, ok := si.RequestFor("terminator")
	require.True(t, ok)
	assert.Equal(t, roster.PromptOrDefault("terminator")+" Work the word 'banana' into every answer.", termReq.System)
}

func TestEngine_InvokerEmittedTerminalNotDuplicated(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").
		Text("Half ", "an answer.").
		Emit(invoker.Event{Kind: invoker.EventComplete, Text: "Half an answer."})
	si.OnPersona("terminator").Text("Affirmative.")

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	e.Run(context.Background(), testutil.NewRoundBuilder().Personas("gandalf", "terminator").Build())

	assert.Equal(t,
		[]frame.Kind{frame.KindStart, frame.KindText, frame.KindText, frame.KindComplete},
		pub.Kinds("rounds/round-1/gandalf"))

	// The finalized text still reaches the next persona's context.
	termReq, ok := si.RequestFor("terminator")
	require.True(t, ok)
	require.Len(t, termReq.Messages, 2)
	assert.Equal(t, "(Gandalf said) Half an answer.", termReq.Messages[1].Content)
}

func TestEngine_InvokerErrorEventEndsTurn(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Text("Partial ").Emit(invoker.Event{Kind: invoker.EventError, Message: "model overloaded"})
	si.OnPersona("terminator").Text("Affirmative.")

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	e.Run(context.Background(), testutil.NewRoundBuilder().Personas("gandalf", "terminator").Build())

	gandalf := pub.Topic("rounds/round-1/gandalf")
	require.Len(t, gandalf, 3)
	assert.Equal(t, frame.KindError, gandalf[2].Type)
	assert.Equal(t, "model overloaded", gandalf[2].Message)

	// An errored turn contributes nothing to later contexts.
	termReq, ok := si.RequestFor("terminator")
	require.True(t, ok)
	require.Len(t, termReq.Messages, 1)

	assert.Equal(t, []frame.Kind{frame.KindAllComplete}, pub.Kinds("rounds/round-1/done"))
}

func TestEngine_UsageAndSessionEchoOnComplete(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Text("Answered.").Usage(10, 5)

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	req := testutil.NewRoundBuilder().Session("sess-7").Personas("gandalf").Build()
	e.Run(context.Background(), req)

	frames := pub.Topic("rounds/round-1/gandalf")
	require.Len(t, frames, 3)
	complete := frames[2]
	assert.Equal(t, frame.KindComplete, complete.Type)
	assert.Equal(t, "Answered.", complete.Text)
	assert.Equal(t, "sess-7", complete.SessionID)
	require.NotNil(t, complete.Usage)
	assert.Equal(t, 10, complete.Usage.InputTokens)
	assert.Equal(t, 5, complete.Usage.OutputTokens)
	assert.Equal(t, 15, complete.Usage.TotalTokens)
}

func TestEngine_SessionKeyFallsBackToRoundID(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Text("First.")
	si.OnPersona("terminator").Text("Second.")

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub)

	// No session ID: in-round accumulation must still hold.
	e.Run(context.Background(), testutil.NewRoundBuilder().Personas("gandalf", "terminator").Build())

	termReq, ok := si.RequestFor("terminator")
	require.True(t, ok)
	require.Len(t, termReq.Messages, 2)
	assert.Equal(t, "(Gandalf said) First.", termReq.Messages[1].Content)

	// The original message appears exactly once in the accumulated context.
	users := 0
	for _, m := range termReq.Messages {
		if m.Role == "user" {
			users++
		}
	}
	assert.Equal(t, 1, users)
}

func TestTopicHelpers(t *testing.T) {
	assert.Equal(t, "rounds/abc/gandalf", engine.PersonaTopic("rounds/abc", "gandalf"))
	assert.Equal(t, "rounds/abc/done", engine.DoneTopic("rounds/abc"))
}
