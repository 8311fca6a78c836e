package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/parley-ai/parley/engine"
	"github.com/parley-ai/parley/frame"
	"github.com/parley-ai/parley/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordCallbacks registers one recording function callback per given type
// and returns the manager plus the shared call log.
func recordCallbacks(types ...engine.CallbackType) (*engine.CallbackManager, *[]engine.CallbackContext) {
	var calls []engine.CallbackContext
	cm := engine.NewCallbackManager()
	for _, tpe := range types {
		cm.RegisterCallback(engine.NewFunctionCallback(tpe, func(_ context.Context, cc *engine.CallbackContext) error {
			calls = append(calls, *cc)
			return nil
		}))
	}
	return cm, &calls
}

func allCallbackTypes() []engine.CallbackType {
	return []engine.CallbackType{
		engine.CallbackRoundStart,
		engine.CallbackBeforeTurn,
		engine.CallbackAfterTurn,
		engine.CallbackRoundEnd,
	}
}

func TestCallbacks_FullRoundLifecycle(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Text("A wizard answers.")
	si.OnPersona("terminator").Fail("model gateway unavailable")

	cm, calls := recordCallbacks(allCallbackTypes()...)
	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub, func(o *engine.Options) { o.Callbacks = cm })

	req := testutil.NewRoundBuilder().Personas("gandalf", "terminator").Build()
	e.Run(context.Background(), req)

	got := *calls
	require.Len(t, got, 6)

	assert.Equal(t, engine.CallbackRoundStart, got[0].CallbackType)
	assert.Equal(t, "round-1", got[0].RoundID)
	assert.Equal(t, "round-1", got[0].SessionID, "session key falls back to the round id")

	assert.Equal(t, engine.CallbackBeforeTurn, got[1].CallbackType)
	assert.Equal(t, "gandalf", got[1].Persona)
	assert.Equal(t, 0, got[1].Index)

	assert.Equal(t, engine.CallbackAfterTurn, got[2].CallbackType)
	assert.Equal(t, "gandalf", got[2].Persona)
	assert.Equal(t, engine.TurnComplete, got[2].State)
	assert.NoError(t, got[2].Err)

	assert.Equal(t, engine.CallbackBeforeTurn, got[3].CallbackType)
	assert.Equal(t, "terminator", got[3].Persona)
	assert.Equal(t, 1, got[3].Index)

	assert.Equal(t, engine.CallbackAfterTurn, got[4].CallbackType)
	assert.Equal(t, engine.TurnErrored, got[4].State)
	assert.EqualError(t, got[4].Err, "model gateway unavailable")

	assert.Equal(t, engine.CallbackRoundEnd, got[5].CallbackType)
	assert.Equal(t, 2, got[5].Turns)
	assert.False(t, got[5].Cancelled)
}

func TestCallbacks_CancelledTurnReported(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	pub := testutil.NewRecordingPublisher()

	cm, calls := recordCallbacks(engine.CallbackAfterTurn, engine.CallbackRoundEnd)
	e := engine.New(si, pub, func(o *engine.Options) { o.Callbacks = cm })

	req := testutil.NewRoundBuilder().Personas("gandalf", "terminator", "ships_cat").Build()
	si.OnPersona("gandalf").
		Text("You shall ").
		Then(func() { e.Registry().Cancel(req.TopicBase) }).
		Text("not pass.")

	e.Run(context.Background(), req)

	got := *calls
	require.Len(t, got, 2)
	assert.Equal(t, engine.CallbackAfterTurn, got[0].CallbackType)
	assert.Equal(t, engine.TurnCancelled, got[0].State)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, engine.CallbackRoundEnd, got[1].CallbackType)
	assert.Equal(t, 1, got[1].Turns)
	assert.True(t, got[1].Cancelled)
}

func TestCallbacks_ErrorsNeverAlterFrames(t *testing.T) {
	si := testutil.NewScriptedInvoker()
	si.OnPersona("gandalf").Text("A wizard answers.")

	var laterCalls int
	cm := engine.NewCallbackManager()
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackBeforeTurn,
		func(context.Context, *engine.CallbackContext) error {
			return errors.New("observer had a bad day")
		}))
	// Registered after the failing one, so the manager must skip it.
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackBeforeTurn,
		func(context.Context, *engine.CallbackContext) error {
			laterCalls++
			return nil
		}))

	pub := testutil.NewRecordingPublisher()
	e := engine.New(si, pub, func(o *engine.Options) { o.Callbacks = cm })

	e.Run(context.Background(), testutil.NewRoundBuilder().Personas("gandalf").Build())

	assert.Zero(t, laterCalls, "first callback error stops the rest of that type")
	assert.Equal(t, []frame.Kind{frame.KindStart, frame.KindText, frame.KindComplete},
		pub.Kinds("rounds/round-1/gandalf"))
	assert.Equal(t, []frame.Kind{frame.KindAllComplete}, pub.Kinds("rounds/round-1/done"))
}

func TestCallbacks_MirrorRoundCompletion(t *testing.T) {
	t.Run("empty round fires only round_end", func(t *testing.T) {
		cm, calls := recordCallbacks(allCallbackTypes()...)
		pub := testutil.NewRecordingPublisher()
		e := engine.New(testutil.NewScriptedInvoker(), pub, func(o *engine.Options) { o.Callbacks = cm })

		e.Run(context.Background(), testutil.NewRoundBuilder().Personas().Build())

		got := *calls
		require.Len(t, got, 1)
		assert.Equal(t, engine.CallbackRoundEnd, got[0].CallbackType)
		assert.Zero(t, got[0].Turns)
	})

	t.Run("round cancelled before start fires nothing", func(t *testing.T) {
		cm, calls := recordCallbacks(allCallbackTypes()...)
		pub := testutil.NewRecordingPublisher()
		e := engine.New(testutil.NewScriptedInvoker(), pub, func(o *engine.Options) { o.Callbacks = cm })

		req := testutil.NewRoundBuilder().Personas("gandalf").Build()
		e.Registry().Cancel(req.TopicBase)
		e.Run(context.Background(), req)

		assert.Empty(t, *calls)
		assert.Equal(t, []frame.Kind{frame.KindCancelled}, pub.Kinds("rounds/round-1/done"))
	})
}

func TestCallbackManager_RoutesByType(t *testing.T) {
	cm := engine.NewCallbackManager()

	var starts, ends int
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackRoundStart,
		func(context.Context, *engine.CallbackContext) error { starts++; return nil }))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackRoundEnd,
		func(context.Context, *engine.CallbackContext) error { ends++; return nil }))

	err := cm.ExecuteCallbacks(context.Background(), engine.CallbackRoundStart, &engine.CallbackContext{})
	require.NoError(t, err)
	assert.Equal(t, 1, starts)
	assert.Zero(t, ends)

	// A type with no registrations is a no-op.
	require.NoError(t, cm.ExecuteCallbacks(context.Background(), engine.CallbackBeforeTurn, &engine.CallbackContext{}))
}
