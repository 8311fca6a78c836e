package engine

import (
	"context"

	"github.com/parley-ai/parley/logging"
)

// CallbackType defines the specific lifecycle points where callbacks run.
//
// Callbacks provide a mechanism for hooking into a round's execution without
// modifying engine logic. They observe the round; they do not steer it. The
// frame sequence a round publishes is normative, so a callback error is
// logged and otherwise ignored.
//
// Available callback types:
//   - RoundStart/RoundEnd: Around a full deliberation round
//   - BeforeTurn/AfterTurn: Around a single persona's turn
type CallbackType string

const (
	// CallbackRoundStart is triggered once per round, after the round passed
	// its cancellation gate and before any persona's turn starts.
	CallbackRoundStart CallbackType = "round_start"

	// CallbackBeforeTurn is triggered before each persona's model call.
	// Use for instrumentation or per-turn audit trails.
	CallbackBeforeTurn CallbackType = "before_turn"

	// CallbackAfterTurn is triggered after each persona's turn reached its
	// terminal state. The context carries the state and, for failed turns,
	// the underlying error.
	CallbackAfterTurn CallbackType = "after_turn"

	// CallbackRoundEnd is triggered when the round publishes its round-level
	// completion frame. It mirrors that publication: a round cancelled
	// before it started publishes no completion frame and fires no
	// CallbackRoundEnd.
	CallbackRoundEnd CallbackType = "round_end"
)

// CallbackContext carries the coordinates of the lifecycle point being
// reported. Field presence depends on CallbackType:
//
//   - RoundID, TopicBase and SessionID are always set.
//   - Persona and Index identify the turn on turn-scoped callbacks.
//   - State and Err describe the turn outcome on CallbackAfterTurn.
//   - Turns and Cancelled summarize the round on CallbackRoundEnd.
type CallbackContext struct {
	// CallbackType indicates which lifecycle point triggered this execution,
	// letting shared callback implementations branch on the phase.
	CallbackType CallbackType

	// RoundID identifies the round.
	RoundID string

	// TopicBase is the round's topic prefix.
	TopicBase string

	// SessionID is the resolved transcript key (the round ID when the
	// request did not name a session).
	SessionID string

	// Persona is the persona taking the turn. Empty on round-scoped
	// callbacks.
	Persona string

	// Index is the zero-based position of the turn in the round's order.
	Index int

	// State is the turn's terminal state: TurnComplete, TurnErrored or
	// TurnCancelled.
	State string

	// Err is the failure behind a TurnErrored state, when one exists.
	Err error

	// Turns counts the turns that started before the round ended.
	Turns int

	// Cancelled reports whether cancellation cut the round short.
	Cancelled bool
}

// Callback is a lifecycle hook observing round execution.
//
// Implementations should be fast (they run synchronously on the round's
// goroutine) and must not panic. Returned errors stop later callbacks of the
// same type for that lifecycle point and are logged by the engine; they never
// change the frames the round publishes.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a plain function as a Callback.
//
// Example:
//
//	auditCallback := engine.NewFunctionCallback(
//	    engine.CallbackAfterTurn,
//	    func(ctx context.Context, cc *engine.CallbackContext) error {
//	        audit.Record(cc.RoundID, cc.Persona, cc.State)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a function-based callback handling the given
// type.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager routes lifecycle notifications to registered callbacks.
//
// Multiple callbacks can be registered per type; they execute sequentially in
// registration order, and the first error stops the remainder for that
// notification.
//
// Registration is not thread-safe. Register every callback before handing the
// manager to an engine; execution is then safe for concurrent rounds.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback under the type it reports.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs every callback registered for the given type in
// registration order, stopping at the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	callbacks, exists := cm.callbacks[callbackType]
	if !exists {
		return nil
	}

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback logs lifecycle events through the project logger. Useful
// for debugging and audit trails without touching engine internals.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a logging callback for the given type.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle event with its coordinates.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	switch callbackCtx.CallbackType {
	case CallbackBeforeTurn:
		c.logger.Info("callback.%s round_id=%s persona=%s index=%d",
			callbackCtx.CallbackType, callbackCtx.RoundID, callbackCtx.Persona, callbackCtx.Index)
	case CallbackAfterTurn:
		c.logger.Info("callback.%s round_id=%s persona=%s index=%d state=%s err=%v",
			callbackCtx.CallbackType, callbackCtx.RoundID, callbackCtx.Persona, callbackCtx.Index,
			callbackCtx.State, callbackCtx.Err)
	case CallbackRoundEnd:
		c.logger.Info("callback.%s round_id=%s turns=%d cancelled=%t",
			callbackCtx.CallbackType, callbackCtx.RoundID, callbackCtx.Turns, callbackCtx.Cancelled)
	default:
		c.logger.Info("callback.%s round_id=%s topic_base=%s",
			callbackCtx.CallbackType, callbackCtx.RoundID, callbackCtx.TopicBase)
	}

	return nil
}
