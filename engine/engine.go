package engine

import (
	"context"
	"errors"
	"time"

	"github.com/parley-ai/parley/frame"
	"github.com/parley-ai/parley/invoker"
	"github.com/parley-ai/parley/logging"
	"github.com/parley-ai/parley/persona"
	"github.com/parley-ai/parley/session"
)

// Publisher delivers frames to named topics. Delivery is best effort: the
// engine never retries a publish and never blocks on one.
type Publisher interface {
	Publish(topic string, f frame.Frame)
}

// SessionStore accumulates the shared transcript the engine builds each
// persona's context from. Implementations must tolerate concurrent reads
// (debug handlers) while the engine goroutine appends.
type SessionStore interface {
	// AppendUser records the user's message, skipping consecutive duplicates.
	AppendUser(sessionID, content string)
	// AppendAssistant records a persona's finalized answer.
	AppendAssistant(sessionID, content, persona string)
	// Messages renders the transcript as model-ready conversation entries.
	Messages(sessionID string) []invoker.Message
}

// ObjectiveSelector decides whether one persona receives a hidden objective
// this round. The engine calls it at most once per round, before any turn
// starts, and appends the returned text to exactly that persona's system
// prompt.
type ObjectiveSelector interface {
	SelectObjective(roundID string, personas []string) (index int, objective string, ok bool)
}

// PromptSource resolves a persona identifier to its system prompt.
type PromptSource interface {
	PromptOrDefault(name string) string
}

// PersonaTopic returns the topic carrying one persona's frames for a round.
func PersonaTopic(base, persona string) string { return base + "/" + persona }

// DoneTopic returns the topic carrying a round's single round-level frame.
func DoneTopic(base string) string { return base + "/done" }

// RoundRequest describes one deliberation round.
type RoundRequest struct {
	// Message is the user's question, shared by every persona.
	Message string
	// SessionID keys the shared transcript. When empty the engine keys it by
	// RoundID so in-round context accumulation still holds.
	SessionID string
	// RoundID identifies the round for objective selection and logging.
	RoundID string
	// TopicBase prefixes every topic of the round. Reusing a base across
	// concurrently running rounds is undefined behavior.
	TopicBase string
	// Personas is the ordered list of persona identifiers to run. Duplicates
	// are allowed; order is the turn order.
	Personas []string
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Sessions stores the shared transcript. Defaults to an in-memory store.
	Sessions SessionStore
	// Prompts resolves persona system prompts. Defaults to the built-in roster.
	Prompts PromptSource
	// Registry is the cancellation registry polled during the round.
	Registry *CancelRegistry
	// Selector decides hidden objectives. Nil disables objectives entirely.
	Selector ObjectiveSelector
	// Callbacks receives lifecycle notifications. Callback errors are logged
	// and never alter the round's frame sequence. Nil disables callbacks.
	Callbacks *CallbackManager
	// Logger receives engine diagnostics.
	Logger logging.Logger
}

// Engine sequences per-persona model calls for a round and translates their
// incremental output into published frames. A single Engine is safe for
// concurrent Run calls as long as each round uses its own topic base.
type Engine struct {
	invoker   invoker.Invoker
	publisher Publisher
	sessions  SessionStore
	prompts   PromptSource
	registry  *CancelRegistry
	selector  ObjectiveSelector
	callbacks *CallbackManager
	logger    logging.Logger
}

// New constructs an Engine around the given invoker and publisher with
// optional overrides.
func New(inv invoker.Invoker, pub Publisher, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Sessions: session.NewInMemoryStore(),
		Prompts:  persona.Default(),
		Registry: NewCancelRegistry(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		invoker:   inv,
		publisher: pub,
		sessions:  opts.Sessions,
		prompts:   opts.Prompts,
		registry:  opts.Registry,
		selector:  opts.Selector,
		callbacks: opts.Callbacks,
		logger:    opts.Logger,
	}
}

// fire dispatches one lifecycle notification. Callback failures are
// diagnostics, not control flow.
func (e *Engine) fire(ctx context.Context, t CallbackType, cc *CallbackContext) {
	if e.callbacks == nil {
		return
	}
	cc.CallbackType = t
	if err := e.callbacks.ExecuteCallbacks(ctx, t, cc); err != nil {
		e.logger.Warn("callback.failed type=%s round_id=%s err=%v", t, cc.RoundID, err)
	}
}

// Registry exposes the cancellation registry so out-of-band handlers can
// cancel rounds started on this engine.
func (e *Engine) Registry() *CancelRegistry { return e.registry }

// Run executes one deliberation round. It is side-effect only: the round's
// outcome is the frame sequence published to req.TopicBase topics, and Run
// returns once that sequence is finished. Callers that already answered
// their own request launch it as a detached goroutine.
//
// ctx is passed through to every model call; the engine's own cancellation
// path is the registry, not the context.
func (e *Engine) Run(ctx context.Context, req RoundRequest) {
	defer e.registry.Forget(req.TopicBase)

	done := DoneTopic(req.TopicBase)

	sessionKey := req.SessionID
	if sessionKey == "" {
		sessionKey = req.RoundID
	}

	if len(req.Personas) == 0 {
		e.publisher.Publish(done, frame.NewAllComplete())
		e.fire(ctx, CallbackRoundEnd, &CallbackContext{
			RoundID: req.RoundID, TopicBase: req.TopicBase, SessionID: sessionKey,
		})
		return
	}

	if e.registry.Cancelled(req.TopicBase) {
		e.logger.Info("round.cancelled.before_start round_id=%s topic_base=%s", req.RoundID, req.TopicBase)
		e.publisher.Publish(done, frame.NewRoundCancelled())
		return
	}

	e.logger.Info("round.start round_id=%s topic_base=%s personas=%d", req.RoundID, req.TopicBase, len(req.Personas))
	start := time.Now()
	e.fire(ctx, CallbackRoundStart, &CallbackContext{
		RoundID: req.RoundID, TopicBase: req.TopicBase, SessionID: sessionKey,
	})

	objIndex, objective := -1, ""
	if e.selector != nil {
		if idx, text, ok := e.selector.SelectObjective(req.RoundID, req.Personas); ok && idx >= 0 && idx < len(req.Personas) {
			objIndex, objective = idx, text
		}
	}

	e.sessions.AppendUser(sessionKey, req.Message)

	turns := 0
	cancelled := false

	for i, name := range req.Personas {
		if e.registry.Cancelled(req.TopicBase) {
			cancelled = true
			break
		}

		obj := ""
		if i == objIndex {
			obj = objective
		}

		e.fire(ctx, CallbackBeforeTurn, &CallbackContext{
			RoundID: req.RoundID, TopicBase: req.TopicBase, SessionID: sessionKey,
			Persona: name, Index: i,
		})

		turns++
		state, err := e.runTurn(ctx, req, sessionKey, name, obj)

		e.fire(ctx, CallbackAfterTurn, &CallbackContext{
			RoundID: req.RoundID, TopicBase: req.TopicBase, SessionID: sessionKey,
			Persona: name, Index: i, State: state, Err: err,
		})

		if state == TurnCancelled {
			cancelled = true
			break
		}
	}

	e.publisher.Publish(done, frame.NewAllComplete())
	e.fire(ctx, CallbackRoundEnd, &CallbackContext{
		RoundID: req.RoundID, TopicBase: req.TopicBase, SessionID: sessionKey,
		Turns: turns, Cancelled: cancelled,
	})
	e.logger.Info("round.complete round_id=%s turns=%d cancelled=%t duration=%s",
		req.RoundID, turns, cancelled, time.Since(start))
}

// Turn terminal states, used for loop control and surfaced to AfterTurn
// callbacks.
const (
	TurnComplete  = "complete"
	TurnErrored   = "errored"
	TurnCancelled = "cancelled"
)

// runTurn drives one persona's model call and publishes its frame sequence:
// start, zero or more incremental frames, exactly one terminal. The returned
// error describes a TurnErrored state when the failure carried one.
func (e *Engine) runTurn(ctx context.Context, req RoundRequest, sessionKey, name, objective string) (string, error) {
	topic := PersonaTopic(req.TopicBase, name)
	start := time.Now()

	e.publisher.Publish(topic, frame.NewStart(name))

	system := e.prompts.PromptOrDefault(name)
	if objective != "" {
		system += " " + objective
		e.logger.Debug("turn.objective persona=%s round_id=%s", name, req.RoundID)
	}

	var (
		stopped  bool
		terminal frame.Kind
		acc      []byte
		errMsg   string
	)

	relay := func(ev invoker.Event) bool {
		if stopped {
			// The invoker ignored an earlier stop signal; suppress the frame.
			return false
		}
		if e.registry.Cancelled(req.TopicBase) {
			stopped = true
			e.publisher.Publish(topic, frame.NewCancelled(name))
			return false
		}

		switch ev.Kind {
		case invoker.EventThinking:
			e.publisher.Publish(topic, frame.NewThinking(name))
		case invoker.EventToolUse:
			e.publisher.Publish(topic, frame.NewToolUse(name, ev.ToolName))
		case invoker.EventToolResult:
			e.publisher.Publish(topic, frame.NewToolResult(name, ev.ToolName))
		case invoker.EventText:
			acc = append(acc, ev.Text...)
			e.publisher.Publish(topic, frame.NewText(name, ev.Text))
		case invoker.EventComplete:
			terminal = frame.KindComplete
			f := frame.NewComplete(name)
			f.Text = ev.Text
			f.SessionID = req.SessionID
			e.publisher.Publish(topic, f)
		case invoker.EventError:
			terminal = frame.KindError
			errMsg = ev.Message
			e.publisher.Publish(topic, frame.NewError(name, ev.Message))
		}

		return true
	}

	res, err := e.invoker.Stream(ctx, invoker.Request{
		Persona:  name,
		System:   system,
		Messages: e.sessions.Messages(sessionKey),
	}, relay)

	if stopped {
		// The cancelled terminal is already on the wire; any error the
		// invoker returned while winding down is just diagnostics.
		if err != nil {
			e.logger.Debug("turn.cancelled.invoker_err persona=%s err=%v", name, err)
		}
		e.logger.Info("turn.cancelled persona=%s round_id=%s duration=%s", name, req.RoundID, time.Since(start))
		return TurnCancelled, nil
	}

	if err != nil {
		if terminal == "" {
			e.publisher.Publish(topic, frame.NewError(name, err.Error()))
		}
		e.logger.Warn("turn.errored persona=%s round_id=%s duration=%s err=%v", name, req.RoundID, time.Since(start), err)
		return TurnErrored, err
	}

	if terminal == frame.KindError {
		e.logger.Warn("turn.errored persona=%s round_id=%s duration=%s", name, req.RoundID, time.Since(start))
		return TurnErrored, errors.New(errMsg)
	}

	text := string(acc)
	if res != nil && res.Text != "" {
		text = res.Text
	}

	if terminal == "" {
		f := frame.NewComplete(name)
		f.Text = text
		f.SessionID = req.SessionID
		if res != nil && res.Usage != nil {
			f.Usage = &frame.Usage{
				InputTokens:  res.Usage.PromptTokens,
				OutputTokens: res.Usage.CompletionTokens,
				TotalTokens:  res.Usage.TotalTokens,
			}
		}
		e.publisher.Publish(topic, f)
	}

	e.sessions.AppendAssistant(sessionKey, text, name)

	if res != nil && res.Usage != nil {
		e.logger.Debug("turn.usage persona=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
			name, res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens)
	}
	e.logger.Info("turn.complete persona=%s round_id=%s duration=%s", name, req.RoundID, time.Since(start))

	return TurnComplete, nil
}
