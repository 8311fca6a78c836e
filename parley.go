// Package parley provides a high-level façade over the deliberation engine
// and its collaborators (invoker, pub/sub hub, session store, objective
// selector), enabling quick assembly of a multi-persona deliberation service.
// Most applications interact with this package by:
//  1. Creating a Parley via New() (optionally overriding the config-selected
//     invoker or any default collaborator)
//  2. Starting rounds with StartRound and watching their frames through
//     SubscribeRound
//  3. Cancelling in-flight rounds with CancelRound
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development; deployments
// typically supply a Config and a structured logger.
package parley

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/parley-ai/parley/config"
	"github.com/parley-ai/parley/engine"
	"github.com/parley-ai/parley/invoker"
	"github.com/parley-ai/parley/invoker/anthropic"
	"github.com/parley-ai/parley/invoker/bedrock"
	"github.com/parley-ai/parley/invoker/openai"
	"github.com/parley-ai/parley/logging"
	"github.com/parley-ai/parley/objective"
	"github.com/parley-ai/parley/persona"
	"github.com/parley-ai/parley/pubsub"
	"github.com/parley-ai/parley/session"
)

// ErrUnknownPersona is returned when a request names a persona outside the
// roster.
var ErrUnknownPersona = fmt.Errorf("unknown persona")

// Options configures the Parley instance.
type Options struct {
	// Config drives invoker selection and round defaults. Defaults to
	// config.Default().
	Config config.Config

	// Invoker overrides the config-selected model adapter. Useful for tests
	// and examples running without a provider.
	Invoker invoker.Invoker

	// Roster overrides the built-in persona roster.
	Roster *persona.Roster

	// Callbacks receives engine lifecycle notifications. Nil disables them.
	Callbacks *engine.CallbackManager

	// Logger receives diagnostics from every component. Defaults to NoOp.
	Logger logging.Logger

	// Rand seeds persona picks and objective rolls. Nil uses the shared
	// global source.
	Rand *rand.Rand
}

// Parley is the high-level façade aggregating the engine and its services.
type Parley struct {
	cfg      config.Config
	invoker  invoker.Invoker
	hub      *pubsub.Hub
	sessions *session.InMemoryStore
	registry *engine.CancelRegistry
	roster   *persona.Roster
	engine   *engine.Engine
	logger   logging.Logger
	rng      *rand.Rand
}

// New creates a Parley instance with optional overrides. The context is used
// for provider setup (AWS credential resolution for Bedrock) only.
func New(ctx context.Context, optFns ...func(o *Options)) (*Parley, error) {
	opts := Options{
		Config: config.Default(),
		Roster: persona.Default(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	inv := opts.Invoker
	if inv == nil {
		built, err := buildInvoker(ctx, opts.Config.Model)
		if err != nil {
			return nil, err
		}
		inv = built
	}

	hub := pubsub.NewHub(func(o *pubsub.Options) { o.Logger = opts.Logger })
	sessions := session.NewInMemoryStore()
	registry := engine.NewCancelRegistry()

	selector := objective.NewSelector(func(o *objective.Options) {
		o.Config = objective.Config{
			Enabled:           opts.Config.Objectives.Enabled,
			ChancePerRound:    opts.Config.Objectives.ChancePerRound,
			MaxActivePerRound: opts.Config.Objectives.MaxActivePerRound,
			DurationMessages:  opts.Config.Objectives.DurationMessages,
			CooldownRounds:    opts.Config.Objectives.CooldownRounds,
		}
		o.Rand = opts.Rand
		o.Logger = opts.Logger
	})

	eng := engine.New(inv, hub, func(o *engine.Options) {
		o.Sessions = sessions
		o.Prompts = opts.Roster
		o.Registry = registry
		o.Selector = selector
		o.Callbacks = opts.Callbacks
		o.Logger = opts.Logger
	})

	return &Parley{
		cfg:      opts.Config,
		invoker:  inv,
		hub:      hub,
		sessions: sessions,
		registry: registry,
		roster:   opts.Roster,
		engine:   eng,
		logger:   opts.Logger,
		rng:      opts.Rand,
	}, nil
}

// buildInvoker constructs the model adapter the config names.
func buildInvoker(ctx context.Context, m config.Model) (invoker.Invoker, error) {
	switch m.Provider {
	case "mock":
		return invoker.NewMock(), nil
	case "ollama":
		return openai.NewOllama(m.OllamaHost, m.ID, func(o *openai.Options) {
			o.Temperature = m.Temperature
			o.MaxCompletionTokens = int64(m.MaxTokens)
		}), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			o.Model = m.ID
			o.Temperature = m.Temperature
			o.MaxCompletionTokens = int64(m.MaxTokens)
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			o.Model = sdkanthropic.Model(m.ID)
			o.Temperature = m.Temperature
			o.MaxTokens = int64(m.MaxTokens)
		}), nil
	case "bedrock":
		return bedrock.New(ctx, func(o *bedrock.Options) {
			if m.ID != "" {
				o.Model = m.ID
			}
			o.Region = m.Region
			o.Temperature = float32(m.Temperature)
			o.MaxTokens = int32(m.MaxTokens)
		})
	default:
		return nil, fmt.Errorf("unknown model provider %q", m.Provider)
	}
}

// StartRoundRequest describes a round to start.
type StartRoundRequest struct {
	// Message is the user's question. Required.
	Message string `json:"message"`
	// SessionID carries context across rounds. Optional.
	SessionID string `json:"session_id,omitempty"`
	// RoundID overrides the generated round identifier. Optional; supplying
	// one that is already running leads to undefined topic collisions.
	RoundID string `json:"round_id,omitempty"`
	// Personas overrides the persona list for this round. Optional; defaults
	// to the configured list, or a random pick.
	Personas []string `json:"personas,omitempty"`
}

// RoundInfo identifies a started round and where to watch it.
type RoundInfo struct {
	RoundID   string   `json:"round_id"`
	SessionID string   `json:"session_id,omitempty"`
	TopicBase string   `json:"topic_base"`
	Personas  []string `json:"personas"`
}

// TopicBase returns the topic base for a round started on this instance.
func (p *Parley) TopicBase(roundID string) string {
	return p.cfg.Round.TopicPrefix + "/" + roundID
}

// StartRound validates the request, launches the deliberation as a detached
// goroutine and returns immediately with the round's coordinates. Watch the
// round through SubscribeRound before or right after starting it; frames
// published to a topic nobody subscribed to yet are dropped.
func (p *Parley) StartRound(req StartRoundRequest) (*RoundInfo, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}

	personas, err := p.resolvePersonas(req.Personas)
	if err != nil {
		return nil, err
	}

	roundID := req.RoundID
	if roundID == "" {
		roundID = uuid.NewString()
	}

	info := &RoundInfo{
		RoundID:   roundID,
		SessionID: req.SessionID,
		TopicBase: p.TopicBase(roundID),
		Personas:  personas,
	}

	run := engine.RoundRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		RoundID:   roundID,
		TopicBase: info.TopicBase,
		Personas:  personas,
	}

	// Detached from any request context: the caller is answered before the
	// round produces a single frame.
	go p.engine.Run(context.Background(), run)

	return info, nil
}

// resolvePersonas picks the round's persona list: explicit request first,
// then the configured list, then a random roster pick.
func (p *Parley) resolvePersonas(requested []string) ([]string, error) {
	pick := requested
	if len(pick) == 0 {
		pick = p.cfg.Round.Personas
	}
	if len(pick) == 0 {
		return p.roster.Pick(p.rng, p.cfg.Round.PersonaCount), nil
	}
	for _, name := range pick {
		if !p.roster.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, name)
		}
	}
	out := make([]string, len(pick))
	copy(out, pick)
	return out, nil
}

// CancelRound requests cooperative cancellation. Idempotent. Cancelling a
// round that has not started yet parks a flag the round consumes on start,
// so cancel-before-start wins the race.
func (p *Parley) CancelRound(roundID string) {
	p.registry.Cancel(p.TopicBase(roundID))
	p.logger.Info("round.cancel.requested round_id=%s", roundID)
}

// SubscribeRound returns a subscription covering every topic of the round:
// all persona topics plus the done topic.
func (p *Parley) SubscribeRound(roundID string) (*pubsub.Subscription, error) {
	return p.hub.SubscribeTree(p.TopicBase(roundID))
}

// SyncResult is the outcome of a synchronous single-persona invocation.
type SyncResult struct {
	Persona   string         `json:"persona"`
	Text      string         `json:"text"`
	SessionID string         `json:"session_id"`
	Usage     *invoker.Usage `json:"usage,omitempty"`
}

// InvokeSync runs one persona against the session transcript without
// streaming relay and returns the finalized answer. A fresh session ID is
// generated when none is supplied so follow-up calls can continue the
// conversation.
func (p *Parley) InvokeSync(ctx context.Context, personaName, message, sessionID string) (*SyncResult, error) {
	if !p.roster.Has(personaName) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, personaName)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message is required")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	p.sessions.AppendUser(sessionID, message)

	start := time.Now()
	res, err := p.invoker.Stream(ctx, invoker.Request{
		Persona:  personaName,
		System:   p.roster.PromptOrDefault(personaName),
		Messages: p.sessions.Messages(sessionID),
	}, func(invoker.Event) bool { return true })
	if err != nil {
		p.logger.Warn("invoke.errored persona=%s err=%v", personaName, err)
		return nil, fmt.Errorf("invoke %s: %w", personaName, err)
	}

	out := &SyncResult{Persona: personaName, SessionID: sessionID}
	if res != nil {
		out.Text = res.Text
		out.Usage = res.Usage
	}
	p.sessions.AppendAssistant(sessionID, out.Text, personaName)
	p.logger.Info("invoke.complete persona=%s duration=%s", personaName, time.Since(start))

	return out, nil
}

// History returns the raw transcript of a session for debugging.
func (p *Parley) History(sessionID string) []session.Entry {
	return p.sessions.History(sessionID)
}

// Personas lists the roster's persona identifiers in sorted order.
func (p *Parley) Personas() []string { return p.roster.Names() }

// InvokerInfo describes the configured model adapter.
func (p *Parley) InvokerInfo() invoker.Info { return p.invoker.Info() }

// Close shuts down the hub, terminating every open subscription. Rounds
// already running keep publishing into the closed hub, which is a no-op.
func (p *Parley) Close() { p.hub.Close() }
