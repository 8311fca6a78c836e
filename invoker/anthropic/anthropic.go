// Package anthropic adapts the Anthropic Messages API to the invoker
// interface, streaming incremental deltas through the emit callback.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/parley-ai/parley/invoker"
)

// Options configures the Anthropic invoker (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Invoker wraps the Anthropic Messages API behind the generic
// invoker.Invoker interface.
type Invoker struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic invoker from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Stream implements invoker.Invoker. It relays text and thinking deltas plus
// tool use starts as they arrive; the terminal frame is left to the caller.
func (i *Invoker) Stream(ctx context.Context, req invoker.Request, emit invoker.EmitFunc) (*invoker.Result, error) {
	params := anthropic.MessageNewParams{
		Model:       i.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   i.opts.MaxTokens,
		Temperature: anthropic.Float(i.opts.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	stream := i.client.Messages.NewStreaming(ctx, params)

	var acc strings.Builder
	message := anthropic.Message{}
	stopped := false
	forward := func(ev invoker.Event) bool {
		if !emit(ev) {
			stopped = true
			return false
		}
		return true
	}

	for !stopped && stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("anthropic accumulate: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if block, ok := eventVariant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				forward(invoker.Event{Kind: invoker.EventToolUse, ToolName: block.Name})
			}
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				acc.WriteString(deltaVariant.Text)
				forward(invoker.Event{Kind: invoker.EventText, Text: deltaVariant.Text})
			case anthropic.ThinkingDelta:
				forward(invoker.Event{Kind: invoker.EventThinking})
			}
		}
	}

	if stopped {
		_ = stream.Close()
		return &invoker.Result{Text: acc.String(), Stopped: true}, nil
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic streaming error: %w", err)
	}

	res := &invoker.Result{Text: acc.String()}
	if in, out := message.Usage.InputTokens, message.Usage.OutputTokens; in > 0 || out > 0 {
		res.Usage = &invoker.Usage{
			PromptTokens:     int(in),
			CompletionTokens: int(out),
			TotalTokens:      int(in + out),
		}
	}
	return res, nil
}

// buildMessages converts conversation entries to Anthropic message params.
func buildMessages(msgs []invoker.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

// Info returns metadata describing this Anthropic invoker.
func (i *Invoker) Info() invoker.Info {
	return invoker.Info{Name: string(i.opts.Model), Provider: "anthropic"}
}
