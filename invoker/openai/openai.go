// Package openai adapts the OpenAI Chat Completions API to the invoker
// interface. Pointing BaseURL at an OpenAI-compatible server also makes it
// the Ollama path, matching the original deployment's local-model mode.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/parley-ai/parley/invoker"
)

// Options configure the OpenAI invoker. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	BaseURL             string
	APIKey              string
}

// Invoker wraps the OpenAI Chat Completions API behind the generic
// invoker.Invoker interface.
type Invoker struct {
	client   *openai.Client
	provider string
	opts     Options
}

// New creates a new OpenAI invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Invoker{client: &client, provider: "openai", opts: opts}
}

// NewFromClient creates a new OpenAI invoker from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, provider: "openai", opts: opts}
}

// NewOllama creates an invoker speaking to a local Ollama server through its
// OpenAI-compatible endpoint. host is the bare server address, e.g.
// "http://localhost:11434".
func NewOllama(host, model string, optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	opts.Model = model
	opts.BaseURL = strings.TrimSuffix(host, "/") + "/v1"
	opts.APIKey = "ollama" // dummy, the server ignores it
	for _, fn := range optFns {
		fn(&opts)
	}

	client := openai.NewClient(option.WithBaseURL(opts.BaseURL), option.WithAPIKey(opts.APIKey))
	return &Invoker{client: &client, provider: "ollama", opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// Stream implements invoker.Invoker. It relays content deltas and tool call
// starts as they arrive; the terminal frame is left to the caller.
func (i *Invoker) Stream(ctx context.Context, req invoker.Request, emit invoker.EmitFunc) (*invoker.Result, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               i.opts.Model,
		Temperature:         openai.Float(i.opts.Temperature),
		MaxCompletionTokens: openai.Int(i.opts.MaxCompletionTokens),
		StreamOptions:       openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)},
	}

	stream := i.client.Chat.Completions.NewStreaming(ctx, params)

	var textAcc strings.Builder
	acc := openai.ChatCompletionAccumulator{}
	seenTools := map[int64]bool{}
	stopped := false
	forward := func(ev invoker.Event) bool {
		if !emit(ev) {
			stopped = true
			return false
		}
		return true
	}

	for !stopped && stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				textAcc.WriteString(choice.Delta.Content)
				if !forward(invoker.Event{Kind: invoker.EventText, Text: choice.Delta.Content}) {
					break
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				if tc.Function.Name == "" || seenTools[tc.Index] {
					continue
				}
				seenTools[tc.Index] = true
				if !forward(invoker.Event{Kind: invoker.EventToolUse, ToolName: tc.Function.Name}) {
					break
				}
			}
		}
	}

	if stopped {
		_ = stream.Close()
		return &invoker.Result{Text: textAcc.String(), Stopped: true}, nil
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s streaming error: %w", i.provider, err)
	}

	res := &invoker.Result{Text: textAcc.String()}
	if acc.Usage.TotalTokens > 0 {
		res.Usage = &invoker.Usage{
			PromptTokens:     int(acc.Usage.PromptTokens),
			CompletionTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:      int(acc.Usage.TotalTokens),
		}
	}
	return res, nil
}

// buildMessages converts the request into OpenAI chat messages, system
// prompt first.
func buildMessages(req invoker.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// Info returns metadata describing this invoker.
func (i *Invoker) Info() invoker.Info {
	return invoker.Info{Name: i.opts.Model, Provider: i.provider}
}
