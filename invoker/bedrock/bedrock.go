// Package bedrock adapts the AWS Bedrock Runtime Converse API to the invoker
// interface using the streaming variant.
package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/parley-ai/parley/invoker"
)

// Options configures the Bedrock invoker. Region falls back to the default
// AWS config chain (AWS_DEFAULT_REGION and friends) when empty.
type Options struct {
	Model       string
	Region      string
	Temperature float32
	MaxTokens   int32
}

// Invoker wraps the Bedrock Runtime ConverseStream API behind the generic
// invoker.Invoker interface.
type Invoker struct {
	client *bedrockruntime.Client
	opts   Options
}

// New creates a new Bedrock invoker, loading credentials through the default
// AWS config chain.
func New(ctx context.Context, optFns ...func(o *Options)) (*Invoker, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Invoker{client: bedrockruntime.NewFromConfig(cfg), opts: opts}, nil
}

// NewFromClient creates a new Bedrock invoker from an existing client.
func NewFromClient(client *bedrockruntime.Client, optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       "us.anthropic.claude-sonnet-4-20250514-v1:0",
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// Stream implements invoker.Invoker. It relays text and reasoning deltas
// plus tool use starts as they arrive; the terminal frame is left to the
// caller.
func (i *Invoker) Stream(ctx context.Context, req invoker.Request, emit invoker.EmitFunc) (*invoker.Result, error) {
	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(i.opts.Model),
		Messages: buildMessages(req.Messages),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(i.opts.MaxTokens),
			Temperature: aws.Float32(i.opts.Temperature),
		},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}

	out, err := i.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse stream: %w", err)
	}
	stream := out.GetStream()
	defer stream.Close()

	var acc strings.Builder
	var usage *invoker.Usage
	stopped := false
	forward := func(ev invoker.Event) bool {
		if !emit(ev) {
			stopped = true
			return false
		}
		return true
	}

	for event := range stream.Events() {
		if stopped {
			break
		}
		switch v := event.(type) {
		case *types.ConverseStreamOutputMemberContentBlockStart:
			if start, ok := v.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
				forward(invoker.Event{Kind: invoker.EventToolUse, ToolName: aws.ToString(start.Value.Name)})
			}
		case *types.ConverseStreamOutputMemberContentBlockDelta:
			switch delta := v.Value.Delta.(type) {
			case *types.ContentBlockDeltaMemberText:
				acc.WriteString(delta.Value)
				forward(invoker.Event{Kind: invoker.EventText, Text: delta.Value})
			case *types.ContentBlockDeltaMemberReasoningContent:
				forward(invoker.Event{Kind: invoker.EventThinking})
			}
		case *types.ConverseStreamOutputMemberMetadata:
			if u := v.Value.Usage; u != nil {
				usage = &invoker.Usage{
					PromptTokens:     int(aws.ToInt32(u.InputTokens)),
					CompletionTokens: int(aws.ToInt32(u.OutputTokens)),
					TotalTokens:      int(aws.ToInt32(u.TotalTokens)),
				}
			}
		}
	}

	if stopped {
		return &invoker.Result{Text: acc.String(), Stopped: true}, nil
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("bedrock streaming error: %w", err)
	}

	return &invoker.Result{Text: acc.String(), Usage: usage}, nil
}

// buildMessages converts conversation entries to Converse message blocks.
func buildMessages(msgs []invoker.Message) []types.Message {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		role := types.ConversationRoleUser
		if m.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}
	return out
}

// Info returns metadata describing this Bedrock invoker.
func (i *Invoker) Info() invoker.Info {
	return invoker.Info{Name: i.opts.Model, Provider: "bedrock"}
}
