// Package openai provides an implementation of model.Generator using the
// OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"

	"github.com/hupe1980/contentmesh/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const provider = "openai"

// Options configure the OpenAI generator.
type Options struct {
	Model       string
	Temperature float64
	APIKey      string
	// RequestOptions are passed through to the SDK client (base URL, retries, ...).
	RequestOptions []option.RequestOption
}

// Generator wraps the OpenAI Chat Completions API behind model.Generator.
type Generator struct {
	client *openai.Client
	opts   Options
}

// NewGenerator creates a new OpenAI generator using the official client.
// The API key falls back to the SDK's OPENAI_API_KEY lookup.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	opts := defaultOptions(optFns...)

	clientOpts := append([]option.RequestOption{}, opts.RequestOptions...)
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Generator{client: &client, opts: opts}
}

// NewGeneratorFromClient creates a new OpenAI generator from an existing client.
func NewGeneratorFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	return &Generator{client: client, opts: defaultOptions(optFns...)}
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:       openai.ChatModelGPT4oMini,
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == "" {
		opts.Model = openai.ChatModelGPT4oMini
	}
	return opts
}

// Generate implements model.Generator with a single chat completion.
func (g *Generator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", model.NewServiceError(provider, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", model.NewServiceError(provider, errors.New("no choices returned"))
	}

	return model.StripCodeFences(resp.Choices[0].Message.Content), nil
}

// Info returns metadata describing this generator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: g.opts.Model, Provider: provider}
}
