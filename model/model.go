package model

import (
	"context"
	"time"

	"github.com/hupe1980/contentmesh/logging"
)

// Generator is the text-generation boundary used by agents and the planner.
// Implementations return a *ServiceError on transport or auth failures. The
// returned text is untrusted; callers validate it (see DecodeJSON).
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system, prompt string, maxTokens int) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	return f(ctx, system, prompt, maxTokens)
}

// Info contains metadata about a generator implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Describer is implemented by generators that expose Info.
type Describer interface {
	Info() Info
}

// InfoOf returns the generator's Info, or a placeholder for anonymous generators.
func InfoOf(g Generator) Info {
	if d, ok := g.(Describer); ok {
		return d.Info()
	}
	return Info{Name: "unknown", Provider: "unknown"}
}

type loggingGenerator struct {
	next   Generator
	info   Info
	logger logging.LLMCallLogger
}

// WithLogging decorates g so every call is logged with its latency and outcome.
func WithLogging(g Generator, logger logging.Logger) Generator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &loggingGenerator{next: g, info: InfoOf(g), logger: logging.AsLLMCallLogger(logger)}
}

func (l *loggingGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	out, err := l.next.Generate(ctx, system, prompt, maxTokens)

	l.logger.LogLLMCall(logging.LLMCall{
		Provider:    l.info.Provider,
		Model:       l.info.Name,
		MaxTokens:   maxTokens,
		ResponseLen: len(out),
		Duration:    time.Since(start),
		Err:         err,
	})

	if err != nil {
		return "", err
	}
	return out, nil
}

func (l *loggingGenerator) Info() Info { return l.info }
