// Package tool implements the content logic blocks used by page generation:
// benefits copy, usage steps and product comparison. Every tool calls the
// text-generation boundary, validates the reply and substitutes a
// deterministic fallback on any failure, so callers always receive a usable
// value.
package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
)

// Tool describes a content logic block.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string
	// Description returns a human-readable description of what this tool does.
	Description() string
}

// ToolError represents a recovered failure inside a tool. It is logged, never
// returned to callers.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
	cause   error
}

// Error codes recorded on ToolError.
const (
	CodeGeneration = "GENERATION_ERROR"
	CodeMalformed  = "MALFORMED_RESPONSE"
)

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error { return e.cause }

// NewToolError creates a new ToolError wrapping cause.
func NewToolError(tool, code string, cause error) *ToolError {
	return &ToolError{Tool: tool, Message: cause.Error(), Code: code, cause: cause}
}

// Options configures the tools.
type Options struct {
	Logger logging.Logger
}

type base struct {
	name        string
	description string
	gen         model.Generator
	logger      logging.Logger
}

func newBase(name, description string, gen model.Generator, optFns ...func(o *Options)) base {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return base{name: name, description: description, gen: gen, logger: opts.Logger}
}

// Name returns the tool identifier.
func (b *base) Name() string { return b.name }

// Description returns the tool description.
func (b *base) Description() string { return b.description }

// generate calls the generator and decodes its JSON reply into v. A nil
// generator counts as a generation failure.
func (b *base) generate(ctx context.Context, system, prompt string, maxTokens int, v any) error {
	if b.gen == nil {
		return NewToolError(b.name, CodeGeneration, fmt.Errorf("no generator configured"))
	}

	start := time.Now()
	text, err := b.gen.Generate(ctx, system, prompt, maxTokens)
	if err != nil {
		return NewToolError(b.name, CodeGeneration, err)
	}

	if err := model.DecodeJSON(text, v); err != nil {
		return NewToolError(b.name, CodeMalformed, err)
	}

	b.logger.Debug("Tool execution completed", "tool", b.name, "duration", time.Since(start))

	return nil
}

func (b *base) fallback(err error) {
	b.logger.Warn("Tool execution failed, using fallback", "tool", b.name, "error", err)
}
