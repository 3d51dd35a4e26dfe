package tool

import (
	"context"
	"strings"

	"github.com/hupe1980/contentmesh/internal/prompt"
	"github.com/hupe1980/contentmesh/model"
)

const usageSystem = `You are a skincare expert creating easy-to-follow product usage instructions.
Transform basic usage information into clear, detailed step-by-step instructions.

Rules:
1. Break down into specific steps
2. Include timing, quantity, and technique details
3. Keep language simple and actionable

Return ONLY a raw JSON object of the form {"steps": ["...", "..."]}.`

var usagePrompt = prompt.Must("usage", `Create detailed step-by-step usage instructions from this:

Basic Usage: {{.}}`)

// UsageTool expands a usage sentence into ordered steps.
type UsageTool struct {
	base
}

// NewUsageTool creates a UsageTool.
func NewUsageTool(gen model.Generator, optFns ...func(o *Options)) *UsageTool {
	return &UsageTool{base: newBase("usage-tool", "Expands usage into step-by-step instructions", gen, optFns...)}
}

// Run returns detailed usage steps, falling back to the original sentence as
// a single step.
func (t *UsageTool) Run(ctx context.Context, usage string) []string {
	usage = strings.TrimSpace(usage)
	if usage == "" {
		return []string{}
	}

	p, err := usagePrompt.Execute(usage)
	if err != nil {
		t.fallback(err)
		return []string{usage}
	}

	var out struct {
		Steps []string `json:"steps"`
	}
	if err := t.generate(ctx, usageSystem, p, 600, &out); err != nil {
		t.fallback(err)
		return []string{usage}
	}

	steps := nonEmpty(out.Steps)
	if len(steps) == 0 {
		t.fallback(NewToolError(t.name, CodeMalformed, model.ErrMalformedResponse))
		return []string{usage}
	}

	return steps
}
