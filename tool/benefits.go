package tool

import (
	"context"
	"strings"

	"github.com/hupe1980/contentmesh/internal/prompt"
	"github.com/hupe1980/contentmesh/model"
)

const benefitsSystem = `You are a professional copywriter specializing in skincare product descriptions.
Transform raw product benefits into compelling, customer-focused descriptions.

Rules:
1. Make each benefit customer-centric (focus on "you" not "it")
2. Be specific and actionable
3. Keep each description concise (1-2 sentences)
4. Use professional but approachable tone

Return ONLY a raw JSON object of the form {"benefits": ["...", "..."]}.`

var benefitsPrompt = prompt.Must("benefits", `Transform these product benefits into compelling descriptions:

Benefits: {{join ", " .}}

Return one enhanced description per benefit.`)

// BenefitsTool turns raw benefit keywords into marketing copy.
type BenefitsTool struct {
	base
}

// NewBenefitsTool creates a BenefitsTool.
func NewBenefitsTool(gen model.Generator, optFns ...func(o *Options)) *BenefitsTool {
	return &BenefitsTool{base: newBase("benefits-tool", "Transforms raw benefits into marketing copy", gen, optFns...)}
}

// Run returns enhanced benefit descriptions. On failure, or when the reply
// has fewer entries than the input, the raw benefits are returned unchanged.
func (t *BenefitsTool) Run(ctx context.Context, benefits []string) []string {
	if len(benefits) == 0 {
		return []string{}
	}

	p, err := benefitsPrompt.Execute(benefits)
	if err != nil {
		t.fallback(err)
		return append([]string{}, benefits...)
	}

	var out struct {
		Benefits []string `json:"benefits"`
	}
	if err := t.generate(ctx, benefitsSystem, p, 800, &out); err != nil {
		t.fallback(err)
		return append([]string{}, benefits...)
	}

	enhanced := nonEmpty(out.Benefits)
	if len(enhanced) < len(benefits) {
		t.fallback(NewToolError(t.name, CodeMalformed, model.ErrMalformedResponse))
		return append([]string{}, benefits...)
	}

	return enhanced
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
