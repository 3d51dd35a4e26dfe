package agent

import (
	"context"
	"strings"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/internal/prompt"
	"github.com/hupe1980/contentmesh/model"
)

// Question categories in presentation order.
var QuestionCategories = []string{"informational", "usage", "safety", "purchase", "comparison"}

// Actions and targets understood by question generation.
const (
	ActionRegenerate = "regenerate"
	ActionGenerate   = "generate"
	TargetQuestions  = "questions"
)

const questionsSystem = `You are an expert content strategist specializing in e-commerce product pages.
Your task is to generate user questions that potential customers might ask about a product.

Generate at least 15 questions across these categories:
- informational: what the product is, its features, ingredients
- safety: side effects, suitability for skin types
- usage: how to use, when to apply, application tips
- purchase: pricing, value, availability
- comparison: comparing with other similar products

Return ONLY raw JSON of the form:
{"informational": ["..."], "safety": ["..."], "usage": ["..."], "purchase": ["..."], "comparison": ["..."]}`

var questionsPrompt = prompt.Must("questions", `Generate categorized user questions for this product:

Product Name: {{.Name}}
Concentration: {{.Concentration}}
Skin Type: {{join ", " .SkinType}}
Key Ingredients: {{join ", " .Ingredients}}
Benefits: {{join ", " .Benefits}}
Usage Instructions: {{.Usage}}
Side Effects: {{join ", " .SideEffects}}
Price: {{price .Price}}

Generate realistic, specific questions that customers would ask about this product.`)

// QuestionGen produces the categorised question set.
type QuestionGen struct {
	BaseAgent
	gen model.Generator
}

// NewQuestionGen creates the question generation agent.
func NewQuestionGen(gen model.Generator, optFns ...func(o *Options)) *QuestionGen {
	opts := newOptions(optFns...)
	return &QuestionGen{
		BaseAgent: NewBaseAgent(core.Descriptor{
			ID:           core.QuestionGeneration,
			Description:  "Generates categorized user questions about the product",
			Capabilities: []string{"generate_questions", "content_strategy", "question_categorization"},
			Reads:        core.FieldProduct | core.FieldQuestions,
		}, opts.Logger),
		gen: gen,
	}
}

// ShouldActivate runs when questions are absent or regeneration was requested.
func (q *QuestionGen) ShouldActivate(s core.State) bool {
	return s.Questions == nil || q.OutstandingWith(s, ActionRegenerate, TargetQuestions)
}

// Execute generates questions, falling back to a fixed set on failure.
func (q *QuestionGen) Execute(ctx context.Context, s core.State) core.State {
	if s.Product == nil {
		return q.Request(core.Parse, ActionParse, core.RequiresProduct, "need product data for questions")
	}

	questions := q.generate(ctx, *s.Product)

	return core.State{
		Questions:      &questions,
		CompletedTasks: []string{core.TaskGenerateQuestions},
		Messages: []core.Message{q.Notify("questions_ready", map[string]any{
			"question_count": questions.Total(),
			"categories":     questions.Categories(),
		})},
	}
}

func (q *QuestionGen) generate(ctx context.Context, p content.Product) content.QuestionSet {
	if q.gen == nil {
		return FallbackQuestions(p)
	}

	userPrompt, err := questionsPrompt.Execute(p)
	if err != nil {
		q.logger.Warn("Question prompt failed, using fallback", "error", err)
		return FallbackQuestions(p)
	}

	text, err := q.gen.Generate(ctx, questionsSystem, userPrompt, 1500)
	if err != nil {
		q.logger.Warn("Question generation failed, using fallback", "error", err)
		return FallbackQuestions(p)
	}

	var raw map[string][]string
	if err := model.DecodeJSON(text, &raw); err != nil {
		q.logger.Warn("Question response malformed, using fallback", "error", err)
		return FallbackQuestions(p)
	}

	out := content.QuestionSet{}
	for cat, qs := range raw {
		cat = strings.ToLower(strings.TrimSpace(cat))
		for _, s := range qs {
			if s = strings.TrimSpace(s); s != "" {
				out[cat] = append(out[cat], s)
			}
		}
	}

	if out.Total() == 0 {
		q.logger.Warn("Question response empty, using fallback")
		return FallbackQuestions(p)
	}

	q.logger.Info("Generated questions", "count", out.Total())

	return out
}

// FallbackQuestions returns the deterministic 14-question set.
func FallbackQuestions(p content.Product) content.QuestionSet {
	return content.QuestionSet{
		"informational": {
			"What is " + p.Name + "?",
			"What are the key ingredients?",
			"What does this product do?",
		},
		"usage": {
			"How should I use this product?",
			"When should I apply it?",
			"How often should I use it?",
		},
		"safety": {
			"Are there any side effects?",
			"Is it suitable for my skin type?",
			"Can I use it with other products?",
		},
		"purchase": {
			"What is the price?",
			"Where can I buy it?",
			"Is it worth the price?",
		},
		"comparison": {
			"How does this compare to similar products?",
			"What makes this product unique?",
		},
	}
}
