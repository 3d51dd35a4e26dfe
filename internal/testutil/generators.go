package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/contentmesh/model"
)

// Substrings of the system instructions used to route scripted replies.
const (
	MatchPlanner    = "planning orchestrator"
	MatchQuestions  = "expert content strategist"
	MatchFAQ        = "customer service expert"
	MatchBenefits   = "professional copywriter"
	MatchUsage      = "easy-to-follow product usage"
	MatchComparison = "product comparison expert"
)

// FAQReply returns a generator reply holding n FAQ items.
func FAQReply(n int) string {
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{
			"question": fmt.Sprintf("Question %d?", i+1),
			"answer":   fmt.Sprintf("Answer %d.", i+1),
		}
	}
	b, _ := json.Marshal(map[string]any{"page": "FAQ", "items": items})
	return string(b)
}

// QuestionsReply is a well-formed question generation reply.
const QuestionsReply = `{
  "informational": ["What is it?", "What is inside?"],
  "safety": ["Is it safe?"],
  "usage": ["How do I apply it?", "When?"],
  "purchase": ["How much?"],
  "comparison": ["Is it better?"]
}`

// BenefitsReply is a well-formed benefits tool reply for two benefits.
const BenefitsReply = `{"benefits": ["Reveals radiant skin", "Visibly fades dark spots"]}`

// UsageReply is a well-formed usage tool reply.
const UsageReply = `{"steps": ["Cleanse", "Apply 2-3 drops", "Follow with sunscreen"]}`

// ComparisonReply is a well-formed comparison tool reply.
const ComparisonReply = `{
  "products": {
    "GlowBoost Vitamin C Serum": {"ingredients": ["Vitamin C"], "benefits": ["Brightening"], "price": 699, "best_for": "oily skin"},
    "RadiantFix Vitamin C Serum": {"ingredients": ["Vitamin C", "Niacinamide"], "benefits": ["Oil control"], "price": 899, "best_for": "budget-insensitive buyers"}
  },
  "key_differences": ["GlowBoost is cheaper"],
  "verdict": "Choose GlowBoost for value."
}`

// ContentGenerator returns a scripted generator answering every content
// prompt with a well-formed reply. The planner is left unscripted so it takes
// its fallback path. faqReplies are returned in turn for FAQ calls; when
// empty a four-item FAQ is used.
func ContentGenerator(faqReplies ...string) *model.ScriptedGenerator {
	if len(faqReplies) == 0 {
		faqReplies = []string{FAQReply(4)}
	}
	return model.NewScriptedGenerator().
		On(MatchQuestions, QuestionsReply).
		On(MatchFAQ, faqReplies...).
		On(MatchBenefits, BenefitsReply).
		On(MatchUsage, UsageReply).
		On(MatchComparison, ComparisonReply)
}
