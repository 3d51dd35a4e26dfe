package testutil

import (
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
)

// StateBuilder helps construct workflow states with fluent chaining for tests.
// Example:
//
//	s := NewStateBuilder().Input(content.SampleRecord()).Product(p).Iteration(1).Build()
type StateBuilder struct {
	s core.State
}

// NewStateBuilder creates an empty builder.
func NewStateBuilder() *StateBuilder { return &StateBuilder{} }

// Input sets the raw input record (chainable).
func (b *StateBuilder) Input(r content.Record) *StateBuilder { b.s.Input = r; return b }

// Product sets the parsed product (chainable).
func (b *StateBuilder) Product(p content.Product) *StateBuilder { b.s.Product = &p; return b }

// Questions sets the question set (chainable).
func (b *StateBuilder) Questions(q content.QuestionSet) *StateBuilder { b.s.Questions = &q; return b }

// FAQ sets the FAQ page (chainable).
func (b *StateBuilder) FAQ(p content.FAQPage) *StateBuilder { b.s.FAQPage = &p; return b }

// ProductPage sets the product page (chainable).
func (b *StateBuilder) ProductPage(p content.ProductPage) *StateBuilder {
	b.s.ProductPage = &p
	return b
}

// Comparison sets the comparison page (chainable).
func (b *StateBuilder) Comparison(p content.ComparisonPage) *StateBuilder {
	b.s.ComparisonPage = &p
	return b
}

// AllPages sets valid pages that pass the default quality thresholds (chainable).
func (b *StateBuilder) AllPages() *StateBuilder {
	return b.FAQ(FAQWithItems(4)).ProductPage(GoodProductPage()).Comparison(GoodComparison())
}

// Plan sets the plan (chainable).
func (b *StateBuilder) Plan(p core.Plan) *StateBuilder { b.s.Plan = &p; return b }

// Iteration sets the iteration counter (chainable).
func (b *StateBuilder) Iteration(n int) *StateBuilder { b.s.IterationCount = core.Int(n); return b }

// Refinement sets the refinement flag (chainable).
func (b *StateBuilder) Refinement(v bool) *StateBuilder { b.s.NeedsRefinement = core.Bool(v); return b }

// Missing sets the missing components (chainable).
func (b *StateBuilder) Missing(m ...string) *StateBuilder { b.s.MissingComponents = core.Strings(m...); return b }

// Completed appends completed-task labels (chainable).
func (b *StateBuilder) Completed(labels ...string) *StateBuilder {
	b.s.CompletedTasks = append(b.s.CompletedTasks, labels...)
	return b
}

// Messages appends messages to the log (chainable).
func (b *StateBuilder) Messages(msgs ...core.Message) *StateBuilder {
	b.s.Messages = append(b.s.Messages, msgs...)
	return b
}

// Build returns the constructed state.
func (b *StateBuilder) Build() core.State { return b.s }

// SampleProduct returns the parsed form of content.SampleRecord.
func SampleProduct() content.Product {
	return content.Product{
		Name:          "GlowBoost Vitamin C Serum",
		Concentration: "10% Vitamin C",
		SkinType:      []string{"Oily", "Combination"},
		Ingredients:   []string{"Vitamin C", "Hyaluronic Acid"},
		Benefits:      []string{"Brightening", "Fades dark spots"},
		Usage:         "Apply 2-3 drops in the morning before sunscreen",
		SideEffects:   []string{"Mild tingling for sensitive skin"},
		Price:         699,
	}
}

// FAQWithItems returns an FAQ page with n generated items.
func FAQWithItems(n int) content.FAQPage {
	items := make([]content.FAQItem, n)
	for i := range items {
		items[i] = content.FAQItem{Question: "Question?", Answer: "Answer."}
	}
	return content.FAQPage{Page: "FAQ", Items: items}
}

// GoodProductPage returns a product page with two benefits.
func GoodProductPage() content.ProductPage {
	p := SampleProduct()
	return content.ProductPage{
		ProductName:       p.Name,
		Tagline:           "10% Vitamin C for Oily, Combination skin",
		Ingredients:       p.Ingredients,
		Benefits:          p.Benefits,
		UsageInstructions: []string{p.Usage},
		SideEffects:       p.SideEffects,
		Price:             p.Price,
		SkinType:          p.SkinType,
	}
}

// GoodComparison returns a comparison page with two products.
func GoodComparison() content.ComparisonPage {
	return content.ComparisonPage{Products: map[string]content.ProductSummary{
		"GlowBoost Vitamin C Serum":  {Price: 699},
		"RadiantFix Vitamin C Serum": {Price: 899},
	}}
}
