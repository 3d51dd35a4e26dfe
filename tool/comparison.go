package tool

import (
	"context"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/internal/prompt"
	"github.com/hupe1980/contentmesh/model"
)

// Competitor is the fixed fictional product every comparison is made against.
var Competitor = content.Product{
	Name:        "RadiantFix Vitamin C Serum",
	Ingredients: []string{"Vitamin C", "Niacinamide", "Vitamin E"},
	Benefits:    []string{"Brightening", "Oil control", "Antioxidant protection"},
	Price:       899,
}

const comparisonSystem = `You are a product comparison expert for skincare items.
Create a detailed, objective comparison between two products highlighting key differences.

Return ONLY raw JSON with this structure:
{
  "products": {
    "<product name>": {"ingredients": ["..."], "benefits": ["..."], "price": 0, "best_for": "..."}
  },
  "key_differences": ["..."],
  "verdict": "..."
}`

var comparisonPrompt = prompt.Must("comparison", `Compare these two products:
{{range $i, $p := .}}
Product {{if eq $i 0}}A{{else}}B{{end}}:
- Name: {{$p.Name}}
- Ingredients: {{join ", " $p.Ingredients}}
- Benefits: {{join ", " $p.Benefits}}
- Price: {{price $p.Price}}
{{end}}
Create a detailed comparison with analysis.`)

// ComparisonTool builds a side-by-side comparison of two products.
type ComparisonTool struct {
	base
}

// NewComparisonTool creates a ComparisonTool.
func NewComparisonTool(gen model.Generator, optFns ...func(o *Options)) *ComparisonTool {
	return &ComparisonTool{base: newBase("comparison-tool", "Compares two products", gen, optFns...)}
}

// Run compares a against b. The fallback is a plain table of both products
// without analysis.
func (t *ComparisonTool) Run(ctx context.Context, a, b content.Product) content.ComparisonPage {
	p, err := comparisonPrompt.Execute([]content.Product{a, b})
	if err != nil {
		t.fallback(err)
		return FallbackComparison(a, b)
	}

	var out content.ComparisonPage
	if err := t.generate(ctx, comparisonSystem, p, 1200, &out); err != nil {
		t.fallback(err)
		return FallbackComparison(a, b)
	}

	if len(out.Products) == 0 {
		t.fallback(NewToolError(t.name, CodeMalformed, model.ErrMalformedResponse))
		return FallbackComparison(a, b)
	}

	return out
}

// FallbackComparison lists both products without analysis.
func FallbackComparison(a, b content.Product) content.ComparisonPage {
	return content.ComparisonPage{
		Products: map[string]content.ProductSummary{
			a.Name: {Ingredients: a.Ingredients, Benefits: a.Benefits, Price: a.Price},
			b.Name: {Ingredients: b.Ingredients, Benefits: b.Benefits, Price: b.Price},
		},
	}
}
