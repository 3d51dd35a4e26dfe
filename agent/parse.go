package agent

import (
	"context"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
)

// Raw record keys understood by the parse agent.
const (
	KeyProductName   = "Product Name"
	KeyConcentration = "Concentration"
	KeySkinType      = "Skin Type"
	KeyIngredients   = "Key Ingredients"
	KeyBenefits      = "Benefits"
	KeyHowToUse      = "How to Use"
	KeySideEffects   = "Side Effects"
	KeyPrice         = "Price"
)

// Actions understood by or sent from the parse agent.
const (
	ActionReparse     = "reparse"
	ActionParse       = "parse"
	ActionProvideData = "provide_input"
)

// Parse turns the raw input record into a structured Product.
type Parse struct {
	BaseAgent
}

// NewParse creates the parse agent.
func NewParse(optFns ...func(o *Options)) *Parse {
	opts := newOptions(optFns...)
	return &Parse{BaseAgent: NewBaseAgent(core.Descriptor{
		ID:           core.Parse,
		Description:  "Transforms the raw product record into structured data",
		Capabilities: []string{"parse_product", "data_transformation"},
		Reads:        core.FieldInput | core.FieldProduct,
	}, opts.Logger)}
}

// ShouldActivate runs when no product exists yet or a reparse was requested.
func (p *Parse) ShouldActivate(s core.State) bool {
	return s.Product == nil || p.OutstandingWith(s, ActionReparse, "")
}

// Execute parses the record. An empty record becomes a Request to the
// orchestrator.
func (p *Parse) Execute(_ context.Context, s core.State) core.State {
	if len(s.Input) == 0 {
		return p.Request(core.Orchestrator, ActionProvideData, core.RequiresInput, "no raw product data available")
	}

	product := ParseRecord(s.Input)

	p.logger.Info("Parsed product", "agent", p.ID(), "product", product.Name)

	return core.State{
		Product:        &product,
		CompletedTasks: []string{core.TaskParseProduct},
		Messages: []core.Message{p.Notify("product_parsed", map[string]any{
			"product_name": product.Name,
		})},
	}
}

// ParseRecord maps the raw record keys onto a Product. Comma separated
// values become lists; absent name and concentration get placeholders.
func ParseRecord(r content.Record) content.Product {
	name := r.String(KeyProductName)
	if name == "" {
		name = "Unknown"
	}

	concentration := r.String(KeyConcentration)
	if concentration == "" {
		concentration = "N/A"
	}

	return content.Product{
		Name:          name,
		Concentration: concentration,
		SkinType:      r.List(KeySkinType),
		Ingredients:   r.List(KeyIngredients),
		Benefits:      r.List(KeyBenefits),
		Usage:         r.String(KeyHowToUse),
		SideEffects:   r.List(KeySideEffects),
		Price:         r.Number(KeyPrice),
	}
}
