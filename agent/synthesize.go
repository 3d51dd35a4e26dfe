package agent

import (
	"context"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
)

// Missing component names reported by synthesis.
const (
	ComponentProduct   = "product"
	ComponentQuestions = "questions"
)

// Synthesize assembles the final bundle and reports missing components.
type Synthesize struct {
	BaseAgent
	maxIterations int
}

// NewSynthesize creates the synthesize agent.
func NewSynthesize(optFns ...func(o *Options)) *Synthesize {
	opts := newOptions(optFns...)
	return &Synthesize{
		BaseAgent: NewBaseAgent(core.Descriptor{
			ID:           core.Synthesize,
			Description:  "Assembles the final page bundle and reports missing components",
			Capabilities: []string{"synthesize", "assembly"},
			Reads:        core.FieldProduct | core.FieldQuestions | core.Pages,
		}, opts.Logger),
		maxIterations: opts.MaxIterations,
	}
}

// ShouldActivate always holds.
func (*Synthesize) ShouldActivate(core.State) bool { return true }

// MissingComponents lists the absent artifacts in fixed order.
func MissingComponents(s core.State) []string {
	missing := []string{}
	if s.Product == nil {
		missing = append(missing, ComponentProduct)
	}
	if s.Questions == nil {
		missing = append(missing, ComponentQuestions)
	}
	if s.FAQPage == nil {
		missing = append(missing, TargetFAQPage)
	}
	if s.ProductPage == nil {
		missing = append(missing, TargetProductPage)
	}
	if s.ComparisonPage == nil {
		missing = append(missing, TargetComparisonPage)
	}
	return missing
}

// Execute builds FinalPages and decides whether another cycle is needed.
func (y *Synthesize) Execute(_ context.Context, s core.State) core.State {
	missing := MissingComponents(s)

	final := content.FinalPages{
		Product:        s.Product,
		FAQPage:        s.FAQPage,
		ProductPage:    s.ProductPage,
		ComparisonPage: s.ComparisonPage,
	}
	if s.Questions != nil {
		final.Questions = *s.Questions
	}

	delta := core.State{
		FinalPages:        &final,
		MissingComponents: core.Strings(missing...),
		CompletedTasks:    []string{core.TaskSynthesize},
	}

	iteration := s.Iteration()
	if len(missing) > 0 && canRefine(iteration, y.maxIterations) {
		y.logger.Info("Synthesis incomplete, requesting another cycle",
			"agent", y.ID(), "missing", missing, "iteration", iteration+1)
		delta.NeedsRefinement = core.Bool(true)
		delta.IterationCount = core.Int(iteration + 1)
		return delta
	}

	y.logger.Info("Synthesis complete", "agent", y.ID(), "missing", missing)
	delta.NeedsRefinement = core.Bool(false)

	return delta
}
