package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/contentmesh/core"
)

// Issue is a failed quality threshold on one artifact.
type Issue struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// QualityCheck validates the generated pages against structural thresholds
// and requests refinement from page generation when they fail.
type QualityCheck struct {
	BaseAgent
	maxIterations int
	minFAQItems   int
	minBenefits   int
}

// NewQualityCheck creates the quality check agent.
func NewQualityCheck(optFns ...func(o *Options)) *QualityCheck {
	opts := newOptions(optFns...)
	return &QualityCheck{
		BaseAgent: NewBaseAgent(core.Descriptor{
			ID:           core.QualityCheck,
			Description:  "Validates generated content quality and completeness",
			Capabilities: []string{"quality_check", "validation", "content_review"},
			Reads:        core.Pages | core.FieldCompletedTasks,
		}, opts.Logger),
		maxIterations: opts.MaxIterations,
		minFAQItems:   opts.MinFAQItems,
		minBenefits:   opts.MinBenefits,
	}
}

// ShouldActivate runs when all pages exist and they were (re)generated after
// the last approval.
func (q *QualityCheck) ShouldActivate(s core.State) bool {
	return s.HasAllPages() &&
		s.LastCompletedIndex(core.TaskGeneratePages) > s.LastCompletedIndex(core.TaskQualityCheck)
}

// Issues evaluates the thresholds against the pages in s.
func (q *QualityCheck) Issues(s core.State) []Issue {
	var issues []Issue

	if s.FAQPage == nil || len(s.FAQPage.Items) < q.minFAQItems {
		issues = append(issues, Issue{
			Target: TargetFAQPage,
			Reason: fmt.Sprintf("need at least %d Q&As", q.minFAQItems),
		})
	}

	if s.ProductPage == nil || len(s.ProductPage.Benefits) < q.minBenefits {
		issues = append(issues, Issue{
			Target: TargetProductPage,
			Reason: fmt.Sprintf("need at least %d benefits", q.minBenefits),
		})
	}

	if s.ComparisonPage == nil || len(s.ComparisonPage.Products) == 0 {
		issues = append(issues, Issue{
			Target: TargetComparisonPage,
			Reason: "comparison page missing product data",
		})
	}

	return issues
}

// Execute either requests refinement or, when no further cycle fits under
// the bound, approves with the remaining issue count.
func (q *QualityCheck) Execute(_ context.Context, s core.State) core.State {
	issues := q.Issues(s)
	iteration := s.Iteration()

	if len(issues) > 0 && canRefine(iteration, q.maxIterations) {
		q.logger.Info("Quality issues found, requesting refinement",
			"agent", q.ID(), "issues", len(issues), "iteration", iteration+1)

		msgs := make([]core.Message, 0, len(issues))
		for _, is := range issues {
			msgs = append(msgs, core.NewRequest(q.ID(), core.PageGeneration, map[string]any{
				core.KeyAction: ActionRefine,
				core.KeyTarget: is.Target,
				core.KeyReason: is.Reason,
			}))
		}

		return core.State{
			NeedsRefinement: core.Bool(true),
			IterationCount:  core.Int(iteration + 1),
			Messages:        msgs,
		}
	}

	q.logger.Info("Content quality accepted", "agent", q.ID(), "issues", len(issues), "iteration", iteration)

	return core.State{
		NeedsRefinement: core.Bool(false),
		CompletedTasks:  []string{core.TaskQualityCheck},
		Messages: []core.Message{q.Notify("quality_approved", map[string]any{
			"issues_found": len(issues),
			"iteration":    iteration,
		})},
	}
}
