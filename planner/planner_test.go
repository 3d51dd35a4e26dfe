package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/internal/testutil"
	"github.com/hupe1980/contentmesh/model"
)

func agentIDs(p core.Plan) []core.AgentID {
	out := make([]core.AgentID, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		out = append(out, t.Agent)
	}
	return out
}

func TestFallback(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		p := Fallback(core.NewState(content.SampleRecord()))

		assert.True(t, p.Fallback)
		assert.Equal(t, []core.AgentID{core.Parse, core.QuestionGeneration, core.PageGeneration}, agentIDs(p))
		assert.Equal(t, []core.AgentID{core.Parse}, p.Tasks[1].DependsOn)
		assert.Equal(t, []core.AgentID{core.QuestionGeneration}, p.Tasks[2].DependsOn)
		assert.Equal(t, 1, p.Tasks[0].Priority)
		assert.Equal(t, 3, p.Tasks[2].Priority)
	})

	t.Run("product present", func(t *testing.T) {
		s := testutil.NewStateBuilder().Product(testutil.SampleProduct()).Build()
		p := Fallback(s)

		assert.Equal(t, []core.AgentID{core.QuestionGeneration, core.PageGeneration}, agentIDs(p))
		assert.Nil(t, p.Tasks[0].DependsOn)
	})

	t.Run("only pages missing", func(t *testing.T) {
		s := testutil.NewStateBuilder().
			Product(testutil.SampleProduct()).
			Questions(content.QuestionSet{"usage": {"How?"}}).
			FAQ(testutil.FAQWithItems(4)).
			Build()
		p := Fallback(s)

		assert.Equal(t, []core.AgentID{core.PageGeneration}, agentIDs(p))
		assert.Nil(t, p.Tasks[0].DependsOn)
	})

	t.Run("complete state is empty", func(t *testing.T) {
		s := testutil.NewStateBuilder().
			Product(testutil.SampleProduct()).
			Questions(content.QuestionSet{}).
			AllPages().
			Build()
		p := Fallback(s)
		assert.True(t, p.Empty())
	})

	t.Run("refine requests queue page generation", func(t *testing.T) {
		req := testutil.NewMessageBuilder().
			From(core.QualityCheck).To(core.PageGeneration).Request().
			Action(agent.ActionRefine).Target(agent.TargetFAQPage).
			Set(core.KeyReason, "need at least 4 Q&As").Build()
		s := testutil.NewStateBuilder().
			Product(testutil.SampleProduct()).
			Questions(content.QuestionSet{}).
			AllPages().
			Messages(req).
			Build()

		p := Fallback(s)
		require.Len(t, p.Tasks, 1)
		assert.Equal(t, core.PageGeneration, p.Tasks[0].Agent)
		assert.Contains(t, p.Tasks[0].Reason, "need at least 4 Q&As")

		// acknowledged requests are not re-queued
		done := testutil.NewMessageBuilder().Completed(core.PageGeneration).Build()
		s.Messages = append(s.Messages, done)
		p = Fallback(s)
		assert.True(t, p.Empty())
	})

	t.Run("is total", func(t *testing.T) {
		product := testutil.SampleProduct()
		questions := content.QuestionSet{}
		faq := testutil.FAQWithItems(1)
		pp := testutil.GoodProductPage()
		cp := testutil.GoodComparison()

		for mask := 0; mask < 32; mask++ {
			s := core.State{}
			if mask&1 != 0 {
				s.Product = &product
			}
			if mask&2 != 0 {
				s.Questions = &questions
			}
			if mask&4 != 0 {
				s.FAQPage = &faq
			}
			if mask&8 != 0 {
				s.ProductPage = &pp
			}
			if mask&16 != 0 {
				s.ComparisonPage = &cp
			}

			var p core.Plan
			require.NotPanics(t, func() { p = Fallback(s) })

			seen := map[core.AgentID]bool{}
			for _, task := range p.Tasks {
				assert.False(t, seen[task.Agent], "duplicate task for %s", task.Agent)
				seen[task.Agent] = true
			}
			assert.Equal(t, s.Product == nil, seen[core.Parse], "mask %d", mask)
			assert.Equal(t, s.Questions == nil, seen[core.QuestionGeneration], "mask %d", mask)
			assert.Equal(t, !s.HasAllPages(), seen[core.PageGeneration], "mask %d", mask)
		}
	})
}

func TestPlan_UsesGenerator(t *testing.T) {
	reply := "```json\n" + `{
  "reasoning": "Only the FAQ needs work",
  "tasks": [
    {"agent": "page-generation", "priority": 1, "reason": "refine FAQ", "depends_on": null},
  ]
}` + "\n```"

	gen := model.NewScriptedGenerator().On(testutil.MatchPlanner, reply)
	p := New(gen, agent.DefaultTable(nil).Descriptors())

	plan := p.Plan(context.Background(), core.NewState(content.SampleRecord()))

	assert.False(t, plan.Fallback)
	assert.Equal(t, "Only the FAQ needs work", plan.Reasoning)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, core.PageGeneration, plan.Tasks[0].Agent)
	assert.Nil(t, plan.Tasks[0].DependsOn)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, DefaultMaxTokens, calls[0].MaxTokens)
	assert.Contains(t, calls[0].Prompt, "question-generation")
	assert.Contains(t, calls[0].Prompt, "Iteration: 0")
}

func TestPlan_PassesUnknownAgentsThrough(t *testing.T) {
	gen := model.NewScriptedGenerator().On(testutil.MatchPlanner,
		`{"reasoning": "translate", "tasks": [{"agent": "translator", "priority": 1, "reason": "i18n"}]}`)

	plan := New(gen, nil).Plan(context.Background(), core.State{})

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, core.AgentID("translator"), plan.Tasks[0].Agent)
}

func TestPlan_FallsBack(t *testing.T) {
	s := core.NewState(content.SampleRecord())
	want := Fallback(s)

	tests := []struct {
		name string
		gen  model.Generator
	}{
		{"nil generator", nil},
		{"service error", model.NewScriptedGenerator().Fail(testutil.MatchPlanner, errors.New("overloaded"))},
		{"prose reply", model.NewScriptedGenerator().On(testutil.MatchPlanner, "Let me think about this.")},
		{"task without agent", model.NewScriptedGenerator().On(testutil.MatchPlanner, `{"tasks": [{"priority": 1}]}`)},
		{"unscripted", model.NewScriptedGenerator()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := New(tt.gen, nil).Plan(context.Background(), s)
			assert.Equal(t, want, plan)
		})
	}
}

func TestNode(t *testing.T) {
	p := New(nil, nil)

	delta := p.Node(context.Background(), core.NewState(content.SampleRecord()))

	require.NotNil(t, delta.Plan)
	assert.Len(t, delta.Plan.Tasks, 3)
	require.Len(t, delta.Messages, 1)
	m := delta.Messages[0]
	assert.Equal(t, core.KindProposal, m.Kind)
	assert.Equal(t, core.Orchestrator, m.From)
	assert.Equal(t, core.Broadcast, m.To)
	assert.Equal(t, 3, m.Content["task_count"])
	assert.Equal(t, "plan_created", m.Str(core.KeyStatus))
	assert.Nil(t, delta.Product)
}

func TestSummarize(t *testing.T) {
	msgs := []core.Message{
		testutil.NewMessageBuilder().Completed(core.Parse).Build(),
		testutil.NewMessageBuilder().Completed(core.QuestionGeneration).Build(),
		testutil.NewMessageBuilder().From(core.QualityCheck).To(core.PageGeneration).Request().Build(),
		testutil.NewMessageBuilder().Completed(core.PageGeneration).Build(),
	}

	s := testutil.NewStateBuilder().
		Product(testutil.SampleProduct()).
		Iteration(1).
		Refinement(true).
		Completed(core.TaskParseProduct, core.TaskGenerateQuestions).
		Messages(msgs...).
		Build()

	got := Summarize(s)

	assert.Contains(t, got, "Iteration: 1")
	assert.Contains(t, got, "Status: Content needs refinement")
	assert.Contains(t, got, "Available artifacts: product")
	assert.Contains(t, got, "Missing artifacts: questions, faq_page, product_page, comparison_page")
	assert.Contains(t, got, "Completed tasks: parse_product, generate_questions")
	assert.Contains(t, got, "Recent messages: 3")
	assert.NotContains(t, got, "parse -> broadcast")
	assert.Contains(t, got, "quality-check -> page-generation: request")
	assert.Contains(t, got, "page-generation -> broadcast: notify (completed)")

	empty := Summarize(core.State{})
	assert.Equal(t, "Iteration: 0\nMissing artifacts: product, questions, faq_page, product_page, comparison_page", empty)
}
