package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/flow"
	"github.com/hupe1980/contentmesh/internal/testutil"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/planner"
)

// plannerFunc adapts a function to Planner.
type plannerFunc func(ctx context.Context, s core.State) core.State

func (f plannerFunc) Node(ctx context.Context, s core.State) core.State { return f(ctx, s) }

func staticPlanner(tasks ...core.Task) Planner {
	return plannerFunc(func(context.Context, core.State) core.State {
		return core.State{Plan: &core.Plan{Reasoning: "static", Tasks: tasks}}
	})
}

func newTestEngine(gen model.Generator, optFns ...func(o *Options)) (*Engine, *[]StepEvent, *[]RunSummary) {
	var steps []StepEvent
	var runs []RunSummary
	obs := ObserverFuncs{
		Step:     func(ev StepEvent) { steps = append(steps, ev) },
		Complete: func(sum RunSummary) { runs = append(runs, sum) },
	}
	all := append([]func(o *Options){func(o *Options) {
		o.Generator = gen
		o.Observers = []Observer{obs}
	}}, optFns...)
	return New(all...), &steps, &runs
}

func TestRun_ScenarioA_SinglePass(t *testing.T) {
	gen := testutil.ContentGenerator()
	eng, steps, runs := newTestEngine(gen)

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, []flow.Stage{
		flow.Planning, flow.Parsing, flow.QuestionGen, flow.PageGen, flow.QualityCheck, flow.Synthesizing,
	}, res.Trace)
	assert.Equal(t, 6, res.Steps)
	assert.Equal(t, 0, res.State.Iteration())
	assert.False(t, res.State.Refining())
	assert.Empty(t, res.State.Missing())

	require.NotNil(t, res.State.FinalPages)
	assert.Equal(t, "GlowBoost Vitamin C Serum", res.State.FinalPages.Product.Name)
	assert.Len(t, res.State.FinalPages.FAQPage.Items, 4)
	assert.Equal(t, []string{
		core.TaskParseProduct, core.TaskGenerateQuestions, core.TaskGeneratePages, core.TaskQualityCheck, core.TaskSynthesize,
	}, res.State.CompletedTasks)

	// every content prompt answered once; planner fell back
	assert.Equal(t, 1, gen.CallsMatching(testutil.MatchQuestions))
	assert.Equal(t, 1, gen.CallsMatching(testutil.MatchFAQ))
	assert.Equal(t, 1, gen.CallsMatching(testutil.MatchPlanner))
	require.NotNil(t, res.State.Plan)
	assert.True(t, res.State.Plan.Fallback)

	require.Len(t, *steps, 6)
	assert.Equal(t, flow.Done, (*steps)[5].Next)
	assert.Equal(t, []core.AgentID{core.Orchestrator}, (*steps)[0].Agents)
	assert.Equal(t, []core.AgentID{core.Parse}, (*steps)[1].Agents)
	require.Len(t, *runs, 1)
	assert.Equal(t, res.RunID, (*runs)[0].RunID)
	assert.NoError(t, (*runs)[0].Err)
}

func TestRun_ScenarioB_OneRefinement(t *testing.T) {
	gen := testutil.ContentGenerator(testutil.FAQReply(2), testutil.FAQReply(5))
	eng, steps, _ := newTestEngine(gen)

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, []flow.Stage{
		flow.Planning, flow.Parsing, flow.QuestionGen, flow.PageGen, flow.QualityCheck,
		flow.Planning, flow.PageGen, flow.QualityCheck, flow.Synthesizing,
	}, res.Trace)
	assert.Equal(t, 1, res.State.Iteration())
	assert.False(t, res.State.Refining())
	assert.Len(t, res.State.FAQPage.Items, 5)
	assert.LessOrEqual(t, res.Steps, eng.Router().Budget())

	// only the FAQ was regenerated
	assert.Equal(t, 2, gen.CallsMatching(testutil.MatchFAQ))
	assert.Equal(t, 1, gen.CallsMatching(testutil.MatchComparison))

	// the refine request got a response
	var reqID string
	for _, m := range res.State.Messages {
		if m.Kind == core.KindRequest && m.Str(core.KeyAction) == agent.ActionRefine {
			reqID = m.ID
		}
	}
	require.NotEmpty(t, reqID)
	responses := core.FilterKind(res.State.Messages, core.KindResponse)
	require.Len(t, responses, 1)
	assert.Equal(t, reqID, responses[0].ReplyTo)

	// second planning cycle queued page generation for the refinement
	refinePlan := (*steps)[5]
	assert.Equal(t, flow.Planning, refinePlan.Stage)
	assert.Equal(t, flow.PageGen, refinePlan.Next)
}

func TestRun_ScenarioC_BoundAlreadyReached(t *testing.T) {
	gen := testutil.ContentGenerator(testutil.FAQReply(2))
	eng, _, _ := newTestEngine(gen)

	x := eng.Start(content.SampleRecord())
	x.State.IterationCount = core.Int(eng.Router().MaxIterations())

	for !eng.Step(context.Background(), x) {
		require.LessOrEqual(t, x.Steps, eng.Router().Budget())
	}

	n := len(x.Trace)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, []flow.Stage{flow.QualityCheck, flow.Synthesizing}, x.Trace[n-2:])
	assert.Equal(t, 2, x.State.Iteration())
	assert.False(t, x.State.Refining())
	assert.Len(t, x.State.FAQPage.Items, 2)
	assert.Empty(t, core.FilterKind(x.State.Messages, core.KindResponse))
}

func TestRun_PersistentFailureStopsAtBound(t *testing.T) {
	gen := testutil.ContentGenerator(testutil.FAQReply(1))
	eng, _, _ := newTestEngine(gen)

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, []flow.Stage{
		flow.Planning, flow.Parsing, flow.QuestionGen, flow.PageGen, flow.QualityCheck,
		flow.Planning, flow.PageGen, flow.QualityCheck, flow.Synthesizing,
	}, res.Trace)
	assert.LessOrEqual(t, res.Steps, eng.Router().Budget())
	assert.Equal(t, 1, res.State.Iteration())
	assert.False(t, res.State.Refining())
	require.NotNil(t, res.State.FinalPages)

	// the last pass approves with the issues it still sees
	assert.True(t, res.State.Completed(core.TaskQualityCheck))
	var approvals int
	for _, m := range res.State.Messages {
		if m.From == core.QualityCheck && m.Str(core.KeyStatus) == "quality_approved" {
			approvals++
			assert.Equal(t, 1, m.Content["issues_found"])
		}
	}
	assert.Equal(t, 1, approvals)
	assert.Empty(t, core.OutstandingRequests(res.State, core.PageGeneration))

	// every refine request was answered
	var requests int
	for _, m := range res.State.Messages {
		if m.Kind == core.KindRequest && m.Str(core.KeyAction) == agent.ActionRefine {
			requests++
		}
	}
	assert.Equal(t, 1, requests)
	assert.Len(t, core.FilterKind(res.State.Messages, core.KindResponse), 1)
}

func TestRun_UnorderedFirstPlanParsesOnce(t *testing.T) {
	gen := testutil.ContentGenerator(testutil.FAQReply(2), testutil.FAQReply(5))
	first := true
	eng, _, _ := newTestEngine(gen, func(o *Options) {
		o.Planner = plannerFunc(func(_ context.Context, s core.State) core.State {
			if first {
				first = false
				// no dependencies: all producers run in the first batch
				return core.State{Plan: &core.Plan{Tasks: []core.Task{
					{Agent: core.Parse, Priority: 1},
					{Agent: core.QuestionGeneration, Priority: 2},
					{Agent: core.PageGeneration, Priority: 3},
				}}}
			}
			plan := planner.Fallback(s)
			return core.State{Plan: &plan}
		})
	})

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, []flow.Stage{
		flow.Planning, flow.Parsing, flow.QuestionGen, flow.PageGen, flow.QualityCheck,
		flow.Planning, flow.PageGen, flow.QualityCheck, flow.Synthesizing,
	}, res.Trace)
	assert.Less(t, res.Steps, eng.Router().Budget())

	var parses int
	for _, label := range res.State.CompletedTasks {
		if label == core.TaskParseProduct {
			parses++
		}
	}
	assert.Equal(t, 1, parses)
	assert.Empty(t, core.OutstandingRequests(res.State, core.Parse))
	assert.Len(t, res.State.FAQPage.Items, 5)
}

func TestRun_UnknownAgentInPlan(t *testing.T) {
	gen := testutil.ContentGenerator()
	eng, _, _ := newTestEngine(gen, func(o *Options) {
		o.Planner = staticPlanner(
			core.Task{Agent: "translator", Priority: 1},
			core.Task{Agent: core.Parse, Priority: 2},
		)
	})

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, flow.Parsing, res.Trace[1])
	require.NotNil(t, res.State.FinalPages)
	for _, m := range res.State.Messages {
		assert.NotEqual(t, core.AgentID("translator"), m.From)
	}
}

func TestRun_EmptyPlanGoesToSynthesis(t *testing.T) {
	eng, _, _ := newTestEngine(nil, func(o *Options) {
		o.Planner = staticPlanner()
	})

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	// synthesis asks for one more cycle, then settles on the last pass
	assert.Equal(t, []flow.Stage{
		flow.Planning, flow.Synthesizing, flow.Planning, flow.Synthesizing,
	}, res.Trace)
	assert.Equal(t, 1, res.State.Iteration())
	assert.False(t, res.State.Refining())
	assert.Len(t, res.State.Missing(), 5)
}

func TestRun_AdversarialPlannerTerminates(t *testing.T) {
	eng, steps, _ := newTestEngine(testutil.ContentGenerator(testutil.FAQReply(1)), func(o *Options) {
		o.Planner = plannerFunc(func(_ context.Context, s core.State) core.State {
			// always re-plan every producer and insist on refinement
			return core.State{
				Plan: &core.Plan{Tasks: []core.Task{
					{Agent: core.Parse, Priority: 1},
					{Agent: core.QuestionGeneration, Priority: 1},
					{Agent: core.PageGeneration, Priority: 1},
				}},
				NeedsRefinement: core.Bool(true),
			}
		})
	})

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Steps, eng.Router().Budget())
	assert.Equal(t, flow.Done, (*steps)[len(*steps)-1].Next)
}

func TestRun_NoGenerator(t *testing.T) {
	eng := New()

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	require.NotNil(t, res.State.FinalPages)
	assert.Equal(t, agent.FallbackFAQ(*res.State.Product), *res.State.FAQPage)
	assert.Equal(t, 0, res.State.Iteration())
	assert.Equal(t, 14, res.State.Questions.Total())
}

func TestRun_Canceled(t *testing.T) {
	eng, _, runs := newTestEngine(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.Run(ctx, content.SampleRecord())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, res.Steps)
	require.Len(t, *runs, 1)
	assert.ErrorIs(t, (*runs)[0].Err, context.Canceled)
}

func TestStep_DoneIsIdempotent(t *testing.T) {
	eng := New()
	x := eng.Start(content.SampleRecord())
	x.Stage = flow.Done

	assert.True(t, eng.Step(context.Background(), x))
	assert.Equal(t, 0, x.Steps)
}

func TestBatch_FromPlanningIncludesReadyProducers(t *testing.T) {
	eng := New()
	x := eng.Start(content.SampleRecord())
	x.Trace = []flow.Stage{flow.Planning}
	x.Stage = flow.QuestionGen
	x.State.Plan = &core.Plan{Tasks: []core.Task{
		{Agent: core.QuestionGeneration, Priority: 1},
		{Agent: core.PageGeneration, Priority: 2},
		{Agent: core.QualityCheck, Priority: 3},
		{Agent: core.QuestionGeneration, Priority: 4},
	}}

	assert.Equal(t, []core.AgentID{core.QuestionGeneration, core.PageGeneration}, taskAgents(eng.batch(x)))

	x.State.Plan.Tasks[1].DependsOn = []core.AgentID{core.QuestionGeneration}
	assert.Equal(t, []core.AgentID{core.QuestionGeneration}, taskAgents(eng.batch(x)))

	x.State.Plan.Tasks = append(x.State.Plan.Tasks, core.Task{Agent: "ghost", Priority: 5})
	assert.Equal(t, []core.AgentID{core.QuestionGeneration, "ghost"}, taskAgents(eng.batch(x)))

	x.Trace = append(x.Trace, flow.Parsing)
	assert.Equal(t, []core.AgentID{core.QuestionGeneration}, taskAgents(eng.batch(x)))
}

func taskAgents(tasks []core.Task) []core.AgentID {
	out := make([]core.AgentID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Agent)
	}
	return out
}
