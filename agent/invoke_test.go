package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/internal/testutil"
)

// stubAgent is a lightweight agent used to exercise the activation protocol.
type stubAgent struct {
	BaseAgent
	activate bool
	execFn   func(core.State) core.State
	calls    int
}

func newStubAgent(id core.AgentID, activate bool, execFn func(core.State) core.State) *stubAgent {
	if execFn == nil {
		execFn = func(core.State) core.State { return core.State{} }
	}
	return &stubAgent{
		BaseAgent: NewBaseAgent(core.Descriptor{ID: id}, nil),
		activate:  activate,
		execFn:    execFn,
	}
}

func (s *stubAgent) ShouldActivate(core.State) bool { return s.activate }

func (s *stubAgent) Execute(_ context.Context, st core.State) core.State {
	s.calls++
	return s.execFn(st)
}

func TestInvoke_SkipsWhenNotActivated(t *testing.T) {
	a := newStubAgent("stub", false, nil)

	delta := Invoke(context.Background(), a, core.State{}, nil)

	assert.Equal(t, 0, a.calls)
	require.Len(t, delta.Messages, 1)
	m := delta.Messages[0]
	assert.Equal(t, core.KindNotify, m.Kind)
	assert.Equal(t, core.Orchestrator, m.To)
	assert.Equal(t, core.StatusSkipped, m.Str(core.KeyStatus))
	assert.Equal(t, core.ReasonNotNeeded, m.Str(core.KeyReason))
	assert.Nil(t, delta.Product)
	assert.Empty(t, delta.CompletedTasks)
}

func TestInvoke_AppendsCompletionNotify(t *testing.T) {
	own := core.NewNotify("stub", core.Broadcast, map[string]any{core.KeyStatus: "custom"})
	ownMsgs := make([]core.Message, 1, 4)
	ownMsgs[0] = own

	a := newStubAgent("stub", true, func(core.State) core.State {
		return core.State{Messages: ownMsgs, CompletedTasks: []string{"x"}}
	})

	delta := Invoke(context.Background(), a, core.State{}, nil)

	require.Len(t, delta.Messages, 2)
	assert.Equal(t, own.ID, delta.Messages[0].ID)
	last := delta.Messages[1]
	assert.True(t, last.IsCompletionOf("stub"))
	assert.Equal(t, core.Broadcast, last.To)
	assert.Equal(t, "stub", last.Str(core.KeyAgent))
	assert.Equal(t, []string{"x"}, delta.CompletedTasks)
	// agent's own slice untouched
	assert.Len(t, ownMsgs, 1)
}

func TestInvoke_RecoversPanic(t *testing.T) {
	a := newStubAgent("stub", true, func(core.State) core.State { panic("boom") })

	var delta core.State
	assert.NotPanics(t, func() { delta = Invoke(context.Background(), a, core.State{}, nil) })

	require.Len(t, delta.Messages, 1)
	assert.Equal(t, core.StatusSkipped, delta.Messages[0].Str(core.KeyStatus))
	assert.Equal(t, core.ReasonFailed, delta.Messages[0].Str(core.KeyReason))
}

func TestInvoke_OutstandingRequestActivates(t *testing.T) {
	a := newStubAgent("stub", false, nil)
	req := testutil.NewMessageBuilder().From(core.QualityCheck).To("stub").Request().Action("do").Build()
	s := testutil.NewStateBuilder().Messages(req).Build()

	assert.True(t, Activated(a, s))
	delta := Invoke(context.Background(), a, s, nil)
	assert.Equal(t, 1, a.calls)

	// once the completion notify lands the request is acknowledged
	next := core.Merge(s, delta)
	assert.False(t, Activated(a, next))
}

func TestShouldActivate_IsPure(t *testing.T) {
	gen := testutil.ContentGenerator()
	s := testutil.NewStateBuilder().
		Input(content.SampleRecord()).
		Product(testutil.SampleProduct()).
		AllPages().
		Completed(core.TaskGeneratePages).
		Build()

	for _, a := range DefaultTable(gen) {
		first := a.ShouldActivate(s)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, a.ShouldActivate(s), a.Descriptor().ID)
		}
	}
	assert.Empty(t, gen.Calls())
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable(nil)

	assert.Equal(t, []core.AgentID{
		core.PageGeneration, core.Parse, core.QualityCheck, core.QuestionGeneration, core.Synthesize,
	}, table.IDs())

	a, ok := table.Get(core.Parse)
	require.True(t, ok)
	assert.Equal(t, core.Parse, a.Descriptor().ID)

	_, ok = table.Get("translator")
	assert.False(t, ok)

	descs := table.Descriptors()
	require.Len(t, descs, 5)
	for _, d := range descs {
		assert.NotEmpty(t, d.Description, d.ID)
		assert.NotEmpty(t, d.Capabilities, d.ID)
	}
}

func TestNewOptions(t *testing.T) {
	opts := newOptions(func(o *Options) {
		o.Logger = nil
		o.MaxIterations = -3
	})
	assert.NotNil(t, opts.Logger)
	assert.Equal(t, 0, opts.MaxIterations)
	assert.Equal(t, DefaultMinFAQItems, opts.MinFAQItems)
	assert.Equal(t, "RadiantFix Vitamin C Serum", opts.Competitor.Name)
}
