package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
)

// sleepyAgent always activates, sleeps and reports a single message.
type sleepyAgent struct {
	agent.BaseAgent
	delay    time.Duration
	active   *int32
	peak     *int32
	mu       sync.Mutex
	lastView core.State
}

func newSleepyAgent(id core.AgentID, delay time.Duration, reads core.FieldSet) *sleepyAgent {
	return &sleepyAgent{
		BaseAgent: agent.NewBaseAgent(core.Descriptor{ID: id, Reads: reads}, nil),
		delay:     delay,
	}
}

func (a *sleepyAgent) ShouldActivate(core.State) bool { return true }

func (a *sleepyAgent) Execute(_ context.Context, s core.State) core.State {
	if a.active != nil {
		n := atomic.AddInt32(a.active, 1)
		for {
			p := atomic.LoadInt32(a.peak)
			if n <= p || atomic.CompareAndSwapInt32(a.peak, p, n) {
				break
			}
		}
		defer atomic.AddInt32(a.active, -1)
	}

	a.mu.Lock()
	a.lastView = s
	a.mu.Unlock()

	time.Sleep(a.delay)

	return core.State{
		CompletedTasks: []string{string(a.ID())},
		Messages:       []core.Message{a.Notify("worked", nil)},
	}
}

func TestDispatch_MergesInPriorityOrder(t *testing.T) {
	table := agent.NewTable(
		newSleepyAgent("slow", 40*time.Millisecond, 0),
		newSleepyAgent("medium", 20*time.Millisecond, 0),
		newSleepyAgent("fast", 0, 0),
	)
	d := NewDispatcher(table, 0, nil)

	tasks := []core.Task{
		{Agent: "fast", Priority: 2},
		{Agent: "slow", Priority: 1},
		{Agent: "medium", Priority: 2},
	}

	for i := 0; i < 3; i++ {
		delta := d.Dispatch(context.Background(), core.State{}, tasks)

		assert.Equal(t, []string{"slow", "fast", "medium"}, delta.CompletedTasks)
		require.Len(t, delta.Messages, 6)
		assert.Equal(t, core.AgentID("slow"), delta.Messages[0].From)
		assert.True(t, delta.Messages[1].IsCompletionOf("slow"))
		assert.Equal(t, core.AgentID("fast"), delta.Messages[2].From)
		assert.Equal(t, core.AgentID("medium"), delta.Messages[4].From)
	}
}

func TestDispatch_DropsUnknownAndDuplicates(t *testing.T) {
	table := agent.NewTable(newSleepyAgent("known", 0, 0))
	d := NewDispatcher(table, 0, nil)

	delta := d.Dispatch(context.Background(), core.State{}, []core.Task{
		{Agent: "translator", Priority: 1},
		{Agent: "known", Priority: 2},
		{Agent: "known", Priority: 3},
	})

	assert.Equal(t, []string{"known"}, delta.CompletedTasks)
	assert.Equal(t, []core.Task{{Agent: "known", Priority: 2}}, d.Resolve([]core.Task{
		{Agent: "known", Priority: 2},
		{Agent: "ghost", Priority: 0},
	}))
}

func TestDispatch_EmptyPlan(t *testing.T) {
	d := NewDispatcher(agent.NewTable(newSleepyAgent("known", 0, 0)), 0, nil)

	assert.True(t, d.Dispatch(context.Background(), core.State{}, nil).IsEmpty())
	assert.True(t, d.Dispatch(context.Background(), core.State{}, []core.Task{{Agent: "ghost"}}).IsEmpty())
}

func TestDispatch_NarrowsViews(t *testing.T) {
	a := newSleepyAgent("reader", 0, core.FieldProduct)
	d := NewDispatcher(agent.NewTable(a), 0, nil)

	product := content.Product{Name: "x"}
	s := core.State{
		Input:          content.Record{"k": "v"},
		Product:        &product,
		IterationCount: core.Int(1),
		CompletedTasks: []string{"earlier"},
	}

	d.Dispatch(context.Background(), s, []core.Task{{Agent: "reader"}})

	assert.Nil(t, a.lastView.Input)
	assert.Same(t, &product, a.lastView.Product)
	assert.Nil(t, a.lastView.CompletedTasks)
	assert.Equal(t, 1, a.lastView.Iteration())
}

func TestDispatch_ConcurrencyLimit(t *testing.T) {
	var active, peak int32

	var agents []core.Agent
	var tasks []core.Task
	for _, id := range []core.AgentID{"a", "b", "c", "d"} {
		sa := newSleepyAgent(id, 10*time.Millisecond, 0)
		sa.active, sa.peak = &active, &peak
		agents = append(agents, sa)
		tasks = append(tasks, core.Task{Agent: id})
	}

	d := NewDispatcher(agent.NewTable(agents...), 2, nil)
	delta := d.Dispatch(context.Background(), core.State{}, tasks)

	assert.Len(t, delta.CompletedTasks, 4)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
