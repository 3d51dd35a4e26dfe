package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
)

// Dispatcher fans a task list out to the live agent table and merges the
// results.
type Dispatcher struct {
	agents agent.Table
	limit  int
	logger logging.Logger
}

// NewDispatcher creates a Dispatcher. limit bounds the number of agents
// running at once; zero or less means unbounded.
func NewDispatcher(agents agent.Table, limit int, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Dispatcher{agents: agents, limit: limit, logger: logger}
}

// Resolve drops tasks for unknown agents and duplicate tasks for the same
// agent, then orders the rest by priority with ties in submission order.
func (d *Dispatcher) Resolve(tasks []core.Task) []core.Task {
	seen := make(map[core.AgentID]bool, len(tasks))
	out := make([]core.Task, 0, len(tasks))

	for _, t := range core.SortByPriority(tasks) {
		if _, ok := d.agents.Get(t.Agent); !ok {
			d.logger.Warn("Dropping planned task", "agent", t.Agent, "error", core.ErrUnknownAgent)
			continue
		}
		if seen[t.Agent] {
			continue
		}
		seen[t.Agent] = true
		out = append(out, t)
	}

	return out
}

// Dispatch runs the agents named by tasks concurrently, each on a view of s
// narrowed to the fields it reads, and returns their merged partial state.
// Merge order is ascending priority then submission order, independent of
// completion order. An empty task list yields an empty partial state.
func (d *Dispatcher) Dispatch(ctx context.Context, s core.State, tasks []core.Task) core.State {
	resolved := d.Resolve(tasks)
	if len(resolved) == 0 {
		return core.State{}
	}

	results := make([]core.State, len(resolved))

	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}

	for i, t := range resolved {
		a, _ := d.agents.Get(t.Agent)
		view := s.View(a.Descriptor().Reads)
		g.Go(func() error {
			results[i] = agent.Invoke(ctx, a, view, d.logger)
			return nil
		})
	}

	_ = g.Wait() // Invoke never fails

	return core.MergeAll(core.State{}, results...)
}
