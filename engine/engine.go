package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/flow"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/planner"
)

// Config holds operational parameters of the engine.
type Config struct {
	// MaxIterations bounds the refinement cycles of a run.
	MaxIterations int
	// MaxConcurrentAgents limits the agents a single dispatch runs at once.
	// Zero or less means unbounded.
	MaxConcurrentAgents int
}

// DefaultConfig provides the default configuration values.
var DefaultConfig = Config{
	MaxIterations:       agent.DefaultMaxIterations,
	MaxConcurrentAgents: 4,
}

// Planner produces the partial state of the Planning node.
type Planner interface {
	Node(ctx context.Context, s core.State) core.State
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	Config Config

	// Generator backs the default agents and planner. May be nil, in which
	// case every generation falls back to deterministic content.
	Generator model.Generator

	// Agents is the live agent table. Defaults to agent.DefaultTable over
	// Generator.
	Agents agent.Table

	// AgentOptions are applied to the default agent table.
	AgentOptions []func(o *agent.Options)

	// Planner defaults to a planner.Planner over Generator.
	Planner Planner

	Observers []Observer

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Engine executes content runs.
type Engine struct {
	config     Config
	agents     agent.Table
	planner    Planner
	router     *flow.Router
	dispatcher *Dispatcher
	observers  []Observer
	logger     logging.Logger
}

// New creates an Engine with sensible defaults.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Agents == nil {
		agentOpts := append([]func(o *agent.Options){func(o *agent.Options) {
			o.Logger = opts.Logger
			o.MaxIterations = opts.Config.MaxIterations
		}}, opts.AgentOptions...)
		opts.Agents = agent.DefaultTable(opts.Generator, agentOpts...)
	}

	if opts.Planner == nil {
		opts.Planner = planner.New(opts.Generator, opts.Agents.Descriptors(), func(o *planner.Options) {
			o.Logger = opts.Logger
		})
	}

	return &Engine{
		config:     opts.Config,
		agents:     opts.Agents,
		planner:    opts.Planner,
		router:     flow.NewRouter(opts.Config.MaxIterations),
		dispatcher: NewDispatcher(opts.Agents, opts.Config.MaxConcurrentAgents, opts.Logger),
		observers:  opts.Observers,
		logger:     opts.Logger,
	}
}

// Agents returns the live agent table.
func (e *Engine) Agents() agent.Table { return e.agents }

// Router returns the router used by the engine.
func (e *Engine) Router() *flow.Router { return e.router }

// Execution is the mutable cursor of a single run. It is not safe for
// concurrent use.
type Execution struct {
	ID    string
	State core.State
	Stage flow.Stage
	Steps int
	Trace []flow.Stage

	started time.Time
}

// Start returns an Execution positioned at Planning whose state holds only
// the input record.
func (e *Engine) Start(input content.Record) *Execution {
	return &Execution{
		ID:      uuid.NewString(),
		State:   core.NewState(input),
		Stage:   flow.Planning,
		started: time.Now(),
	}
}

// Done reports whether the execution reached the terminal stage.
func (x *Execution) Done() bool { return x.Stage == flow.Done }

// Step executes the node of the current stage, merges its partial state,
// routes to the next stage and enforces the step budget. It reports whether
// the run is done.
func (e *Engine) Step(ctx context.Context, x *Execution) bool {
	if x.Done() {
		return true
	}

	start := time.Now()
	stage := x.Stage

	var (
		delta  core.State
		agents []core.AgentID
	)

	if stage == flow.Planning {
		delta = e.planner.Node(ctx, x.State)
		agents = []core.AgentID{core.Orchestrator}
	} else {
		tasks := e.batch(x)
		delta = e.dispatcher.Dispatch(ctx, x.State, tasks)
		for _, t := range e.dispatcher.Resolve(tasks) {
			agents = append(agents, t.Agent)
		}
	}

	x.State = core.Merge(x.State, delta)
	x.Steps++
	x.Trace = append(x.Trace, stage)

	next, forced := e.router.Enforce(stage, e.router.Next(stage, x.State), x.Steps)
	if forced {
		e.logger.Warn("Iteration bound reached, forcing progression",
			"run", x.ID, "stage", stage.String(), "next", next.String(), "steps", x.Steps)
	}
	x.Stage = next

	ev := StepEvent{
		RunID:     x.ID,
		Step:      x.Steps,
		Stage:     stage,
		Next:      next,
		Agents:    agents,
		Messages:  delta.Messages,
		Iteration: x.State.Iteration(),
		Forced:    forced,
		Duration:  time.Since(start),
	}
	for _, o := range e.observers {
		o.OnStep(ev)
	}

	return x.Done()
}

// batch selects the tasks the current stage dispatches. A stage entered
// from Planning runs its head task together with every other ready task of
// the plan, except those for quality-check and synthesize, which the router
// reaches on its own. Tasks for agents missing from the table are passed on
// so the dispatcher can drop and report them. Any other stage runs only its
// own agent.
func (e *Engine) batch(x *Execution) []core.Task {
	own := core.Task{Agent: x.Stage.Agent()}

	fromPlanning := len(x.Trace) > 0 && x.Trace[len(x.Trace)-1] == flow.Planning
	plan := x.State.Plan
	if !fromPlanning || plan.Empty() {
		return []core.Task{own}
	}

	if t, ok := plan.TaskFor(own.Agent); ok {
		own = t
	}

	tasks := []core.Task{own}
	for _, t := range plan.Tasks {
		if t.Agent == own.Agent {
			continue
		}
		_, known := e.agents.Get(t.Agent)
		if _, producer := flow.Routable(t.Agent); known && !producer {
			continue
		}
		if ready(plan, t) {
			tasks = append(tasks, t)
		}
	}

	return tasks
}

// ready reports whether none of t's dependencies are still queued in plan.
func ready(plan *core.Plan, t core.Task) bool {
	for _, d := range t.DependsOn {
		if d != t.Agent && plan.Contains(d) {
			return false
		}
	}
	return true
}

// Result is the outcome of a completed run.
type Result struct {
	RunID    string
	State    core.State
	Trace    []flow.Stage
	Steps    int
	Duration time.Duration
}

// Run executes a full run for input until Done. Cancellation is checked
// between steps; a canceled run returns the partial result with the
// context's error.
func (e *Engine) Run(ctx context.Context, input content.Record) (*Result, error) {
	return e.Execute(ctx, e.Start(input))
}

// Execute drives x until Done and notifies the observers of the outcome. It
// lets callers learn the run ID before the run starts.
func (e *Engine) Execute(ctx context.Context, x *Execution) (*Result, error) {
	e.logger.Info("Starting run", "run", x.ID, "max_iterations", e.config.MaxIterations, "budget", e.router.Budget())

	var err error
	for !x.Done() {
		if cerr := ctx.Err(); cerr != nil {
			err = fmt.Errorf("run %s canceled after %d steps: %w", x.ID, x.Steps, cerr)
			break
		}
		e.Step(ctx, x)
	}

	res := &Result{
		RunID:    x.ID,
		State:    x.State,
		Trace:    x.Trace,
		Steps:    x.Steps,
		Duration: time.Since(x.started),
	}

	sum := RunSummary{
		RunID:      res.RunID,
		Steps:      res.Steps,
		Iterations: res.State.Iteration(),
		Trace:      res.Trace,
		Missing:    res.State.Missing(),
		Duration:   res.Duration,
		Err:        err,
	}
	for _, o := range e.observers {
		o.OnRunComplete(sum)
	}

	if err != nil {
		return res, err
	}

	e.logger.Info("Run finished", "run", x.ID, "steps", x.Steps, "iterations", x.State.Iteration())

	return res, nil
}
