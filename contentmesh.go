// Package contentmesh provides a high-level façade over the workflow engine
// and its output sinks, turning a single product record into FAQ, product and
// comparison pages. Most applications interact with this package by:
//  1. Creating a ContentMesh via New() or NewFromConfig()
//  2. Calling Run with an input record
//  3. Reading the returned Artifacts (or letting the configured writers
//     persist them)
//
// The façade delegates orchestration to engine.Engine. All defaults are safe
// for local development and testing: without a Generator every agent falls
// back to deterministic content and nothing is written.
package contentmesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/engine"
	"github.com/hupe1980/contentmesh/flow"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/output"
	"github.com/hupe1980/contentmesh/runner"
)

// Options configures the ContentMesh instance.
type Options struct {
	// Engine configuration (iteration bound, dispatch concurrency)
	EngineConfig engine.Config

	// Generator backs agents and planner. Nil runs fully offline.
	Generator model.Generator

	// AgentOptions tune the default agents (quality thresholds, competitor).
	AgentOptions []func(o *agent.Options)

	// Writers receive the artifacts of every successful run.
	Writers []output.Writer

	Observers []engine.Observer

	// MaxConcurrentRuns bounds the runs RunAll executes at once.
	MaxConcurrentRuns int

	// Timeout bounds a Run call or a whole RunAll batch. Zero means no
	// timeout beyond the caller's context.
	Timeout time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ContentMesh is the high-level façade aggregating the engine and sinks.
type ContentMesh struct {
	opts   Options
	engine *engine.Engine
	runner *runner.Runner
	writer output.Writer

	closers  []func() error
	registry *prometheus.Registry
}

// New creates a new ContentMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *ContentMesh {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Generator = opts.Generator
		o.AgentOptions = opts.AgentOptions
		o.Observers = opts.Observers
		o.Logger = opts.Logger
	})

	r := runner.New(e, func(o *runner.Options) {
		o.MaxConcurrentRuns = opts.MaxConcurrentRuns
		o.Logger = opts.Logger
	})

	return &ContentMesh{opts: opts, engine: e, runner: r, writer: output.MultiWriter(opts.Writers)}
}

// Engine returns the underlying engine.
func (m *ContentMesh) Engine() *engine.Engine { return m.engine }

// Result is the outcome of Run.
type Result struct {
	RunID     string
	Artifacts output.Artifacts
	Trace     []flow.Stage
	Steps     int
	Duration  time.Duration
	// State is the final shared state including the full message log.
	State core.State
}

// Run executes a full run for record and hands the artifacts to the
// configured writers. A canceled run returns its partial result together
// with the context error; writers are skipped in that case.
func (m *ContentMesh) Run(ctx context.Context, record content.Record) (*Result, error) {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	res, err := m.engine.Run(ctx, record)

	return m.finish(ctx, res, err)
}

// RunAll executes one run per record, at most Options.MaxConcurrentRuns at
// a time, and returns the results in record order. Each run is written as
// soon as it completes. The error joins the failures of all runs; entries of
// runs that were never admitted are nil.
func (m *ContentMesh) RunAll(ctx context.Context, records []content.Record) ([]*Result, error) {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	outcomes := m.runner.RunAll(ctx, records)

	results := make([]*Result, len(outcomes))
	var errs []error

	for i, o := range outcomes {
		if o.Result == nil {
			errs = append(errs, fmt.Errorf("record %d: %w", o.Index, o.Err))
			continue
		}

		res, err := m.finish(ctx, o.Result, o.Err)
		results[i] = res
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", o.Index, err))
		}
	}

	return results, errors.Join(errs...)
}

// Cancel stops an in-flight run started by RunAll. Observers see the run ID
// with every step.
func (m *ContentMesh) Cancel(runID string) error { return m.runner.Cancel(runID) }

func (m *ContentMesh) finish(ctx context.Context, res *engine.Result, err error) (*Result, error) {
	out := &Result{
		RunID:     res.RunID,
		Artifacts: output.FromState(res.State),
		Trace:     res.Trace,
		Steps:     res.Steps,
		Duration:  res.Duration,
		State:     res.State,
	}

	if err != nil {
		return out, err
	}

	if len(m.opts.Writers) > 0 {
		if err := m.writer.Write(ctx, out.RunID, out.Artifacts); err != nil {
			return out, fmt.Errorf("write artifacts of run %s: %w", out.RunID, err)
		}
	}

	return out, nil
}

// Plan executes only the Planning node for record and returns the plan the
// orchestrator would start with.
func (m *ContentMesh) Plan(ctx context.Context, record content.Record) (*core.Plan, error) {
	x := m.engine.Start(record)
	m.engine.Step(ctx, x)

	if x.State.Plan == nil {
		return nil, errors.New("planner produced no plan")
	}

	return x.State.Plan, nil
}

// Close releases resources acquired by NewFromConfig in reverse order.
func (m *ContentMesh) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}
