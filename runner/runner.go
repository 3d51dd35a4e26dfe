package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/engine"
	"github.com/hupe1980/contentmesh/logging"
)

// ErrRunNotFound is returned by Cancel for unknown or finished runs.
var ErrRunNotFound = errors.New("run not found")

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxConcurrentRuns limits the runs executing at once. Submit blocks
	// while the limit is reached.
	MaxConcurrentRuns int
	Logger            logging.Logger
}

// Outcome is the result of a single run.
type Outcome struct {
	// Index is the position of the input in RunAll; zero for Submit.
	Index  int
	RunID  string
	Result *engine.Result
	Err    error
}

// Runner coordinates concurrent runs: admits them under the concurrency
// limit, tracks their cancel functions and reports outcomes. Public methods
// are safe for concurrent use.
type Runner struct {
	engine *engine.Engine
	slots  chan struct{}
	logger logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner over e with optional overrides.
func New(e *engine.Engine, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: 4,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxConcurrentRuns < 1 {
		opts.MaxConcurrentRuns = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{
		engine:     e,
		slots:      make(chan struct{}, opts.MaxConcurrentRuns),
		logger:     opts.Logger,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Submit starts an asynchronous run for input once a slot is free and
// returns its ID together with a channel receiving exactly one Outcome.
func (r *Runner) Submit(ctx context.Context, input content.Record) (string, <-chan Outcome, error) {
	return r.submit(ctx, 0, input)
}

func (r *Runner) submit(ctx context.Context, index int, input content.Record) (string, <-chan Outcome, error) {
	select {
	case <-ctx.Done():
		return "", nil, fmt.Errorf("waiting for run slot: %w", ctx.Err())
	case r.slots <- struct{}{}:
	}

	x := r.engine.Start(input)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[x.ID] = cancel
	r.mu.Unlock()

	r.logger.Debug("Run admitted", "run", x.ID, "index", index)

	out := make(chan Outcome, 1)

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.activeRuns, x.ID)
			r.mu.Unlock()
			<-r.slots
			close(out)
		}()

		res, err := r.engine.Execute(ctx, x)
		out <- Outcome{Index: index, RunID: x.ID, Result: res, Err: err}
	}()

	return x.ID, out, nil
}

// Cancel cancels an active run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}

	cancel()

	return nil
}

// Active returns the IDs of the runs currently executing in sorted order.
func (r *Runner) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// RunAll executes every input and returns the outcomes in input order.
// Inputs not admitted before ctx is done carry the admission error.
func (r *Runner) RunAll(ctx context.Context, inputs []content.Record) []Outcome {
	outcomes := make([]Outcome, len(inputs))
	chans := make([]<-chan Outcome, len(inputs))

	for i, in := range inputs {
		runID, ch, err := r.submit(ctx, i, in)
		if err != nil {
			outcomes[i] = Outcome{Index: i, Err: err}
			continue
		}
		outcomes[i].RunID = runID
		chans[i] = ch
	}

	for i, ch := range chans {
		if ch != nil {
			outcomes[i] = <-ch
		}
	}

	return outcomes
}
