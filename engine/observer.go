package engine

import (
	"time"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/flow"
	"github.com/hupe1980/contentmesh/logging"
)

// StepEvent describes one executed node.
type StepEvent struct {
	RunID  string
	Step   int
	Stage  flow.Stage
	Next   flow.Stage
	Agents []core.AgentID
	// Messages are the log entries appended by this step.
	Messages  []core.Message
	Iteration int
	// Forced reports that the step budget overrode the router.
	Forced   bool
	Duration time.Duration
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID      string
	Steps      int
	Iterations int
	Trace      []flow.Stage
	Missing    []string
	Duration   time.Duration
	Err        error
}

// Observer receives engine lifecycle notifications. Implementations must not
// block; they run synchronously between steps. An engine shared by
// concurrent runs calls its observers concurrently.
type Observer interface {
	OnStep(ev StepEvent)
	OnRunComplete(sum RunSummary)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Step     func(StepEvent)
	Complete func(RunSummary)
}

// OnStep implements Observer.
func (f ObserverFuncs) OnStep(ev StepEvent) {
	if f.Step != nil {
		f.Step(ev)
	}
}

// OnRunComplete implements Observer.
func (f ObserverFuncs) OnRunComplete(sum RunSummary) {
	if f.Complete != nil {
		f.Complete(sum)
	}
}

// LogObserver writes step and run records through a ContentMeshLogger.
type LogObserver struct {
	logger *logging.ContentMeshLogger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(logger *logging.ContentMeshLogger) *LogObserver {
	return &LogObserver{logger: logger.WithComponent("engine")}
}

// OnStep implements Observer.
func (o *LogObserver) OnStep(ev StepEvent) {
	agents := make([]string, 0, len(ev.Agents))
	for _, a := range ev.Agents {
		agents = append(agents, string(a))
	}
	l := o.logger.WithRun(ev.RunID)
	l.LogNodeExecution(ev.Stage.String(), agents, ev.Duration)
	if ev.Forced {
		l.Warn("Step budget reached, forcing termination", "step", ev.Step, "next", ev.Next.String())
	}
}

// OnRunComplete implements Observer.
func (o *LogObserver) OnRunComplete(sum RunSummary) {
	o.logger.WithRun(sum.RunID).LogRun(sum.Steps, sum.Iterations, sum.Duration, sum.Err)
}
