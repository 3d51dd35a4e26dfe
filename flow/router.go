// Package flow provides the router state machine of a content run.
//
// The router decides which stage runs next from the stage just executed and
// the merged state. It is a pure function of its inputs; the step budget
// bounds every run regardless of what the planner or the agents report.
package flow

import (
	"fmt"

	"github.com/hupe1980/contentmesh/core"
)

// Stage is a node of the workflow graph.
type Stage int

// Workflow stages.
const (
	Planning Stage = iota
	Parsing
	QuestionGen
	PageGen
	QualityCheck
	Synthesizing
	Done
)

var stageNames = [...]string{
	Planning:     "planning",
	Parsing:      "parsing",
	QuestionGen:  "question_gen",
	PageGen:      "page_gen",
	QualityCheck: "quality_check",
	Synthesizing: "synthesizing",
	Done:         "done",
}

// String returns the stage name.
func (s Stage) String() string {
	if s < Planning || s > Done {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if s < Planning || s > Done {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(b []byte) error {
	for i, n := range stageNames {
		if n == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(b))
}

// Agent returns the agent executed by the stage. Planning is run by the
// orchestrator; Done runs nothing.
func (s Stage) Agent() core.AgentID {
	switch s {
	case Planning:
		return core.Orchestrator
	case Parsing:
		return core.Parse
	case QuestionGen:
		return core.QuestionGeneration
	case PageGen:
		return core.PageGeneration
	case QualityCheck:
		return core.QualityCheck
	case Synthesizing:
		return core.Synthesize
	default:
		return ""
	}
}

// Routable returns the stage a plan task for id leads to. Only the producer
// agents are reachable from Planning.
func Routable(id core.AgentID) (Stage, bool) {
	switch id {
	case core.Parse:
		return Parsing, true
	case core.QuestionGeneration:
		return QuestionGen, true
	case core.PageGeneration:
		return PageGen, true
	default:
		return Done, false
	}
}

// linearStages is the number of stages a refinement-free run passes through.
const linearStages = 6

// StepBudget returns the maximum number of node invocations of a run with
// the given refinement bound.
func StepBudget(maxIterations int) int {
	if maxIterations < 0 {
		maxIterations = 0
	}
	return 2*maxIterations + linearStages
}

// Router is the transition table of the workflow graph.
type Router struct {
	maxIterations int
}

// NewRouter creates a Router with the refinement bound.
func NewRouter(maxIterations int) *Router {
	if maxIterations < 0 {
		maxIterations = 0
	}
	return &Router{maxIterations: maxIterations}
}

// MaxIterations returns the refinement bound.
func (r *Router) MaxIterations() int { return r.maxIterations }

// Budget returns StepBudget for the router's bound.
func (r *Router) Budget() int { return StepBudget(r.maxIterations) }

// Next returns the stage that follows from given the merged state s.
//
// After Planning the head of the plan decides: the first task in priority
// order (ties in plan order) whose agent is a producer. Tasks for
// quality-check, synthesize or unknown agents never lead the run; they are
// passed over in favor of the next producer task, and a plan without one
// routes to Synthesizing like an empty plan. Quality check and synthesis are
// reached through the linear transitions instead.
func (r *Router) Next(from Stage, s core.State) Stage {
	switch from {
	case Planning:
		if s.Plan != nil {
			for _, t := range core.SortByPriority(s.Plan.Tasks) {
				if st, ok := Routable(t.Agent); ok {
					return st
				}
			}
		}
		return Synthesizing
	case Parsing:
		if s.Questions == nil {
			return QuestionGen
		}
		return PageGen
	case QuestionGen:
		return PageGen
	case PageGen:
		return QualityCheck
	case QualityCheck:
		if s.Refining() && s.Iteration() < r.maxIterations {
			return Planning
		}
		return Synthesizing
	case Synthesizing:
		if len(s.Missing()) > 0 && s.Refining() && s.Iteration() < r.maxIterations {
			return Planning
		}
		return Done
	default:
		return Done
	}
}

// Enforce applies the step budget to a routing decision. steps is the
// number of node invocations already performed. When a single step remains
// the run is forced into Synthesizing, unless that is the stage that just
// ran; when none remain the run is Done. The second result reports whether
// the decision was overridden.
func (r *Router) Enforce(from, next Stage, steps int) (Stage, bool) {
	if next == Done {
		return Done, false
	}

	remaining := r.Budget() - steps
	switch {
	case remaining <= 0:
		return Done, true
	case remaining == 1 && next != Synthesizing:
		if from == Synthesizing {
			return Done, true
		}
		return Synthesizing, true
	default:
		return next, false
	}
}
