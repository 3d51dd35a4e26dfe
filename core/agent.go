package core

import "context"

// AgentID identifies an agent variant in the live agent table and in
// message addressing.
type AgentID string

// Well-known agent identifiers.
const (
	Orchestrator       AgentID = "orchestrator"
	Broadcast          AgentID = "broadcast"
	Parse              AgentID = "parse"
	QuestionGeneration AgentID = "question-generation"
	PageGeneration     AgentID = "page-generation"
	QualityCheck       AgentID = "quality-check"
	Synthesize         AgentID = "synthesize"
)

// Completed-task labels appended to State.CompletedTasks.
const (
	TaskParseProduct      = "parse_product"
	TaskGenerateQuestions = "generate_questions"
	TaskGeneratePages     = "generate_pages"
	TaskQualityCheck      = "quality_check"
	TaskSynthesize        = "synthesize"
)

// Descriptor describes an agent variant to the planner and dispatcher. It is
// static per variant.
type Descriptor struct {
	ID           AgentID  `json:"id"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	// Reads lists the state fields the agent is handed by the dispatcher.
	Reads FieldSet `json:"-"`
}

// CanHandle reports whether the descriptor lists the capability.
func (d Descriptor) CanHandle(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Agent defines the uniform activation/execution contract every agent
// variant implements.
//
// Implementations must:
//   - keep ShouldActivate pure: no state mutation, no hidden counters, the
//     same answer for the same input
//   - treat the State passed to Execute as an immutable snapshot and return
//     a partial State (delta) instead of mutating shared memory
//   - never fail: missing prerequisites become Request messages, generation
//     failures become deterministic fallback values
type Agent interface {
	Descriptor() Descriptor
	ShouldActivate(s State) bool
	Execute(ctx context.Context, s State) State
}
