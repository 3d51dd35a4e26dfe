// Package core provides the foundational domain types shared by the
// orchestration engine and the worker agents:
//
//   - State, the single record threaded through every workflow step, and its
//     Merge rule for partial updates
//   - Message, the immutable log entry agents use to request work and report
//     completion
//   - Plan and Task, the planner's output
//   - Agent and Descriptor, the uniform activation/execution contract
//
// The package keeps execution concerns (dispatch, routing, generation) out of
// scope so that agents and the engine can evolve independently.
package core
