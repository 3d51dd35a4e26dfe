// Package planner implements the orchestrator of a content run. A Planner
// digests the current state, asks the generator for an ordered task list and
// falls back to a deterministic rule set when the reply cannot be used.
//
// The returned plan may name agents that are not registered; the engine's
// dispatcher drops those tasks.
package planner
