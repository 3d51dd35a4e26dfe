// Package engine implements the workflow engine of a content run.
//
// The Engine threads a single core.State through the stages of the flow
// package. Each Step executes one node:
//
//   - Planning asks the planner for a fresh plan
//   - every other stage hands its agents to the Dispatcher, which runs them
//     concurrently on narrowed views and merges their partial states in a
//     fixed order
//
// After the node's partial state is merged the router picks the next stage
// and the step budget is enforced, so Run always terminates. Observers are
// notified after every step and once per run.
//
// Example:
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Generator = gen
//	    o.Logger = logger
//	})
//	res, err := eng.Run(ctx, content.SampleRecord())
package engine
