// Package runner executes many content runs concurrently on one engine.
//
// The Runner bounds the number of runs in flight, hands out run IDs before
// execution starts so callers can cancel individual runs, and delivers each
// outcome on its own channel. Batch callers use RunAll, which preserves input
// order in its result.
package runner
