package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
)

// Activated reports whether a would run on s: either its own predicate holds
// or an unanswered Request is addressed to it.
func Activated(a core.Agent, s core.State) bool {
	return a.ShouldActivate(s) || len(core.OutstandingRequests(s, a.Descriptor().ID)) > 0
}

// Invoke applies the uniform activation protocol around a single agent.
//
// When activated the agent's delta is returned with a broadcast
// Notify{status: completed} appended. Otherwise the only output is a
// Notify{status: skipped, reason: not_needed} to the orchestrator. A panic
// inside Execute is recovered into a skipped notify with reason failed so no
// failure escapes an agent invocation.
func Invoke(ctx context.Context, a core.Agent, view core.State, logger logging.Logger) (delta core.State) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	id := a.Descriptor().ID

	if !Activated(a, view) {
		logger.Debug("Agent skipped", "agent", id)
		return core.State{Messages: []core.Message{skipped(id, core.ReasonNotNeeded)}}
	}

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithStack(logger, fmt.Errorf("panic: %v", r), "Agent panicked", "agent", id)
			delta = core.State{Messages: []core.Message{skipped(id, core.ReasonFailed)}}
		}
	}()

	delta = a.Execute(ctx, view)

	done := core.NewNotify(id, core.Broadcast, map[string]any{
		core.KeyStatus: core.StatusCompleted,
		core.KeyAgent:  string(id),
	})

	// copy so the agent's own slice is never appended to in place
	msgs := make([]core.Message, 0, len(delta.Messages)+1)
	msgs = append(msgs, delta.Messages...)
	delta.Messages = append(msgs, done)

	logger.Debug("Agent completed", "agent", id, "messages", len(delta.Messages))

	return delta
}

func skipped(id core.AgentID, reason string) core.Message {
	return core.NewNotify(id, core.Orchestrator, map[string]any{
		core.KeyStatus: core.StatusSkipped,
		core.KeyAgent:  string(id),
		core.KeyReason: reason,
	})
}
