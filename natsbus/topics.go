package natsbus

import "fmt"

// Subject patterns for run events.

func TopicMessages(runID string) string {
	return fmt.Sprintf("contentmesh.run.%s.messages", runID)
}

func TopicSteps(runID string) string {
	return fmt.Sprintf("contentmesh.run.%s.steps", runID)
}

func TopicComplete(runID string) string {
	return fmt.Sprintf("contentmesh.run.%s.complete", runID)
}

const (
	TopicAll         = "contentmesh.run.>"
	TopicAllSteps    = "contentmesh.run.*.steps"
	TopicAllComplete = "contentmesh.run.*.complete"
)
