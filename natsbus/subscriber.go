package natsbus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/contentmesh/core"
)

// Handlers receives decoded run events. Nil fields are skipped.
type Handlers struct {
	Message  func(runID string, m core.Message)
	Step     func(rec StepRecord)
	Complete func(rec RunRecord)
	// Error receives payloads that failed to decode.
	Error func(subject string, err error)
}

// Subscribe listens on subject (TopicAll by default) and dispatches decoded
// events to h.
func Subscribe(conn *nats.Conn, subject string, h Handlers) (*nats.Subscription, error) {
	if subject == "" {
		subject = TopicAll
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := h.dispatch(msg); err != nil && h.Error != nil {
			h.Error(msg.Subject, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	return sub, nil
}

func (h Handlers) dispatch(msg *nats.Msg) error {
	runID, kind, ok := parseSubject(msg.Subject)
	if !ok {
		return fmt.Errorf("unexpected subject %q", msg.Subject)
	}

	switch kind {
	case "messages":
		if h.Message == nil {
			return nil
		}
		var m core.Message
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		h.Message(runID, m)
	case "steps":
		if h.Step == nil {
			return nil
		}
		var rec StepRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			return fmt.Errorf("decode step: %w", err)
		}
		h.Step(rec)
	case "complete":
		if h.Complete == nil {
			return nil
		}
		var rec RunRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			return fmt.Errorf("decode run: %w", err)
		}
		h.Complete(rec)
	}

	return nil
}

// parseSubject splits contentmesh.run.<id>.<kind>.
func parseSubject(subject string) (runID, kind string, ok bool) {
	rest, ok := strings.CutPrefix(subject, "contentmesh.run.")
	if !ok {
		return "", "", false
	}

	i := strings.LastIndexByte(rest, '.')
	if i <= 0 {
		return "", "", false
	}

	return rest[:i], rest[i+1:], true
}
