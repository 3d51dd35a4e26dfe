package testutil

import (
	"time"

	"github.com/hupe1980/contentmesh/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	m := NewMessageBuilder().From(core.QualityCheck).To(core.PageGeneration).Request().Action("refine").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	msg core.Message
}

// NewMessageBuilder creates a builder for a broadcast Notify from the orchestrator.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{msg: core.NewMessage(core.Orchestrator, core.Broadcast, core.KindNotify, map[string]any{})}
}

// From sets the sender (chainable).
func (b *MessageBuilder) From(id core.AgentID) *MessageBuilder { b.msg.From = id; return b }

// To sets the recipient (chainable).
func (b *MessageBuilder) To(id core.AgentID) *MessageBuilder { b.msg.To = id; return b }

// Kind sets the message kind (chainable).
func (b *MessageBuilder) Kind(k core.Kind) *MessageBuilder { b.msg.Kind = k; return b }

// Request marks the message as a Request (chainable).
func (b *MessageBuilder) Request() *MessageBuilder { return b.Kind(core.KindRequest) }

// Set stores a content key (chainable).
func (b *MessageBuilder) Set(key string, val any) *MessageBuilder {
	b.msg.Content[key] = val
	return b
}

// Action sets the action content key (chainable).
func (b *MessageBuilder) Action(a string) *MessageBuilder { return b.Set(core.KeyAction, a) }

// Target sets the target content key (chainable).
func (b *MessageBuilder) Target(t string) *MessageBuilder { return b.Set(core.KeyTarget, t) }

// Completed turns the message into the completion notify of id (chainable).
func (b *MessageBuilder) Completed(id core.AgentID) *MessageBuilder {
	b.msg.From = id
	b.msg.To = core.Broadcast
	b.msg.Kind = core.KindNotify
	return b.Set(core.KeyStatus, core.StatusCompleted).Set(core.KeyAgent, string(id))
}

// ID overrides the generated message ID (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.msg.ID = id; return b }

// At overrides the timestamp (chainable).
func (b *MessageBuilder) At(ts time.Time) *MessageBuilder { b.msg.Timestamp = ts; return b }

// Build returns the constructed message.
func (b *MessageBuilder) Build() core.Message { return b.msg }
