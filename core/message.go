package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of message kinds.
type Kind int

const (
	// KindRequest asks another agent to perform work.
	KindRequest Kind = iota
	// KindResponse answers a previous request (see Message.ReplyTo).
	KindResponse
	// KindNotify announces completion or a skip.
	KindNotify
	// KindQuery asks for information without requesting work.
	KindQuery
	// KindProposal carries a proposed plan.
	KindProposal
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindNotify:
		return "notify"
	case KindQuery:
		return "query"
	case KindProposal:
		return "proposal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindRequest, KindResponse, KindNotify, KindQuery, KindProposal:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid message kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "request":
		*k = KindRequest
	case "response":
		*k = KindResponse
	case "notify":
		*k = KindNotify
	case "query":
		*k = KindQuery
	case "proposal":
		*k = KindProposal
	default:
		return fmt.Errorf("unknown message kind %q", string(b))
	}
	return nil
}

// Message content keys and status values used across agents.
const (
	KeyStatus = "status"
	KeyAgent  = "agent"
	KeyReason = "reason"
	KeyAction = "action"
	KeyTarget = "target"
	// KeyRequires names the state field a prerequisite Request asks for.
	KeyRequires = "requires"

	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	ReasonNotNeeded = "not_needed"
	ReasonFailed    = "failed"
)

// Message is an immutable fact appended to the state's message log. Messages
// are data, not transport: readers derive their inbox by filtering on To.
type Message struct {
	ID        string         `json:"id"`
	From      AgentID        `json:"from"`
	To        AgentID        `json:"to"`
	Kind      Kind           `json:"kind"`
	Content   map[string]any `json:"content,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ReplyTo   string         `json:"reply_to,omitempty"`
}

// NewMessage creates a message with a fresh ID and UTC timestamp.
func NewMessage(from, to AgentID, kind Kind, content map[string]any) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequest creates a Request message.
func NewRequest(from, to AgentID, content map[string]any) Message {
	return NewMessage(from, to, KindRequest, content)
}

// NewNotify creates a Notify message.
func NewNotify(from, to AgentID, content map[string]any) Message {
	return NewMessage(from, to, KindNotify, content)
}

// NewResponse creates a Response to req addressed back to its sender.
func NewResponse(from AgentID, req Message, content map[string]any) Message {
	m := NewMessage(from, req.From, KindResponse, content)
	m.ReplyTo = req.ID
	return m
}

// Str returns the string stored under key in the message content.
func (m Message) Str(key string) string {
	if m.Content == nil {
		return ""
	}
	s, _ := m.Content[key].(string)
	return s
}

// AddressedTo reports whether id receives the message.
func (m Message) AddressedTo(id AgentID) bool {
	return m.To == id || m.To == Broadcast
}

// IsCompletionOf reports whether m is the completion notify of agent id.
func (m Message) IsCompletionOf(id AgentID) bool {
	return m.Kind == KindNotify && m.From == id && m.Str(KeyStatus) == StatusCompleted
}
