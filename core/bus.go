package core

// MessagesFor returns the messages addressed to id directly or via
// broadcast, in log order.
func MessagesFor(s State, id AgentID) []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.AddressedTo(id) {
			out = append(out, m)
		}
	}
	return out
}

// FilterKind returns the messages of the given kind preserving order.
func FilterKind(msgs []Message, kind Kind) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// LatestFrom returns the most recent message sent by id.
func LatestFrom(s State, id AgentID) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].From == id {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// OutstandingRequests returns the Requests addressed to id (directly, not via
// broadcast) that arrived after id last reported completion. A prerequisite
// Request whose required field is already set counts as answered, even when
// it was merged after the completion notify of the same step. The log itself
// only guarantees at-least-once delivery; this view lets an agent act on each
// request once.
func OutstandingRequests(s State, id AgentID) []Message {
	start := 0
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].IsCompletionOf(id) {
			start = i + 1
			break
		}
	}
	var out []Message
	for _, m := range s.Messages[start:] {
		if m.Kind != KindRequest || m.To != id {
			continue
		}
		if req := m.Str(KeyRequires); req != "" && s.Satisfies(req) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// HasOutstandingRequest reports whether any outstanding request for id
// matches pred. A nil pred matches every request.
func HasOutstandingRequest(s State, id AgentID, pred func(Message) bool) bool {
	for _, m := range OutstandingRequests(s, id) {
		if pred == nil || pred(m) {
			return true
		}
	}
	return false
}
