package model

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNoScript is returned by ScriptedGenerator when no rule matches a call.
var ErrNoScript = errors.New("no scripted response")

type rule struct {
	match   string
	replies []string
	err     error
	next    int
}

// Call records a single invocation of a ScriptedGenerator.
type Call struct {
	System    string
	Prompt    string
	MaxTokens int
}

// ScriptedGenerator is a deterministic in-memory Generator for tests and
// examples. Rules match on a substring of the system instruction or the
// prompt; the first matching rule answers. A rule with several replies
// returns them in turn and then keeps repeating the last one. Calls with no
// matching rule fail with a ServiceError wrapping ErrNoScript, which drives
// callers onto their fallback path.
type ScriptedGenerator struct {
	mu    sync.Mutex
	rules []*rule
	calls []Call
}

// NewScriptedGenerator constructs an empty ScriptedGenerator.
func NewScriptedGenerator() *ScriptedGenerator {
	return &ScriptedGenerator{}
}

// On registers replies for calls whose system or prompt contains match.
func (s *ScriptedGenerator) On(match string, replies ...string) *ScriptedGenerator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &rule{match: match, replies: replies})
	return s
}

// Fail registers an error for calls whose system or prompt contains match.
func (s *ScriptedGenerator) Fail(match string, err error) *ScriptedGenerator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &rule{match: match, err: err})
	return s
}

// Generate implements Generator.
func (s *ScriptedGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewServiceError("mock", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{System: system, Prompt: prompt, MaxTokens: maxTokens})

	for _, r := range s.rules {
		if !strings.Contains(system, r.match) && !strings.Contains(prompt, r.match) {
			continue
		}
		if r.err != nil {
			return "", NewServiceError("mock", r.err)
		}
		if len(r.replies) == 0 {
			return "", nil
		}
		idx := r.next
		if idx >= len(r.replies) {
			idx = len(r.replies) - 1
		} else {
			r.next++
		}
		return r.replies[idx], nil
	}

	return "", NewServiceError("mock", ErrNoScript)
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedGenerator) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsMatching counts recorded calls whose system or prompt contains match.
func (s *ScriptedGenerator) CallsMatching(match string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.Contains(c.System, match) || strings.Contains(c.Prompt, match) {
			n++
		}
	}
	return n
}

// Info implements Describer.
func (s *ScriptedGenerator) Info() Info { return Info{Name: "scripted", Provider: "mock"} }
