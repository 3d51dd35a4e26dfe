package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCallLimitExceeded is wrapped by the ServiceError a limited generator
// returns once its budget is used up.
var ErrCallLimitExceeded = errors.New("generation call limit exceeded")

// CallLimiter is a budget of generation calls shared by every generator
// wrapped with it. A budget of zero is unlimited. Safe for concurrent use.
type CallLimiter struct {
	mu       sync.Mutex
	budget   int
	used     int
	rejected int
}

// NewCallLimiter creates a limiter allowing budget calls.
func NewCallLimiter(budget int) *CallLimiter {
	if budget < 0 {
		budget = 0
	}
	return &CallLimiter{budget: budget}
}

// Acquire reserves one call. Rejected calls do not consume budget; the
// returned error wraps ErrCallLimitExceeded and reports how many calls were
// turned away so far.
func (l *CallLimiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.budget > 0 && l.used >= l.budget {
		l.rejected++
		return fmt.Errorf("%w: %d of %d calls used, %d rejected", ErrCallLimitExceeded, l.used, l.budget, l.rejected)
	}
	l.used++

	return nil
}

// Used returns the calls that passed the limiter.
func (l *CallLimiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

// Rejected returns the calls turned away.
func (l *CallLimiter) Rejected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rejected
}

// Remaining returns the calls left, or -1 when unlimited.
func (l *CallLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.budget == 0 {
		return -1
	}
	return l.budget - l.used
}

type limitedGenerator struct {
	next    Generator
	limiter *CallLimiter
}

// WithCallLimit wraps g so that calls beyond budget fail with a ServiceError
// without reaching the provider. Callers then take their fallback path.
func WithCallLimit(g Generator, budget int) Generator {
	return WithLimiter(g, NewCallLimiter(budget))
}

// WithLimiter wraps g with a shared limiter.
func WithLimiter(g Generator, limiter *CallLimiter) Generator {
	return &limitedGenerator{next: g, limiter: limiter}
}

func (l *limitedGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if err := l.limiter.Acquire(); err != nil {
		return "", NewServiceError(InfoOf(l.next).Provider, err)
	}
	return l.next.Generate(ctx, system, prompt, maxTokens)
}

func (l *limitedGenerator) Info() Info { return InfoOf(l.next) }
