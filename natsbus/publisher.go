// Package natsbus mirrors engine activity onto NATS subjects so external
// consumers can follow a run while it executes.
package natsbus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/engine"
	"github.com/hupe1980/contentmesh/flow"
	"github.com/hupe1980/contentmesh/logging"
)

// StepRecord is the wire form of an engine.StepEvent.
type StepRecord struct {
	RunID      string         `json:"run_id"`
	Step       int            `json:"step"`
	Stage      flow.Stage     `json:"stage"`
	Next       flow.Stage     `json:"next"`
	Agents     []core.AgentID `json:"agents"`
	Messages   int            `json:"messages"`
	Iteration  int            `json:"iteration"`
	Forced     bool           `json:"forced,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// RunRecord is the wire form of an engine.RunSummary.
type RunRecord struct {
	RunID      string       `json:"run_id"`
	Steps      int          `json:"steps"`
	Iterations int          `json:"iterations"`
	Trace      []flow.Stage `json:"trace"`
	Missing    []string     `json:"missing,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
}

// Options configures a Publisher.
type Options struct {
	Logger logging.Logger
}

// Publisher is an engine.Observer publishing every appended message, every
// step and the run summary as JSON.
type Publisher struct {
	conn   *nats.Conn
	owned  bool
	logger logging.Logger
}

var _ engine.Observer = (*Publisher)(nil)

// NewPublisher connects to url and returns a Publisher owning the connection.
func NewPublisher(url string, optFns ...func(o *Options)) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("contentmesh"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	p := NewPublisherFromConn(conn, optFns...)
	p.owned = true

	return p, nil
}

// NewPublisherFromConn creates a Publisher on an existing connection. Close
// leaves a borrowed connection open.
func NewPublisherFromConn(conn *nats.Conn, optFns ...func(o *Options)) *Publisher {
	opts := Options{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Publisher{conn: conn, logger: opts.Logger}
}

// OnStep implements engine.Observer.
func (p *Publisher) OnStep(ev engine.StepEvent) {
	for _, m := range ev.Messages {
		p.publish(TopicMessages(ev.RunID), m)
	}

	p.publish(TopicSteps(ev.RunID), StepRecord{
		RunID:      ev.RunID,
		Step:       ev.Step,
		Stage:      ev.Stage,
		Next:       ev.Next,
		Agents:     ev.Agents,
		Messages:   len(ev.Messages),
		Iteration:  ev.Iteration,
		Forced:     ev.Forced,
		DurationMS: ev.Duration.Milliseconds(),
	})
}

// OnRunComplete implements engine.Observer. The connection is flushed so
// the summary is on the wire when Run returns.
func (p *Publisher) OnRunComplete(sum engine.RunSummary) {
	rec := RunRecord{
		RunID:      sum.RunID,
		Steps:      sum.Steps,
		Iterations: sum.Iterations,
		Trace:      sum.Trace,
		Missing:    sum.Missing,
		DurationMS: sum.Duration.Milliseconds(),
	}
	if sum.Err != nil {
		rec.Error = sum.Err.Error()
	}

	p.publish(TopicComplete(sum.RunID), rec)

	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("Failed to flush nats connection", "run", sum.RunID, "error", err)
	}
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn("Failed to encode event", "subject", subject, "error", err)
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

// Close drains and closes the connection if the Publisher owns it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}
