package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/engine"
	"github.com/hupe1980/contentmesh/flow"
	ctestutil "github.com/hupe1980/contentmesh/internal/testutil"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector(func(o *Options) { o.Registerer = reg }), reg
}

func TestCollector_OnStep(t *testing.T) {
	c, _ := newTestCollector(t)

	c.OnStep(engine.StepEvent{
		Stage:    flow.Planning,
		Duration: 10 * time.Millisecond,
		Messages: []core.Message{
			core.NewMessage(core.Orchestrator, core.Broadcast, core.KindProposal, nil),
		},
	})
	c.OnStep(engine.StepEvent{
		Stage:  flow.Synthesizing,
		Forced: true,
		Messages: []core.Message{
			core.NewNotify(core.Synthesize, core.Broadcast, nil),
			core.NewNotify(core.Synthesize, core.Orchestrator, nil),
		},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.steps.WithLabelValues("planning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.steps.WithLabelValues("synthesizing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messages.WithLabelValues("proposal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.messages.WithLabelValues("notify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.forced))
}

func TestCollector_OnRunComplete(t *testing.T) {
	c, _ := newTestCollector(t)

	c.OnRunComplete(engine.RunSummary{Steps: 6})
	c.OnRunComplete(engine.RunSummary{Steps: 9, Iterations: 2, Missing: []string{"faq_page"}})
	c.OnRunComplete(engine.RunSummary{Err: context.Canceled})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("incomplete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("canceled")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.runs))
	assert.Equal(t, 1, testutil.CollectAndCount(c.runSteps))
}

func TestCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(func(o *Options) { o.Registerer = reg })

	assert.Panics(t, func() {
		NewCollector(func(o *Options) { o.Registerer = reg })
	})

	// a distinct namespace coexists
	assert.NotPanics(t, func() {
		NewCollector(func(o *Options) {
			o.Registerer = reg
			o.Namespace = "other"
		})
	})
}

func TestCollector_WithEngine(t *testing.T) {
	c, reg := newTestCollector(t)

	eng := engine.New(func(o *engine.Options) {
		o.Generator = ctestutil.ContentGenerator()
		o.Observers = []engine.Observer{c}
	})

	res, err := eng.Run(context.Background(), content.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.steps.WithLabelValues("quality_check")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("complete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.forced))

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != "contentmesh_steps_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(res.Steps), total)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "complete", outcome(engine.RunSummary{}))
	assert.Equal(t, "incomplete", outcome(engine.RunSummary{Missing: []string{"x"}}))
	assert.Equal(t, "canceled", outcome(engine.RunSummary{Err: errors.New("boom"), Missing: []string{"x"}}))
}
