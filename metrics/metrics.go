// Package metrics exposes engine activity as Prometheus metrics.
//
// A Collector implements engine.Observer and can be passed to the engine
// via Options.Observers:
//
//	reg := prometheus.NewRegistry()
//	c := metrics.NewCollector(func(o *metrics.Options) { o.Registerer = reg })
//	eng := engine.New(func(o *engine.Options) { o.Observers = append(o.Observers, c) })
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/contentmesh/engine"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "contentmesh"

// Options configures a Collector.
type Options struct {
	Namespace string
	// Registerer receives the collectors. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Collector records step and run metrics.
type Collector struct {
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	messages     *prometheus.CounterVec
	forced       prometheus.Counter
	runs         *prometheus.CounterVec
	runSteps     prometheus.Histogram
	iterations   prometheus.Histogram
	runDuration  prometheus.Histogram
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a Collector and registers it. It panics if a metric
// with the same name is already registered.
func NewCollector(optFns ...func(o *Options)) *Collector {
	opts := Options{
		Namespace:  DefaultNamespace,
		Registerer: prometheus.DefaultRegisterer,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "steps_total",
			Help:      "Executed engine steps by stage.",
		}, []string{"stage"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of a single engine step by stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"stage"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "messages_total",
			Help:      "Messages appended to the log by kind.",
		}, []string{"kind"}),
		forced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "forced_transitions_total",
			Help:      "Transitions overridden by the step budget.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome.",
		}, []string{"outcome"}),
		runSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "run_steps",
			Help:      "Steps taken per run.",
			Buckets:   prometheus.LinearBuckets(2, 2, 10),
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "run_iterations",
			Help:      "Refinement iterations per run.",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	opts.Registerer.MustRegister(
		c.steps, c.stepDuration, c.messages, c.forced,
		c.runs, c.runSteps, c.iterations, c.runDuration,
	)

	return c
}

// OnStep implements engine.Observer.
func (c *Collector) OnStep(ev engine.StepEvent) {
	stage := ev.Stage.String()
	c.steps.WithLabelValues(stage).Inc()
	c.stepDuration.WithLabelValues(stage).Observe(ev.Duration.Seconds())

	for _, m := range ev.Messages {
		c.messages.WithLabelValues(m.Kind.String()).Inc()
	}

	if ev.Forced {
		c.forced.Inc()
	}
}

// OnRunComplete implements engine.Observer.
func (c *Collector) OnRunComplete(sum engine.RunSummary) {
	c.runs.WithLabelValues(outcome(sum)).Inc()
	c.runSteps.Observe(float64(sum.Steps))
	c.iterations.Observe(float64(sum.Iterations))
	c.runDuration.Observe(sum.Duration.Seconds())
}

func outcome(sum engine.RunSummary) string {
	switch {
	case sum.Err != nil:
		return "canceled"
	case len(sum.Missing) > 0:
		return "incomplete"
	default:
		return "complete"
	}
}
