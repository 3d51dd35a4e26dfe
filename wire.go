package contentmesh

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/config"
	"github.com/hupe1980/contentmesh/engine"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/metrics"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/model/anthropic"
	"github.com/hupe1980/contentmesh/model/openai"
	"github.com/hupe1980/contentmesh/natsbus"
	"github.com/hupe1980/contentmesh/output"
)

// NewLogger builds the structured logger described by cfg.
func NewLogger(cfg config.LogConfig) (*logging.ContentMeshLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    os.Stderr,
		AddSource: cfg.AddSource,
		Component: "contentmesh",
	}), nil
}

// NewGenerator builds the generator described by cfg. ProviderNone yields a
// nil generator.
func NewGenerator(cfg config.ModelConfig, logger logging.Logger) (model.Generator, error) {
	var gen model.Generator

	switch cfg.Provider {
	case config.ProviderAnthropic:
		gen = anthropic.NewGenerator(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Name)
			o.APIKey = cfg.APIKey
			o.Temperature = cfg.Temperature
			if cfg.BaseURL != "" {
				o.RequestOptions = append(o.RequestOptions, anthropicoption.WithBaseURL(cfg.BaseURL))
			}
		})
	case config.ProviderOpenAI:
		gen = openai.NewGenerator(func(o *openai.Options) {
			o.Model = cfg.Name
			o.APIKey = cfg.APIKey
			o.Temperature = cfg.Temperature
			if cfg.BaseURL != "" {
				o.RequestOptions = append(o.RequestOptions, openaioption.WithBaseURL(cfg.BaseURL))
			}
		})
	case config.ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}

	gen = model.WithLogging(gen, logger)
	if cfg.MaxCalls > 0 {
		gen = model.WithCallLimit(gen, cfg.MaxCalls)
	}

	return gen, nil
}

// NewFromConfig wires a ContentMesh from cfg: generator, quality thresholds,
// output sinks, the NATS event stream and the Prometheus collector. The
// returned instance must be closed. optFns run last and may override any of
// the wired options.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*ContentMesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	gen, err := NewGenerator(cfg.Model, logger.WithComponent("model"))
	if err != nil {
		return nil, err
	}

	var closers []func() error
	fail := func(err error) (*ContentMesh, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	var writers []output.Writer
	if cfg.Output.Dir != "" {
		writers = append(writers, &output.FileWriter{Dir: cfg.Output.Dir, PerRun: cfg.Output.PerRun})
	}
	if cfg.Output.Console {
		writers = append(writers, output.NewConsoleWriter(os.Stdout))
	}
	if cfg.Output.SQLitePath != "" {
		archive, err := output.NewSQLiteWriter(cfg.Output.SQLitePath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, archive.Close)
		writers = append(writers, archive)
	}

	observers := []engine.Observer{engine.NewLogObserver(logger)}

	var registry *prometheus.Registry
	if cfg.Metrics.Addr != "" {
		registry = prometheus.NewRegistry()
		observers = append(observers, metrics.NewCollector(func(o *metrics.Options) {
			o.Registerer = registry
		}))
	}

	if cfg.NATS.Enabled() {
		url := cfg.NATS.URL
		if cfg.NATS.Embedded {
			srv, err := natsbus.NewServer(cfg.NATS.Port)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, func() error { srv.Close(); return nil })
			url = srv.ClientURL()
			logger.Info("Started embedded NATS server", "url", url)
		}

		pub, err := natsbus.NewPublisher(url, func(o *natsbus.Options) {
			o.Logger = logger.WithComponent("natsbus")
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub.Close)
		observers = append(observers, pub)
	}

	q := cfg.Quality
	all := append([]func(o *Options){func(o *Options) {
		o.EngineConfig = engine.Config{
			MaxIterations:       cfg.Engine.MaxIterations,
			MaxConcurrentAgents: cfg.Engine.MaxConcurrentAgents,
		}
		o.Generator = gen
		o.AgentOptions = []func(o *agent.Options){func(o *agent.Options) {
			o.MinFAQItems = q.MinFAQItems
			o.MinBenefits = q.MinBenefits
			o.QuestionsPerCategory = q.QuestionsPerCategory
			o.MaxFAQItems = q.MaxFAQItems
		}}
		o.Writers = writers
		o.Observers = observers
		o.MaxConcurrentRuns = cfg.Engine.MaxConcurrentRuns
		o.Timeout = cfg.Model.Timeout
		o.Logger = logger
	}}, optFns...)

	m := New(all...)
	m.closers = closers
	m.registry = registry

	return m, nil
}

// Registry returns the Prometheus registry wired by NewFromConfig, or nil
// when metrics are disabled.
func (m *ContentMesh) Registry() *prometheus.Registry { return m.registry }
