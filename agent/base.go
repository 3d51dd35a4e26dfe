package agent

import (
	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/tool"
)

// Defaults used when Options leave a field zero.
const (
	DefaultMaxIterations        = 2
	DefaultMinFAQItems          = 4
	DefaultMinBenefits          = 2
	DefaultQuestionsPerCategory = 2
	DefaultMaxFAQItems          = 8
)

// Options configures the agent variants.
type Options struct {
	Logger logging.Logger
	// MaxIterations bounds the refinement cycles requested by quality check
	// and synthesis.
	MaxIterations int
	// MinFAQItems and MinBenefits are the quality thresholds.
	MinFAQItems int
	MinBenefits int
	// QuestionsPerCategory and MaxFAQItems select the questions answered on
	// the FAQ page.
	QuestionsPerCategory int
	MaxFAQItems          int
	// Competitor is the product the comparison page is built against.
	Competitor content.Product
}

func newOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Logger:               logging.NoOpLogger{},
		MaxIterations:        DefaultMaxIterations,
		MinFAQItems:          DefaultMinFAQItems,
		MinBenefits:          DefaultMinBenefits,
		QuestionsPerCategory: DefaultQuestionsPerCategory,
		MaxFAQItems:          DefaultMaxFAQItems,
		Competitor:           tool.Competitor,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.MaxIterations < 0 {
		opts.MaxIterations = 0
	}

	return opts
}

// canRefine reports whether a pass at iteration may request another cycle.
// The last pass under the bound approves, so every requested cycle is one
// the router runs.
func canRefine(iteration, maxIterations int) bool {
	return iteration < maxIterations-1
}

// BaseAgent bundles the static descriptor and message helpers shared by
// every variant. Embed it and supply ShouldActivate and Execute to satisfy
// core.Agent.
type BaseAgent struct {
	desc   core.Descriptor
	logger logging.Logger
}

// NewBaseAgent constructs a BaseAgent.
func NewBaseAgent(desc core.Descriptor, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{desc: desc, logger: logger}
}

// Descriptor returns the static agent descriptor.
func (b *BaseAgent) Descriptor() core.Descriptor { return b.desc }

// ID returns the agent identifier.
func (b *BaseAgent) ID() core.AgentID { return b.desc.ID }

// Request builds a partial state carrying a single Request to another agent.
// Used when a prerequisite is missing; requires names the state field the
// request asks for, so it counts as answered once that field is set.
func (b *BaseAgent) Request(to core.AgentID, action, requires, reason string) core.State {
	b.logger.Info("Requesting prerequisite", "agent", b.desc.ID, "to", to, "action", action, "reason", reason)
	return core.State{Messages: []core.Message{
		core.NewRequest(b.desc.ID, to, map[string]any{
			core.KeyAction:   action,
			core.KeyRequires: requires,
			core.KeyReason:   reason,
		}),
	}}
}

// Notify builds a broadcast Notify with the given status and extra content.
func (b *BaseAgent) Notify(status string, extra map[string]any) core.Message {
	c := map[string]any{core.KeyStatus: status}
	for k, v := range extra {
		c[k] = v
	}
	return core.NewNotify(b.desc.ID, core.Broadcast, c)
}

// OutstandingWith reports whether an outstanding request addressed to this
// agent has the given action or target.
func (b *BaseAgent) OutstandingWith(s core.State, action, target string) bool {
	return core.HasOutstandingRequest(s, b.desc.ID, func(m core.Message) bool {
		return (action != "" && m.Str(core.KeyAction) == action) ||
			(target != "" && m.Str(core.KeyTarget) == target)
	})
}
