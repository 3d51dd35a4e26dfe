package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/internal/prompt"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
)

// DefaultMaxTokens is the generation budget of a planning call.
const DefaultMaxTokens = 1000

// Priorities assigned by the fallback rules.
const (
	PriorityParse     = 1
	PriorityQuestions = 2
	PriorityPages     = 3
)

// recentMessages is the number of trailing log entries included in the digest.
const recentMessages = 3

const systemPrompt = `You are the planning orchestrator of a multi-agent content generation system.

Your job is to analyze the current state and decide which agents need to run and in what order.

Rules for planning:
- Only include agents whose work is not yet complete
- Respect dependencies (questions must exist before the FAQ page can be generated)
- If the iteration counter is above zero or refinement is requested, re-run only the agents that can fix it
- Be efficient and never schedule an agent twice
- Lower priority numbers run first

Return ONLY raw JSON of the form:
{
  "reasoning": "your analysis of what needs to be done and why",
  "tasks": [
    {"agent": "agent-id", "priority": 1, "reason": "why this agent is needed", "depends_on": ["agent-id"]}
  ]
}`

var userPrompt = prompt.Must("plan", `Analyze this state and create an execution plan:

Current State Summary:
{{.Summary}}

Available Agents:
{{range .Agents}}- {{.ID}}: {{.Description}} (capabilities: {{join ", " .Capabilities}})
{{end}}
What agents should run and in what order? Consider:
1. What data is missing?
2. What dependencies exist between agents?
3. Is this a new run or a refinement iteration?
4. What is the most efficient plan?

Return your plan as JSON.`)

// Options configures a Planner.
type Options struct {
	Logger    logging.Logger
	MaxTokens int
}

// Planner produces a Plan for the current state. It asks the generator
// first and falls back to a deterministic rule set whenever generation or
// parsing fails, so Plan never returns an error.
type Planner struct {
	gen       model.Generator
	agents    []core.Descriptor
	logger    logging.Logger
	maxTokens int
}

// New creates a Planner. agents are the descriptors listed to the generator;
// gen may be nil, in which case every plan is a fallback plan.
func New(gen model.Generator, agents []core.Descriptor, optFns ...func(o *Options)) *Planner {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		MaxTokens: DefaultMaxTokens,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	return &Planner{
		gen:       gen,
		agents:    agents,
		logger:    opts.Logger,
		maxTokens: opts.MaxTokens,
	}
}

type taskReply struct {
	Agent     string   `json:"agent"`
	Priority  int      `json:"priority"`
	Reason    string   `json:"reason"`
	DependsOn []string `json:"depends_on"`
}

type planReply struct {
	Reasoning string      `json:"reasoning"`
	Tasks     []taskReply `json:"tasks"`
}

// Plan returns the plan for s.
func (p *Planner) Plan(ctx context.Context, s core.State) core.Plan {
	if p.gen == nil {
		return Fallback(s)
	}

	plan, err := p.generate(ctx, s)
	if err != nil {
		p.logger.Warn("Planner reasoning failed, using fallback plan", "error", err)
		return Fallback(s)
	}

	p.logger.Info("Planner produced plan", "tasks", len(plan.Tasks), "reasoning", plan.Reasoning)

	return plan
}

func (p *Planner) generate(ctx context.Context, s core.State) (core.Plan, error) {
	up, err := userPrompt.Execute(map[string]any{
		"Summary": Summarize(s),
		"Agents":  p.agents,
	})
	if err != nil {
		return core.Plan{}, err
	}

	text, err := p.gen.Generate(ctx, systemPrompt, up, p.maxTokens)
	if err != nil {
		return core.Plan{}, err
	}

	var reply planReply
	if err := model.DecodeJSON(text, &reply); err != nil {
		return core.Plan{}, err
	}

	plan := core.Plan{Reasoning: reply.Reasoning, Tasks: make([]core.Task, 0, len(reply.Tasks))}
	for i, t := range reply.Tasks {
		agent := strings.TrimSpace(t.Agent)
		if agent == "" {
			return core.Plan{}, fmt.Errorf("%w: task %d has no agent", model.ErrMalformedResponse, i)
		}
		task := core.Task{
			Agent:    core.AgentID(agent),
			Priority: t.Priority,
			Reason:   t.Reason,
		}
		for _, d := range t.DependsOn {
			task.DependsOn = append(task.DependsOn, core.AgentID(d))
		}
		plan.Tasks = append(plan.Tasks, task)
	}

	return plan, nil
}

// Node runs the planning step: the plan replaces the previous one and a
// Proposal is broadcast with the reasoning and task count.
func (p *Planner) Node(ctx context.Context, s core.State) core.State {
	plan := p.Plan(ctx, s)

	return core.State{
		Plan: &plan,
		Messages: []core.Message{core.NewMessage(core.Orchestrator, core.Broadcast, core.KindProposal, map[string]any{
			core.KeyStatus: "plan_created",
			"task_count":   len(plan.Tasks),
			"reasoning":    plan.Reasoning,
			"fallback":     plan.Fallback,
		})},
	}
}

// Summarize renders the state digest handed to the generator: iteration,
// refinement flag, present and missing artifacts, completed tasks and the
// last few messages.
func Summarize(s core.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Iteration: %d\n", s.Iteration())

	if s.Refining() {
		b.WriteString("Status: Content needs refinement\n")
	}

	var present, missing []string
	for _, a := range []struct {
		name string
		ok   bool
	}{
		{"product", s.Product != nil},
		{"questions", s.Questions != nil},
		{"faq_page", s.FAQPage != nil},
		{"product_page", s.ProductPage != nil},
		{"comparison_page", s.ComparisonPage != nil},
	} {
		if a.ok {
			present = append(present, a.name)
		} else {
			missing = append(missing, a.name)
		}
	}

	if len(present) > 0 {
		fmt.Fprintf(&b, "Available artifacts: %s\n", strings.Join(present, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Missing artifacts: %s\n", strings.Join(missing, ", "))
	}

	if len(s.CompletedTasks) > 0 {
		fmt.Fprintf(&b, "Completed tasks: %s\n", strings.Join(s.CompletedTasks, ", "))
	}

	if n := len(s.Messages); n > 0 {
		recent := s.Messages
		if n > recentMessages {
			recent = recent[n-recentMessages:]
		}
		fmt.Fprintf(&b, "Recent messages: %d\n", len(recent))
		for _, m := range recent {
			fmt.Fprintf(&b, "  - %s -> %s: %s", m.From, m.To, m.Kind)
			if st := m.Str(core.KeyStatus); st != "" {
				fmt.Fprintf(&b, " (%s)", st)
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// Fallback derives a plan from which artifacts are absent. It is total:
// every state yields a valid, possibly empty, plan.
func Fallback(s core.State) core.Plan {
	plan := core.Plan{
		Reasoning: "Fallback plan: executing standard content generation pipeline",
		Fallback:  true,
	}

	if s.Product == nil {
		plan.Tasks = append(plan.Tasks, core.Task{
			Agent:    core.Parse,
			Priority: PriorityParse,
			Reason:   "Product data needs to be parsed",
		})
	}

	if s.Questions == nil {
		t := core.Task{
			Agent:    core.QuestionGeneration,
			Priority: PriorityQuestions,
			Reason:   "Questions need to be generated",
		}
		if plan.Contains(core.Parse) {
			t.DependsOn = []core.AgentID{core.Parse}
		}
		plan.Tasks = append(plan.Tasks, t)
	}

	if !s.HasAllPages() {
		t := core.Task{
			Agent:    core.PageGeneration,
			Priority: PriorityPages,
			Reason:   "Pages need to be generated",
		}
		if plan.Contains(core.QuestionGeneration) {
			t.DependsOn = []core.AgentID{core.QuestionGeneration}
		}
		plan.Tasks = append(plan.Tasks, t)
	}

	// producers with unanswered requests are queued too; this is what drives
	// refinement cycles once every artifact exists
	for _, pr := range []struct {
		id       core.AgentID
		priority int
	}{
		{core.Parse, PriorityParse},
		{core.QuestionGeneration, PriorityQuestions},
		{core.PageGeneration, PriorityPages},
	} {
		if plan.Contains(pr.id) {
			continue
		}
		if reqs := core.OutstandingRequests(s, pr.id); len(reqs) > 0 {
			plan.Tasks = append(plan.Tasks, core.Task{
				Agent:    pr.id,
				Priority: pr.priority,
				Reason:   fmt.Sprintf("%d outstanding request(s): %s", len(reqs), reqs[len(reqs)-1].Str(core.KeyReason)),
			})
		}
	}

	return plan
}
