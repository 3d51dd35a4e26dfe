package core

import "sort"

// Task is one planned invocation of a named agent.
type Task struct {
	Agent     AgentID   `json:"agent"`
	Priority  int       `json:"priority"`
	Reason    string    `json:"reason"`
	DependsOn []AgentID `json:"depends_on,omitempty"`
}

// Plan is the ordered task list produced by the planner for the current
// state. It is replaced, never accumulated, on every planning cycle.
type Plan struct {
	Reasoning string `json:"reasoning"`
	Tasks     []Task `json:"tasks"`
	// Fallback marks plans produced by the deterministic rule set.
	Fallback bool `json:"fallback,omitempty"`
}

// Empty reports whether the plan has no tasks.
func (p *Plan) Empty() bool { return p == nil || len(p.Tasks) == 0 }

// Contains reports whether a task for id is queued.
func (p *Plan) Contains(id AgentID) bool {
	if p == nil {
		return false
	}
	for _, t := range p.Tasks {
		if t.Agent == id {
			return true
		}
	}
	return false
}

// TaskFor returns the first queued task for id.
func (p *Plan) TaskFor(id AgentID) (Task, bool) {
	if p == nil {
		return Task{}, false
	}
	for _, t := range p.Tasks {
		if t.Agent == id {
			return t, true
		}
	}
	return Task{}, false
}

// SortByPriority returns the tasks ordered by ascending priority with ties
// kept in submission order. The input is not modified.
func SortByPriority(tasks []Task) []Task {
	out := append([]Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}
