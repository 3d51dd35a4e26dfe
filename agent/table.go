package agent

import (
	"sort"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/model"
)

// Table is the live agent table mapping identifiers to variants.
type Table map[core.AgentID]core.Agent

// NewTable builds a table from agents keyed by their descriptor ID.
func NewTable(agents ...core.Agent) Table {
	t := make(Table, len(agents))
	for _, a := range agents {
		t[a.Descriptor().ID] = a
	}
	return t
}

// DefaultTable builds the five standard variants sharing gen.
func DefaultTable(gen model.Generator, optFns ...func(o *Options)) Table {
	return NewTable(
		NewParse(optFns...),
		NewQuestionGen(gen, optFns...),
		NewPageGen(gen, optFns...),
		NewQualityCheck(optFns...),
		NewSynthesize(optFns...),
	)
}

// Get returns the agent registered under id.
func (t Table) Get(id core.AgentID) (core.Agent, bool) {
	a, ok := t[id]
	return a, ok
}

// IDs returns the registered identifiers in sorted order.
func (t Table) IDs() []core.AgentID {
	ids := make([]core.AgentID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Descriptors returns the descriptors of all registered agents in ID order.
func (t Table) Descriptors() []core.Descriptor {
	out := make([]core.Descriptor, 0, len(t))
	for _, id := range t.IDs() {
		out = append(out, t[id].Descriptor())
	}
	return out
}
