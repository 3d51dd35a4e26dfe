package core

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/content"
)

func TestMergeReplaceFields(t *testing.T) {
	p1 := &content.Product{Name: "a"}
	p2 := &content.Product{Name: "b"}

	cur := State{Product: p1, IterationCount: Int(0), NeedsRefinement: Bool(true)}
	next := Merge(cur, State{Product: p2, NeedsRefinement: Bool(false)})

	assert.Equal(t, "b", next.Product.Name)
	assert.False(t, next.Refining())
	assert.Equal(t, 0, next.Iteration())
	// current untouched
	assert.Equal(t, "a", cur.Product.Name)
	assert.True(t, cur.Refining())
}

func TestMergeUnsetLeavesCurrent(t *testing.T) {
	q := content.QuestionSet{"usage": {"how?"}}
	cur := State{Questions: &q, CompletedTasks: []string{TaskGenerateQuestions}}
	next := Merge(cur, State{})
	assert.Equal(t, cur, next)
}

func TestMergeAccumulateAppends(t *testing.T) {
	m1 := NewNotify(Parse, Broadcast, nil)
	m2 := NewNotify(QuestionGeneration, Broadcast, nil)

	cur := State{Messages: []Message{m1}, CompletedTasks: []string{"a"}}
	next := Merge(cur, State{Messages: []Message{m2}, CompletedTasks: []string{"b"}})

	require.Len(t, next.Messages, 2)
	assert.Equal(t, m1.ID, next.Messages[0].ID)
	assert.Equal(t, m2.ID, next.Messages[1].ID)
	assert.Equal(t, []string{"a", "b"}, next.CompletedTasks)
	assert.Len(t, cur.Messages, 1)
}

func TestMergeNoAliasingBetweenSiblings(t *testing.T) {
	base := State{CompletedTasks: make([]string, 1, 8)}
	base.CompletedTasks[0] = "root"

	left := Merge(base, State{CompletedTasks: []string{"left"}})
	right := Merge(base, State{CompletedTasks: []string{"right"}})

	assert.Equal(t, []string{"root", "left"}, left.CompletedTasks)
	assert.Equal(t, []string{"root", "right"}, right.CompletedTasks)
}

func TestMergeAllPreservesMultisetUnderAnyOrder(t *testing.T) {
	partials := []State{
		{Messages: []Message{NewNotify(Parse, Broadcast, nil)}, CompletedTasks: []string{TaskParseProduct}},
		{Messages: []Message{NewNotify(QuestionGeneration, Broadcast, nil), NewNotify(QuestionGeneration, Orchestrator, nil)}},
		{Messages: []Message{NewNotify(PageGeneration, Broadcast, nil)}, CompletedTasks: []string{TaskGeneratePages}},
	}

	ids := func(s State) []string {
		out := make([]string, 0, len(s.Messages))
		for _, m := range s.Messages {
			out = append(out, m.ID)
		}
		return out
	}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}}
	var reference []string
	for i, order := range orders {
		ps := make([]State, 0, len(order))
		for _, idx := range order {
			ps = append(ps, partials[idx])
		}
		got := ids(MergeAll(State{}, ps...))
		require.Len(t, got, 4)
		sort.Strings(got)
		if i == 0 {
			reference = got
			continue
		}
		assert.Equal(t, reference, got, "order %v", order)
	}

	// ordering of the canonical application is exactly the concatenation
	canonical := MergeAll(State{}, partials...)
	assert.Equal(t, partials[0].Messages[0].ID, canonical.Messages[0].ID)
	assert.Equal(t, partials[2].Messages[0].ID, canonical.Messages[3].ID)
	assert.Equal(t, []string{TaskParseProduct, TaskGeneratePages}, canonical.CompletedTasks)
}

func TestMergeAssociative(t *testing.T) {
	a := State{Messages: []Message{NewNotify(Parse, Broadcast, nil)}, IterationCount: Int(0)}
	b := State{Messages: []Message{NewNotify(QualityCheck, Broadcast, nil)}, IterationCount: Int(1)}
	c := State{Messages: []Message{NewNotify(Synthesize, Broadcast, nil)}, NeedsRefinement: Bool(true)}

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	assert.Equal(t, left.Messages, right.Messages)
	assert.Equal(t, left.Iteration(), right.Iteration())
	assert.Equal(t, left.Refining(), right.Refining())
}

func TestView(t *testing.T) {
	p := &content.Product{Name: "x"}
	s := State{
		Input:          content.Record{"Product Name": "x"},
		Product:        p,
		IterationCount: Int(1),
		Messages:       []Message{NewNotify(Parse, Broadcast, nil)},
		CompletedTasks: []string{TaskParseProduct},
	}

	v := s.View(FieldProduct)
	assert.Nil(t, v.Input)
	assert.Same(t, p, v.Product)
	assert.Equal(t, 1, v.Iteration())
	assert.Len(t, v.Messages, 1)
	assert.Nil(t, v.CompletedTasks)

	full := s.View(AllFields)
	assert.Equal(t, s, full)
}

func TestAccessors(t *testing.T) {
	var s State
	assert.Equal(t, 0, s.Iteration())
	assert.False(t, s.Refining())
	assert.False(t, s.HasAllPages())
	assert.Nil(t, s.Missing())
	assert.True(t, s.IsEmpty())

	s = State{
		FAQPage:           &content.FAQPage{},
		ProductPage:       &content.ProductPage{},
		ComparisonPage:    &content.ComparisonPage{},
		CompletedTasks:    []string{TaskGeneratePages, TaskQualityCheck, TaskGeneratePages},
		MissingComponents: Strings("questions"),
	}
	assert.True(t, s.HasAllPages())
	assert.True(t, s.Completed(TaskQualityCheck))
	assert.False(t, s.Completed(TaskSynthesize))
	assert.Equal(t, 2, s.LastCompletedIndex(TaskGeneratePages))
	assert.Equal(t, 1, s.LastCompletedIndex(TaskQualityCheck))
	assert.Equal(t, -1, s.LastCompletedIndex(TaskSynthesize))
	assert.Equal(t, []string{"questions"}, s.Missing())
	assert.False(t, s.IsEmpty())
}

func TestNewState(t *testing.T) {
	s := NewState(content.Record{"k": "v"})
	assert.Equal(t, 0, s.Iteration())
	require.NotNil(t, s.IterationCount)
	assert.Nil(t, s.Product)
	assert.Empty(t, s.Messages)
}

func TestPlanHelpers(t *testing.T) {
	var nilPlan *Plan
	assert.True(t, nilPlan.Empty())
	assert.False(t, nilPlan.Contains(Parse))

	p := &Plan{Tasks: []Task{
		{Agent: PageGeneration, Priority: 3},
		{Agent: Parse, Priority: 1},
		{Agent: QuestionGeneration, Priority: 1},
	}}
	assert.False(t, p.Empty())
	assert.True(t, p.Contains(Parse))
	task, ok := p.TaskFor(PageGeneration)
	require.True(t, ok)
	assert.Equal(t, 3, task.Priority)

	sorted := SortByPriority(p.Tasks)
	assert.Equal(t, []AgentID{Parse, QuestionGeneration, PageGeneration},
		[]AgentID{sorted[0].Agent, sorted[1].Agent, sorted[2].Agent})
	assert.Equal(t, PageGeneration, p.Tasks[0].Agent)
}

func TestFieldSet(t *testing.T) {
	assert.True(t, AllFields.Has(Pages))
	assert.True(t, Pages.Has(FieldFAQPage))
	assert.False(t, FieldProduct.Has(FieldInput))
}

func TestDescriptorCanHandle(t *testing.T) {
	d := Descriptor{ID: Parse, Capabilities: []string{"parse_product"}}
	assert.True(t, d.CanHandle("parse_product"))
	assert.False(t, d.CanHandle("faq"))
}
