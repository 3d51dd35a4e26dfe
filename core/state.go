package core

import (
	"github.com/hupe1980/contentmesh/content"
)

// Field names a State field for view narrowing.
type Field uint16

// State fields that can be selected into an agent view.
const (
	FieldInput Field = 1 << iota
	FieldProduct
	FieldQuestions
	FieldFAQPage
	FieldProductPage
	FieldComparisonPage
	FieldPlan
	FieldRefinement
	FieldMissing
	FieldFinalPages
	FieldCompletedTasks
)

// FieldSet is a bitmask of Fields.
type FieldSet = Field

// Pages selects the three generated page fields.
const Pages = FieldFAQPage | FieldProductPage | FieldComparisonPage

// AllFields selects every field.
const AllFields FieldSet = FieldInput | FieldProduct | FieldQuestions | Pages |
	FieldPlan | FieldRefinement | FieldMissing | FieldFinalPages | FieldCompletedTasks

// Has reports whether f contains all fields of other.
func (f Field) Has(other Field) bool { return f&other == other }

// State is the single record threaded through every workflow step. It is
// also used as the partial update ("delta") returned by nodes.
//
// Replace fields are pointers (or maps) where nil means unset; a set value in
// a partial supersedes the current one. Accumulate fields (Messages,
// CompletedTasks) are appended in arrival order and never shrink during a run.
type State struct {
	// Replace fields.
	Input             content.Record          `json:"input,omitempty"`
	Product           *content.Product        `json:"product,omitempty"`
	Questions         *content.QuestionSet    `json:"questions,omitempty"`
	FAQPage           *content.FAQPage        `json:"faq_page,omitempty"`
	ProductPage       *content.ProductPage    `json:"product_page,omitempty"`
	ComparisonPage    *content.ComparisonPage `json:"comparison_page,omitempty"`
	Plan              *Plan                   `json:"plan,omitempty"`
	IterationCount    *int                    `json:"iteration_count,omitempty"`
	NeedsRefinement   *bool                   `json:"needs_refinement,omitempty"`
	MissingComponents *[]string               `json:"missing_components,omitempty"`
	FinalPages        *content.FinalPages     `json:"final_pages,omitempty"`

	// Accumulate fields.
	Messages       []Message `json:"messages,omitempty"`
	CompletedTasks []string  `json:"completed_tasks,omitempty"`
}

// NewState returns the initial state of a run: only the input record is
// populated and the iteration counter starts at zero.
func NewState(input content.Record) State {
	return State{Input: input, IterationCount: Int(0)}
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Strings returns a pointer to a copy of v.
func Strings(v ...string) *[]string {
	cp := append([]string{}, v...)
	return &cp
}

// Merge combines a partial update into current and returns the result.
// Neither argument is modified.
func Merge(current, partial State) State {
	next := current

	if partial.Input != nil {
		next.Input = partial.Input
	}
	if partial.Product != nil {
		next.Product = partial.Product
	}
	if partial.Questions != nil {
		next.Questions = partial.Questions
	}
	if partial.FAQPage != nil {
		next.FAQPage = partial.FAQPage
	}
	if partial.ProductPage != nil {
		next.ProductPage = partial.ProductPage
	}
	if partial.ComparisonPage != nil {
		next.ComparisonPage = partial.ComparisonPage
	}
	if partial.Plan != nil {
		next.Plan = partial.Plan
	}
	if partial.IterationCount != nil {
		next.IterationCount = partial.IterationCount
	}
	if partial.NeedsRefinement != nil {
		next.NeedsRefinement = partial.NeedsRefinement
	}
	if partial.MissingComponents != nil {
		next.MissingComponents = partial.MissingComponents
	}
	if partial.FinalPages != nil {
		next.FinalPages = partial.FinalPages
	}

	next.Messages = appendFresh(current.Messages, partial.Messages)
	next.CompletedTasks = appendFresh(current.CompletedTasks, partial.CompletedTasks)

	return next
}

// MergeAll folds partials into current in the given order.
func MergeAll(current State, partials ...State) State {
	for _, p := range partials {
		current = Merge(current, p)
	}
	return current
}

// appendFresh concatenates into a new backing array so states derived from
// the same parent never share appended elements.
func appendFresh[T any](a, b []T) []T {
	if len(b) == 0 {
		return a
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// View returns a narrowed copy holding only the selected fields. Messages and
// the iteration counter are always part of a view.
func (s State) View(fields FieldSet) State {
	v := State{
		IterationCount: s.IterationCount,
		Messages:       s.Messages,
	}
	if fields.Has(FieldInput) {
		v.Input = s.Input
	}
	if fields.Has(FieldProduct) {
		v.Product = s.Product
	}
	if fields.Has(FieldQuestions) {
		v.Questions = s.Questions
	}
	if fields.Has(FieldFAQPage) {
		v.FAQPage = s.FAQPage
	}
	if fields.Has(FieldProductPage) {
		v.ProductPage = s.ProductPage
	}
	if fields.Has(FieldComparisonPage) {
		v.ComparisonPage = s.ComparisonPage
	}
	if fields.Has(FieldPlan) {
		v.Plan = s.Plan
	}
	if fields.Has(FieldRefinement) {
		v.NeedsRefinement = s.NeedsRefinement
	}
	if fields.Has(FieldMissing) {
		v.MissingComponents = s.MissingComponents
	}
	if fields.Has(FieldFinalPages) {
		v.FinalPages = s.FinalPages
	}
	if fields.Has(FieldCompletedTasks) {
		v.CompletedTasks = s.CompletedTasks
	}
	return v
}

// Iteration returns the refinement iteration counter (0 when unset).
func (s State) Iteration() int {
	if s.IterationCount == nil {
		return 0
	}
	return *s.IterationCount
}

// Refining reports whether a refinement cycle was requested.
func (s State) Refining() bool {
	return s.NeedsRefinement != nil && *s.NeedsRefinement
}

// Missing returns the components reported missing by synthesis.
func (s State) Missing() []string {
	if s.MissingComponents == nil {
		return nil
	}
	return *s.MissingComponents
}

// Requirement values carried under KeyRequires.
const (
	RequiresInput     = "input"
	RequiresProduct   = "product"
	RequiresQuestions = "questions"
)

// Satisfies reports whether the field named by requirement is set. Unknown
// requirements are never satisfied.
func (s State) Satisfies(requirement string) bool {
	switch requirement {
	case RequiresInput:
		return len(s.Input) > 0
	case RequiresProduct:
		return s.Product != nil
	case RequiresQuestions:
		return s.Questions != nil
	default:
		return false
	}
}

// HasAllPages reports whether all three pages are present.
func (s State) HasAllPages() bool {
	return s.FAQPage != nil && s.ProductPage != nil && s.ComparisonPage != nil
}

// Completed reports whether label appears in the completed-task log.
func (s State) Completed(label string) bool {
	return s.LastCompletedIndex(label) >= 0
}

// LastCompletedIndex returns the position of the most recent occurrence of
// label in the completed-task log, or -1.
func (s State) LastCompletedIndex(label string) int {
	for i := len(s.CompletedTasks) - 1; i >= 0; i-- {
		if s.CompletedTasks[i] == label {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether no field of the state is set.
func (s State) IsEmpty() bool {
	return s.Input == nil && s.Product == nil && s.Questions == nil &&
		s.FAQPage == nil && s.ProductPage == nil && s.ComparisonPage == nil &&
		s.Plan == nil && s.IterationCount == nil && s.NeedsRefinement == nil &&
		s.MissingComponents == nil && s.FinalPages == nil &&
		len(s.Messages) == 0 && len(s.CompletedTasks) == 0
}
