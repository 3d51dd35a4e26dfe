// Package content holds the domain payloads produced and consumed by the
// worker agents: the raw input record, the parsed product, the categorised
// question set and the three generated pages. The orchestration core treats
// these as opaque values owned by the respective workers; only the quality
// check inspects their shape.
package content

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is the opaque input record supplied by the caller.
type Record map[string]any

// String returns the value stored under key rendered as a trimmed string.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// List splits a comma separated value into trimmed, non-empty entries.
func (r Record) List(key string) []string {
	raw := r.String(key)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Number returns the numeric value under key, or 0 when absent or malformed.
func (r Record) Number(key string) float64 {
	switch t := r[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Product is the structured form of the input record.
type Product struct {
	Name          string   `json:"name"`
	Concentration string   `json:"concentration"`
	SkinType      []string `json:"skin_type"`
	Ingredients   []string `json:"ingredients"`
	Benefits      []string `json:"benefits"`
	Usage         string   `json:"usage"`
	SideEffects   []string `json:"side_effects"`
	Price         float64  `json:"price"`
}

// QuestionSet maps a category (informational, safety, ...) to its questions.
type QuestionSet map[string][]string

// Categories returns the category names in stable order.
func (q QuestionSet) Categories() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total returns the number of questions across all categories.
func (q QuestionSet) Total() int {
	n := 0
	for _, qs := range q {
		n += len(qs)
	}
	return n
}

// FAQItem is a single question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQPage is the generated FAQ document.
type FAQPage struct {
	Page  string    `json:"page"`
	Items []FAQItem `json:"items"`
}

// ProductPage is the generated product description document.
type ProductPage struct {
	ProductName       string   `json:"product_name"`
	Tagline           string   `json:"tagline"`
	Ingredients       []string `json:"ingredients"`
	Benefits          []string `json:"benefits"`
	UsageInstructions []string `json:"usage_instructions"`
	SideEffects       []string `json:"side_effects"`
	Price             float64  `json:"price"`
	SkinType          []string `json:"skin_type"`
}

// ProductSummary is one column of a comparison.
type ProductSummary struct {
	Ingredients []string `json:"ingredients"`
	Benefits    []string `json:"benefits"`
	Price       float64  `json:"price"`
	BestFor     string   `json:"best_for,omitempty"`
}

// ComparisonPage is the generated side-by-side comparison document.
type ComparisonPage struct {
	Products       map[string]ProductSummary `json:"products"`
	KeyDifferences []string                  `json:"key_differences,omitempty"`
	Verdict        string                    `json:"verdict,omitempty"`
}

// FinalPages is the bundle assembled by the synthesize agent.
type FinalPages struct {
	Product        *Product        `json:"product,omitempty"`
	Questions      QuestionSet     `json:"questions,omitempty"`
	FAQPage        *FAQPage        `json:"faq_page,omitempty"`
	ProductPage    *ProductPage    `json:"product_page,omitempty"`
	ComparisonPage *ComparisonPage `json:"comparison_page,omitempty"`
}
