// Package output persists the artifacts of a finished run.
//
// Writers receive the three generated pages together with the run metadata.
// FileWriter reproduces the classic layout of one JSON document per page,
// ConsoleWriter pretty-prints them, SQLiteWriter archives runs and
// MemoryWriter collects them for tests.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
)

// ErrNoArtifacts is returned when a run produced none of the pages.
var ErrNoArtifacts = errors.New("run produced no artifacts")

// Page file names used by FileWriter.
const (
	FAQFile        = "faq.json"
	ProductFile    = "product_page.json"
	ComparisonFile = "comparison_page.json"
)

// Artifacts is the publishable result of a run.
type Artifacts struct {
	FAQPage        *content.FAQPage        `json:"faq_page,omitempty"`
	ProductPage    *content.ProductPage    `json:"product_page,omitempty"`
	ComparisonPage *content.ComparisonPage `json:"comparison_page,omitempty"`
	// Missing lists the components still absent at the end of the run.
	Missing    []string `json:"missing,omitempty"`
	Iterations int      `json:"iterations"`
}

// FromState extracts the artifacts of s. The synthesized bundle takes
// precedence over the individual page fields.
func FromState(s core.State) Artifacts {
	a := Artifacts{
		FAQPage:        s.FAQPage,
		ProductPage:    s.ProductPage,
		ComparisonPage: s.ComparisonPage,
		Missing:        s.Missing(),
		Iterations:     s.Iteration(),
	}

	if f := s.FinalPages; f != nil {
		if f.FAQPage != nil {
			a.FAQPage = f.FAQPage
		}
		if f.ProductPage != nil {
			a.ProductPage = f.ProductPage
		}
		if f.ComparisonPage != nil {
			a.ComparisonPage = f.ComparisonPage
		}
	}

	return a
}

// Empty reports whether no page is present.
func (a Artifacts) Empty() bool {
	return a.FAQPage == nil && a.ProductPage == nil && a.ComparisonPage == nil
}

// Complete reports whether every page is present.
func (a Artifacts) Complete() bool {
	return a.FAQPage != nil && a.ProductPage != nil && a.ComparisonPage != nil
}

// page is a named document of a run.
type page struct {
	File  string
	Title string
	Doc   any
}

// pages returns the present pages in FAQ, product, comparison order.
func (a Artifacts) pages() []page {
	var out []page
	if a.FAQPage != nil {
		out = append(out, page{File: FAQFile, Title: "FAQ PAGE", Doc: a.FAQPage})
	}
	if a.ProductPage != nil {
		out = append(out, page{File: ProductFile, Title: "PRODUCT PAGE", Doc: a.ProductPage})
	}
	if a.ComparisonPage != nil {
		out = append(out, page{File: ComparisonFile, Title: "COMPARISON PAGE", Doc: a.ComparisonPage})
	}
	return out
}

// Writer persists run artifacts.
type Writer interface {
	Write(ctx context.Context, runID string, a Artifacts) error
}

// MultiWriter writes to every writer in order and joins their errors.
type MultiWriter []Writer

// Write implements Writer.
func (m MultiWriter) Write(ctx context.Context, runID string, a Artifacts) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, runID, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func marshalIndent(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}
