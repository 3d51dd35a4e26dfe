package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/contentmesh/content"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/internal/prompt"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/tool"
)

// Page targets used in refine requests and missing-component reports.
const (
	TargetFAQPage        = "faq_page"
	TargetProductPage    = "product_page"
	TargetComparisonPage = "comparison_page"
	ActionRefine         = "refine"
)

// PageTargets lists the page targets in generation order.
var PageTargets = []string{TargetFAQPage, TargetProductPage, TargetComparisonPage}

const faqSystem = `You are a customer service expert creating FAQ answers for skincare products.
Generate helpful, accurate answers to customer questions based on product information.

Rules:
1. Answers should be clear, concise, and customer-friendly
2. Base answers on the provided product information
3. Be honest about limitations or side effects
4. Use a professional but warm tone

Return ONLY raw JSON of the form:
{"page": "FAQ", "items": [{"question": "...", "answer": "..."}]}`

var faqPrompt = prompt.Must("faq", `Create FAQ answers for these questions about the product:

Product Information:
- Name: {{.Product.Name}}
- Concentration: {{.Product.Concentration}}
- Skin Type: {{join ", " .Product.SkinType}}
- Ingredients: {{join ", " .Product.Ingredients}}
- Benefits: {{join ", " .Product.Benefits}}
- Usage: {{.Product.Usage}}
- Side Effects: {{join ", " .Product.SideEffects}}
- Price: {{price .Product.Price}}

Questions to answer:
{{json .Questions}}

Generate helpful, accurate answers for each question.`)

// PageGen produces the FAQ, product and comparison pages.
type PageGen struct {
	BaseAgent
	gen         model.Generator
	benefits    *tool.BenefitsTool
	usage       *tool.UsageTool
	comparison  *tool.ComparisonTool
	competitor  content.Product
	perCategory int
	maxFAQ      int
}

// NewPageGen creates the page generation agent.
func NewPageGen(gen model.Generator, optFns ...func(o *Options)) *PageGen {
	opts := newOptions(optFns...)
	toolOpts := func(o *tool.Options) { o.Logger = opts.Logger }
	return &PageGen{
		BaseAgent: NewBaseAgent(core.Descriptor{
			ID:           core.PageGeneration,
			Description:  "Creates FAQ, product description and comparison pages using content tools",
			Capabilities: []string{"generate_pages", "content_creation", "faq", "product_page", "comparison"},
			Reads:        core.FieldProduct | core.FieldQuestions | core.Pages,
		}, opts.Logger),
		gen:         gen,
		benefits:    tool.NewBenefitsTool(gen, toolOpts),
		usage:       tool.NewUsageTool(gen, toolOpts),
		comparison:  tool.NewComparisonTool(gen, toolOpts),
		competitor:  opts.Competitor,
		perCategory: opts.QuestionsPerCategory,
		maxFAQ:      opts.MaxFAQItems,
	}
}

// ShouldActivate runs when a page is missing or a refine request targets one.
func (p *PageGen) ShouldActivate(s core.State) bool {
	return !s.HasAllPages() || len(p.refineRequests(s)) > 0
}

func (p *PageGen) refineRequests(s core.State) []core.Message {
	var out []core.Message
	for _, m := range core.OutstandingRequests(s, p.ID()) {
		if m.Str(core.KeyAction) == ActionRefine && isPageTarget(m.Str(core.KeyTarget)) {
			out = append(out, m)
		}
	}
	return out
}

func isPageTarget(t string) bool {
	for _, pt := range PageTargets {
		if pt == t {
			return true
		}
	}
	return false
}

// Execute generates the missing and refine-targeted pages concurrently.
func (p *PageGen) Execute(ctx context.Context, s core.State) core.State {
	if s.Product == nil {
		return p.Request(core.Parse, ActionParse, core.RequiresProduct, "need product data for pages")
	}
	if s.Questions == nil {
		return p.Request(core.QuestionGeneration, ActionGenerate, core.RequiresQuestions, "need questions for FAQ")
	}

	refines := p.refineRequests(s)

	want := map[string]bool{
		TargetFAQPage:        s.FAQPage == nil,
		TargetProductPage:    s.ProductPage == nil,
		TargetComparisonPage: s.ComparisonPage == nil,
	}
	for _, m := range refines {
		want[m.Str(core.KeyTarget)] = true
	}

	product := *s.Product
	questions := *s.Questions

	var (
		faq        *content.FAQPage
		productPg  *content.ProductPage
		comparison *content.ComparisonPage
	)

	g, gctx := errgroup.WithContext(ctx)

	if want[TargetFAQPage] {
		g.Go(func() error {
			page := p.faqPage(gctx, product, questions)
			faq = &page
			return nil
		})
	}

	if want[TargetProductPage] {
		g.Go(func() error {
			page := p.productPage(gctx, product)
			productPg = &page
			return nil
		})
	}

	if want[TargetComparisonPage] {
		g.Go(func() error {
			page := p.comparison.Run(gctx, product, p.competitor)
			comparison = &page
			return nil
		})
	}

	_ = g.Wait() // page builders never fail; they fall back

	delta := core.State{
		FAQPage:        faq,
		ProductPage:    productPg,
		ComparisonPage: comparison,
	}

	var generated []string
	for _, t := range PageTargets {
		if want[t] {
			generated = append(generated, t)
		}
	}

	if len(generated) == 0 {
		return delta
	}

	delta.CompletedTasks = []string{core.TaskGeneratePages}
	delta.Messages = append(delta.Messages, p.Notify("pages_generated", map[string]any{"pages": generated}))

	for _, req := range refines {
		delta.Messages = append(delta.Messages, core.NewResponse(p.ID(), req, map[string]any{
			core.KeyStatus: "refined",
			core.KeyTarget: req.Str(core.KeyTarget),
		}))
	}

	p.logger.Info("Generated pages", "agent", p.ID(), "pages", generated, "refined", len(refines))

	return delta
}

// SelectQuestions picks up to perCategory questions from each category in
// presentation order, capped at max overall.
func SelectQuestions(q content.QuestionSet, perCategory, max int) []string {
	order := append([]string{}, QuestionCategories...)
	for _, c := range q.Categories() {
		known := false
		for _, k := range QuestionCategories {
			if k == c {
				known = true
				break
			}
		}
		if !known {
			order = append(order, c)
		}
	}

	var out []string
	for _, c := range order {
		qs := q[c]
		if len(qs) > perCategory {
			qs = qs[:perCategory]
		}
		out = append(out, qs...)
	}

	if len(out) > max {
		out = out[:max]
	}

	return out
}

func (p *PageGen) faqPage(ctx context.Context, product content.Product, questions content.QuestionSet) content.FAQPage {
	selected := SelectQuestions(questions, p.perCategory, p.maxFAQ)

	if p.gen == nil || len(selected) == 0 {
		return FallbackFAQ(product)
	}

	userPrompt, err := faqPrompt.Execute(map[string]any{"Product": product, "Questions": selected})
	if err != nil {
		p.logger.Warn("FAQ prompt failed, using fallback", "error", err)
		return FallbackFAQ(product)
	}

	text, err := p.gen.Generate(ctx, faqSystem, userPrompt, 2000)
	if err != nil {
		p.logger.Warn("FAQ generation failed, using fallback", "error", err)
		return FallbackFAQ(product)
	}

	var page content.FAQPage
	if err := model.DecodeJSON(text, &page); err != nil {
		p.logger.Warn("FAQ response malformed, using fallback", "error", err)
		return FallbackFAQ(product)
	}

	items := make([]content.FAQItem, 0, len(page.Items))
	for _, it := range page.Items {
		if strings.TrimSpace(it.Question) != "" && strings.TrimSpace(it.Answer) != "" {
			items = append(items, it)
		}
	}

	if len(items) == 0 {
		p.logger.Warn("FAQ response had no usable items, using fallback")
		return FallbackFAQ(product)
	}

	return content.FAQPage{Page: "FAQ", Items: items}
}

func (p *PageGen) productPage(ctx context.Context, product content.Product) content.ProductPage {
	return content.ProductPage{
		ProductName:       product.Name,
		Tagline:           fmt.Sprintf("%s for %s skin", product.Concentration, strings.Join(product.SkinType, ", ")),
		Ingredients:       product.Ingredients,
		Benefits:          p.benefits.Run(ctx, product.Benefits),
		UsageInstructions: p.usage.Run(ctx, product.Usage),
		SideEffects:       product.SideEffects,
		Price:             product.Price,
		SkinType:          product.SkinType,
	}
}

// FallbackFAQ returns the deterministic four-item FAQ built from product data.
func FallbackFAQ(p content.Product) content.FAQPage {
	price, _ := prompt.Render("{{price .}}", p.Price)
	return content.FAQPage{
		Page: "FAQ",
		Items: []content.FAQItem{
			{
				Question: "What is this product?",
				Answer:   fmt.Sprintf("%s is a %s serum designed for %s skin.", p.Name, p.Concentration, strings.Join(p.SkinType, ", ")),
			},
			{
				Question: "What are the main benefits?",
				Answer:   fmt.Sprintf("This product offers: %s.", strings.Join(p.Benefits, ", ")),
			},
			{
				Question: "How should I use it?",
				Answer:   p.Usage,
			},
			{
				Question: "What is the price?",
				Answer:   "₹" + price,
			},
		},
	}
}
