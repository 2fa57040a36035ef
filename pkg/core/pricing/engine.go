// Package pricing - Engine Orchestration
// Runs the full quote pipeline: stored sheets, fallback extraction, mock
// floor, and the double-pass consistency check.
package pricing

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"math"
	"sort"

	"ratequote/pkg/core/extract"
	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/core/store"
	"ratequote/pkg/models"
)

// Engine prices borrower scenarios against the active rate sheets. Extractor
// is optional; with a nil extractor the fallback chain skips straight to the
// mock generator.
type Engine struct {
	cfg       Config
	repo      store.RateSheetRepository
	parser    *ratesheet.Parser
	extractor extract.Provider
}

// NewEngine wires an engine from its collaborators.
func NewEngine(cfg Config, repo store.RateSheetRepository, parser *ratesheet.Parser, extractor extract.Provider) *Engine {
	if parser == nil {
		parser = ratesheet.NewParser()
	}
	return &Engine{cfg: cfg, repo: repo, parser: parser, extractor: extractor}
}

// CalculateRates prices a scenario twice and cross-checks the passes. The
// pipeline is deterministic, so any divergence means shared state is leaking
// somewhere; the result is still returned (first pass), just flagged.
func (e *Engine) CalculateRates(ctx context.Context, params models.LoanParameters) (*models.PricingResult, error) {
	if params.LoanAmount <= 0 {
		return nil, fmt.Errorf("loan amount must be positive, got %.2f", params.LoanAmount)
	}
	if params.LoanTerm.Months() == 0 {
		return nil, fmt.Errorf("unrecognized loan term %q", params.LoanTerm)
	}

	first, err := e.runPricingPass(ctx, params)
	if err != nil {
		return nil, err
	}
	second, err := e.runPricingPass(ctx, params)
	if err != nil {
		return nil, err
	}

	first.ValidationPassed = e.validatePasses(first, second)
	if !first.ValidationPassed {
		log.Printf("[Engine] double-pass validation FAILED for amount=%.0f term=%s type=%s",
			params.LoanAmount, params.LoanTerm, params.LoanType)
	}

	if len(first.Quotes) > 0 {
		first.BestQuote = &first.Quotes[0]
	}
	return first, nil
}

// runPricingPass executes one full pricing pipeline: stored sheets first,
// then external extraction, then the mock floor. It always produces at least
// one quote.
func (e *Engine) runPricingPass(ctx context.Context, params models.LoanParameters) (*models.PricingResult, error) {
	result := &models.PricingResult{}

	sheets, err := e.repo.GetActiveRateSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rate sheets: %w", err)
	}

	for _, stored := range sheets {
		fileBytes, err := base64.StdEncoding.DecodeString(stored.FileData)
		if err != nil {
			result.ParseErrors = append(result.ParseErrors,
				fmt.Sprintf("%s: invalid base64 payload: %v", stored.LenderName, err))
			continue
		}

		parsed := e.parser.ParseRateSheet(fileBytes, stored.FileName, stored.LenderName)
		if !parsed.ParseSuccess {
			result.ParseErrors = append(result.ParseErrors,
				fmt.Sprintf("%s: %s", stored.LenderName, parsed.ParseError))
			continue
		}

		if quote, ok := generateQuoteFromRateSheet(parsed, params, e.cfg); ok {
			result.Quotes = append(result.Quotes, quote)
		}
	}

	if len(result.Quotes) == 0 {
		if quote, ok := e.extractionQuote(ctx, params); ok {
			result.Quotes = append(result.Quotes, quote)
		}
	}
	if len(result.Quotes) == 0 {
		log.Printf("[Engine] no sheet or extraction quotes; generating mock quote")
		result.Quotes = append(result.Quotes, generateMockQuote(params, e.cfg))
	}

	sortQuotes(result.Quotes)
	return result, nil
}

// extractionQuote runs the external extraction fallback. The tuples are only
// trusted when at least MinFallbackRates arrive; fewer reads as the provider
// guessing, and the mock floor is more honest than a guess.
func (e *Engine) extractionQuote(ctx context.Context, params models.LoanParameters) (models.LenderQuote, bool) {
	if e.extractor == nil {
		return models.LenderQuote{}, false
	}

	tuples, err := e.extractor.QueryRates(ctx, params)
	if err != nil {
		log.Printf("[Engine] extraction provider %q failed: %v", e.extractor.Name(), err)
		return models.LenderQuote{}, false
	}

	// Synthesize a grid-less sheet so the extracted curve flows through the
	// same solver as uploaded sheets. Only in-band tuples count toward the
	// trust threshold; providers scrape free text and do slip occasionally.
	sheet := ratesheet.ParsedRateSheet{
		LenderName:   "Market Composite",
		ParseSuccess: true,
	}
	for _, t := range tuples {
		if !ratesheet.ValidRate(t.Rate) || !ratesheet.ValidPrice(t.Price) {
			continue
		}
		sheet.Rates = append(sheet.Rates, ratesheet.ParsedRate{
			Rate:       t.Rate,
			Price30Day: t.Price,
			LoanTerm:   t.LoanTerm,
			LoanType:   t.LoanType,
		})
	}
	if len(sheet.Rates) < e.cfg.MinFallbackRates {
		log.Printf("[Engine] extraction yielded %d usable tuples, below trust threshold %d; discarding",
			len(sheet.Rates), e.cfg.MinFallbackRates)
		return models.LenderQuote{}, false
	}

	log.Printf("[Engine] extraction provider %q supplied %d tuples", e.extractor.Name(), len(sheet.Rates))
	return generateQuoteFromRateSheet(sheet, params, e.cfg)
}

// validatePasses compares two pass results scenario by scenario within the
// configured epsilons.
func (e *Engine) validatePasses(a, b *models.PricingResult) bool {
	if len(a.Quotes) != len(b.Quotes) {
		log.Printf("[Engine] pass mismatch: %d vs %d quotes", len(a.Quotes), len(b.Quotes))
		return false
	}
	for i := range a.Quotes {
		qa, qb := a.Quotes[i], b.Quotes[i]
		if qa.LenderName != qb.LenderName {
			log.Printf("[Engine] pass mismatch at %d: lender %q vs %q", i, qa.LenderName, qb.LenderName)
			return false
		}
		if len(qa.Scenarios) != len(qb.Scenarios) {
			log.Printf("[Engine] pass mismatch for %q: %d vs %d scenarios", qa.LenderName, len(qa.Scenarios), len(qb.Scenarios))
			return false
		}
		for j := range qa.Scenarios {
			sa, sb := qa.Scenarios[j], qb.Scenarios[j]
			if math.Abs(sa.Rate-sb.Rate) > e.cfg.RateEpsilon {
				log.Printf("[Engine] pass mismatch for %q/%s: rate %.3f vs %.3f", qa.LenderName, sa.ScenarioLabel, sa.Rate, sb.Rate)
				return false
			}
			if math.Abs(sa.MonthlyPayment-sb.MonthlyPayment) > e.cfg.PaymentEpsilon {
				log.Printf("[Engine] pass mismatch for %q/%s: payment %.2f vs %.2f", qa.LenderName, sa.ScenarioLabel, sa.MonthlyPayment, sb.MonthlyPayment)
				return false
			}
		}
	}
	return true
}

// sortQuotes orders quotes ascending by the par rate, lender name breaking
// ties, so the cheapest offer is always Quotes[0].
func sortQuotes(quotes []models.LenderQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		ri, rj := firstScenarioRate(quotes[i]), firstScenarioRate(quotes[j])
		if ri != rj {
			return ri < rj
		}
		return quotes[i].LenderName < quotes[j].LenderName
	})
}

func firstScenarioRate(q models.LenderQuote) float64 {
	if len(q.Scenarios) == 0 {
		return math.Inf(1)
	}
	return q.Scenarios[0].Rate
}
