// Package pricing - Per-Lender Quote Generation
package pricing

import (
	"log"

	"ratequote/pkg/core/finance"
	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/models"
)

// Scenario labels, ordered par → buydown → credit.
const (
	labelPar     = "Par"
	labelBuydown = "Buydown"
	labelCredit  = "Lender Credit"
)

// generateQuoteFromRateSheet prices one lender's parsed sheet for a borrower
// scenario. Returns ok=false when the sheet has no quotable rate for the
// requested term/type (that lender is simply dropped, not an error).
func generateQuoteFromRateSheet(sheet ratesheet.ParsedRateSheet, params models.LoanParameters, cfg Config) (models.LenderQuote, bool) {
	rates := filterRates(sheet.Rates, params.LoanTerm, params.LoanType)
	if len(rates) == 0 && params.LoanType != models.LoanConventional {
		// Many sheets only differentiate government vs conventional at the
		// margin level; conventional rows are the usable base curve.
		rates = filterRates(sheet.Rates, params.LoanTerm, models.LoanConventional)
	}
	if len(rates) == 0 {
		return models.LenderQuote{}, false
	}

	adjustments, breakdown := totalAdjustments(sheet, params)
	cands := buildCandidates(rates, adjustments, cfg.LenderMargin)
	if len(cands) == 0 {
		return models.LenderQuote{}, false
	}

	par, ok := solveClosest(cands, cfg.ParTarget)
	if !ok {
		return models.LenderQuote{}, false
	}

	type solved struct {
		label string
		cand  candidate
	}
	chosen := []solved{{labelPar, par}}

	// Dedupe: two tiers that solve to the same rate are one offer, not two.
	if buydown, ok := solveClosest(cands, cfg.BuydownTarget); ok && buydown.rate.Rate != par.rate.Rate {
		chosen = append(chosen, solved{labelBuydown, buydown})
	}
	if credit, ok := solveAbove(cands, cfg.CreditTarget, par.rate.Rate); ok {
		duplicate := false
		for _, c := range chosen {
			if c.cand.rate.Rate == credit.rate.Rate {
				duplicate = true
				break
			}
		}
		if !duplicate {
			chosen = append(chosen, solved{labelCredit, credit})
		}
	}

	scenarios := make([]models.PricingScenario, 0, len(chosen))
	for _, c := range chosen {
		scenarios = append(scenarios, buildScenario(c.label, c.cand, params, cfg, breakdown))
	}

	basePrice := par.rate.BestPrice()
	quote := models.LenderQuote{
		LenderName:       sheet.LenderName,
		Scenarios:        scenarios,
		BasePrice:        basePrice,
		AdjustedPrice:    basePrice + adjustments - cfg.LenderMargin,
		TotalAdjustments: adjustments,
	}
	log.Printf("[Engine] %q: %d scenarios, base=%.3f adj=%.3f", sheet.LenderName, len(scenarios), basePrice, adjustments)
	return quote, true
}

func filterRates(rates []ratesheet.ParsedRate, term models.LoanTerm, typ models.LoanType) []ratesheet.ParsedRate {
	var out []ratesheet.ParsedRate
	for _, r := range rates {
		if r.LoanTerm == term && r.LoanType == typ {
			out = append(out, r)
		}
	}
	return out
}

// buildScenario derives the borrower-facing numbers for one solved rate.
func buildScenario(label string, c candidate, params models.LoanParameters, cfg Config, breakdown []models.AdjustmentBreakdown) models.PricingScenario {
	months := params.LoanTerm.Months()
	payment := finance.MonthlyPayment(params.LoanAmount, c.rate.Rate, months)

	// Net price above par means the lender pays the borrower (credit);
	// below par the borrower pays points.
	pointsPercent := finance.RoundRate(100 - c.netPrice)
	pointsDollar := finance.RoundMoney(pointsPercent / 100 * params.LoanAmount)
	isCredit := pointsPercent < 0

	// Only out-of-pocket points count as an APR fee; credits don't lower
	// APR below the note rate here.
	fees := pointsDollar
	if fees < 0 {
		fees = 0
	}
	var apr float64
	if cfg.APRMethod == "approx" {
		apr = finance.APRApprox(params.LoanAmount, c.rate.Rate, months, fees)
	} else {
		apr = finance.APRNewton(params.LoanAmount, c.rate.Rate, months, fees)
	}

	return models.PricingScenario{
		ScenarioLabel:       label,
		Rate:                finance.RoundRate(c.rate.Rate),
		APR:                 apr,
		MonthlyPayment:      payment,
		PointsPercent:       pointsPercent,
		PointsDollar:        pointsDollar,
		IsCredit:            isCredit,
		NetPrice:            finance.RoundRate(c.netPrice),
		AdjustmentBreakdown: breakdown,
	}
}
