// Package pricing - Mock Quote Floor
// Terminal fallback when no sheet parses and extraction is unavailable or
// untrusted. Rates are synthesized from a base rate plus coarse scenario
// adjustments, so demo environments still render a plausible quote.
package pricing

import (
	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/models"
)

const mockLenderName = "Estimated Market Rate"

// Rate spread between the three mock tiers, in percent. A buydown buys the
// rate down half a point; a credit sells it up a quarter.
const (
	mockBuydownSpread = 0.500
	mockCreditSpread  = 0.250
)

// mockRateAdjustment prices coarse scenario risk into the mock base rate the
// same direction a real LLPA grid would.
func mockRateAdjustment(params models.LoanParameters) float64 {
	var adj float64

	switch {
	case RepresentativeFICO(params.CreditScore) >= 760:
		adj -= 0.250
	case RepresentativeFICO(params.CreditScore) >= 700:
		// baseline tier
	case RepresentativeFICO(params.CreditScore) >= 640:
		adj += 0.250
	default:
		adj += 0.625
	}

	if ltv := params.LTV(); ltv > 80 {
		adj += 0.125
	} else if ltv > 0 && ltv <= 60 {
		adj -= 0.125
	}

	switch params.LoanType {
	case models.LoanFHA, models.LoanVA, models.LoanUSDA:
		adj -= 0.250 // government programs price under conventional
	case models.LoanJumbo:
		adj += 0.250
	case models.LoanDSCR:
		adj += 0.750
	}

	if params.LoanTerm.Years() <= 15 && params.LoanTerm.Years() > 0 {
		adj -= 0.500
	}

	return adj
}

// generateMockQuote builds the terminal fallback quote. The three tiers sit
// exactly on the configured targets so downstream points math produces the
// familiar no-cost / pay-points / take-credit shape.
func generateMockQuote(params models.LoanParameters, cfg Config) models.LenderQuote {
	parRate := cfg.MockBaseRate + mockRateAdjustment(params)

	tiers := []struct {
		label    string
		rate     float64
		netPrice float64
	}{
		{labelPar, parRate, cfg.ParTarget},
		{labelBuydown, parRate - mockBuydownSpread, cfg.BuydownTarget},
		{labelCredit, parRate + mockCreditSpread, cfg.CreditTarget},
	}

	scenarios := make([]models.PricingScenario, 0, len(tiers))
	for _, t := range tiers {
		c := candidate{
			rate:     ratesheet.ParsedRate{Rate: t.rate, Price30Day: t.netPrice, LoanTerm: params.LoanTerm, LoanType: params.LoanType},
			netPrice: t.netPrice,
		}
		scenarios = append(scenarios, buildScenario(t.label, c, params, cfg, nil))
	}

	return models.LenderQuote{
		LenderName: mockLenderName,
		Scenarios:  scenarios,
		BasePrice:  cfg.ParTarget,
		// Mock prices are already net; nothing further is subtracted.
		AdjustedPrice: cfg.ParTarget,
	}
}
