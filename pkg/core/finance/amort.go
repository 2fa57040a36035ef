// Package finance holds the shared numeric utilities for pricing:
// amortization, APR derivation and display rounding.
package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds a dollar amount to cents.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundRate rounds a rate/APR percentage to 3 decimal places.
func RoundRate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}

// MonthlyPayment computes the standard fixed amortization payment
//
//	P * r(1+r)^n / ((1+r)^n - 1)
//
// for an annual rate in percent over termMonths, with the zero-rate special
// case P/n. The result is rounded to cents.
func MonthlyPayment(principal, annualRatePct float64, termMonths int) float64 {
	if termMonths <= 0 || principal <= 0 {
		return 0
	}

	monthlyRate := annualRatePct / 100 / 12
	if monthlyRate == 0 {
		return RoundMoney(principal / float64(termMonths))
	}

	factor := math.Pow(1+monthlyRate, float64(termMonths))
	payment := principal * monthlyRate * factor / (factor - 1)
	return RoundMoney(payment)
}

// TotalInterest is the interest paid over the life of the loan given a fixed
// monthly payment. Used both for the closed-form APR and as an independent
// cross-check of the amortization math.
func TotalInterest(principal, monthlyPayment float64, termMonths int) float64 {
	total := decimal.NewFromFloat(monthlyPayment).
		Mul(decimal.NewFromInt(int64(termMonths))).
		Sub(decimal.NewFromFloat(principal))
	return total.Round(2).InexactFloat64()
}

// APRApprox is the closed-form effective-rate approximation:
//
//	((totalInterest + fees) / principal) / termYears
//
// expressed in percent and rounded to 3 decimals. Cheap but coarse; see
// APRNewton for the higher-fidelity variant.
func APRApprox(principal, annualRatePct float64, termMonths int, fees float64) float64 {
	if principal <= 0 || termMonths <= 0 {
		return 0
	}
	payment := MonthlyPayment(principal, annualRatePct, termMonths)
	totalInterest := TotalInterest(principal, payment, termMonths)
	years := float64(termMonths) / 12
	apr := (totalInterest + fees) / principal / years * 100
	return RoundRate(apr)
}

// Newton iteration bounds for APRNewton.
const (
	aprMaxIterations = 20
	aprPVTolerance   = 0.01 // stop once PV error is under one cent
)

// APRNewton solves for the monthly discount rate that equates the payment
// stream's present value to the fee-adjusted net proceeds (principal - fees),
// by Newton's method. Result is the annualized rate in percent, rounded to 3
// decimals. Falls back to the note rate when the iteration cannot converge.
func APRNewton(principal, annualRatePct float64, termMonths int, fees float64) float64 {
	if principal <= 0 || termMonths <= 0 {
		return 0
	}
	netProceeds := principal - fees
	if netProceeds <= 0 {
		return RoundRate(annualRatePct)
	}

	payment := MonthlyPayment(principal, annualRatePct, termMonths)
	if payment <= 0 {
		return 0
	}

	n := float64(termMonths)
	// Start from the note rate; the APR root is close to it.
	i := annualRatePct / 100 / 12
	if i <= 0 {
		// Zero-rate note with fees still carries an implicit cost.
		i = 1e-6
	}

	for iter := 0; iter < aprMaxIterations; iter++ {
		pow := math.Pow(1+i, -n)
		pv := payment * (1 - pow) / i
		diff := pv - netProceeds
		if math.Abs(diff) < aprPVTolerance {
			break
		}

		// d(PV)/di for the annuity present value.
		deriv := payment * (n*pow/(1+i)*i - (1 - pow)) / (i * i)
		if deriv == 0 {
			break
		}
		next := i - diff/deriv
		if next <= 0 || math.IsNaN(next) || math.IsInf(next, 0) {
			return RoundRate(annualRatePct)
		}
		i = next
	}

	return RoundRate(i * 12 * 100)
}
