package ratesheet

import (
	"testing"

	"ratequote/pkg/models"
)

func TestParsePDFTextContextSwitching(t *testing.T) {
	text := `Wholesale Rate Sheet
30 Year Conventional
6.125 100.250
6.250 100.750
15 Year Conventional
5.500 99.875
FHA 30 Year
6.000 101.000
`
	rates := parsePDFText(text)
	if len(rates) != 4 {
		t.Fatalf("got %d rates, want 4", len(rates))
	}

	expected := []struct {
		rate  float64
		price float64
		term  models.LoanTerm
		typ   models.LoanType
	}{
		{6.125, 100.250, models.Term30Year, models.LoanConventional},
		{6.250, 100.750, models.Term30Year, models.LoanConventional},
		{5.500, 99.875, models.Term15Year, models.LoanConventional},
		{6.000, 101.000, models.Term30Year, models.LoanFHA},
	}
	for i, want := range expected {
		got := rates[i]
		if got.Rate != want.rate || got.Price30Day != want.price {
			t.Errorf("rates[%d] = %v @ %v, want %v @ %v", i, got.Rate, got.Price30Day, want.rate, want.price)
		}
		if got.LoanTerm != want.term || got.LoanType != want.typ {
			t.Errorf("rates[%d] context = %s/%s, want %s/%s", i, got.LoanTerm, got.LoanType, want.term, want.typ)
		}
	}
}

func TestParsePDFTextVAWordBoundary(t *testing.T) {
	// "Nevada" must not flip the running type to VA; only a standalone VA
	// token does.
	text := `30 Year Conventional
Nevada eligible products
6.125 100.250
VA Loans
6.000 100.500
`
	rates := parsePDFText(text)
	if len(rates) != 2 {
		t.Fatalf("got %d rates, want 2", len(rates))
	}
	if rates[0].LoanType != models.LoanConventional {
		t.Errorf("rate after Nevada line tagged %s, want conventional", rates[0].LoanType)
	}
	if rates[1].LoanType != models.LoanVA {
		t.Errorf("rate after VA line tagged %s, want va", rates[1].LoanType)
	}
}

func TestParsePDFTextFirstValidPair(t *testing.T) {
	// Out-of-band numbers on the line (times, footnote values) are skipped:
	// the pair is the first in-band rate and the first in-band price after it.
	text := `30 Year Conventional
Lock by 2.30 pm: 6.125 at 100.250 (cutoff 4.15)
`
	rates := parsePDFText(text)
	if len(rates) != 1 {
		t.Fatalf("got %d rates, want 1", len(rates))
	}
	if rates[0].Rate != 6.125 || rates[0].Price30Day != 100.250 {
		t.Errorf("pair = %v @ %v, want 6.125 @ 100.250", rates[0].Rate, rates[0].Price30Day)
	}
}

func TestParsePDFTextDedupe(t *testing.T) {
	// The same rate repeated across pages keeps the best price.
	text := `30 Year Conventional
6.125 100.250
6.125 100.500
6.125 100.125
`
	rates := parsePDFText(text)
	if len(rates) != 1 {
		t.Fatalf("got %d rates, want 1 after dedupe", len(rates))
	}
	if rates[0].Price30Day != 100.500 {
		t.Errorf("dedupe kept %v, want best price 100.500", rates[0].Price30Day)
	}
}

func TestParsePDFTextNoPairs(t *testing.T) {
	text := `Rates available on request.
Call the lock desk.
`
	if rates := parsePDFText(text); len(rates) != 0 {
		t.Errorf("got %d rates from prose, want 0", len(rates))
	}
}
