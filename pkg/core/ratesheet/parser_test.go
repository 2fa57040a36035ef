package ratesheet

import (
	"reflect"
	"strings"
	"testing"

	"ratequote/pkg/models"
)

const sampleCSV = `30 Year Fixed Conventional
Rate,15 Day,30 Day,45 Day
5.875,98.750,98.875,99.000
6.000,99.375,99.500,99.625
6.125,99.875,100.000,100.125
6.250,100.375,100.500,100.625
6.375,100.875,101.000,101.125
6.500,101.250,101.375,101.500
`

func TestParseUnsupportedFormat(t *testing.T) {
	p := NewParser()
	result := p.ParseRateSheet([]byte("plain text content"), "sheet.txt", "Acme Lending")

	if result.ParseSuccess {
		t.Error("txt parse should not succeed")
	}
	if result.ParseError != "Unsupported file format: .txt" {
		t.Errorf("ParseError = %q, want %q", result.ParseError, "Unsupported file format: .txt")
	}
	if result.LenderName != "Acme Lending" {
		t.Errorf("LenderName = %q, want preserved", result.LenderName)
	}
}

func TestParseCSVDynamic(t *testing.T) {
	p := NewParser()
	result := p.ParseRateSheet([]byte(sampleCSV), "acme.csv", "Acme Lending")

	if !result.ParseSuccess {
		t.Fatalf("parse failed: %s", result.ParseError)
	}
	if len(result.Rates) != 6 {
		t.Fatalf("got %d rates, want 6", len(result.Rates))
	}

	first := result.Rates[0]
	if first.Rate != 5.875 || first.Price30Day != 98.875 {
		t.Errorf("first rate = %+v, want 5.875 @ 98.875", first)
	}
	if first.LoanTerm != models.Term30Year || first.LoanType != models.LoanConventional {
		t.Errorf("context = %s/%s, want 30yr/conventional", first.LoanTerm, first.LoanType)
	}
	if first.Price15Day != 98.750 || first.Price45Day != 99.000 {
		t.Errorf("lock prices = %+v, want 15d=98.750 45d=99.000", first)
	}
}

func TestParseCSVStackedTables(t *testing.T) {
	// One sheet carrying two rate tables, each under its own banner and
	// header. The second table must pick up its own (term, type) context and
	// the first table's scan must stop at the second header.
	csv := `30 Year Fixed Conventional
Rate,30 Day
6.125,100.000
6.250,100.500
15 Year Jumbo
Rate,30 Day
5.500,99.500
5.625,100.000
`
	p := NewParser()
	result := p.ParseRateSheet([]byte(csv), "stacked.csv", "Stacked Lender")

	if !result.ParseSuccess {
		t.Fatalf("parse failed: %s", result.ParseError)
	}
	if len(result.Rates) != 4 {
		t.Fatalf("got %d rates, want 4 across both tables", len(result.Rates))
	}

	for i, want := range []struct {
		rate float64
		term models.LoanTerm
		typ  models.LoanType
	}{
		{6.125, models.Term30Year, models.LoanConventional},
		{6.250, models.Term30Year, models.LoanConventional},
		{5.500, models.Term15Year, models.LoanJumbo},
		{5.625, models.Term15Year, models.LoanJumbo},
	} {
		got := result.Rates[i]
		if got.Rate != want.rate || got.LoanTerm != want.term || got.LoanType != want.typ {
			t.Errorf("rates[%d] = %v %s/%s, want %v %s/%s",
				i, got.Rate, got.LoanTerm, got.LoanType, want.rate, want.term, want.typ)
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	p := NewParser()
	a := p.ParseRateSheet([]byte(sampleCSV), "acme.csv", "Acme Lending")
	b := p.ParseRateSheet([]byte(sampleCSV), "acme.csv", "Acme Lending")
	if !reflect.DeepEqual(a, b) {
		t.Error("re-parsing identical bytes produced a different result")
	}
}

func TestParseRejectsOutOfBandValues(t *testing.T) {
	// Rates outside [3,12] and prices outside (90,110) must be discarded.
	csv := `Rate,30 Day
2.500,100.000
6.125,100.250
15.000,100.000
6.250,85.000
6.375,115.000
`
	p := NewParser()
	result := p.ParseRateSheet([]byte(csv), "bands.csv", "Band Test")
	if !result.ParseSuccess {
		t.Fatalf("parse failed: %s", result.ParseError)
	}
	if len(result.Rates) != 1 {
		t.Fatalf("got %d rates, want 1 (only 6.125 is fully in-band)", len(result.Rates))
	}
	if result.Rates[0].Rate != 6.125 {
		t.Errorf("surviving rate = %v, want 6.125", result.Rates[0].Rate)
	}
}

func TestParseNoValidRates(t *testing.T) {
	csv := `Product,Notes
Conforming,call desk
`
	p := NewParser()
	result := p.ParseRateSheet([]byte(csv), "empty.csv", "Empty")
	if result.ParseSuccess {
		t.Error("parse of rate-free sheet should not succeed")
	}
	if !strings.Contains(result.ParseError, "no valid rates") {
		t.Errorf("ParseError = %q, want a no-valid-rates message", result.ParseError)
	}
}

func TestRateSetDedupe(t *testing.T) {
	set := newRateSet()
	set.add(ParsedRate{Rate: 6.125, Price30Day: 99.875, LoanTerm: models.Term30Year, LoanType: models.LoanConventional})
	set.add(ParsedRate{Rate: 6.125, Price30Day: 100.125, LoanTerm: models.Term30Year, LoanType: models.LoanConventional})
	set.add(ParsedRate{Rate: 6.125, Price30Day: 100.000, LoanTerm: models.Term15Year, LoanType: models.LoanConventional})

	rates := set.list()
	if len(rates) != 2 {
		t.Fatalf("got %d rates, want 2 (same rate different term is distinct)", len(rates))
	}
	if rates[0].Price30Day != 100.125 {
		t.Errorf("dedupe kept price %v, want best price 100.125", rates[0].Price30Day)
	}
	// First-seen order survives the price upgrade.
	if rates[0].LoanTerm != models.Term30Year || rates[1].LoanTerm != models.Term15Year {
		t.Errorf("order = %s,%s, want 30yr,15yr", rates[0].LoanTerm, rates[1].LoanTerm)
	}
}

func TestBestPricePreference(t *testing.T) {
	r := ParsedRate{Rate: 6.0, Price15Day: 99.5, Price30Day: 99.75, Price45Day: 100.0}
	if got := r.BestPrice(); got != 99.75 {
		t.Errorf("BestPrice = %v, want the 30-day lock 99.75", got)
	}
	r30Missing := ParsedRate{Rate: 6.0, Price15Day: 99.5, Price45Day: 100.0}
	if got := r30Missing.BestPrice(); got != 100.0 {
		t.Errorf("BestPrice without 30d = %v, want 45-day 100.0", got)
	}
}

func TestDecimalRateQuirk(t *testing.T) {
	quirks := LayoutQuirks{DecimalRates: true}
	if got := normalizeRate(0.07125, quirks); got != 7.125 {
		t.Errorf("normalizeRate(0.07125) = %v, want 7.125", got)
	}
	// Already-percent values pass through.
	if got := normalizeRate(7.125, quirks); got != 7.125 {
		t.Errorf("normalizeRate(7.125) = %v, want 7.125", got)
	}
	if got := normalizeRate(0.07125, LayoutQuirks{}); got != 0.07125 {
		t.Errorf("quirk off: normalizeRate = %v, want passthrough", got)
	}
}

func TestDeviationPriceQuirk(t *testing.T) {
	quirks := LayoutQuirks{DeviationPrices: true}
	testCases := []struct {
		name string
		in   float64
		want float64
	}{
		{"rebate (negative deviation)", -0.5, 100.5},
		{"cost (positive deviation)", 1.25, 98.75},
		{"already wholesale", 99.5, 99.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeDeviationPrice(tc.in, quirks); got != tc.want {
				t.Errorf("normalizeDeviationPrice(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLayoutResolve(t *testing.T) {
	reg := NewLayoutRegistry("")

	// Lender-name token match.
	if layout := reg.Resolve("Summit Wholesale Corp", nil); layout == nil || layout.LenderName != "Summit Wholesale" {
		t.Errorf("name resolve failed: %+v", layout)
	}
	// Sheet-signature match when the name is unhelpful.
	if layout := reg.Resolve("upload_20260825", []string{"PL Conforming", "PL Adjustments"}); layout == nil || layout.LenderName != "Pinnacle Lending" {
		t.Errorf("signature resolve failed: %+v", layout)
	}
	// Unknown lender falls through to dynamic.
	if layout := reg.Resolve("Totally New Lender", []string{"Sheet1"}); layout != nil {
		t.Errorf("unknown lender resolved to %q, want nil", layout.LenderName)
	}
}

func TestParseFixedLayoutDecimalRates(t *testing.T) {
	// The file name supplies the sheet name, matching the layout's
	// "Summit Rates" block rectangles; rates arrive as decimals and must be
	// promoted to percent on the way in.
	csv := `Summit Wholesale Daily
30 Year,,,,,15 Year,,,
Rate,15 Day,30 Day,45 Day,,Rate,15 Day,30 Day,45 Day
0.05875,99.250,99.375,99.500,,0.05125,98.875,99.000,99.125
0.06000,99.750,99.875,100.000,,0.05250,99.375,99.500,99.625
`
	p := NewParser()
	result := p.ParseRateSheet([]byte(csv), "Summit Rates.csv", "Summit Wholesale Lending")

	if !result.ParseSuccess {
		t.Fatalf("parse failed: %s", result.ParseError)
	}
	if len(result.Rates) != 4 {
		t.Fatalf("got %d rates, want 4 (two per block)", len(result.Rates))
	}

	first := result.Rates[0]
	if first.Rate != 5.875 {
		t.Errorf("rates[0].Rate = %v, want 5.875 (0.05875 promoted)", first.Rate)
	}
	if first.Price30Day != 99.375 || first.Price15Day != 99.250 || first.Price45Day != 99.500 {
		t.Errorf("rates[0] prices = %+v", first)
	}
	if first.LoanTerm != models.Term30Year {
		t.Errorf("rates[0].LoanTerm = %s, want 30yr", first.LoanTerm)
	}

	// The second block carries the 15-year context from the layout, not from
	// any header keyword.
	if result.Rates[2].Rate != 5.125 || result.Rates[2].LoanTerm != models.Term15Year {
		t.Errorf("rates[2] = %v/%s, want 5.125/15yr", result.Rates[2].Rate, result.Rates[2].LoanTerm)
	}
}

func TestParseFixedLayoutDeviationPrices(t *testing.T) {
	// Pinnacle publishes signed deviations from par: negative is a rebate
	// (above par), small positive is a cost (below par).
	csv := `Pinnacle Wholesale
Conforming 30 Year
,Rate,15 Day,30 Day,45 Day
,,,,
,,,,
,6.125,-0.500,-0.250,0.125
,6.250,-1.000,-0.750,-0.500
`
	p := NewParser()
	result := p.ParseRateSheet([]byte(csv), "PL Conforming.csv", "Pinnacle Lending Corp")

	if !result.ParseSuccess {
		t.Fatalf("parse failed: %s", result.ParseError)
	}
	if len(result.Rates) != 2 {
		t.Fatalf("got %d rates, want 2", len(result.Rates))
	}

	first := result.Rates[0]
	if first.Rate != 6.125 {
		t.Errorf("rates[0].Rate = %v, want 6.125", first.Rate)
	}
	if first.Price15Day != 100.500 {
		t.Errorf("Price15Day = %v, want 100.500 (rebate -0.500)", first.Price15Day)
	}
	if first.Price30Day != 100.250 {
		t.Errorf("Price30Day = %v, want 100.250 (rebate -0.250)", first.Price30Day)
	}
	if first.Price45Day != 99.875 {
		t.Errorf("Price45Day = %v, want 99.875 (cost 0.125)", first.Price45Day)
	}
}

func TestParseCellNumber(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"6.125", 6.125, true},
		{"6.125%", 6.125, true},
		{"$1,234.56", 1234.56, true},
		{"(0.250)", -0.250, true},
		{"-0.250", -0.250, true},
		{"", 0, false},
		{"—", 0, false},
		{"N/A", 0, false},
		{"call desk", 0, false},
	}
	for _, tc := range testCases {
		got, ok := ParseCellNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseCellNumber(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeGridLabel(t *testing.T) {
	if got := NormalizeGridLabel("≥ 740"); got != ">= 740" {
		t.Errorf("NormalizeGridLabel = %q, want \">= 740\"", got)
	}
	if got := NormalizeGridLabel("  75.01  -  80%  "); got != "75.01 - 80%" {
		t.Errorf("whitespace collapse = %q", got)
	}
}
