package extract

import (
	"strings"
	"testing"

	"ratequote/pkg/models"
)

func scrapeParams() models.LoanParameters {
	return models.LoanParameters{
		LoanTerm: models.Term30Year,
		LoanType: models.LoanConventional,
	}
}

func TestScrapeJSONArray(t *testing.T) {
	raw := `[{"rate": 6.125, "price": 100.25}, {"rate": 6.250, "price": 100.75}]`
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 2 {
		t.Fatalf("got %d tuples, want 2", len(tuples))
	}
	if tuples[0].Rate != 6.125 || tuples[0].Price != 100.25 {
		t.Errorf("tuples[0] = %+v", tuples[0])
	}
	if tuples[0].LoanTerm != models.Term30Year {
		t.Errorf("term not echoed from request: %s", tuples[0].LoanTerm)
	}
}

func TestScrapeJSONEnvelope(t *testing.T) {
	raw := `{"rates": [{"rate": 6.0, "price": 99.5}]}`
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 1 || tuples[0].Rate != 6.0 {
		t.Fatalf("envelope scrape = %+v", tuples)
	}
}

func TestScrapeCodeFencedJSON(t *testing.T) {
	raw := "```json\n[{\"rate\": 6.5, \"price\": 101.0}]\n```"
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 1 || tuples[0].Rate != 6.5 {
		t.Fatalf("fenced scrape = %+v", tuples)
	}
}

func TestScrapeRepairedJSON(t *testing.T) {
	// Trailing comma and unquoted keys: repair / hjson leniency should cope.
	raw := `[{rate: 6.125, price: 100.25},]`
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 1 {
		t.Fatalf("got %d tuples from malformed-but-repairable JSON, want 1", len(tuples))
	}
}

func TestScrapeMarkdownTable(t *testing.T) {
	raw := `Here are today's rates:

| Rate   | Price  |
|--------|--------|
| 6.125% | 100.25 |
| 6.250% | 100.75 |
`
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 2 {
		t.Fatalf("got %d tuples, want 2: %+v", len(tuples), tuples)
	}
	if tuples[1].Rate != 6.250 || tuples[1].Price != 100.75 {
		t.Errorf("tuples[1] = %+v", tuples[1])
	}
}

func TestScrapeFreeTextLines(t *testing.T) {
	raw := `Current 30 year pricing:
6.125 at 100.25
6.250 at 100.75
Lock desk closes at 4.
`
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 2 {
		t.Fatalf("got %d tuples, want 2: %+v", len(tuples), tuples)
	}
}

func TestScrapeDiscardsOutOfBand(t *testing.T) {
	raw := `[{"rate": 2.0, "price": 100.0}, {"rate": 6.0, "price": 150.0}, {"rate": 6.125, "price": 100.25}]`
	tuples := ScrapeRateTuples(raw, scrapeParams())
	if len(tuples) != 1 {
		t.Fatalf("got %d tuples, want only the in-band pair", len(tuples))
	}
	if tuples[0].Rate != 6.125 {
		t.Errorf("surviving tuple = %+v", tuples[0])
	}
}

func TestScrapeMalformedYieldsEmpty(t *testing.T) {
	for _, raw := range []string{
		"",
		"no rates are available today",
		"rates moved up by a quarter",
	} {
		if tuples := ScrapeRateTuples(raw, scrapeParams()); len(tuples) != 0 {
			t.Errorf("ScrapeRateTuples(%q) = %+v, want empty", raw, tuples)
		}
	}
}

func TestBuildQueryMentionsScenario(t *testing.T) {
	params := models.LoanParameters{
		LoanAmount:    350000,
		PropertyValue: 500000,
		LoanTerm:      models.Term30Year,
		LoanType:      models.LoanConventional,
		CreditScore:   "740-759",
	}
	q := strings.ToLower(BuildQuery(params))
	if q == "" {
		t.Fatal("empty query")
	}
	for _, want := range []string{"30yr", "conventional", "740-759", "350000"} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}
