package ratesheet

import (
	"testing"
)

const sampleHTML = `<html><body>
<h2>Daily Pricing</h2>
<table>
<tr><th>Rate</th><th>30 Day</th></tr>
<tr><td>6.125</td><td>100.000</td></tr>
<tr><td>6.250</td><td>100.500</td></tr>
</table>
<table>
<caption>ADJ Grid</caption>
<tr><td>FICO</td><td>&lt;=75%</td><td>75.01-80%</td><td>&gt;80%</td></tr>
<tr><td>&gt;=740</td><td>0.250</td><td>0.000</td><td>-0.250</td></tr>
<tr><td>&lt;740</td><td>-0.500</td><td>-0.750</td><td>-1.000</td></tr>
</table>
</body></html>`

func TestSheetsFromHTML(t *testing.T) {
	sheets, err := sheetsFromHTML(sampleHTML)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheets) != 2 {
		t.Fatalf("got %d sheets, want 2", len(sheets))
	}

	// First table takes the preceding heading as its name; the second has a
	// caption, which wins over any preceding element.
	if sheets[0].Name != "Daily Pricing" {
		t.Errorf("sheets[0].Name = %q, want heading \"Daily Pricing\"", sheets[0].Name)
	}
	if sheets[1].Name != "ADJ Grid" {
		t.Errorf("sheets[1].Name = %q, want caption \"ADJ Grid\"", sheets[1].Name)
	}

	if len(sheets[0].Cells) != 3 {
		t.Fatalf("sheets[0] has %d rows, want 3", len(sheets[0].Cells))
	}
	if sheets[0].Cells[1][0] != "6.125" || sheets[0].Cells[1][1] != "100.000" {
		t.Errorf("sheets[0].Cells[1] = %v", sheets[0].Cells[1])
	}
	// Entity-encoded comparison glyphs decode into plain text cells.
	if sheets[1].Cells[0][1] != "<=75%" {
		t.Errorf("sheets[1].Cells[0][1] = %q, want \"<=75%%\"", sheets[1].Cells[0][1])
	}
}

func TestParseHTMLEndToEnd(t *testing.T) {
	p := NewParser()
	result := p.ParseRateSheet([]byte(sampleHTML), "daily.html", "Web Lender")

	if !result.ParseSuccess {
		t.Fatalf("parse failed: %s", result.ParseError)
	}

	// Rates come only from the pricing table; the ADJ-named table is
	// excluded from rate scanning.
	if len(result.Rates) != 2 {
		t.Fatalf("got %d rates, want 2", len(result.Rates))
	}
	if result.Rates[0].Rate != 6.125 || result.Rates[0].Price30Day != 100.000 {
		t.Errorf("rates[0] = %+v", result.Rates[0])
	}

	// The ADJ table still yields a FICO/LTV adjustment grid.
	if len(result.Adjustments) != 1 {
		t.Fatalf("got %d grids, want 1", len(result.Adjustments))
	}
	g := result.Adjustments[0]
	if g.Type != GridFICOLTV {
		t.Errorf("grid type = %s, want fico_ltv", g.Type)
	}
	if len(g.YLabels) != 2 || len(g.XLabels) != 3 {
		t.Errorf("grid axes = %dx%d, want 2x3", len(g.YLabels), len(g.XLabels))
	}
	if g.Data[0][0] == nil || *g.Data[0][0] != 0.250 {
		t.Errorf("Data[0][0] = %v, want 0.250", g.Data[0][0])
	}
}

func TestParseHTMLNoTables(t *testing.T) {
	result := NewParser().ParseRateSheet([]byte("<html><body><p>call desk</p></body></html>"), "empty.html", "Empty")
	if result.ParseSuccess {
		t.Error("table-free HTML should not parse successfully")
	}
}
