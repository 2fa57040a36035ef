package ratesheet

import (
	"testing"

	"ratequote/pkg/models"
)

func TestDynamicFICOGridDetection(t *testing.T) {
	sheet := SheetGrid{
		Name: "LLPA",
		Cells: [][]string{
			{"Loan Level Price Adjustments"},
			{"FICO", "<=75%", "75.01-80%", "80.01-85%", ">85%"},
			{">=780", "0.500", "0.250", "0.000", "-0.250"},
			{"740-759", "0.250", "0.000", "-0.250", "-0.500"},
			{"<640", "-1.250", "-1.500", "-1.750", "-2.000"},
			{"", "", "", "", ""},
			{"unrelated footer"},
		},
	}

	grids := findDynamicGrids([]SheetGrid{sheet})
	if len(grids) != 1 {
		t.Fatalf("got %d grids, want 1", len(grids))
	}

	g := grids[0]
	if g.Type != GridFICOLTV {
		t.Errorf("grid type = %s, want fico_ltv", g.Type)
	}
	if !g.Valid() {
		t.Fatal("detected grid fails dimension validation")
	}
	if len(g.YLabels) != 3 {
		t.Errorf("got %d FICO rows, want 3 (blank label terminates)", len(g.YLabels))
	}
	if len(g.XLabels) != 4 {
		t.Errorf("got %d LTV buckets, want 4", len(g.XLabels))
	}
	if g.XLabels[0] != "<=75%" {
		t.Errorf("XLabels[0] = %q, want normalized \"<=75%%\"", g.XLabels[0])
	}
	if g.Data[0][1] == nil || *g.Data[0][1] != 0.250 {
		t.Errorf("Data[0][1] = %v, want 0.250", g.Data[0][1])
	}
}

func TestDynamicFICOGridTooFewBuckets(t *testing.T) {
	// Fewer than MinLTVBucketCells LTV cells must not produce a grid.
	sheet := SheetGrid{
		Name: "LLPA",
		Cells: [][]string{
			{"FICO", "<=80%", ">80%"},
			{">=780", "0.500", "0.250"},
		},
	}
	if grids := findDynamicGrids([]SheetGrid{sheet}); len(grids) != 0 {
		t.Errorf("got %d grids from a 2-bucket axis, want 0", len(grids))
	}
}

func TestStateGroupDetection(t *testing.T) {
	sheet := SheetGrid{
		Name: "State Adj",
		Cells: [][]string{
			{"State Group Adjustments"},
			{"Group 2; AK,AL,AR", "-0.125"},
			{"AZ;NM;UT", "0.250"},
		},
	}

	grids := findDynamicGrids([]SheetGrid{sheet})
	if len(grids) != 1 {
		t.Fatalf("got %d grids, want 1", len(grids))
	}

	g := grids[0]
	if g.Type != GridState {
		t.Errorf("grid type = %s, want state", g.Type)
	}
	if len(g.YLabels) != 2 {
		t.Fatalf("got %d state groups, want 2", len(g.YLabels))
	}
	if g.YLabels[0] != "AK,AL,AR" {
		t.Errorf("YLabels[0] = %q, want \"AK,AL,AR\"", g.YLabels[0])
	}
	if g.YLabels[1] != "AZ,NM,UT" {
		t.Errorf("semicolon separators: YLabels[1] = %q, want \"AZ,NM,UT\"", g.YLabels[1])
	}
	if g.Data[0][0] == nil || *g.Data[0][0] != -0.125 {
		t.Errorf("Data[0][0] = %v, want -0.125", g.Data[0][0])
	}
}

func TestStateGroupRequiresMultipleCodes(t *testing.T) {
	// A lone code like "CA" in a comma-free cell is not a group definition.
	sheet := SheetGrid{
		Name: "Notes",
		Cells: [][]string{
			{"CA", "-0.500"},
		},
	}
	if grids := findDynamicGrids([]SheetGrid{sheet}); len(grids) != 0 {
		t.Errorf("got %d grids from a single-code cell, want 0", len(grids))
	}
}

func TestFixedGridSlicing(t *testing.T) {
	layout := &LenderLayout{
		LenderName: "Test Lender",
		GridSlices: []GridSlice{
			{Sheet: "Adj", Name: "FICO/LTV", Type: GridFICOLTV, LoanPurpose: models.PurposeAll,
				HeaderRow: 0, LabelCol: 0, DataStartRow: 1, DataEndRow: 2, DataStartCol: 1, DataEndCol: 2},
		},
	}
	sheets := []SheetGrid{{
		Name: "Adj",
		Cells: [][]string{
			{"", "<=80%", ">80%"},
			{">=740", "0.250", "0.000"},
			{"<740", "-0.250", "N/A"},
		},
	}}

	grids := extractFixedGrids(layout, sheets)
	if len(grids) != 1 {
		t.Fatalf("got %d grids, want 1", len(grids))
	}
	g := grids[0]
	if !g.Valid() {
		t.Fatal("sliced grid fails dimension validation")
	}
	if g.Data[1][1] != nil {
		t.Errorf("N/A cell should be nil, got %v", *g.Data[1][1])
	}
	if g.Data[1][0] == nil || *g.Data[1][0] != -0.250 {
		t.Errorf("Data[1][0] = %v, want -0.250", g.Data[1][0])
	}
}

func TestGridAppliesTo(t *testing.T) {
	purchase := AdjustmentGrid{LoanPurpose: models.PurposePurchase}
	if purchase.AppliesTo(models.PurposeCashOutRefi) {
		t.Error("purchase grid should not apply to cash-out refi")
	}
	if !purchase.AppliesTo(models.PurposePurchase) {
		t.Error("purchase grid should apply to purchase")
	}
	all := AdjustmentGrid{LoanPurpose: models.PurposeAll}
	if !all.AppliesTo(models.PurposeRateRefi) {
		t.Error("all-purpose grid should apply to any purpose")
	}
}
