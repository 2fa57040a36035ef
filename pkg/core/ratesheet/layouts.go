// Package ratesheet - Lender Layout Registry
// Maps known lender identities to fixed-layout parse strategies.
package ratesheet

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"ratequote/pkg/models"
)

// =============================================================================
// LAYOUT STRATEGY MODEL
// =============================================================================
//
// Resolution order: lender-name match → sheet-tab signature → dynamic detection
//
// Fixed layouts describe hard-coded row/column rectangles per (term, type)
// combination plus optional LLPA grid slices. Unknown lenders fall through to
// the dynamic header-detection strategy in tabular.go.

// RateBlock is one rectangle of rate/price rows on a named sheet.
// PriceCols holds the 15/30/45-day lock columns; -1 means the sheet does not
// publish that lock. Row/column indexes are zero-based.
type RateBlock struct {
	Sheet     string          `json:"sheet"` // tab name, "" = first sheet
	LoanTerm  models.LoanTerm `json:"loan_term"`
	LoanType  models.LoanType `json:"loan_type"`
	StartRow  int             `json:"start_row"`
	EndRow    int             `json:"end_row"`
	RateCol   int             `json:"rate_col"`
	PriceCols [3]int          `json:"price_cols"`
}

// GridSlice describes where a fixed-layout LLPA grid lives on a sheet.
type GridSlice struct {
	Sheet        string             `json:"sheet"`
	Name         string             `json:"name"`
	Type         GridType           `json:"type"`
	LoanPurpose  models.LoanPurpose `json:"loan_purpose"`
	HeaderRow    int                `json:"header_row"`    // row holding the X-axis labels
	LabelCol     int                `json:"label_col"`     // column holding the Y-axis labels
	DataStartRow int                `json:"data_start_row"`
	DataEndRow   int                `json:"data_end_row"`
	DataStartCol int                `json:"data_start_col"`
	DataEndCol   int                `json:"data_end_col"`
}

// LayoutQuirks models lender-specific encodings that must be normalized.
// These are real business logic observed on live sheets, not parse bugs.
type LayoutQuirks struct {
	// DecimalRates: rates arrive as 0.07125 instead of 7.125.
	DecimalRates bool `json:"decimal_rates,omitempty"`
	// DeviationPrices: price is a signed deviation from par where negative
	// means a rebate to the borrower and positive means a cost.
	DeviationPrices bool `json:"deviation_prices,omitempty"`
}

// LenderLayout is the full fixed-layout strategy for one recognized lender.
type LenderLayout struct {
	LenderName      string       `json:"lender_name"`
	NameTokens      []string     `json:"name_tokens"`      // lender-name substrings that select this layout
	SheetSignatures []string     `json:"sheet_signatures"` // characteristic tab names that select this layout
	RateBlocks      []RateBlock  `json:"rate_blocks"`
	GridSlices      []GridSlice  `json:"grid_slices,omitempty"`
	Quirks          LayoutQuirks `json:"quirks"`
	Notes           string       `json:"notes,omitempty"`
}

// =============================================================================
// LAYOUT REGISTRY
// =============================================================================

// LayoutRegistry manages all known lender layouts. New lenders are added as
// registry entries, never as branches in the parse code.
type LayoutRegistry struct {
	mu         sync.RWMutex
	layouts    []*LenderLayout
	configPath string
}

// NewLayoutRegistry creates a registry seeded with the built-in layouts,
// optionally overlaying entries persisted at configPath.
func NewLayoutRegistry(configPath string) *LayoutRegistry {
	reg := &LayoutRegistry{configPath: configPath}
	reg.initDefaultLayouts()
	if configPath != "" {
		reg.loadFromDisk()
	}
	return reg
}

// initDefaultLayouts registers the lenders whose sheet structure is known.
func (r *LayoutRegistry) initDefaultLayouts() {
	// Summit Wholesale publishes rates as decimals (0.07125 = 7.125%) in a
	// single "Rates" tab, one block per term, conventional only.
	r.layouts = append(r.layouts, &LenderLayout{
		LenderName:      "Summit Wholesale",
		NameTokens:      []string{"summit"},
		SheetSignatures: []string{"Summit Rates"},
		Quirks:          LayoutQuirks{DecimalRates: true},
		RateBlocks: []RateBlock{
			{Sheet: "Summit Rates", LoanTerm: models.Term30Year, LoanType: models.LoanConventional,
				StartRow: 3, EndRow: 28, RateCol: 0, PriceCols: [3]int{1, 2, 3}},
			{Sheet: "Summit Rates", LoanTerm: models.Term15Year, LoanType: models.LoanConventional,
				StartRow: 3, EndRow: 28, RateCol: 5, PriceCols: [3]int{6, 7, 8}},
		},
		GridSlices: []GridSlice{
			{Sheet: "Summit LLPA", Name: "FICO/LTV Adjustments", Type: GridFICOLTV, LoanPurpose: models.PurposeAll,
				HeaderRow: 2, LabelCol: 0, DataStartRow: 3, DataEndRow: 10, DataStartCol: 1, DataEndCol: 9},
			{Sheet: "Summit LLPA", Name: "Property Type Adjustments", Type: GridProperty, LoanPurpose: models.PurposeAll,
				HeaderRow: 13, LabelCol: 0, DataStartRow: 14, DataEndRow: 18, DataStartCol: 1, DataEndCol: 1},
		},
		Notes: "Rates encoded as decimals; multiply by 100 on ingest.",
	})

	// Pinnacle Lending publishes price as signed deviation from par
	// (negative = rebate to borrower, positive = cost).
	r.layouts = append(r.layouts, &LenderLayout{
		LenderName:      "Pinnacle Lending",
		NameTokens:      []string{"pinnacle"},
		SheetSignatures: []string{"PL Conforming", "PL Govt"},
		Quirks:          LayoutQuirks{DeviationPrices: true},
		RateBlocks: []RateBlock{
			{Sheet: "PL Conforming", LoanTerm: models.Term30Year, LoanType: models.LoanConventional,
				StartRow: 5, EndRow: 40, RateCol: 1, PriceCols: [3]int{2, 3, 4}},
			{Sheet: "PL Conforming", LoanTerm: models.Term20Year, LoanType: models.LoanConventional,
				StartRow: 5, EndRow: 40, RateCol: 6, PriceCols: [3]int{7, 8, 9}},
			{Sheet: "PL Govt", LoanTerm: models.Term30Year, LoanType: models.LoanFHA,
				StartRow: 5, EndRow: 40, RateCol: 1, PriceCols: [3]int{2, 3, 4}},
			{Sheet: "PL Govt", LoanTerm: models.Term30Year, LoanType: models.LoanVA,
				StartRow: 5, EndRow: 40, RateCol: 6, PriceCols: [3]int{7, 8, 9}},
		},
		GridSlices: []GridSlice{
			{Sheet: "PL Adjustments", Name: "Purchase FICO/LTV", Type: GridFICOLTV, LoanPurpose: models.PurposePurchase,
				HeaderRow: 1, LabelCol: 0, DataStartRow: 2, DataEndRow: 9, DataStartCol: 1, DataEndCol: 8},
			{Sheet: "PL Adjustments", Name: "Cash-Out FICO/LTV", Type: GridFICOLTV, LoanPurpose: models.PurposeCashOutRefi,
				HeaderRow: 12, LabelCol: 0, DataStartRow: 13, DataEndRow: 20, DataStartCol: 1, DataEndCol: 8},
		},
		Notes: "Prices arrive as deviation from par; see normalizeDeviationPrice.",
	})

	// Crestline Mortgage uses a plain layout with 30-day pricing only.
	r.layouts = append(r.layouts, &LenderLayout{
		LenderName:      "Crestline Mortgage",
		NameTokens:      []string{"crestline"},
		SheetSignatures: []string{"Crestline Daily"},
		RateBlocks: []RateBlock{
			{Sheet: "Crestline Daily", LoanTerm: models.Term30Year, LoanType: models.LoanConventional,
				StartRow: 8, EndRow: 45, RateCol: 0, PriceCols: [3]int{-1, 1, -1}},
			{Sheet: "Crestline Daily", LoanTerm: models.Term30Year, LoanType: models.LoanJumbo,
				StartRow: 8, EndRow: 45, RateCol: 3, PriceCols: [3]int{-1, 4, -1}},
			{Sheet: "Crestline Daily", LoanTerm: models.Term15Year, LoanType: models.LoanConventional,
				StartRow: 8, EndRow: 45, RateCol: 6, PriceCols: [3]int{-1, 7, -1}},
		},
	})
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve picks the fixed layout for a lender, matching on the declared
// lender name first, then on characteristic sheet-tab names. Returns nil when
// no fixed layout applies (caller falls back to dynamic detection).
func (r *LayoutRegistry) Resolve(lenderName string, sheetNames []string) *LenderLayout {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowerName := strings.ToLower(lenderName)
	for _, layout := range r.layouts {
		for _, token := range layout.NameTokens {
			if token != "" && strings.Contains(lowerName, token) {
				return layout
			}
		}
	}

	for _, layout := range r.layouts {
		for _, sig := range layout.SheetSignatures {
			for _, name := range sheetNames {
				if strings.EqualFold(strings.TrimSpace(name), sig) {
					return layout
				}
			}
		}
	}

	return nil
}

// Add registers or replaces a layout by lender name.
func (r *LayoutRegistry) Add(layout *LenderLayout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.layouts {
		if strings.EqualFold(existing.LenderName, layout.LenderName) {
			r.layouts[i] = layout
			return
		}
	}
	r.layouts = append(r.layouts, layout)
}

// List returns all registered layouts.
func (r *LayoutRegistry) List() []*LenderLayout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*LenderLayout, len(r.layouts))
	copy(out, r.layouts)
	return out
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// SaveToDisk persists the registry so layout edits survive restarts.
func (r *LayoutRegistry) SaveToDisk() error {
	if r.configPath == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := struct {
		Layouts []*LenderLayout `json:"layouts"`
	}{Layouts: r.layouts}

	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.configPath, bytes, 0644)
}

func (r *LayoutRegistry) loadFromDisk() error {
	bytes, err := os.ReadFile(r.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var data struct {
		Layouts []*LenderLayout `json:"layouts"`
	}
	if err := json.Unmarshal(bytes, &data); err != nil {
		return err
	}

	for _, layout := range data.Layouts {
		r.Add(layout)
	}
	return nil
}
