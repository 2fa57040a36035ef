// Package ratesheet implements the Rate Sheet Ingestion Engine.
// It parses heterogeneous lender rate sheets (xlsx/xls/csv/pdf/html) into a
// normalized rate table plus LLPA adjustment grids.
package ratesheet

import (
	"regexp"
	"strconv"
	"strings"

	"ratequote/pkg/models"
)

// =============================================================================
// NUMERIC BANDS - Validity thresholds for accepted rate/price values
// =============================================================================

// Values outside these bands are treated as mis-parses and discarded.
const (
	MinValidRate  = 3.0
	MaxValidRate  = 12.0
	MinValidPrice = 90.0
	MaxValidPrice = 110.0

	// Dynamic detection limits
	MaxDynamicScanRows = 50 // rows scanned below a detected header
	MinLTVBucketCells  = 3  // cells required to accept an LTV axis
)

// ValidRate reports whether v is inside the accepted rate band [3, 12].
func ValidRate(v float64) bool {
	return v >= MinValidRate && v <= MaxValidRate
}

// ValidPrice reports whether v is inside the accepted price band (90, 110).
func ValidPrice(v float64) bool {
	return v > MinValidPrice && v < MaxValidPrice
}

// =============================================================================
// PARSED RATE - One point on a lender's rate/price curve
// =============================================================================

// ParsedRate holds one rate with its wholesale prices per lock period.
// A zero price field means the sheet did not publish that lock.
type ParsedRate struct {
	Rate       float64         `json:"rate"`
	Price15Day float64         `json:"price_15_day,omitempty"`
	Price30Day float64         `json:"price_30_day,omitempty"`
	Price45Day float64         `json:"price_45_day,omitempty"`
	LoanTerm   models.LoanTerm `json:"loan_term"`
	LoanType   models.LoanType `json:"loan_type"`
}

// BestPrice returns the preferred wholesale price for pricing math:
// the 30-day lock when present, otherwise the first populated lock.
func (r ParsedRate) BestPrice() float64 {
	if r.Price30Day > 0 {
		return r.Price30Day
	}
	if r.Price45Day > 0 {
		return r.Price45Day
	}
	return r.Price15Day
}

// rateKey identifies the uniqueness bucket for deduplication.
type rateKey struct {
	rate float64
	term models.LoanTerm
	typ  models.LoanType
}

// rateSet collects ParsedRates with at most one entry per (rate, term, type).
// On duplicates the entry with the best (highest) 30-day price wins.
type rateSet struct {
	byKey map[rateKey]ParsedRate
	order []rateKey
}

func newRateSet() *rateSet {
	return &rateSet{byKey: make(map[rateKey]ParsedRate)}
}

func (s *rateSet) add(r ParsedRate) {
	key := rateKey{rate: r.Rate, term: r.LoanTerm, typ: r.LoanType}
	existing, ok := s.byKey[key]
	if !ok {
		s.byKey[key] = r
		s.order = append(s.order, key)
		return
	}
	if r.BestPrice() > existing.BestPrice() {
		s.byKey[key] = r
	}
}

// list returns rates in first-seen order, keeping parsing deterministic.
func (s *rateSet) list() []ParsedRate {
	out := make([]ParsedRate, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// =============================================================================
// ADJUSTMENT GRID - LLPA matrix (FICO x LTV, property, state, ...)
// =============================================================================

// GridType classifies what an AdjustmentGrid's axes mean.
type GridType string

const (
	GridFICOLTV     GridType = "fico_ltv"
	GridState       GridType = "state"
	GridProperty    GridType = "property"
	GridLoanAmount  GridType = "loan_amount"
	GridLoanPurpose GridType = "loan_purpose"
	GridOther       GridType = "other"
)

// AdjustmentGrid is a named 2-D LLPA lookup table. Data is row-major with
// len(Data) == len(YLabels) and len(Data[i]) == len(XLabels); nil cells mean
// "no adjustment published". Positive values improve price.
type AdjustmentGrid struct {
	Name        string             `json:"name"`
	Type        GridType           `json:"type"`
	LoanPurpose models.LoanPurpose `json:"loan_purpose"`
	YLabels     []string           `json:"y_labels"`
	XLabels     []string           `json:"x_labels"`
	Data        [][]*float64       `json:"data"`
}

// Valid reports whether the grid's axes and data dimensions agree.
func (g AdjustmentGrid) Valid() bool {
	if len(g.Data) != len(g.YLabels) {
		return false
	}
	for _, row := range g.Data {
		if len(row) != len(g.XLabels) {
			return false
		}
	}
	return len(g.YLabels) > 0 && len(g.XLabels) > 0
}

// AppliesTo reports whether the grid is in scope for a loan purpose.
func (g AdjustmentGrid) AppliesTo(purpose models.LoanPurpose) bool {
	return g.LoanPurpose == "" || g.LoanPurpose == models.PurposeAll || g.LoanPurpose == purpose
}

// =============================================================================
// PARSED RATE SHEET - Parse result for one lender's uploaded file
// =============================================================================

// ParsedRateSheet is constructed fresh on every parse invocation and never
// mutated afterwards. Failures are captured in ParseError, never panics.
type ParsedRateSheet struct {
	LenderName   string           `json:"lender_name"`
	Rates        []ParsedRate     `json:"rates"`
	Adjustments  []AdjustmentGrid `json:"adjustments"`
	ParseSuccess bool             `json:"parse_success"`
	ParseError   string           `json:"parse_error,omitempty"`
}

// =============================================================================
// LABEL + CELL PARSING HELPERS
// =============================================================================

var cellNumberClean = regexp.MustCompile(`[^0-9.\-]`)

// ParseCellNumber parses a spreadsheet cell into a float. Handles "$", "%",
// thousands separators and parenthesized negatives. Returns ok=false for
// blank markers and non-numeric text.
func ParseCellNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "—" || raw == "-" || raw == "–" || strings.EqualFold(raw, "n/a") {
		return 0, false
	}

	isNegative := strings.Contains(raw, "(") && strings.Contains(raw, ")")

	cleaned := cellNumberClean.ReplaceAllString(raw, "")
	if cleaned == "" || cleaned == "." || cleaned == "-" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if isNegative && value > 0 {
		value = -value
	}
	return value, true
}

// NormalizeGridLabel canonicalizes axis labels: comparison glyphs are
// rewritten to ASCII and whitespace collapsed, so "≥740" and ">= 740"
// compare equal downstream.
func NormalizeGridLabel(label string) string {
	label = strings.ReplaceAll(label, "≤", "<=")
	label = strings.ReplaceAll(label, "≥", ">=")
	label = strings.Join(strings.Fields(strings.TrimSpace(label)), " ")
	return label
}

// IsAdjustmentSheetName reports whether a sheet tab holds LLPA content and
// must be excluded from rate-table scanning.
func IsAdjustmentSheetName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "adj") || strings.Contains(lower, "llpa")
}
