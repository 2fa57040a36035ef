// Package pricing - LLPA Grid Lookup
// Maps a borrower scenario onto a sheet's adjustment grids and totals the
// applicable price adjustments, recording every hit for auditability.
package pricing

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/models"
)

// =============================================================================
// CREDIT SCORE RESOLUTION
// =============================================================================

// coarseFICO maps the lead form's coarse credit labels to representative
// FICO values.
var coarseFICO = map[string]float64{
	"excellent": 780,
	"good":      720,
	"fair":      660,
	"poor":      600,
}

var ficoRange = regexp.MustCompile(`^(\d{3})\s*-\s*(\d{3})$`)

// RepresentativeFICO resolves a credit-score input (coarse label or range
// string like "740-759") to a single FICO value: the midpoint of a range, a
// fixed lookup for labels, the bound ±10 for open ranges.
func RepresentativeFICO(creditScore string) float64 {
	s := strings.ToLower(strings.TrimSpace(creditScore))
	if v, ok := coarseFICO[s]; ok {
		return v
	}
	if m := ficoRange.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		return (lo + hi) / 2
	}
	if strings.HasPrefix(s, ">=") || strings.HasPrefix(s, ">") {
		if v, err := strconv.ParseFloat(strings.TrimLeft(s, ">= "), 64); err == nil {
			return v + 10
		}
	}
	if strings.HasPrefix(s, "<=") || strings.HasPrefix(s, "<") {
		if v, err := strconv.ParseFloat(strings.TrimLeft(s, "<= "), 64); err == nil {
			return v - 10
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return coarseFICO["good"]
}

// =============================================================================
// RANGE LABEL MATCHING
// =============================================================================

var rangeLabel = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)

// matchRangeLabel reports whether value falls inside a bracket label and, if
// not, the distance to the bracket's nearest bound (for closest-fit
// fallback). Supported syntaxes: ">=N", ">N", "<=N", "<N", "N-M", "N+", "N".
// Bracket labels own their boundaries: 780 matches both ">=780" and
// "760-780".
func matchRangeLabel(label string, value float64) (bool, float64) {
	label = strings.TrimSuffix(ratesheet.NormalizeGridLabel(label), "%")
	label = strings.ReplaceAll(label, " ", "")

	parseBound := func(s string) (float64, bool) {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}

	switch {
	case strings.HasPrefix(label, ">="):
		if bound, ok := parseBound(label[2:]); ok {
			if value >= bound {
				return true, 0
			}
			return false, bound - value
		}
	case strings.HasPrefix(label, "<="):
		if bound, ok := parseBound(label[2:]); ok {
			if value <= bound {
				return true, 0
			}
			return false, value - bound
		}
	case strings.HasPrefix(label, ">"):
		if bound, ok := parseBound(label[1:]); ok {
			if value > bound {
				return true, 0
			}
			return false, bound - value
		}
	case strings.HasPrefix(label, "<"):
		if bound, ok := parseBound(label[1:]); ok {
			if value < bound {
				return true, 0
			}
			return false, value - bound
		}
	case strings.HasSuffix(label, "+"):
		if bound, ok := parseBound(label[:len(label)-1]); ok {
			if value >= bound {
				return true, 0
			}
			return false, bound - value
		}
	default:
		if m := rangeLabel.FindStringSubmatch(label); m != nil {
			lo, _ := parseBound(m[1])
			hi, _ := parseBound(m[2])
			if value >= lo && value <= hi {
				return true, 0
			}
			if value < lo {
				return false, lo - value
			}
			return false, value - hi
		}
		if bound, ok := parseBound(label); ok {
			if value == bound {
				return true, 0
			}
			return false, math.Abs(value - bound)
		}
	}
	return false, math.Inf(1)
}

// findAxisIndex locates the axis entry containing value; when no bracket
// claims it, the closest bracket wins (a lookup miss must never block quote
// generation). Returns -1 only when no label is numeric at all.
func findAxisIndex(labels []string, value float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, label := range labels {
		contained, dist := matchRangeLabel(label, value)
		if contained {
			return i
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if math.IsInf(bestDist, 1) {
		return -1
	}
	return best
}

// =============================================================================
// PROPERTY / STATE MATCHING
// =============================================================================

// propertyKeywords maps non-standard property types to the row-label tokens
// lenders use for them. Single-family is the pricing baseline and never
// matches a property grid.
var propertyKeywords = map[models.PropertyType][]string{
	models.PropertyCondo:        {"condo", "condominium"},
	models.PropertyTownhouse:    {"townhouse", "townhome", "town home"},
	models.PropertyMultiFamily:  {"multi", "2-4", "units", "duplex"},
	models.PropertyManufactured: {"manufactured", "mobile"},
}

func matchPropertyRow(labels []string, propertyType models.PropertyType) int {
	keywords, ok := propertyKeywords[propertyType]
	if !ok {
		return -1
	}
	for i, label := range labels {
		lower := strings.ToLower(label)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}

// matchStateRow matches a borrower state against multi-code group labels
// like "AK,AL,AR" (comma or semicolon separated).
func matchStateRow(labels []string, state string) int {
	state = strings.ToUpper(strings.TrimSpace(state))
	if len(state) != 2 {
		return -1
	}
	for i, label := range labels {
		for _, code := range strings.FieldsFunc(label, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
			if strings.ToUpper(code) == state {
				return i
			}
		}
	}
	return -1
}

// =============================================================================
// GRID WALK
// =============================================================================

// totalAdjustments walks every grid on a sheet and sums the applicable
// adjustments for the scenario. Lookup misses contribute zero and are
// omitted from the breakdown.
func totalAdjustments(sheet ratesheet.ParsedRateSheet, params models.LoanParameters) (float64, []models.AdjustmentBreakdown) {
	var total float64
	var breakdown []models.AdjustmentBreakdown

	fico := RepresentativeFICO(params.CreditScore)
	ltv := params.LTV()

	for _, grid := range sheet.Adjustments {
		if !grid.Valid() || !grid.AppliesTo(params.LoanPurpose) {
			continue
		}

		row, col := -1, -1
		switch grid.Type {
		case ratesheet.GridFICOLTV:
			row = findAxisIndex(grid.YLabels, fico)
			col = findAxisIndex(grid.XLabels, ltv)
		case ratesheet.GridProperty:
			if params.PropertyType == models.PropertySingleFamily || params.PropertyType == "" {
				continue
			}
			row = matchPropertyRow(grid.YLabels, params.PropertyType)
			col = 0
		case ratesheet.GridState:
			row = matchStateRow(grid.YLabels, params.State)
			col = 0
		default:
			continue
		}

		if row < 0 || col < 0 || row >= len(grid.Data) || col >= len(grid.Data[row]) {
			continue
		}
		cell := grid.Data[row][col]
		if cell == nil {
			continue
		}

		total += *cell
		breakdown = append(breakdown, models.AdjustmentBreakdown{
			GridName: grid.Name,
			GridType: string(grid.Type),
			RowLabel: grid.YLabels[row],
			ColLabel: grid.XLabels[col],
			Value:    *cell,
		})
		log.Printf("[Engine] %q adjustment %q [%s x %s] = %+.3f",
			sheet.LenderName, grid.Name, grid.YLabels[row], grid.XLabels[col], *cell)
	}

	return total, breakdown
}
