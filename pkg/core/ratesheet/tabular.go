// Package ratesheet - Tabular Parsing
// Fixed-layout rectangle scanning and dynamic header detection for
// spreadsheet-shaped inputs (xlsx, csv, html tables).
package ratesheet

import (
	"log"
	"strings"

	"ratequote/pkg/models"
)

// SheetGrid is the neutral cell matrix every tabular source is reduced to
// before scanning. Rows may be ragged; cell lookups go through cellAt.
type SheetGrid struct {
	Name  string
	Cells [][]string
}

func (g SheetGrid) cellAt(row, col int) string {
	if row < 0 || row >= len(g.Cells) {
		return ""
	}
	cells := g.Cells[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// =============================================================================
// QUIRK NORMALIZATION
// =============================================================================

// normalizeRate applies the decimal-rate quirk: values below 1 are fractions
// (0.07125) and are promoted to percent (7.125).
func normalizeRate(v float64, quirks LayoutQuirks) float64 {
	if quirks.DecimalRates && v > 0 && v < 1 {
		return v * 100
	}
	return v
}

// normalizeDeviationPrice converts a signed deviation-from-par price into a
// wholesale price. Negative deviations are rebates (above par); small
// positive deviations are costs (below par). Values already near 100 pass
// through untouched.
func normalizeDeviationPrice(p float64, quirks LayoutQuirks) float64 {
	if !quirks.DeviationPrices {
		return p
	}
	if p > MinValidPrice && p < MaxValidPrice {
		return p
	}
	if p < 0 {
		return 100 + (-p)
	}
	if p < 10 {
		return 100 - p
	}
	return p
}

// =============================================================================
// FIXED-LAYOUT STRATEGY
// =============================================================================

// parseFixedLayout scans every RateBlock rectangle of a recognized lender
// layout. Rows whose rate/price values fall outside the valid bands are
// silently skipped (headers, blanks, N/A markers).
func parseFixedLayout(layout *LenderLayout, sheets []SheetGrid, set *rateSet) {
	byName := make(map[string]SheetGrid, len(sheets))
	for _, s := range sheets {
		byName[strings.ToLower(strings.TrimSpace(s.Name))] = s
	}

	for _, block := range layout.RateBlocks {
		sheet, ok := lookupSheet(byName, sheets, block.Sheet)
		if !ok {
			log.Printf("[Parser] layout %q: sheet %q not found, skipping block", layout.LenderName, block.Sheet)
			continue
		}
		scanRectangle(sheet, block, layout.Quirks, set)
	}
}

func lookupSheet(byName map[string]SheetGrid, sheets []SheetGrid, name string) (SheetGrid, bool) {
	if name == "" {
		if len(sheets) == 0 {
			return SheetGrid{}, false
		}
		return sheets[0], true
	}
	sheet, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return sheet, ok
}

// scanRectangle walks a rate block top to bottom and collects every row whose
// values land inside the valid numeric bands.
func scanRectangle(sheet SheetGrid, block RateBlock, quirks LayoutQuirks, set *rateSet) {
	for row := block.StartRow; row <= block.EndRow && row < len(sheet.Cells); row++ {
		rawRate, ok := ParseCellNumber(sheet.cellAt(row, block.RateCol))
		if !ok {
			continue
		}
		rate := normalizeRate(rawRate, quirks)
		if !ValidRate(rate) {
			continue
		}

		var prices [3]float64
		populated := 0
		for i, col := range block.PriceCols {
			if col < 0 {
				continue
			}
			raw, ok := ParseCellNumber(sheet.cellAt(row, col))
			if !ok {
				continue
			}
			price := normalizeDeviationPrice(raw, quirks)
			if !ValidPrice(price) {
				continue
			}
			prices[i] = price
			populated++
		}
		if populated == 0 {
			continue
		}

		set.add(ParsedRate{
			Rate:       rate,
			Price15Day: prices[0],
			Price30Day: prices[1],
			Price45Day: prices[2],
			LoanTerm:   block.LoanTerm,
			LoanType:   block.LoanType,
		})
	}
}

// =============================================================================
// DYNAMIC-DETECTION STRATEGY
// =============================================================================

// parseDynamic is the fallback for unrecognized lenders: locate a header cell
// containing "rate", infer neighboring lock-price columns from header tokens,
// then rectangle-scan below the header.
func parseDynamic(sheets []SheetGrid, params dynamicParams, set *rateSet) {
	for _, sheet := range sheets {
		if IsAdjustmentSheetName(sheet.Name) {
			continue
		}
		scanSheetDynamic(sheet, params, set)
	}
}

// dynamicParams carries the (term, type) context a dynamic scan tags rows
// with; unknown sheets don't encode these per-block so the requested loan's
// context is assumed.
type dynamicParams struct {
	LoanTerm models.LoanTerm
	LoanType models.LoanType
}

func defaultDynamicParams() dynamicParams {
	return dynamicParams{LoanTerm: models.Term30Year, LoanType: models.LoanConventional}
}

func scanSheetDynamic(sheet SheetGrid, params dynamicParams, set *rateSet) {
	// Sheet names like "FHA 30yr" carry the (term, type) context dynamic
	// sheets don't encode per block.
	if term, ok := detectTermKeyword(strings.ToLower(sheet.Name)); ok {
		params.LoanTerm = term
	}
	if typ, ok := detectTypeKeyword(strings.ToLower(sheet.Name)); ok {
		params.LoanType = typ
	}

	// Sheets can stack several rate tables (conventional, then a jumbo banner
	// and a second header). Collect every header with the context in force at
	// its row, then scan each block capped at the next header so a table is
	// never tagged with a later table's context or scanned twice.
	type headerBlock struct {
		row       int
		rateCol   int
		priceCols [3]int
		term      models.LoanTerm
		typ       models.LoanType
	}
	var headers []headerBlock

	for rowIdx, row := range sheet.Cells {
		// Context rows above a rate header ("30 Year Fixed - Conventional")
		// update the running term/type, last seen wins.
		if joined := strings.ToLower(strings.Join(row, " ")); len(row) > 0 {
			if term, ok := detectTermKeyword(joined); ok {
				params.LoanTerm = term
			}
			if typ, ok := detectTypeKeyword(joined); ok {
				params.LoanType = typ
			}
		}
		rateCol := -1
		for colIdx, cell := range row {
			if strings.Contains(strings.ToLower(cell), "rate") {
				rateCol = colIdx
				break
			}
		}
		if rateCol < 0 {
			continue
		}

		priceCols := detectPriceColumns(row, rateCol)
		if priceCols == [3]int{-1, -1, -1} {
			// No recognizable lock headers; assume the three columns right
			// of the rate column are 15/30/45 in order.
			priceCols = [3]int{rateCol + 1, rateCol + 2, rateCol + 3}
		}

		headers = append(headers, headerBlock{
			row:       rowIdx,
			rateCol:   rateCol,
			priceCols: priceCols,
			term:      params.LoanTerm,
			typ:       params.LoanType,
		})
	}

	for i, h := range headers {
		endRow := h.row + MaxDynamicScanRows
		if i+1 < len(headers) && headers[i+1].row-1 < endRow {
			endRow = headers[i+1].row - 1
		}
		block := RateBlock{
			LoanTerm:  h.term,
			LoanType:  h.typ,
			StartRow:  h.row + 1,
			EndRow:    endRow,
			RateCol:   h.rateCol,
			PriceCols: h.priceCols,
		}
		scanRectangle(sheet, block, LayoutQuirks{}, set)
	}
}

// detectPriceColumns matches header tokens like "15 day" / "30-day lock" to
// the three lock-period columns.
func detectPriceColumns(header []string, rateCol int) [3]int {
	cols := [3]int{-1, -1, -1}
	for colIdx, cell := range header {
		if colIdx == rateCol {
			continue
		}
		lower := strings.ToLower(cell)
		if !strings.Contains(lower, "day") && !strings.Contains(lower, "lock") {
			continue
		}
		switch {
		case strings.Contains(lower, "15"):
			cols[0] = colIdx
		case strings.Contains(lower, "30"):
			cols[1] = colIdx
		case strings.Contains(lower, "45"):
			cols[2] = colIdx
		}
	}
	return cols
}
