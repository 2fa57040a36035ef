// Package ratesheet - LLPA Grid Extraction
// Fixed slicing for recognized layouts plus keyword-driven dynamic detection
// of FICO x LTV matrices and state adjustment groups.
package ratesheet

import (
	"log"
	"regexp"
	"strings"

	"ratequote/pkg/models"
)

// =============================================================================
// FIXED GRID SLICING
// =============================================================================

// extractFixedGrids slices every GridSlice of a recognized layout out of its
// sheet. Slices whose sheet is missing are skipped with a log line; a sheet
// edit that breaks a slice must never fail the whole parse.
func extractFixedGrids(layout *LenderLayout, sheets []SheetGrid) []AdjustmentGrid {
	byName := make(map[string]SheetGrid, len(sheets))
	for _, s := range sheets {
		byName[strings.ToLower(strings.TrimSpace(s.Name))] = s
	}

	var grids []AdjustmentGrid
	for _, slice := range layout.GridSlices {
		sheet, ok := lookupSheet(byName, sheets, slice.Sheet)
		if !ok {
			log.Printf("[Parser] layout %q: grid sheet %q not found, skipping %q", layout.LenderName, slice.Sheet, slice.Name)
			continue
		}
		grid := sliceGrid(sheet, slice)
		if grid.Valid() {
			grids = append(grids, grid)
		}
	}
	return grids
}

func sliceGrid(sheet SheetGrid, slice GridSlice) AdjustmentGrid {
	var xLabels []string
	for col := slice.DataStartCol; col <= slice.DataEndCol; col++ {
		xLabels = append(xLabels, NormalizeGridLabel(sheet.cellAt(slice.HeaderRow, col)))
	}

	var yLabels []string
	var data [][]*float64
	for row := slice.DataStartRow; row <= slice.DataEndRow; row++ {
		label := NormalizeGridLabel(sheet.cellAt(row, slice.LabelCol))
		if label == "" {
			continue
		}
		cells := make([]*float64, 0, len(xLabels))
		for col := slice.DataStartCol; col <= slice.DataEndCol; col++ {
			if v, ok := ParseCellNumber(sheet.cellAt(row, col)); ok {
				value := v
				cells = append(cells, &value)
			} else {
				cells = append(cells, nil)
			}
		}
		yLabels = append(yLabels, label)
		data = append(data, cells)
	}

	return AdjustmentGrid{
		Name:        slice.Name,
		Type:        slice.Type,
		LoanPurpose: slice.LoanPurpose,
		YLabels:     yLabels,
		XLabels:     xLabels,
		Data:        data,
	}
}

// =============================================================================
// DYNAMIC FICO/LTV GRID DETECTION
// =============================================================================

var (
	ltvRangePattern  = regexp.MustCompile(`\d{1,3}(\.\d{1,2})?\s*-\s*\d{1,3}(\.\d{1,2})?`)
	ficoRangePattern = regexp.MustCompile(`^\s*(>=?|<=?)?\s*\d{3}(\s*-\s*\d{3})?\s*$`)
)

// looksLikeLTVBucket accepts header cells shaped like LTV brackets: a percent
// sign, a comparison, or an NN.NN-NN.NN range.
func looksLikeLTVBucket(cell string) bool {
	cell = NormalizeGridLabel(cell)
	if cell == "" {
		return false
	}
	if strings.ContainsAny(cell, "%<>") {
		return true
	}
	return ltvRangePattern.MatchString(cell)
}

// looksLikeFICORange accepts row labels shaped like FICO brackets: "740-759",
// ">=780", "<640".
func looksLikeFICORange(label string) bool {
	return ficoRangePattern.MatchString(NormalizeGridLabel(label))
}

// findDynamicGrids scans unrecognized sheets for FICO/credit-score keyword
// cells, infers the LTV axis to their right and collects the rectangle of
// adjustment rows below until a blank label terminates it.
func findDynamicGrids(sheets []SheetGrid) []AdjustmentGrid {
	var grids []AdjustmentGrid
	for _, sheet := range sheets {
		grids = append(grids, scanSheetForFICOGrids(sheet)...)
		grids = append(grids, scanSheetForStateGroups(sheet)...)
	}
	return grids
}

func scanSheetForFICOGrids(sheet SheetGrid) []AdjustmentGrid {
	var grids []AdjustmentGrid
	for rowIdx, row := range sheet.Cells {
		anchorCol := -1
		for colIdx, cell := range row {
			lower := strings.ToLower(cell)
			if strings.Contains(lower, "fico") || strings.Contains(lower, "credit score") {
				anchorCol = colIdx
				break
			}
		}
		if anchorCol < 0 {
			continue
		}

		// Scan rightward on the anchor row for an LTV axis.
		var xLabels []string
		var xCols []int
		for colIdx := anchorCol + 1; colIdx < len(row); colIdx++ {
			if looksLikeLTVBucket(row[colIdx]) {
				xLabels = append(xLabels, NormalizeGridLabel(row[colIdx]))
				xCols = append(xCols, colIdx)
			}
		}
		if len(xLabels) < MinLTVBucketCells {
			continue
		}

		// Scan downward collecting FICO-labeled rows until a blank label.
		var yLabels []string
		var data [][]*float64
		for dataRow := rowIdx + 1; dataRow < len(sheet.Cells); dataRow++ {
			label := NormalizeGridLabel(sheet.cellAt(dataRow, anchorCol))
			if label == "" || !looksLikeFICORange(label) {
				break
			}
			cells := make([]*float64, 0, len(xCols))
			for _, col := range xCols {
				if v, ok := ParseCellNumber(sheet.cellAt(dataRow, col)); ok {
					value := v
					cells = append(cells, &value)
				} else {
					cells = append(cells, nil)
				}
			}
			yLabels = append(yLabels, label)
			data = append(data, cells)
		}
		if len(yLabels) == 0 {
			continue
		}

		grids = append(grids, AdjustmentGrid{
			Name:        strings.TrimSpace(sheet.Name) + " FICO/LTV",
			Type:        GridFICOLTV,
			LoanPurpose: models.PurposeAll,
			YLabels:     yLabels,
			XLabels:     xLabels,
			Data:        data,
		})
	}
	return grids
}

// =============================================================================
// STATE ADJUSTMENT GROUPS
// =============================================================================

var stateCodePattern = regexp.MustCompile(`\b[A-Z]{2}\b`)

// scanSheetForStateGroups recognizes group definitions where one cell lists
// multiple two-letter state codes separated by comma or semicolon
// (e.g. "Group 3; ,AK,AL,AR") with the adjustment value in an adjacent cell
// or on the row below.
func scanSheetForStateGroups(sheet SheetGrid) []AdjustmentGrid {
	var yLabels []string
	var data [][]*float64

	for rowIdx, row := range sheet.Cells {
		for colIdx, cell := range row {
			codes := extractStateCodes(cell)
			if len(codes) < 2 {
				continue
			}

			value, ok := ParseCellNumber(sheet.cellAt(rowIdx, colIdx+1))
			if !ok {
				value, ok = ParseCellNumber(sheet.cellAt(rowIdx+1, colIdx))
			}
			if !ok {
				continue
			}

			v := value
			yLabels = append(yLabels, strings.Join(codes, ","))
			data = append(data, []*float64{&v})
		}
	}

	if len(yLabels) == 0 {
		return nil
	}
	return []AdjustmentGrid{{
		Name:        strings.TrimSpace(sheet.Name) + " State Adjustments",
		Type:        GridState,
		LoanPurpose: models.PurposeAll,
		YLabels:     yLabels,
		XLabels:     []string{"All"},
		Data:        data,
	}}
}

// extractStateCodes pulls the two-letter state codes out of a group cell.
// Separators vary between comma and semicolon on live sheets.
func extractStateCodes(cell string) []string {
	if !strings.Contains(cell, ",") && !strings.Contains(cell, ";") {
		return nil
	}
	var codes []string
	seen := make(map[string]bool)
	for _, match := range stateCodePattern.FindAllString(cell, -1) {
		if !seen[match] {
			seen[match] = true
			codes = append(codes, match)
		}
	}
	return codes
}
