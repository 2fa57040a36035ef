// Package ratesheet - Parser Entry Point
// Dispatches uploaded files by extension to the tabular, PDF or HTML paths.
package ratesheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parser turns raw rate-sheet files into ParsedRateSheets. Safe for
// concurrent use; all per-parse state lives on the stack.
type Parser struct {
	layouts *LayoutRegistry
}

// NewParser creates a parser with the built-in layout registry.
func NewParser() *Parser {
	return &Parser{layouts: NewLayoutRegistry("")}
}

// NewParserWithRegistry creates a parser using a caller-managed registry
// (e.g. one persisted to disk).
func NewParserWithRegistry(layouts *LayoutRegistry) *Parser {
	return &Parser{layouts: layouts}
}

// Layouts exposes the registry for layout administration.
func (p *Parser) Layouts() *LayoutRegistry {
	return p.layouts
}

// ParseRateSheet parses one uploaded file. It never panics across this
// boundary: every failure path is captured into ParseError so the caller can
// continue with other lenders.
func (p *Parser) ParseRateSheet(fileBytes []byte, fileName, lenderName string) (result ParsedRateSheet) {
	result = ParsedRateSheet{LenderName: lenderName}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Parser] panic parsing %q for %q: %v", fileName, lenderName, r)
			result = ParsedRateSheet{
				LenderName: lenderName,
				ParseError: fmt.Sprintf("internal parse failure: %v", r),
			}
		}
	}()

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".xlsx", ".xlsm", ".xls":
		return p.parseSpreadsheetFile(fileBytes, fileName, lenderName)
	case ".csv":
		return p.parseCSVFile(fileBytes, fileName, lenderName)
	case ".pdf":
		return p.parsePDFFile(fileBytes, fileName, lenderName)
	case ".html", ".htm":
		return p.parseHTMLFile(fileBytes, fileName, lenderName)
	default:
		result.ParseError = fmt.Sprintf("Unsupported file format: %s", ext)
		log.Printf("[Parser] %s for %q (%s)", result.ParseError, lenderName, fileName)
		return result
	}
}

// =============================================================================
// FORMAT-SPECIFIC ENTRY POINTS
// =============================================================================

func (p *Parser) parseSpreadsheetFile(fileBytes []byte, fileName, lenderName string) ParsedRateSheet {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return ParsedRateSheet{
			LenderName: lenderName,
			ParseError: fmt.Sprintf("failed to open workbook %s: %v", fileName, err),
		}
	}
	defer f.Close()

	var sheets []SheetGrid
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			log.Printf("[Parser] failed to read sheet %q in %s: %v", name, fileName, err)
			continue
		}
		sheets = append(sheets, SheetGrid{Name: name, Cells: rows})
	}

	return p.parseSheets(sheets, lenderName)
}

func (p *Parser) parseCSVFile(fileBytes []byte, fileName, lenderName string) ParsedRateSheet {
	reader := csv.NewReader(bytes.NewReader(fileBytes))
	reader.FieldsPerRecord = -1 // rate sheets are ragged
	records, err := reader.ReadAll()
	if err != nil {
		return ParsedRateSheet{
			LenderName: lenderName,
			ParseError: fmt.Sprintf("failed to read CSV %s: %v", fileName, err),
		}
	}

	sheets := []SheetGrid{{Name: strings.TrimSuffix(fileName, filepath.Ext(fileName)), Cells: records}}
	return p.parseSheets(sheets, lenderName)
}

func (p *Parser) parsePDFFile(fileBytes []byte, fileName, lenderName string) ParsedRateSheet {
	rates, err := parsePDF(fileBytes)
	if err != nil {
		return ParsedRateSheet{
			LenderName: lenderName,
			ParseError: fmt.Sprintf("failed to parse PDF %s: %v", fileName, err),
		}
	}
	if len(rates) == 0 {
		return ParsedRateSheet{
			LenderName: lenderName,
			ParseError: fmt.Sprintf("no valid rates found in PDF %s", fileName),
		}
	}
	log.Printf("[Parser] %q: %d rates from PDF (no grids; PDF grids are unsupported)", lenderName, len(rates))
	return ParsedRateSheet{LenderName: lenderName, Rates: rates, ParseSuccess: true}
}

func (p *Parser) parseHTMLFile(fileBytes []byte, fileName, lenderName string) ParsedRateSheet {
	sheets, err := sheetsFromHTML(string(fileBytes))
	if err != nil {
		return ParsedRateSheet{
			LenderName: lenderName,
			ParseError: fmt.Sprintf("failed to parse HTML %s: %v", fileName, err),
		}
	}
	return p.parseSheets(sheets, lenderName)
}

// =============================================================================
// SHARED TABULAR PIPELINE
// =============================================================================

// parseSheets runs the layout resolution and both tabular strategies over a
// set of cell grids.
func (p *Parser) parseSheets(sheets []SheetGrid, lenderName string) ParsedRateSheet {
	if len(sheets) == 0 {
		return ParsedRateSheet{
			LenderName: lenderName,
			ParseError: "workbook contains no readable sheets",
		}
	}

	sheetNames := make([]string, 0, len(sheets))
	for _, s := range sheets {
		sheetNames = append(sheetNames, s.Name)
	}

	set := newRateSet()
	var grids []AdjustmentGrid

	if layout := p.layouts.Resolve(lenderName, sheetNames); layout != nil {
		log.Printf("[Parser] %q matched fixed layout %q", lenderName, layout.LenderName)
		parseFixedLayout(layout, sheets, set)
		grids = extractFixedGrids(layout, sheets)
	} else {
		log.Printf("[Parser] %q: no fixed layout, using dynamic detection", lenderName)
		parseDynamic(sheets, defaultDynamicParams(), set)
		grids = findDynamicGrids(sheets)
	}

	rates := set.list()
	if len(rates) == 0 {
		return ParsedRateSheet{
			LenderName:  lenderName,
			Adjustments: grids,
			ParseError:  "no valid rates found in sheet",
		}
	}

	log.Printf("[Parser] %q: %d rates, %d adjustment grids", lenderName, len(rates), len(grids))
	return ParsedRateSheet{
		LenderName:   lenderName,
		Rates:        rates,
		Adjustments:  grids,
		ParseSuccess: true,
	}
}
