// Package ratesheet - HTML Table Extraction
// Some lenders distribute rate sheets as HTML exports; their tables are
// reduced to SheetGrids and fed through the same dynamic scanner as
// spreadsheets.
package ratesheet

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sheetsFromHTML converts every <table> in the document into a SheetGrid.
// Table captions (or a preceding heading) become the sheet name so the
// ADJ/LLPA tab exclusion applies to HTML sources too.
func sheetsFromHTML(html string) ([]SheetGrid, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sheets []SheetGrid
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		name := findTableName(table, i)

		var cells [][]string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var line []string
			row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				line = append(line, strings.TrimSpace(cell.Text()))
			})
			if len(line) > 0 {
				cells = append(cells, line)
			}
		})

		if len(cells) > 0 {
			sheets = append(sheets, SheetGrid{Name: name, Cells: cells})
		}
	})

	return sheets, nil
}

func findTableName(table *goquery.Selection, index int) string {
	if caption := strings.TrimSpace(table.Find("caption").First().Text()); caption != "" {
		return caption
	}
	if prev := table.Prev(); prev.Length() > 0 {
		if text := strings.TrimSpace(prev.Text()); text != "" && len(text) < 80 {
			return text
		}
	}
	return fmt.Sprintf("Table %d", index+1)
}
