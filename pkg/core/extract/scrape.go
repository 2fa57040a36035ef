// Package extract - Response Scraping
// Pulls rate tuples out of untyped retrieval responses. Strategies, most to
// least structured: repaired JSON, markdown tables, regex line scan.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"ratequote/pkg/core/ratesheet"
	"ratequote/pkg/models"
)

// ScrapeRateTuples extracts every plausible rate/price pair from a free-text
// response. Values outside the parser's validity bands are discarded; a
// malformed response yields an empty slice, never an error.
func ScrapeRateTuples(raw string, params models.LoanParameters) []RateTuple {
	raw = stripCodeFences(raw)

	if tuples := scrapeJSON(raw, params); len(tuples) > 0 {
		return tuples
	}
	if tuples := scrapeMarkdownTables(raw, params); len(tuples) > 0 {
		return tuples
	}
	return scrapeLines(raw, params)
}

// stripCodeFences removes outer ```json / ``` wrappers retrieval backends
// like to add around structured payloads.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, prefix := range []string{"```json", "```markdown", "```"} {
		if strings.HasPrefix(cleaned, prefix) && strings.HasSuffix(cleaned, "```") {
			cleaned = strings.TrimPrefix(cleaned, prefix)
			cleaned = strings.TrimSuffix(cleaned, "```")
			return strings.TrimSpace(cleaned)
		}
	}
	return cleaned
}

// =============================================================================
// STRATEGY 1: JSON (with repair + hjson leniency)
// =============================================================================

type rateTupleJSON struct {
	Rate  float64 `json:"rate"`
	Price float64 `json:"price"`
}

// scrapeJSON tries strict JSON, then repaired JSON, then Hjson. The payload
// may be a bare array or wrapped in a {"rates": [...]} envelope.
func scrapeJSON(raw string, params models.LoanParameters) []RateTuple {
	candidates := []string{raw}
	if repaired, err := jsonrepair.RepairJSON(raw); err == nil {
		candidates = append(candidates, repaired)
	}
	if lenient := hjsonToJSON(raw); lenient != "" {
		candidates = append(candidates, lenient)
	}

	for _, candidate := range candidates {
		var bare []rateTupleJSON
		if err := json.Unmarshal([]byte(candidate), &bare); err == nil {
			if tuples := tuplesFromJSON(bare, params); len(tuples) > 0 {
				return tuples
			}
		}

		var wrapped struct {
			Rates []rateTupleJSON `json:"rates"`
		}
		if err := json.Unmarshal([]byte(candidate), &wrapped); err == nil {
			if tuples := tuplesFromJSON(wrapped.Rates, params); len(tuples) > 0 {
				return tuples
			}
		}
	}
	return nil
}

func hjsonToJSON(raw string) string {
	var v interface{}
	if err := hjson.Unmarshal([]byte(raw), &v); err != nil {
		return ""
	}
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}

func tuplesFromJSON(items []rateTupleJSON, params models.LoanParameters) []RateTuple {
	var tuples []RateTuple
	for _, item := range items {
		if ratesheet.ValidRate(item.Rate) && ratesheet.ValidPrice(item.Price) {
			tuples = append(tuples, RateTuple{
				Rate:     item.Rate,
				Price:    item.Price,
				LoanTerm: params.LoanTerm,
				LoanType: params.LoanType,
			})
		}
	}
	return tuples
}

// =============================================================================
// STRATEGY 2: MARKDOWN TABLES
// =============================================================================

// scrapeMarkdownTables walks GFM tables in the response and reads the first
// in-band rate and price cell per row.
func scrapeMarkdownTables(raw string, params models.LoanParameters) []RateTuple {
	source := []byte(raw)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	var tuples []RateTuple
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		row, ok := n.(*east.TableRow)
		if !ok {
			return ast.WalkContinue, nil
		}

		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, string(cell.Text(source)))
		}
		if rate, price, ok := pairFromCells(cells); ok {
			tuples = append(tuples, RateTuple{
				Rate:     rate,
				Price:    price,
				LoanTerm: params.LoanTerm,
				LoanType: params.LoanType,
			})
		}
		return ast.WalkSkipChildren, nil
	})

	return tuples
}

func pairFromCells(cells []string) (float64, float64, bool) {
	var numbers []float64
	for _, cell := range cells {
		if v, ok := ratesheet.ParseCellNumber(cell); ok {
			numbers = append(numbers, v)
		}
	}
	return firstBandPair(numbers)
}

// =============================================================================
// STRATEGY 3: REGEX LINE SCAN
// =============================================================================

var decimalPattern = regexp.MustCompile(`-?\d+\.\d+`)

// scrapeLines is the last resort: per line, the first in-band rate followed
// by an in-band price is accepted.
func scrapeLines(raw string, params models.LoanParameters) []RateTuple {
	var tuples []RateTuple
	for _, line := range strings.Split(raw, "\n") {
		matches := decimalPattern.FindAllString(line, -1)
		if len(matches) < 2 {
			continue
		}
		var numbers []float64
		for _, m := range matches {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				numbers = append(numbers, v)
			}
		}
		if rate, price, ok := firstBandPair(numbers); ok {
			tuples = append(tuples, RateTuple{
				Rate:     rate,
				Price:    price,
				LoanTerm: params.LoanTerm,
				LoanType: params.LoanType,
			})
		}
	}
	return tuples
}

func firstBandPair(numbers []float64) (float64, float64, bool) {
	rateIdx := -1
	var rate float64
	for i, v := range numbers {
		if ratesheet.ValidRate(v) {
			rate = v
			rateIdx = i
			break
		}
	}
	if rateIdx < 0 {
		return 0, 0, false
	}
	for _, v := range numbers[rateIdx+1:] {
		if ratesheet.ValidPrice(v) {
			return rate, v, true
		}
	}
	return 0, 0, false
}
