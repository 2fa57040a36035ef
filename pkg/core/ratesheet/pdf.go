// Package ratesheet - PDF Text Parsing
// Line-oriented extraction of rate/price pairs from PDF rate sheets.
// PDFs never yield adjustment grids; their layout is too unreliable for
// matrix extraction, which is a documented limitation of this path.
package ratesheet

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"ratequote/pkg/models"
)

var decimalRunPattern = regexp.MustCompile(`-?\d+\.\d+`)

// parsePDF extracts plain text from the PDF bytes and scans it line by line.
func parsePDF(fileBytes []byte) ([]ParsedRate, error) {
	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return nil, fmt.Errorf("failed to read PDF text: %w", err)
	}

	return parsePDFText(buf.String()), nil
}

// parsePDFText maintains a running (term, type) context from keywords seen on
// each line (last seen wins), then accepts the first two in-band decimal
// numbers per line as a (rate, price) pair.
func parsePDFText(text string) []ParsedRate {
	set := newRateSet()

	currentTerm := models.Term30Year
	currentType := models.LoanConventional

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)

		if term, ok := detectTermKeyword(lower); ok {
			currentTerm = term
		}
		if typ, ok := detectTypeKeyword(lower); ok {
			currentType = typ
		}

		numbers := decimalRunPattern.FindAllString(line, -1)
		if len(numbers) < 2 {
			continue
		}

		rate, price, ok := firstValidPair(numbers)
		if !ok {
			continue
		}

		set.add(ParsedRate{
			Rate:       rate,
			Price30Day: price,
			LoanTerm:   currentTerm,
			LoanType:   currentType,
		})
	}

	return set.list()
}

// firstValidPair picks the first number inside the rate band and, after it,
// the first number inside the price band.
func firstValidPair(numbers []string) (float64, float64, bool) {
	rateIdx := -1
	var rate float64
	for i, raw := range numbers {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if ValidRate(v) {
			rate = v
			rateIdx = i
			break
		}
	}
	if rateIdx < 0 {
		return 0, 0, false
	}
	for _, raw := range numbers[rateIdx+1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if ValidPrice(v) {
			return rate, v, true
		}
	}
	return 0, 0, false
}

func detectTermKeyword(lower string) (models.LoanTerm, bool) {
	terms := []struct {
		tokens []string
		term   models.LoanTerm
	}{
		{[]string{"30 year", "30-year", "30 yr", "30yr"}, models.Term30Year},
		{[]string{"25 year", "25-year", "25 yr", "25yr"}, models.Term25Year},
		{[]string{"20 year", "20-year", "20 yr", "20yr"}, models.Term20Year},
		{[]string{"15 year", "15-year", "15 yr", "15yr"}, models.Term15Year},
		{[]string{"10 year", "10-year", "10 yr", "10yr"}, models.Term10Year},
	}
	for _, t := range terms {
		for _, token := range t.tokens {
			if strings.Contains(lower, token) {
				return t.term, true
			}
		}
	}
	return "", false
}

func detectTypeKeyword(lower string) (models.LoanType, bool) {
	types := []struct {
		tokens []string
		typ    models.LoanType
	}{
		{[]string{"fha"}, models.LoanFHA},
		{[]string{"usda"}, models.LoanUSDA},
		{[]string{"dscr"}, models.LoanDSCR},
		{[]string{"jumbo"}, models.LoanJumbo},
		{[]string{"va"}, models.LoanVA},
		{[]string{"conventional", "conforming", "conv"}, models.LoanConventional},
	}
	// Word-bounded match so "nevada" never reads as VA.
	padded := " " + nonAlnumPattern.ReplaceAllString(lower, " ") + " "
	for _, t := range types {
		for _, token := range t.tokens {
			if strings.Contains(padded, " "+token+" ") {
				return t.typ, true
			}
		}
	}
	return "", false
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)
