// Package importer turns uploaded lead sheets into lead records.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"leadscore_backend/platform/sanitize"
)

// Columns recognised in the header row. Unknown columns are ignored.
const (
	ColName        = "name"
	ColRole        = "role"
	ColCompany     = "company"
	ColIndustry    = "industry"
	ColLocation    = "location"
	ColLinkedInBio = "linkedin_bio"
)

// Field length caps applied after sanitising.
const (
	maxShortField = 255
	maxBioField   = 4000
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("importer: missing header row")

// Record is one imported lead.
type Record struct {
	Name        string
	Role        string
	Company     string
	Industry    string
	Location    string
	LinkedInBio string
}

// Result is the outcome of parsing a sheet.
type Result struct {
	Records []Record
	// Skipped counts data rows without a usable name.
	Skipped int
}

// ParseCSV reads a comma separated sheet whose first row is a header.
func ParseCSV(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("importer: read input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("importer: parse csv: %w", err)
	}
	return ParseRows(rows)
}

// ParseRows maps already split rows. The first row is the header.
func ParseRows(rows [][]string) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrNoHeader
	}

	index := headerIndex(rows[0])
	result := Result{Records: make([]Record, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := Record{
			Name:        field(row, index, ColName, maxShortField),
			Role:        field(row, index, ColRole, maxShortField),
			Company:     field(row, index, ColCompany, maxShortField),
			Industry:    field(row, index, ColIndustry, maxShortField),
			Location:    field(row, index, ColLocation, maxShortField),
			LinkedInBio: field(row, index, ColLinkedInBio, maxBioField),
		}
		if rec.Name == "" {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// headerIndex maps normalised column names to positions. The first occurrence wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := index[key]; !seen && key != "" {
			index[key] = i
		}
	}
	return index
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.Fields(h), "_")
	return strings.ReplaceAll(h, "-", "_")
}

func field(row []string, index map[string]int, col string, maxLen int) string {
	i, ok := index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return truncate(sanitize.Text(row[i]), maxLen)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
