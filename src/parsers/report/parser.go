package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alfalang/alfapay/backend/src/models"
)

// ParsedReport is the tabular content of one uploaded usage report. Headers
// preserve the file's column order; the column mapper depends on that order
// for its last-match-wins behavior.
type ParsedReport struct {
	Headers  []string             `json:"columns"`
	Rows     []models.ImportedRow `json:"data"`
	RowCount int                  `json:"rowCount"`
}

// Parser reads client usage reports in CSV or XLSX form into ImportedRows.
type Parser struct{}

// NewParser creates a new report parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the uploaded file and returns its rows keyed by header name.
// XLSX files are recognized by extension or by the zip signature; everything
// else is treated as CSV.
func (p *Parser) Parse(file io.Reader, filename string) (*ParsedReport, error) {
	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("report parser: failed to read upload: %w", err)
	}

	if isXLSX(contents, filename) {
		return p.parseXLSX(contents)
	}
	return p.parseCSV(contents)
}

func (p *Parser) parseCSV(contents []byte) (*ParsedReport, error) {
	reader := csv.NewReader(bytes.NewReader(contents))
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("report parser: failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("report parser: failed to read CSV records: %w", err)
	}

	headers := normalizeHeaders(header)
	return buildReport(headers, records), nil
}

func (p *Parser) parseXLSX(contents []byte) (*ParsedReport, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("report parser: failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("report parser: workbook has no sheets")
	}

	// Reports arrive as single-sheet exports; only the first sheet is read.
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("report parser: failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report parser: sheet %q is empty", sheets[0])
	}

	headers := normalizeHeaders(rows[0])
	return buildReport(headers, rows[1:]), nil
}

func buildReport(headers []string, records [][]string) *ParsedReport {
	parsed := &ParsedReport{
		Headers: headers,
		Rows:    make([]models.ImportedRow, 0, len(records)),
	}

	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		row := make(models.ImportedRow, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		parsed.Rows = append(parsed.Rows, row)
	}

	parsed.RowCount = len(parsed.Rows)
	return parsed
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}
	return headers
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isXLSX checks the filename extension and the PK zip signature XLSX files
// start with.
func isXLSX(contents []byte, filename string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return true
	}
	return len(contents) >= 4 && bytes.Equal(contents[:4], []byte{0x50, 0x4B, 0x03, 0x04})
}
