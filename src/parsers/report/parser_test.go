package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/parsers/report"
)

func TestParseCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Interpreter ID,Interpreter Name,Total Minutes,Rate",
		"12345,Maria Gomez,1200,0.50",
		"67890,Ana Silva,300,0.40",
		"", // blank line is skipped
		"11111,Li Wei",
	}, "\n")

	parsed, err := report.NewParser().Parse(strings.NewReader(csvData), "cloudbreak-march.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Interpreter ID", "Interpreter Name", "Total Minutes", "Rate"}, parsed.Headers)
	require.Equal(t, 3, parsed.RowCount)

	assert.Equal(t, models.ImportedRow{
		"Interpreter ID":   "12345",
		"Interpreter Name": "Maria Gomez",
		"Total Minutes":    "1200",
		"Rate":             "0.50",
	}, parsed.Rows[0])

	// Short records fill the trailing columns with empty strings.
	assert.Equal(t, "Li Wei", parsed.Rows[2]["Interpreter Name"])
	assert.Equal(t, "", parsed.Rows[2]["Rate"])
}

func TestParseCSVStripsBOMAndWhitespace(t *testing.T) {
	csvData := "\uFEFFInterpreter ID, Minutes \n 123 , 45 \n"

	parsed, err := report.NewParser().Parse(strings.NewReader(csvData), "report.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Interpreter ID", "Minutes"}, parsed.Headers)
	require.Equal(t, 1, parsed.RowCount)
	assert.Equal(t, "123", parsed.Rows[0]["Interpreter ID"])
	assert.Equal(t, "45", parsed.Rows[0]["Minutes"])
}

func TestParseEmptyFileFails(t *testing.T) {
	_, err := report.NewParser().Parse(strings.NewReader(""), "empty.csv")
	assert.Error(t, err)
}

func TestParseXLSX(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]interface{}{"Interpreter ID", "Hours Worked", "Hourly Rate"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]interface{}{"67890", "40", "30.00"}))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	parsed, err := report.NewParser().Parse(&buf, "report.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Interpreter ID", "Hours Worked", "Hourly Rate"}, parsed.Headers)
	require.Equal(t, 1, parsed.RowCount)
	assert.Equal(t, "67890", parsed.Rows[0]["Interpreter ID"])
	assert.Equal(t, "40", parsed.Rows[0]["Hours Worked"])
}

func TestParseXLSXDetectedBySignature(t *testing.T) {
	// Same workbook uploaded with a generic filename: the zip signature
	// routes it to the XLSX path.
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]interface{}{"Interpreter ID"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]interface{}{"1"}))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	parsed, err := report.NewParser().Parse(&buf, "upload")
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.RowCount)
}
