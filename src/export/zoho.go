package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alfalang/alfapay/backend/src/models"
)

const zohoSheetName = "Zoho Books Import"

// zohoHeaders is the Zoho Books bill-import column set. Columns after
// "Terms & Conditions" are required by the importer but left blank.
var zohoHeaders = []string{
	"Bill Date", "Bill Number", "PurchaseOrder", "Bill Status", "Vendor Name",
	"Due Date", "Currency Code", "Exchange Rate", "Account", "Description",
	"Quantity", "Rate", "Total", "Terms & Conditions", "Customer Name",
	"Project Name", "Adjustment", "Item Type", "Purchase Order Number",
	"Is Discount Before Tax", "Entity Discount Amount", "Discount Account",
	"Warehouse Name", "Branch Name", "CIT/Importer Name",
}

// ZohoBooksWorkbook builds the Zoho Books bill-import spreadsheet for the
// given payments. clientNames maps client ID to display name; vendorNames
// maps internal interpreter ID to the contact name used as the bill vendor.
// Bills are dated now with payment due 30 days out.
func ZohoBooksWorkbook(payments []models.Payment, clientNames map[string]string, vendorNames map[string]string, now time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), zohoSheetName); err != nil {
		return nil, fmt.Errorf("zoho export: renaming sheet: %w", err)
	}

	for col, header := range zohoHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(zohoSheetName, cell, header); err != nil {
			return nil, fmt.Errorf("zoho export: writing header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("zoho export: creating header style: %w", err)
	}
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(zohoHeaders), 1)
	if err := f.SetCellStyle(zohoSheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("zoho export: styling header: %w", err)
	}

	billDate := now.Format("02/01/2006")
	dueDate := now.AddDate(0, 0, 30).Format("02/01/2006")

	for i := range payments {
		p := &payments[i]

		clientName := clientNames[p.ClientID]
		if clientName == "" {
			clientName = p.ClientID
		}
		vendorName := p.InternalInterpreterName
		if p.InterpreterID != nil {
			if name, ok := vendorNames[*p.InterpreterID]; ok && name != "" {
				vendorName = name
			}
		}
		description := "Interpretation Services " + clientName
		if p.LanguagePair != "" {
			description += " - " + p.LanguagePair
		}

		row := []any{
			billDate,
			clientName + p.Period,
			"",
			"Open",
			vendorName,
			dueDate,
			"USD",
			1,
			"",
			description,
			int(p.Minutes),
			p.ClientRate,
			p.InterpreterPayment,
			"", "", "", "", "", "", "", "", "", "", "", "",
		}
		startCell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(zohoSheetName, startCell, &row); err != nil {
			return nil, fmt.Errorf("zoho export: writing row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("zoho export: serializing workbook: %w", err)
	}
	return buf, nil
}

// ZohoBooksFilename timestamps the download to the second.
func ZohoBooksFilename(now time.Time) string {
	return fmt.Sprintf("zoho_books_import_%s.xlsx", now.Format("20060102_150405"))
}
