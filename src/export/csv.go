package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/reconcile"
	"github.com/alfalang/alfapay/backend/src/security/validation"
)

// paymentsCSVHeader is the fixed column set of the payments CSV export.
var paymentsCSVHeader = []string{
	"Client", "Client Interpreter ID", "Report Name", "Internal Interpreter",
	"Language", "Period", "Minutes", "Hours", "Client Rate", "Client Charge",
	"Interpreter Payment", "Profit", "Margin", "Status", "Match Status",
	"Adjustment", "Notes",
}

// PaymentsCSV renders payments as a CSV document. clientNames maps client ID
// to display name for the first column. Text cells are run through the
// formula-injection sanitizer so the file is safe to open in a spreadsheet.
func PaymentsCSV(payments []models.Payment, clientNames map[string]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(paymentsCSVHeader); err != nil {
		return "", fmt.Errorf("csv export: writing header: %w", err)
	}

	for i := range payments {
		p := &payments[i]
		record := []string{
			validation.SanitizeForFormulaInjection(clientNames[p.ClientID]),
			validation.SanitizeForFormulaInjection(p.ClientInterpreterID),
			validation.SanitizeForFormulaInjection(p.InterpreterName),
			validation.SanitizeForFormulaInjection(p.InternalInterpreterName),
			validation.SanitizeForFormulaInjection(p.LanguagePair),
			validation.SanitizeForFormulaInjection(p.Period),
			strconv.FormatFloat(p.Minutes, 'f', -1, 64),
			strconv.FormatFloat(p.Hours, 'f', -1, 64),
			reconcile.FormatAmount(p.ClientRate),
			reconcile.FormatAmount(p.ClientCharge),
			reconcile.FormatAmount(p.InterpreterPayment),
			reconcile.FormatAmount(p.Profit),
			reconcile.FormatMargin(p.ProfitMargin),
			string(p.Status),
			string(p.MatchStatus),
			reconcile.FormatAmount(p.Adjustment),
			validation.SanitizeForFormulaInjection(p.Notes),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("csv export: writing row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv export: %w", err)
	}
	return buf.String(), nil
}

// PaymentsCSVFilename names the download after the period when one was
// filtered, and "export" otherwise.
func PaymentsCSVFilename(period string) string {
	if period == "" {
		period = "export"
	}
	return fmt.Sprintf("alfa-payments-%s.csv", period)
}
