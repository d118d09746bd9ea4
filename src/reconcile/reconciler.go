package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alfalang/alfapay/backend/src/models"
)

// NoMatchName is the internal interpreter name recorded when no registry
// record matches the row.
const NoMatchName = "Not Found"

// ReconcileRow matches one imported report row against the interpreter
// registry and computes the charge, payment, profit and margin for it. It is
// total: malformed rows, unmapped columns and non-numeric values degrade to
// zeroes rather than failing, and every row yields exactly one Payment.
//
// Matching is first-match-wins over the registry in iteration order, by exact
// string equality between the row's interpreter ID (read through the column
// mapping) and the interpreter's external ID for client.IDField.
func ReconcileRow(row models.ImportedRow, mapping models.ColumnMapping, interpreters []models.Interpreter, client models.Client) models.Payment {
	clientInterpreterID := mappedValue(row, mapping, models.FieldInterpreterID)
	reportName := mappedValue(row, mapping, models.FieldInterpreterName)
	minutes := parseFloatOrZero(mappedValue(row, mapping, models.FieldMinutes))
	hours := parseFloatOrZero(mappedValue(row, mapping, models.FieldHours))
	clientRate := parseFloatOrZero(mappedValue(row, mapping, models.FieldRate))
	period := mappedValue(row, mapping, models.FieldDate)
	languagePair := mappedValue(row, mapping, models.FieldLanguagePair)

	var matched *models.Interpreter
	if clientInterpreterID != "" {
		for i := range interpreters {
			if interpreters[i].ExternalID(client.IDField) == clientInterpreterID {
				matched = &interpreters[i]
				break
			}
		}
	}

	// Minutes take priority over hours whenever minutes > 0, regardless of
	// which quantity the report intended.
	var charge, payment float64
	switch {
	case minutes > 0:
		charge = minutes * clientRate
		if matched != nil && matched.HasPayRate() {
			payment = minutes * parseFloatOrZero(matched.RatePerMinute)
		}
	case hours > 0:
		charge = hours * clientRate
		if matched != nil && matched.HasPayRate() {
			payment = hours * parseFloatOrZero(matched.RatePerHour)
		}
	}

	matchStatus := models.MatchUnmatched
	internalName := NoMatchName
	var interpreterID *string
	if matched != nil {
		internalName = matched.ContactName
		id := matched.ID
		interpreterID = &id
		if matched.HasPayRate() {
			matchStatus = models.MatchMatched
		} else {
			matchStatus = models.MatchNoInterpreterRate
		}
	}

	profit := charge - payment
	var margin float64
	if charge > 0 {
		margin = profit / charge * 100
	}

	return models.Payment{
		ClientID:                client.ID,
		InterpreterID:           interpreterID,
		ClientInterpreterID:     clientInterpreterID,
		InterpreterName:         reportName,
		InternalInterpreterName: internalName,
		LanguagePair:            languagePair,
		Period:                  period,
		ClientRate:              clientRate,
		Minutes:                 minutes,
		Hours:                   hours,
		ClientCharge:            charge,
		InterpreterPayment:      payment,
		Profit:                  profit,
		ProfitMargin:            margin,
		Status:                  models.StatusPending,
		MatchStatus:             matchStatus,
		Adjustment:              0,
		Notes:                   "",
	}
}

// ReconcileRows applies ReconcileRow to every row of an import session.
func ReconcileRows(rows []models.ImportedRow, mapping models.ColumnMapping, interpreters []models.Interpreter, client models.Client) []models.Payment {
	payments := make([]models.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, ReconcileRow(row, mapping, interpreters, client))
	}
	return payments
}

// mappedValue reads the row value behind a standard field. An unmapped field
// or a missing column both yield the empty string.
func mappedValue(row models.ImportedRow, mapping models.ColumnMapping, field string) string {
	column, ok := mapping[field]
	if !ok || column == "" {
		return ""
	}
	return strings.TrimSpace(row[column])
}

// parseFloatOrZero is the standard parse-or-zero policy for numeric report
// fields: anything that does not parse counts as 0.
func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAmount renders a monetary value with exactly two decimal places.
// Export writers depend on this formatting.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatMargin renders a profit margin as a one-decimal percentage string.
func FormatMargin(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
