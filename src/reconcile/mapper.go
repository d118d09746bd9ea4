package reconcile

import (
	"strings"

	"github.com/alfalang/alfapay/backend/src/models"
)

// SuggestMapping inspects the header names of an uploaded report and guesses
// which column feeds each standard field. Matching is case-insensitive
// substring matching, evaluated independently per header in file order, so a
// later header that qualifies for an already-assigned field overwrites the
// earlier assignment, and a single header may be assigned to several fields
// at once. The result is only a suggestion; staff can override any field
// before reconciliation runs.
func SuggestMapping(headers []string) models.ColumnMapping {
	mapping := models.ColumnMapping{}

	for _, header := range headers {
		h := strings.ToLower(header)
		if h == "" {
			continue
		}

		if strings.Contains(h, "id") {
			mapping[models.FieldInterpreterID] = header
		}
		if strings.Contains(h, "name") {
			mapping[models.FieldInterpreterName] = header
		}
		if strings.Contains(h, "minute") && !strings.Contains(h, "rate") {
			mapping[models.FieldMinutes] = header
		}
		if strings.Contains(h, "hour") && !strings.Contains(h, "minute") && !strings.Contains(h, "rate") {
			mapping[models.FieldHours] = header
		}
		if strings.Contains(h, "date") || strings.Contains(h, "period") {
			mapping[models.FieldDate] = header
		}
		if strings.Contains(h, "language") {
			mapping[models.FieldLanguagePair] = header
		}
		if strings.Contains(h, "rate") {
			mapping[models.FieldRate] = header
		}
	}

	return mapping
}
