package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/reconcile"
)

func TestSuggestMapping(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    models.ColumnMapping
	}{
		{
			name:    "empty header set yields empty mapping",
			headers: nil,
			want:    models.ColumnMapping{},
		},
		{
			name:    "typical cloudbreak report headers",
			headers: []string{"Interpreter ID", "Interpreter Name", "Total Minutes", "Billing Period", "Language", "Rate"},
			want: models.ColumnMapping{
				models.FieldInterpreterID:   "Interpreter ID",
				models.FieldInterpreterName: "Interpreter Name",
				models.FieldMinutes:         "Total Minutes",
				models.FieldDate:            "Billing Period",
				models.FieldLanguagePair:    "Language",
				models.FieldRate:            "Rate",
			},
		},
		{
			name:    "hours report without minutes column",
			headers: []string{"Employee ID", "Hours Worked", "Date", "Hourly Rate"},
			want: models.ColumnMapping{
				models.FieldInterpreterID: "Employee ID",
				models.FieldHours:         "Hours Worked",
				models.FieldDate:          "Date",
				models.FieldRate:          "Hourly Rate",
			},
		},
		{
			name:    "one header can satisfy several fields",
			headers: []string{"Rate ID"},
			want: models.ColumnMapping{
				models.FieldInterpreterID: "Rate ID",
				models.FieldRate:          "Rate ID",
			},
		},
		{
			name:    "later header overwrites earlier assignment for the same field",
			headers: []string{"Rate Per Minute", "Rate Per Hour"},
			want: models.ColumnMapping{
				// Both columns qualify only for the rate field: the minute
				// and hour rules both exclude headers containing "rate".
				models.FieldRate: "Rate Per Hour",
			},
		},
		{
			name:    "matching is case-insensitive",
			headers: []string{"INTERPRETER id", "total MINUTES"},
			want: models.ColumnMapping{
				models.FieldInterpreterID: "INTERPRETER id",
				models.FieldMinutes:       "total MINUTES",
			},
		},
		{
			name:    "unrecognized headers are left unmapped",
			headers: []string{"Foo", "Bar", ""},
			want:    models.ColumnMapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile.SuggestMapping(tt.headers)
			assert.Equal(t, tt.want, got)
		})
	}
}
