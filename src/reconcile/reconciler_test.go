package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/reconcile"
)

var cloudbreak = models.Client{
	ID:      "cloudbreak",
	Name:    "Cloudbreak",
	IDField: "cloudbreak_id",
}

var standardMapping = models.ColumnMapping{
	models.FieldInterpreterID:   "interpreterId",
	models.FieldInterpreterName: "interpreterName",
	models.FieldMinutes:         "minutes",
	models.FieldHours:           "hours",
	models.FieldRate:            "rate",
	models.FieldDate:            "period",
	models.FieldLanguagePair:    "language",
}

func TestReconcileRow(t *testing.T) {
	registry := []models.Interpreter{
		{
			ID:            "int-1",
			ContactName:   "Maria Gomez",
			ExternalIDs:   map[string]string{"cloudbreak_id": "12345"},
			RatePerMinute: "0.35",
		},
		{
			ID:          "int-2",
			ContactName: "Ana Silva",
			ExternalIDs: map[string]string{"cloudbreak_id": "67890"},
			RatePerHour: "20.00",
		},
		{
			ID:          "int-3",
			ContactName: "Li Wei",
			ExternalIDs: map[string]string{"cloudbreak_id": "11111"},
		},
	}

	tests := []struct {
		name             string
		row              models.ImportedRow
		interpreters     []models.Interpreter
		wantMatch        models.MatchStatus
		wantCharge       string
		wantPayment      string
		wantProfit       string
		wantMargin       string
		wantInternalName string
	}{
		{
			name:             "matched interpreter with minute rate",
			row:              models.ImportedRow{"interpreterId": "12345", "minutes": "1200", "rate": "0.50"},
			interpreters:     registry,
			wantMatch:        models.MatchMatched,
			wantCharge:       "600.00",
			wantPayment:      "420.00",
			wantProfit:       "180.00",
			wantMargin:       "30.0%",
			wantInternalName: "Maria Gomez",
		},
		{
			name:             "no interpreter carries the report identifier",
			row:              models.ImportedRow{"interpreterId": "99999", "minutes": "1200", "rate": "0.50"},
			interpreters:     registry,
			wantMatch:        models.MatchUnmatched,
			wantCharge:       "600.00",
			wantPayment:      "0.00",
			wantProfit:       "600.00",
			wantMargin:       "100.0%",
			wantInternalName: reconcile.NoMatchName,
		},
		{
			name:             "matched interpreter without any configured rate",
			row:              models.ImportedRow{"interpreterId": "11111", "minutes": "300", "rate": "0.40"},
			interpreters:     registry,
			wantMatch:        models.MatchNoInterpreterRate,
			wantCharge:       "120.00",
			wantPayment:      "0.00",
			wantProfit:       "120.00",
			wantMargin:       "100.0%",
			wantInternalName: "Li Wei",
		},
		{
			name:             "hours branch taken when minutes is zero",
			row:              models.ImportedRow{"interpreterId": "67890", "minutes": "0", "hours": "40", "rate": "30.00"},
			interpreters:     registry,
			wantMatch:        models.MatchMatched,
			wantCharge:       "1200.00",
			wantPayment:      "800.00",
			wantProfit:       "400.00",
			wantMargin:       "33.3%",
			wantInternalName: "Ana Silva",
		},
		{
			name:             "minutes take priority over hours when both are set",
			row:              models.ImportedRow{"interpreterId": "12345", "minutes": "100", "hours": "40", "rate": "0.50"},
			interpreters:     registry,
			wantMatch:        models.MatchMatched,
			wantCharge:       "50.00",
			wantPayment:      "35.00",
			wantProfit:       "15.00",
			wantMargin:       "30.0%",
			wantInternalName: "Maria Gomez",
		},
		{
			name:             "zero quantities yield zero amounts and zero margin",
			row:              models.ImportedRow{"interpreterId": "12345", "minutes": "0", "hours": "0", "rate": "0.50"},
			interpreters:     registry,
			wantMatch:        models.MatchMatched,
			wantCharge:       "0.00",
			wantPayment:      "0.00",
			wantProfit:       "0.00",
			wantMargin:       "0.0%",
			wantInternalName: "Maria Gomez",
		},
		{
			name:             "non-numeric values degrade to zero",
			row:              models.ImportedRow{"interpreterId": "12345", "minutes": "n/a", "rate": "free"},
			interpreters:     registry,
			wantMatch:        models.MatchMatched,
			wantCharge:       "0.00",
			wantPayment:      "0.00",
			wantProfit:       "0.00",
			wantMargin:       "0.0%",
			wantInternalName: "Maria Gomez",
		},
		{
			name:             "completely empty row still yields a well-formed payment",
			row:              models.ImportedRow{},
			interpreters:     registry,
			wantMatch:        models.MatchUnmatched,
			wantCharge:       "0.00",
			wantPayment:      "0.00",
			wantProfit:       "0.00",
			wantMargin:       "0.0%",
			wantInternalName: reconcile.NoMatchName,
		},
		{
			name:             "empty registry",
			row:              models.ImportedRow{"interpreterId": "12345", "minutes": "60", "rate": "1.00"},
			interpreters:     nil,
			wantMatch:        models.MatchUnmatched,
			wantCharge:       "60.00",
			wantPayment:      "0.00",
			wantProfit:       "60.00",
			wantMargin:       "100.0%",
			wantInternalName: reconcile.NoMatchName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile.ReconcileRow(tt.row, standardMapping, tt.interpreters, cloudbreak)

			assert.Equal(t, tt.wantMatch, got.MatchStatus)
			assert.Equal(t, tt.wantCharge, reconcile.FormatAmount(got.ClientCharge))
			assert.Equal(t, tt.wantPayment, reconcile.FormatAmount(got.InterpreterPayment))
			assert.Equal(t, tt.wantProfit, reconcile.FormatAmount(got.Profit))
			assert.Equal(t, tt.wantMargin, reconcile.FormatMargin(got.ProfitMargin))
			assert.Equal(t, tt.wantInternalName, got.InternalInterpreterName)

			// Fresh payments always start pending with no adjustment.
			assert.Equal(t, models.StatusPending, got.Status)
			assert.Zero(t, got.Adjustment)
			assert.Empty(t, got.Notes)

			// Conservation: profit is always charge minus payment.
			assert.InDelta(t, got.ClientCharge-got.InterpreterPayment, got.Profit, 1e-9)
		})
	}
}

func TestReconcileRowFirstMatchWins(t *testing.T) {
	duplicates := []models.Interpreter{
		{ID: "int-a", ContactName: "First Entry", ExternalIDs: map[string]string{"cloudbreak_id": "12345"}, RatePerMinute: "0.30"},
		{ID: "int-b", ContactName: "Second Entry", ExternalIDs: map[string]string{"cloudbreak_id": "12345"}, RatePerMinute: "0.99"},
	}

	got := reconcile.ReconcileRow(
		models.ImportedRow{"interpreterId": "12345", "minutes": "100", "rate": "0.50"},
		standardMapping, duplicates, cloudbreak,
	)

	require.NotNil(t, got.InterpreterID)
	assert.Equal(t, "int-a", *got.InterpreterID)
	assert.Equal(t, "First Entry", got.InternalInterpreterName)
	assert.Equal(t, "30.00", reconcile.FormatAmount(got.InterpreterPayment))
}

func TestReconcileRowDeterminism(t *testing.T) {
	row := models.ImportedRow{"interpreterId": "12345", "minutes": "1200", "rate": "0.50"}
	registry := []models.Interpreter{
		{ID: "int-1", ContactName: "Maria Gomez", ExternalIDs: map[string]string{"cloudbreak_id": "12345"}, RatePerMinute: "0.35"},
	}

	first := reconcile.ReconcileRow(row, standardMapping, registry, cloudbreak)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, reconcile.ReconcileRow(row, standardMapping, registry, cloudbreak))
	}
}

func TestReconcileRowUnmappedColumnsYieldNoValues(t *testing.T) {
	// Mapping points at columns the row does not carry; everything degrades
	// to empty/zero instead of failing.
	mapping := models.ColumnMapping{
		models.FieldInterpreterID: "Some Missing Column",
		models.FieldMinutes:       "Another Missing Column",
	}

	got := reconcile.ReconcileRow(models.ImportedRow{"x": "y"}, mapping, nil, cloudbreak)

	assert.Equal(t, models.MatchUnmatched, got.MatchStatus)
	assert.Nil(t, got.InterpreterID)
	assert.Zero(t, got.ClientCharge)
	assert.Zero(t, got.InterpreterPayment)
}

func TestReconcileRows(t *testing.T) {
	registry := []models.Interpreter{
		{ID: "int-1", ContactName: "Maria Gomez", ExternalIDs: map[string]string{"cloudbreak_id": "12345"}, RatePerMinute: "0.35"},
	}
	rows := []models.ImportedRow{
		{"interpreterId": "12345", "minutes": "100", "rate": "0.50"},
		{"interpreterId": "unknown", "minutes": "50", "rate": "0.50"},
	}

	payments := reconcile.ReconcileRows(rows, standardMapping, registry, cloudbreak)

	require.Len(t, payments, 2)
	assert.Equal(t, models.MatchMatched, payments[0].MatchStatus)
	assert.Equal(t, models.MatchUnmatched, payments[1].MatchStatus)
}
