package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/reconcile"
)

func TestSummarize(t *testing.T) {
	batch := []models.Payment{
		{ClientCharge: 600, InterpreterPayment: 420, Profit: 180, Status: models.StatusApproved, MatchStatus: models.MatchMatched},
		{ClientCharge: 100, InterpreterPayment: 0, Profit: 100, Status: models.StatusPending, MatchStatus: models.MatchUnmatched},
		{ClientCharge: 200, InterpreterPayment: 0, Profit: 200, Status: models.StatusPending, MatchStatus: models.MatchNoInterpreterRate},
		{ClientCharge: 50, InterpreterPayment: 30, Profit: 20, Status: models.StatusRejected, MatchStatus: models.MatchMatched},
	}

	got := reconcile.Summarize(batch)

	assert.InDelta(t, 950.0, got.TotalRevenue, 1e-9)
	assert.InDelta(t, 450.0, got.TotalPayments, 1e-9)
	assert.InDelta(t, 500.0, got.TotalProfit, 1e-9)
	assert.Equal(t, 1, got.Approved)
	assert.Equal(t, 2, got.Pending)
	assert.Equal(t, 1, got.Unmatched)
	assert.Equal(t, 1, got.NoInterpreterRate)
}

func TestSummarizeEmptyBatch(t *testing.T) {
	assert.Equal(t, models.BatchSummary{}, reconcile.Summarize(nil))
	assert.Equal(t, models.BatchSummary{}, reconcile.Summarize([]models.Payment{}))
}

func TestSummarizeAdditivity(t *testing.T) {
	a := []models.Payment{
		{ClientCharge: 600, InterpreterPayment: 420, Profit: 180, Status: models.StatusPending, MatchStatus: models.MatchMatched},
		{ClientCharge: 75.5, InterpreterPayment: 10.25, Profit: 65.25, Status: models.StatusApproved, MatchStatus: models.MatchMatched},
	}
	b := []models.Payment{
		{ClientCharge: 120, InterpreterPayment: 0, Profit: 120, Status: models.StatusPending, MatchStatus: models.MatchUnmatched},
	}

	sumA := reconcile.Summarize(a)
	sumB := reconcile.Summarize(b)
	combined := reconcile.Summarize(append(append([]models.Payment{}, a...), b...))

	assert.InDelta(t, sumA.TotalRevenue+sumB.TotalRevenue, combined.TotalRevenue, 1e-9)
	assert.InDelta(t, sumA.TotalPayments+sumB.TotalPayments, combined.TotalPayments, 1e-9)
	assert.InDelta(t, sumA.TotalProfit+sumB.TotalProfit, combined.TotalProfit, 1e-9)
	assert.Equal(t, sumA.Approved+sumB.Approved, combined.Approved)
	assert.Equal(t, sumA.Pending+sumB.Pending, combined.Pending)
	assert.Equal(t, sumA.Unmatched+sumB.Unmatched, combined.Unmatched)
	assert.Equal(t, sumA.NoInterpreterRate+sumB.NoInterpreterRate, combined.NoInterpreterRate)
}
