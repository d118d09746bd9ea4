package reconcile

import "github.com/alfalang/alfapay/backend/src/models"

// Summarize reduces a payment batch to the summary shown above the review
// table. Pure and total: an empty batch yields the zero summary, and the
// result is additive across concatenated batches.
func Summarize(payments []models.Payment) models.BatchSummary {
	var summary models.BatchSummary
	for _, p := range payments {
		summary.TotalRevenue += p.ClientCharge
		summary.TotalPayments += p.InterpreterPayment
		summary.TotalProfit += p.Profit

		switch p.Status {
		case models.StatusApproved:
			summary.Approved++
		case models.StatusPending:
			summary.Pending++
		}

		switch p.MatchStatus {
		case models.MatchUnmatched:
			summary.Unmatched++
		case models.MatchNoInterpreterRate:
			summary.NoInterpreterRate++
		}
	}
	return summary
}
