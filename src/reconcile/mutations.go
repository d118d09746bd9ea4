package reconcile

import "github.com/alfalang/alfapay/backend/src/models"

// Approve marks a payment approved. Callers must only offer this action for
// matched payments; the transition itself is idempotent and reversible.
func Approve(p *models.Payment) {
	p.Status = models.StatusApproved
}

// Reject marks a payment rejected. Same precondition as Approve.
func Reject(p *models.Payment) {
	p.Status = models.StatusRejected
}

// ApproveAllMatched approves every matched payment in the batch, leaving
// unmatched and no-rate lines untouched. Returns the number approved.
func ApproveAllMatched(payments []models.Payment) int {
	approved := 0
	for i := range payments {
		if payments[i].MatchStatus == models.MatchMatched {
			payments[i].Status = models.StatusApproved
			approved++
		}
	}
	return approved
}

// ApplyAdjustment sets an absolute adjustment on a payment. The amount
// replaces any previous adjustment rather than accumulating: the payment is
// rebuilt from its unadjusted base, so applying a then b leaves the line at
// base + b. The margin is only recomputed when a charge exists, matching the
// division-by-zero policy of the reconciler.
func ApplyAdjustment(p *models.Payment, amount float64, note string) {
	base := p.InterpreterPayment - p.Adjustment
	p.InterpreterPayment = base + amount
	p.Profit = p.ClientCharge - p.InterpreterPayment
	if p.ClientCharge > 0 {
		p.ProfitMargin = p.Profit / p.ClientCharge * 100
	}
	p.Adjustment = amount
	p.Notes = note
}
