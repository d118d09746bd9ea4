package models

import "time"

// PaymentStatus is the approval workflow state of a payment line.
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusApproved PaymentStatus = "approved"
	StatusRejected PaymentStatus = "rejected"
)

// MatchStatus classifies how a report row reconciled against the interpreter
// registry, independent of the workflow status.
type MatchStatus string

const (
	MatchMatched           MatchStatus = "matched"
	MatchUnmatched         MatchStatus = "unmatched"
	MatchNoInterpreterRate MatchStatus = "no_interpreter_rate"
)

// Payment is one reconciled payment line computed from a single report row.
// Monetary fields are float64 for computation and storage; two-decimal string
// rendering happens at the export boundary.
type Payment struct {
	ID                      string        `json:"id,omitempty"`
	ClientID                string        `json:"clientId"`
	InterpreterID           *string       `json:"interpreterId"`
	ClientInterpreterID     string        `json:"clientInterpreterId"`
	InterpreterName         string        `json:"interpreterName"`
	InternalInterpreterName string        `json:"internalInterpreterName"`
	LanguagePair            string        `json:"languagePair,omitempty"`
	Period                  string        `json:"period"`
	ClientRate              float64       `json:"clientRate"`
	Minutes                 float64       `json:"minutes"`
	Hours                   float64       `json:"hours"`
	ClientCharge            float64       `json:"clientCharge"`
	InterpreterPayment      float64       `json:"interpreterPayment"`
	Profit                  float64       `json:"profit"`
	ProfitMargin            float64       `json:"profitMargin"`
	Status                  PaymentStatus `json:"status"`
	MatchStatus             MatchStatus   `json:"matchStatus"`
	Adjustment              float64       `json:"adjustment"`
	Notes                   string        `json:"notes"`
	CreatedAt               time.Time     `json:"createdAt,omitempty"`
	UpdatedAt               time.Time     `json:"updatedAt,omitempty"`
}

// BatchSummary is the fixed-shape reduction of a payment batch for display.
type BatchSummary struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalPayments     float64 `json:"totalPayments"`
	TotalProfit       float64 `json:"totalProfit"`
	Approved          int     `json:"approved"`
	Pending           int     `json:"pending"`
	Unmatched         int     `json:"unmatched"`
	NoInterpreterRate int     `json:"noInterpreterRate"`
}

// PaymentBatch records one persisted reconciliation run of an uploaded report.
type PaymentBatch struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"clientId"`
	Filename      string    `json:"filename"`
	Period        string    `json:"period"`
	TotalRecords  int       `json:"totalRecords"`
	TotalRevenue  float64   `json:"totalRevenue"`
	TotalPayments float64   `json:"totalPayments"`
	TotalProfit   float64   `json:"totalProfit"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// PaymentStats is the summary served by the stats endpoint.
type PaymentStats struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalPayments  float64 `json:"totalPayments"`
	TotalProfit    float64 `json:"totalProfit"`
	ProfitMargin   float64 `json:"profitMargin"`
	TotalRecords   int     `json:"totalRecords"`
	MatchedCount   int     `json:"matchedCount"`
	UnmatchedCount int     `json:"unmatchedCount"`
	NoRateCount    int     `json:"noRateCount"`
	ApprovedCount  int     `json:"approvedCount"`
	PendingCount   int     `json:"pendingCount"`
	RejectedCount  int     `json:"rejectedCount"`
}
