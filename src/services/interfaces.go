package services

import (
	"errors"
	"io"
	"time"

	"github.com/alfalang/alfapay/backend/src/models"
)

const (
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

// Define common service errors
var (
	ErrParsingFailed     = errors.New("report parsing failed")
	ErrClientNotFound    = errors.New("client not found")
	ErrNoPaymentsMatched = errors.New("no payments found matching the specified filters")
)

// ParseResult is returned from parsing one uploaded report: the raw rows plus
// the mapping suggestions the review screen starts from.
type ParseResult struct {
	Columns          []string             `json:"columns"`
	Rows             []models.ImportedRow `json:"data"`
	RowCount         int                  `json:"rowCount"`
	SuggestedMapping models.ColumnMapping `json:"suggestedMapping"`
	TemplateMapping  models.ColumnMapping `json:"templateMapping,omitempty"`
}

// ReconcileRequest is one reconciliation run over already-parsed rows.
type ReconcileRequest struct {
	ClientID     string               `json:"clientId"`
	Period       string               `json:"period"`
	Filename     string               `json:"filename"`
	Mapping      models.ColumnMapping `json:"mapping"`
	Rows         []models.ImportedRow `json:"rows"`
	Persist      bool                 `json:"persist"`
	SaveTemplate bool                 `json:"saveTemplate"`
}

// ReconcileResult carries the reconciled batch and its summary. BatchID is
// set only when the run was persisted.
type ReconcileResult struct {
	BatchID  string              `json:"batchId,omitempty"`
	Payments []models.Payment    `json:"payments"`
	Summary  models.BatchSummary `json:"summary"`
}

// PaymentFilter narrows payment queries for listing, stats and exports.
type PaymentFilter struct {
	ClientID    string
	Period      string
	Status      string
	MatchStatus string
	Language    string
	StartDate   string
	EndDate     string
	Search      string
}

// ImportService defines the interface for the core report import pipeline.
type ImportService interface {
	ParseReport(file io.Reader, filename string, clientID string) (*ParseResult, error)
	Reconcile(req ReconcileRequest) (*ReconcileResult, error)
	PaymentStats(clientID, period string) (*models.PaymentStats, error)
	ListPayments(filter PaymentFilter, skip, limit int) ([]models.Payment, error)
	InvalidateStatsCache()
}
