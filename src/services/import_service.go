package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/alfalang/alfapay/backend/src/database"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/parsers/report"
	"github.com/alfalang/alfapay/backend/src/reconcile"
	"github.com/alfalang/alfapay/backend/src/utils"
)

type importServiceImpl struct {
	parser     *report.Parser
	statsCache *cache.Cache
}

// NewImportService creates the import pipeline service backed by the shared
// database connection and the given stats cache.
func NewImportService(statsCache *cache.Cache) ImportService {
	return &importServiceImpl{
		parser:     report.NewParser(),
		statsCache: statsCache,
	}
}

// ParseReport parses the upload and attaches the column-mapping suggestions:
// the auto-detected mapping from the header row, and the client's saved
// template when one exists.
func (s *importServiceImpl) ParseReport(file io.Reader, filename string, clientID string) (*ParseResult, error) {
	parsed, err := s.parser.Parse(file, filename)
	if err != nil {
		logger.L.Warn("Report parsing failed", "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result := &ParseResult{
		Columns:          parsed.Headers,
		Rows:             parsed.Rows,
		RowCount:         parsed.RowCount,
		SuggestedMapping: reconcile.SuggestMapping(parsed.Headers),
	}

	if clientID != "" {
		client, err := s.loadClient(clientID)
		if err != nil {
			if errors.Is(err, ErrClientNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("loading client %s: %w", clientID, err)
		}
		if client.ColumnTemplate != "" {
			var template models.ColumnMapping
			if err := json.Unmarshal([]byte(client.ColumnTemplate), &template); err != nil {
				logger.L.Warn("Ignoring unreadable column template", "clientID", clientID, "error", err)
			} else {
				result.TemplateMapping = template
			}
		}
	}

	return result, nil
}

// Reconcile runs the core pipeline over the supplied rows: match every row
// against the interpreter registry, compute the payment lines, and summarize
// the batch. When Persist is set, the payments and a batch record are written
// in one transaction; when SaveTemplate is set, the mapping is stored on the
// client for future imports.
func (s *importServiceImpl) Reconcile(req ReconcileRequest) (*ReconcileResult, error) {
	client, err := s.loadClient(req.ClientID)
	if err != nil {
		return nil, err
	}

	interpreters, err := s.loadInterpreters()
	if err != nil {
		return nil, fmt.Errorf("loading interpreter registry: %w", err)
	}

	payments := reconcile.ReconcileRows(req.Rows, req.Mapping, interpreters, client)
	for i := range payments {
		payments[i].Period = orDefault(payments[i].Period, req.Period)
	}

	result := &ReconcileResult{
		Payments: payments,
		Summary:  reconcile.Summarize(payments),
	}

	if req.SaveTemplate && len(req.Mapping) > 0 {
		if err := s.saveColumnTemplate(client.ID, req.Mapping); err != nil {
			logger.L.Error("Failed to save column template", "clientID", client.ID, "error", err)
		}
	}

	if req.Persist {
		batchID, err := s.persistBatch(client, req, result)
		if err != nil {
			return nil, fmt.Errorf("persisting batch: %w", err)
		}
		result.BatchID = batchID
		s.InvalidateStatsCache()
	}

	logger.L.Info("Reconciliation run completed",
		"clientID", client.ID,
		"rows", len(req.Rows),
		"unmatched", result.Summary.Unmatched,
		"noInterpreterRate", result.Summary.NoInterpreterRate,
		"persisted", req.Persist)

	return result, nil
}

// persistBatch stores the reconciled payments and the batch record in one
// transaction. Payment IDs are assigned here; the in-memory result is updated
// with them so the response reflects the stored rows.
func (s *importServiceImpl) persistBatch(client models.Client, req ReconcileRequest, result *ReconcileResult) (string, error) {
	tx, err := database.DB.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	batchID := uuid.NewString()

	_, err = tx.Exec(`
		INSERT INTO payment_batches (id, client_id, filename, period, total_records, total_revenue, total_payments, total_profit, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'completed', ?, ?)`,
		batchID, client.ID, req.Filename, req.Period, len(result.Payments),
		result.Summary.TotalRevenue, result.Summary.TotalPayments, result.Summary.TotalProfit,
		now, now)
	if err != nil {
		return "", fmt.Errorf("inserting payment batch: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO payments (id, client_id, interpreter_id, client_interpreter_id, interpreter_name,
			internal_interpreter_name, language_pair, period, client_rate, minutes, hours,
			client_charge, interpreter_payment, profit, profit_margin, status, match_status,
			adjustment, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i := range result.Payments {
		p := &result.Payments[i]
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		if _, err := stmt.Exec(
			p.ID, p.ClientID, p.InterpreterID, p.ClientInterpreterID, p.InterpreterName,
			p.InternalInterpreterName, p.LanguagePair, p.Period, p.ClientRate, p.Minutes, p.Hours,
			p.ClientCharge, p.InterpreterPayment, p.Profit, p.ProfitMargin, p.Status, p.MatchStatus,
			p.Adjustment, p.Notes, now, now,
		); err != nil {
			return "", fmt.Errorf("inserting payment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

func (s *importServiceImpl) saveColumnTemplate(clientID string, mapping models.ColumnMapping) error {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	_, err = database.DB.Exec("UPDATE clients SET column_template = ?, updated_at = ? WHERE id = ?",
		string(raw), time.Now().UTC(), clientID)
	return err
}

// PaymentStats computes the payment summary for the given filters, serving
// from the cache when it can. Any payment write invalidates the whole cache.
func (s *importServiceImpl) PaymentStats(clientID, period string) (*models.PaymentStats, error) {
	cacheKey := fmt.Sprintf("stats:%s:%s", clientID, period)
	if cached, found := s.statsCache.Get(cacheKey); found {
		if stats, ok := cached.(*models.PaymentStats); ok {
			logger.L.Debug("Serving payment stats from cache", "key", cacheKey)
			return stats, nil
		}
	}

	payments, err := s.ListPayments(PaymentFilter{ClientID: clientID, Period: period}, 0, 0)
	if err != nil {
		return nil, err
	}

	stats := &models.PaymentStats{TotalRecords: len(payments)}
	for _, p := range payments {
		stats.TotalRevenue += p.ClientCharge
		stats.TotalPayments += p.InterpreterPayment
		stats.TotalProfit += p.Profit

		switch p.MatchStatus {
		case models.MatchMatched:
			stats.MatchedCount++
		case models.MatchUnmatched:
			stats.UnmatchedCount++
		case models.MatchNoInterpreterRate:
			stats.NoRateCount++
		}
		switch p.Status {
		case models.StatusApproved:
			stats.ApprovedCount++
		case models.StatusPending:
			stats.PendingCount++
		case models.StatusRejected:
			stats.RejectedCount++
		}
	}
	if stats.TotalRevenue > 0 {
		stats.ProfitMargin = stats.TotalProfit / stats.TotalRevenue * 100
	}
	stats.TotalRevenue = utils.RoundFloat(stats.TotalRevenue, 2)
	stats.TotalPayments = utils.RoundFloat(stats.TotalPayments, 2)
	stats.TotalProfit = utils.RoundFloat(stats.TotalProfit, 2)
	stats.ProfitMargin = utils.RoundFloat(stats.ProfitMargin, 1)

	s.statsCache.Set(cacheKey, stats, cache.DefaultExpiration)
	return stats, nil
}

// InvalidateStatsCache drops all cached summaries. Called after any payment
// write so stale stats are never served.
func (s *importServiceImpl) InvalidateStatsCache() {
	s.statsCache.Flush()
}

// ListPayments queries payments with the given filters. skip/limit of 0 means
// no paging bound on that side.
func (s *importServiceImpl) ListPayments(filter PaymentFilter, skip, limit int) ([]models.Payment, error) {
	query := `
		SELECT id, client_id, interpreter_id, client_interpreter_id, interpreter_name,
		       internal_interpreter_name, language_pair, period, client_rate, minutes, hours,
		       client_charge, interpreter_payment, profit, profit_margin, status, match_status,
		       adjustment, notes, created_at, updated_at
		FROM payments WHERE 1=1`
	var args []any

	if filter.ClientID != "" {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	if filter.Period != "" {
		query += " AND period = ?"
		args = append(args, filter.Period)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.MatchStatus != "" {
		query += " AND match_status = ?"
		args = append(args, filter.MatchStatus)
	}
	if filter.Language != "" {
		query += " AND language_pair = ?"
		args = append(args, filter.Language)
	}
	if filter.StartDate != "" {
		query += " AND period >= ?"
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		query += " AND period <= ?"
		args = append(args, filter.EndDate)
	}
	if filter.Search != "" {
		query += " AND internal_interpreter_name LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}

	query += " ORDER BY created_at, id"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, skip)
	}

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(rows *sql.Rows) (models.Payment, error) {
	var p models.Payment
	var interpreterID, languagePair, notes sql.NullString
	err := rows.Scan(
		&p.ID, &p.ClientID, &interpreterID, &p.ClientInterpreterID, &p.InterpreterName,
		&p.InternalInterpreterName, &languagePair, &p.Period, &p.ClientRate, &p.Minutes, &p.Hours,
		&p.ClientCharge, &p.InterpreterPayment, &p.Profit, &p.ProfitMargin, &p.Status, &p.MatchStatus,
		&p.Adjustment, &notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("scanning payment row: %w", err)
	}
	if interpreterID.Valid {
		p.InterpreterID = &interpreterID.String
	}
	p.LanguagePair = languagePair.String
	p.Notes = notes.String
	return p, nil
}

// loadClient fetches one client row.
func (s *importServiceImpl) loadClient(clientID string) (models.Client, error) {
	var c models.Client
	var template sql.NullString
	err := database.DB.QueryRow(
		"SELECT id, name, id_field, column_template, created_at, updated_at FROM clients WHERE id = ?",
		clientID,
	).Scan(&c.ID, &c.Name, &c.IDField, &template, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrClientNotFound
	}
	if err != nil {
		return c, err
	}
	c.ColumnTemplate = template.String
	return c, nil
}

// loadInterpreters returns the full registry in a stable order. The
// reconciler's first-match policy depends on this ordering staying fixed
// between runs.
func (s *importServiceImpl) loadInterpreters() ([]models.Interpreter, error) {
	rows, err := database.DB.Query(`
		SELECT id, record_id, contact_name, last_name, employee_id, email, external_ids,
		       language, payment_frequency, service_location, rate_per_minute, rate_per_hour
		FROM interpreters ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interpreters []models.Interpreter
	for rows.Next() {
		var i models.Interpreter
		var recordID, lastName, employeeID, email, language, freq, loc, perMin, perHour sql.NullString
		var externalIDs string
		if err := rows.Scan(&i.ID, &recordID, &i.ContactName, &lastName, &employeeID, &email,
			&externalIDs, &language, &freq, &loc, &perMin, &perHour); err != nil {
			return nil, fmt.Errorf("scanning interpreter row: %w", err)
		}
		i.RecordID = recordID.String
		i.LastName = lastName.String
		i.EmployeeID = employeeID.String
		i.Email = email.String
		i.Language = language.String
		i.PaymentFrequency = freq.String
		i.ServiceLocation = loc.String
		i.RatePerMinute = perMin.String
		i.RatePerHour = perHour.String
		if err := json.Unmarshal([]byte(externalIDs), &i.ExternalIDs); err != nil {
			logger.L.Warn("Interpreter has unreadable external_ids, treating as empty", "interpreterID", i.ID, "error", err)
			i.ExternalIDs = map[string]string{}
		}
		interpreters = append(interpreters, i)
	}
	return interpreters, rows.Err()
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
