package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alfalang/alfapay/backend/src/database"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/reconcile"
	"github.com/alfalang/alfapay/backend/src/security/validation"
	"github.com/alfalang/alfapay/backend/src/services"
	"github.com/alfalang/alfapay/backend/src/utils"
)

type PaymentHandler struct {
	importService services.ImportService
}

func NewPaymentHandler(importService services.ImportService) *PaymentHandler {
	return &PaymentHandler{importService: importService}
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.PaymentFilter{
		ClientID:    q.Get("client_id"),
		Period:      q.Get("period"),
		Status:      q.Get("status"),
		MatchStatus: q.Get("match_status"),
		Language:    q.Get("language"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		Search:      validation.SanitizeText(q.Get("search")),
	}
	skip := parseIntOrDefault(q.Get("skip"), 0)
	limit := parseIntOrDefault(q.Get("limit"), 100)

	payments, err := h.importService.ListPayments(filter, skip, limit)
	if err != nil {
		logger.L.Error("Failed to list payments", "error", err)
		utils.SendJSONError(w, "Failed to retrieve payments", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, payments, http.StatusOK)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := fetchPayment(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to get payment", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve payment", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, p, http.StatusOK)
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var p models.Payment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if p.ClientID == "" {
		utils.SendJSONError(w, "Client id is required", http.StatusBadRequest)
		return
	}
	if _, err := fetchClient(p.ClientID); errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		return
	}

	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if p.MatchStatus == "" {
		p.MatchStatus = models.MatchUnmatched
	}
	p.ID = uuid.NewString()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := insertPayment(database.DB, &p); err != nil {
		logger.L.Error("Failed to create payment", "error", err)
		utils.SendJSONError(w, "Failed to create payment", http.StatusInternalServerError)
		return
	}
	h.importService.InvalidateStatsCache()
	utils.SendJSON(w, p, http.StatusCreated)
}

func (h *PaymentHandler) BulkCreatePayments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payments []models.Payment `json:"payments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if len(req.Payments) == 0 {
		utils.SendJSONError(w, "No payments provided", http.StatusBadRequest)
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		logger.L.Error("Failed to start bulk payment transaction", "error", err)
		utils.SendJSONError(w, "Failed to create payments", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range req.Payments {
		p := &req.Payments[i]
		if p.ClientID == "" {
			utils.SendJSONError(w, "Every payment needs a client id", http.StatusBadRequest)
			return
		}
		if p.Status == "" {
			p.Status = models.StatusPending
		}
		if p.MatchStatus == "" {
			p.MatchStatus = models.MatchUnmatched
		}
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := insertPayment(tx, p); err != nil {
			logger.L.Error("Failed to insert payment in bulk create", "index", i, "error", err)
			utils.SendJSONError(w, "Failed to create payments", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		logger.L.Error("Failed to commit bulk payment create", "error", err)
		utils.SendJSONError(w, "Failed to create payments", http.StatusInternalServerError)
		return
	}

	h.importService.InvalidateStatsCache()
	utils.SendJSON(w, map[string]any{"created": len(req.Payments), "payments": req.Payments}, http.StatusCreated)
}

// UpdatePayment applies workflow changes to one payment: status transitions
// (approve/reject/pending), an adjustment amount with an optional note, or
// both in one request. Adjustments overwrite any earlier adjustment rather
// than stacking on top of it.
func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := fetchPayment(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch payment for update", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update payment", http.StatusInternalServerError)
		return
	}

	var req struct {
		Status     *string  `json:"status"`
		Adjustment *float64 `json:"adjustment"`
		Notes      *string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	if req.Adjustment != nil {
		note := p.Notes
		if req.Notes != nil {
			note = validation.SanitizeText(*req.Notes)
		}
		reconcile.ApplyAdjustment(&p, *req.Adjustment, note)
	} else if req.Notes != nil {
		p.Notes = validation.SanitizeText(*req.Notes)
	}

	if req.Status != nil {
		switch models.PaymentStatus(*req.Status) {
		case models.StatusApproved:
			if p.MatchStatus != models.MatchMatched {
				utils.SendJSONError(w, "Only matched payments can be approved", http.StatusBadRequest)
				return
			}
			reconcile.Approve(&p)
		case models.StatusRejected:
			if p.MatchStatus != models.MatchMatched {
				utils.SendJSONError(w, "Only matched payments can be rejected", http.StatusBadRequest)
				return
			}
			reconcile.Reject(&p)
		case models.StatusPending:
			p.Status = models.StatusPending
		default:
			utils.SendJSONError(w, "Invalid payment status", http.StatusBadRequest)
			return
		}
	}

	p.UpdatedAt = time.Now().UTC()
	_, err = database.DB.Exec(`
		UPDATE payments SET interpreter_payment = ?, profit = ?, profit_margin = ?,
			status = ?, adjustment = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.InterpreterPayment, p.Profit, p.ProfitMargin, p.Status, p.Adjustment, p.Notes,
		p.UpdatedAt, id)
	if err != nil {
		logger.L.Error("Failed to update payment", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update payment", http.StatusInternalServerError)
		return
	}

	h.importService.InvalidateStatsCache()
	utils.SendJSON(w, p, http.StatusOK)
}

func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := database.DB.Exec("DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		logger.L.Error("Failed to delete payment", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete payment", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Payment not found", http.StatusNotFound)
		return
	}
	h.importService.InvalidateStatsCache()
	utils.SendJSON(w, map[string]string{"message": "Payment deleted"}, http.StatusOK)
}

// ApproveAllMatched flips every fully matched payment under the given
// filters to approved in one statement. Workflow transitions are not one-way,
// so previously rejected matched payments are re-approved too.
func (h *PaymentHandler) ApproveAllMatched(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		Period   string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}

	query := "UPDATE payments SET status = ?, updated_at = ? WHERE match_status = ?"
	args := []any{models.StatusApproved, time.Now().UTC(), models.MatchMatched}
	if req.ClientID != "" {
		query += " AND client_id = ?"
		args = append(args, req.ClientID)
	}
	if req.Period != "" {
		query += " AND period = ?"
		args = append(args, req.Period)
	}

	res, err := database.DB.Exec(query, args...)
	if err != nil {
		logger.L.Error("Failed to approve matched payments", "error", err)
		utils.SendJSONError(w, "Failed to approve payments", http.StatusInternalServerError)
		return
	}
	approved, _ := res.RowsAffected()

	h.importService.InvalidateStatsCache()
	logger.L.Info("Approved all matched payments", "approved", approved, "clientID", req.ClientID, "period", req.Period)
	utils.SendJSON(w, map[string]int64{"approved": approved}, http.StatusOK)
}

func (h *PaymentHandler) GetPaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.importService.PaymentStats(r.URL.Query().Get("client_id"), r.URL.Query().Get("period"))
	if err != nil {
		logger.L.Error("Failed to compute payment stats", "error", err)
		utils.SendJSONError(w, "Failed to compute payment stats", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, stats, http.StatusOK)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertPayment(db execer, p *models.Payment) error {
	_, err := db.Exec(`
		INSERT INTO payments (id, client_id, interpreter_id, client_interpreter_id, interpreter_name,
			internal_interpreter_name, language_pair, period, client_rate, minutes, hours,
			client_charge, interpreter_payment, profit, profit_margin, status, match_status,
			adjustment, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.InterpreterID, p.ClientInterpreterID, p.InterpreterName,
		p.InternalInterpreterName, p.LanguagePair, p.Period, p.ClientRate, p.Minutes, p.Hours,
		p.ClientCharge, p.InterpreterPayment, p.Profit, p.ProfitMargin, p.Status, p.MatchStatus,
		p.Adjustment, p.Notes, p.CreatedAt, p.UpdatedAt)
	return err
}

func fetchPayment(id string) (models.Payment, error) {
	var p models.Payment
	var interpreterID, languagePair, notes sql.NullString
	err := database.DB.QueryRow(`
		SELECT id, client_id, interpreter_id, client_interpreter_id, interpreter_name,
		       internal_interpreter_name, language_pair, period, client_rate, minutes, hours,
		       client_charge, interpreter_payment, profit, profit_margin, status, match_status,
		       adjustment, notes, created_at, updated_at
		FROM payments WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.ClientID, &interpreterID, &p.ClientInterpreterID, &p.InterpreterName,
		&p.InternalInterpreterName, &languagePair, &p.Period, &p.ClientRate, &p.Minutes, &p.Hours,
		&p.ClientCharge, &p.InterpreterPayment, &p.Profit, &p.ProfitMargin, &p.Status, &p.MatchStatus,
		&p.Adjustment, &notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	if interpreterID.Valid {
		p.InterpreterID = &interpreterID.String
	}
	p.LanguagePair = languagePair.String
	p.Notes = notes.String
	return p, nil
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
