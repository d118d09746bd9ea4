package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alfalang/alfapay/backend/src/database"
	"github.com/alfalang/alfapay/backend/src/export"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/security/validation"
	"github.com/alfalang/alfapay/backend/src/services"
	"github.com/alfalang/alfapay/backend/src/utils"
)

type ExportHandler struct {
	importService services.ImportService
}

func NewExportHandler(service services.ImportService) *ExportHandler {
	return &ExportHandler{importService: service}
}

// HandleExportPaymentsCSV returns the filtered payments as a CSV document
// wrapped in JSON, so the UI can trigger the download client-side.
func (h *ExportHandler) HandleExportPaymentsCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.PaymentFilter{
		ClientID: q.Get("client_id"),
		Period:   q.Get("period"),
	}

	payments, err := h.importService.ListPayments(filter, 0, 0)
	if err != nil {
		logger.L.Error("Failed to load payments for CSV export", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}

	clientNames, err := loadClientNames()
	if err != nil {
		logger.L.Error("Failed to load client names for CSV export", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}

	doc, err := export.PaymentsCSV(payments, clientNames)
	if err != nil {
		logger.L.Error("CSV export failed", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]string{
		"csv":      doc,
		"filename": export.PaymentsCSVFilename(filter.Period),
	}, http.StatusOK)
}

// HandleExportZohoBooks streams the filtered payments as a Zoho Books
// bill-import spreadsheet.
func (h *ExportHandler) HandleExportZohoBooks(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.importService.ListPayments(filter, 0, 0)
	if err != nil {
		logger.L.Error("Failed to load payments for Zoho export", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}
	if len(payments) == 0 {
		utils.SendJSONError(w, services.ErrNoPaymentsMatched.Error()+". Please adjust your filters and try again.", http.StatusNotFound)
		return
	}

	clientNames, err := loadClientNames()
	if err != nil {
		logger.L.Error("Failed to load client names for Zoho export", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}
	vendorNames, err := loadInterpreterNames()
	if err != nil {
		logger.L.Error("Failed to load interpreter names for Zoho export", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	buf, err := export.ZohoBooksWorkbook(payments, clientNames, vendorNames, now)
	if err != nil {
		logger.L.Error("Zoho export failed", "error", err)
		utils.SendJSONError(w, "Failed to export payments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.ZohoBooksFilename(now)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.L.Warn("Failed to stream Zoho export", "error", err)
	}
}

func loadClientNames() (map[string]string, error) {
	rows, err := database.DB.Query("SELECT id, name FROM clients")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNamePairs(rows)
}

func loadInterpreterNames() (map[string]string, error) {
	rows, err := database.DB.Query("SELECT id, contact_name FROM interpreters")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNamePairs(rows)
}

func scanNamePairs(rows *sql.Rows) (map[string]string, error) {
	names := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
