package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alfalang/alfapay/backend/src/database"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/models"
	"github.com/alfalang/alfapay/backend/src/security/validation"
	"github.com/alfalang/alfapay/backend/src/utils"
)

type ClientRateHandler struct{}

func NewClientRateHandler() *ClientRateHandler {
	return &ClientRateHandler{}
}

type clientRatePayload struct {
	ClientID        string   `json:"clientId"`
	Language        string   `json:"language"`
	ServiceLocation string   `json:"serviceLocation"`
	RatePerMinute   *float64 `json:"ratePerMinute"`
	RatePerHour     *float64 `json:"ratePerHour"`
	RateType        string   `json:"rateType"`
}

func (p *clientRatePayload) validate() error {
	p.Language = validation.SanitizeText(p.Language)
	p.ServiceLocation = validation.SanitizeText(p.ServiceLocation)
	if p.ClientID == "" {
		return errors.New("client id is required")
	}
	if p.Language == "" {
		return errors.New("language is required")
	}
	if p.RateType != "minute" && p.RateType != "hour" {
		return errors.New("rate type must be 'minute' or 'hour'")
	}
	if p.RatePerMinute == nil && p.RatePerHour == nil {
		return errors.New("at least one rate is required")
	}
	return nil
}

func (h *ClientRateHandler) ListClientRates(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	query := `SELECT id, client_id, language, service_location, rate_per_minute, rate_per_hour,
	       rate_type, created_at, updated_at FROM client_rates`
	var args []any
	if clientID != "" {
		query += " WHERE client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY language ASC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		logger.L.Error("Failed to list client rates", "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve client rates", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	rates := []models.ClientRate{}
	for rows.Next() {
		cr, err := scanClientRate(rows)
		if err != nil {
			logger.L.Error("Client rate row scan error", "error", err)
			continue
		}
		rates = append(rates, cr)
	}
	utils.SendJSON(w, rates, http.StatusOK)
}

func (h *ClientRateHandler) GetClientRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cr, err := fetchClientRate(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Client rate not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to get client rate", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve client rate", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, cr, http.StatusOK)
}

func (h *ClientRateHandler) CreateClientRate(w http.ResponseWriter, r *http.Request) {
	var req clientRatePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := fetchClient(req.ClientID); errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		return
	} else if err != nil {
		logger.L.Error("Failed to check client for rate create", "clientID", req.ClientID, "error", err)
		utils.SendJSONError(w, "Failed to create client rate", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := database.DB.Exec(`
		INSERT INTO client_rates (id, client_id, language, service_location, rate_per_minute,
			rate_per_hour, rate_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.ClientID, req.Language, req.ServiceLocation, req.RatePerMinute, req.RatePerHour,
		req.RateType, now, now)
	if err != nil {
		logger.L.Error("Failed to create client rate", "clientID", req.ClientID, "error", err)
		utils.SendJSONError(w, "Failed to create client rate", http.StatusInternalServerError)
		return
	}

	cr, err := fetchClientRate(id)
	if err != nil {
		utils.SendJSONError(w, "Failed to read created client rate", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, cr, http.StatusCreated)
}

func (h *ClientRateHandler) UpdateClientRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := fetchClientRate(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Client rate not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch client rate for update", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update client rate", http.StatusInternalServerError)
		return
	}

	var req struct {
		Language        *string  `json:"language"`
		ServiceLocation *string  `json:"serviceLocation"`
		RatePerMinute   *float64 `json:"ratePerMinute"`
		RatePerHour     *float64 `json:"ratePerHour"`
		RateType        *string  `json:"rateType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Language != nil {
		existing.Language = validation.SanitizeText(*req.Language)
	}
	if req.ServiceLocation != nil {
		existing.ServiceLocation = validation.SanitizeText(*req.ServiceLocation)
	}
	if req.RatePerMinute != nil {
		existing.RatePerMinute = req.RatePerMinute
	}
	if req.RatePerHour != nil {
		existing.RatePerHour = req.RatePerHour
	}
	if req.RateType != nil {
		if *req.RateType != "minute" && *req.RateType != "hour" {
			utils.SendJSONError(w, "Rate type must be 'minute' or 'hour'", http.StatusBadRequest)
			return
		}
		existing.RateType = *req.RateType
	}
	if existing.Language == "" {
		utils.SendJSONError(w, "Language cannot be empty", http.StatusBadRequest)
		return
	}

	_, err = database.DB.Exec(`
		UPDATE client_rates SET language = ?, service_location = ?, rate_per_minute = ?,
			rate_per_hour = ?, rate_type = ?, updated_at = ? WHERE id = ?`,
		existing.Language, existing.ServiceLocation, existing.RatePerMinute,
		existing.RatePerHour, existing.RateType, time.Now().UTC(), id)
	if err != nil {
		logger.L.Error("Failed to update client rate", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update client rate", http.StatusInternalServerError)
		return
	}

	updated, err := fetchClientRate(id)
	if err != nil {
		utils.SendJSONError(w, "Failed to read updated client rate", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, updated, http.StatusOK)
}

func (h *ClientRateHandler) DeleteClientRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := database.DB.Exec("DELETE FROM client_rates WHERE id = ?", id)
	if err != nil {
		logger.L.Error("Failed to delete client rate", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete client rate", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Client rate not found", http.StatusNotFound)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "Client rate deleted"}, http.StatusOK)
}

func fetchClientRate(id string) (models.ClientRate, error) {
	row := database.DB.QueryRow(`
		SELECT id, client_id, language, service_location, rate_per_minute, rate_per_hour,
		       rate_type, created_at, updated_at
		FROM client_rates WHERE id = ?`, id)
	return scanClientRate(row)
}

func scanClientRate(row rowScanner) (models.ClientRate, error) {
	var cr models.ClientRate
	var loc sql.NullString
	var perMin, perHour sql.NullFloat64
	err := row.Scan(&cr.ID, &cr.ClientID, &cr.Language, &loc, &perMin, &perHour,
		&cr.RateType, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		return cr, err
	}
	cr.ServiceLocation = loc.String
	if perMin.Valid {
		cr.RatePerMinute = &perMin.Float64
	}
	if perHour.Valid {
		cr.RatePerHour = &perHour.Float64
	}
	return cr, nil
}
