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

type InterpreterHandler struct{}

func NewInterpreterHandler() *InterpreterHandler {
	return &InterpreterHandler{}
}

type interpreterPayload struct {
	RecordID         string            `json:"recordId"`
	ContactName      string            `json:"contactName"`
	LastName         string            `json:"lastName"`
	EmployeeID       string            `json:"employeeId"`
	Email            string            `json:"email"`
	ExternalIDs      map[string]string `json:"externalIds"`
	Language         string            `json:"language"`
	PaymentFrequency string            `json:"paymentFrequency"`
	ServiceLocation  string            `json:"serviceLocation"`
	RatePerMinute    string            `json:"ratePerMinute"`
	RatePerHour      string            `json:"ratePerHour"`
}

func (p *interpreterPayload) sanitize() {
	p.RecordID = validation.SanitizeText(p.RecordID)
	p.ContactName = validation.SanitizeText(p.ContactName)
	p.LastName = validation.SanitizeText(p.LastName)
	p.EmployeeID = validation.SanitizeText(p.EmployeeID)
	p.Email = validation.SanitizeText(p.Email)
	p.Language = validation.SanitizeText(p.Language)
	p.PaymentFrequency = validation.SanitizeText(p.PaymentFrequency)
	p.ServiceLocation = validation.SanitizeText(p.ServiceLocation)
	p.RatePerMinute = validation.SanitizeText(p.RatePerMinute)
	p.RatePerHour = validation.SanitizeText(p.RatePerHour)
	for k, v := range p.ExternalIDs {
		p.ExternalIDs[k] = validation.SanitizeText(v)
	}
}

func (p *interpreterPayload) externalIDsJSON() string {
	if p.ExternalIDs == nil {
		return "{}"
	}
	raw, err := json.Marshal(p.ExternalIDs)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func (h *InterpreterHandler) ListInterpreters(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	query := `SELECT id, record_id, contact_name, last_name, employee_id, email, external_ids,
	       language, payment_frequency, service_location, rate_per_minute, rate_per_hour,
	       created_at, updated_at
	FROM interpreters`
	var args []any
	if search != "" {
		query += " WHERE contact_name LIKE ? OR email LIKE ? OR employee_id LIKE ?"
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	query += " ORDER BY created_at, id"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		logger.L.Error("Failed to list interpreters", "error", err)
		utils.SendJSONError(w, "Failed to retrieve interpreters", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	interpreters := []models.Interpreter{}
	for rows.Next() {
		i, err := scanInterpreter(rows)
		if err != nil {
			logger.L.Error("Interpreter row scan error", "error", err)
			continue
		}
		interpreters = append(interpreters, i)
	}
	utils.SendJSON(w, interpreters, http.StatusOK)
}

func (h *InterpreterHandler) GetInterpreter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	i, err := fetchInterpreter(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Interpreter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to get interpreter", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve interpreter", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, i, http.StatusOK)
}

func (h *InterpreterHandler) CreateInterpreter(w http.ResponseWriter, r *http.Request) {
	var req interpreterPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.sanitize()
	if req.ContactName == "" {
		utils.SendJSONError(w, "Contact name is required", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := database.DB.Exec(`
		INSERT INTO interpreters (id, record_id, contact_name, last_name, employee_id, email,
			external_ids, language, payment_frequency, service_location, rate_per_minute,
			rate_per_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.RecordID, req.ContactName, req.LastName, req.EmployeeID, req.Email,
		req.externalIDsJSON(), req.Language, req.PaymentFrequency, req.ServiceLocation,
		req.RatePerMinute, req.RatePerHour, now, now)
	if err != nil {
		logger.L.Error("Failed to create interpreter", "error", err)
		utils.SendJSONError(w, "Failed to create interpreter", http.StatusInternalServerError)
		return
	}

	i, err := fetchInterpreter(id)
	if err != nil {
		utils.SendJSONError(w, "Failed to read created interpreter", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, i, http.StatusCreated)
}

func (h *InterpreterHandler) UpdateInterpreter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := fetchInterpreter(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Interpreter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch interpreter for update", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update interpreter", http.StatusInternalServerError)
		return
	}

	var req interpreterPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.sanitize()
	applyInterpreterUpdate(&existing, req)

	if err := storeInterpreter(existing); err != nil {
		logger.L.Error("Failed to update interpreter", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update interpreter", http.StatusInternalServerError)
		return
	}
	updated, err := fetchInterpreter(id)
	if err != nil {
		utils.SendJSONError(w, "Failed to read updated interpreter", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, updated, http.StatusOK)
}

func (h *InterpreterHandler) DeleteInterpreter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := database.DB.Exec("DELETE FROM interpreters WHERE id = ?", id)
	if err != nil {
		logger.L.Error("Failed to delete interpreter", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete interpreter", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Interpreter not found", http.StatusNotFound)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "Interpreter deleted"}, http.StatusOK)
}

// BulkUpsertInterpreters takes a list of interpreter records and creates or
// updates each one. Existing records are located by email first, then by
// employee ID; updates only overwrite fields the payload actually provides,
// so a partial roster import never blanks out data entered by hand.
func (h *InterpreterHandler) BulkUpsertInterpreters(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interpreters []interpreterPayload `json:"interpreters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if len(req.Interpreters) == 0 {
		utils.SendJSONError(w, "No interpreters provided", http.StatusBadRequest)
		return
	}

	created, updated, failed := 0, 0, 0
	for idx := range req.Interpreters {
		p := &req.Interpreters[idx]
		p.sanitize()
		if p.ContactName == "" {
			failed++
			continue
		}

		existing, err := findInterpreterByIdentity(p.Email, p.EmployeeID)
		switch {
		case err == nil:
			applyInterpreterUpdate(&existing, *p)
			if err := storeInterpreter(existing); err != nil {
				logger.L.Error("Bulk upsert: update failed", "id", existing.ID, "error", err)
				failed++
				continue
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			now := time.Now().UTC()
			_, err := database.DB.Exec(`
				INSERT INTO interpreters (id, record_id, contact_name, last_name, employee_id, email,
					external_ids, language, payment_frequency, service_location, rate_per_minute,
					rate_per_hour, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), p.RecordID, p.ContactName, p.LastName, p.EmployeeID, p.Email,
				p.externalIDsJSON(), p.Language, p.PaymentFrequency, p.ServiceLocation,
				p.RatePerMinute, p.RatePerHour, now, now)
			if err != nil {
				logger.L.Error("Bulk upsert: insert failed", "contactName", p.ContactName, "error", err)
				failed++
				continue
			}
			created++
		default:
			logger.L.Error("Bulk upsert: lookup failed", "email", p.Email, "error", err)
			failed++
		}
	}

	logger.L.Info("Interpreter bulk upsert completed", "created", created, "updated", updated, "failed", failed)
	utils.SendJSON(w, map[string]int{"created": created, "updated": updated, "failed": failed}, http.StatusOK)
}

// applyInterpreterUpdate copies non-empty payload fields over the existing
// record. External IDs merge key by key rather than replacing the whole map.
func applyInterpreterUpdate(existing *models.Interpreter, p interpreterPayload) {
	if p.RecordID != "" {
		existing.RecordID = p.RecordID
	}
	if p.ContactName != "" {
		existing.ContactName = p.ContactName
	}
	if p.LastName != "" {
		existing.LastName = p.LastName
	}
	if p.EmployeeID != "" {
		existing.EmployeeID = p.EmployeeID
	}
	if p.Email != "" {
		existing.Email = p.Email
	}
	if p.Language != "" {
		existing.Language = p.Language
	}
	if p.PaymentFrequency != "" {
		existing.PaymentFrequency = p.PaymentFrequency
	}
	if p.ServiceLocation != "" {
		existing.ServiceLocation = p.ServiceLocation
	}
	if p.RatePerMinute != "" {
		existing.RatePerMinute = p.RatePerMinute
	}
	if p.RatePerHour != "" {
		existing.RatePerHour = p.RatePerHour
	}
	for k, v := range p.ExternalIDs {
		if v == "" {
			continue
		}
		if existing.ExternalIDs == nil {
			existing.ExternalIDs = map[string]string{}
		}
		existing.ExternalIDs[k] = v
	}
}

func storeInterpreter(i models.Interpreter) error {
	externalIDs := "{}"
	if i.ExternalIDs != nil {
		if raw, err := json.Marshal(i.ExternalIDs); err == nil {
			externalIDs = string(raw)
		}
	}
	_, err := database.DB.Exec(`
		UPDATE interpreters SET record_id = ?, contact_name = ?, last_name = ?, employee_id = ?,
			email = ?, external_ids = ?, language = ?, payment_frequency = ?,
			service_location = ?, rate_per_minute = ?, rate_per_hour = ?, updated_at = ?
		WHERE id = ?`,
		i.RecordID, i.ContactName, i.LastName, i.EmployeeID, i.Email, externalIDs,
		i.Language, i.PaymentFrequency, i.ServiceLocation, i.RatePerMinute, i.RatePerHour,
		time.Now().UTC(), i.ID)
	return err
}

func fetchInterpreter(id string) (models.Interpreter, error) {
	row := database.DB.QueryRow(`
		SELECT id, record_id, contact_name, last_name, employee_id, email, external_ids,
		       language, payment_frequency, service_location, rate_per_minute, rate_per_hour,
		       created_at, updated_at
		FROM interpreters WHERE id = ?`, id)
	return scanInterpreterRow(row)
}

// findInterpreterByIdentity locates an interpreter by email or, failing that,
// employee ID. Returns sql.ErrNoRows when neither key finds a record.
func findInterpreterByIdentity(email, employeeID string) (models.Interpreter, error) {
	if email != "" {
		i, err := scanInterpreterRow(database.DB.QueryRow(`
			SELECT id, record_id, contact_name, last_name, employee_id, email, external_ids,
			       language, payment_frequency, service_location, rate_per_minute, rate_per_hour,
			       created_at, updated_at
			FROM interpreters WHERE email = ? ORDER BY created_at, id LIMIT 1`, email))
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return i, err
		}
	}
	if employeeID != "" {
		return scanInterpreterRow(database.DB.QueryRow(`
			SELECT id, record_id, contact_name, last_name, employee_id, email, external_ids,
			       language, payment_frequency, service_location, rate_per_minute, rate_per_hour,
			       created_at, updated_at
			FROM interpreters WHERE employee_id = ? ORDER BY created_at, id LIMIT 1`, employeeID))
	}
	return models.Interpreter{}, sql.ErrNoRows
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterpreter(rows *sql.Rows) (models.Interpreter, error) {
	return scanInterpreterRow(rows)
}

func scanInterpreterRow(row rowScanner) (models.Interpreter, error) {
	var i models.Interpreter
	var recordID, lastName, employeeID, email, language, freq, loc, perMin, perHour sql.NullString
	var externalIDs string
	err := row.Scan(&i.ID, &recordID, &i.ContactName, &lastName, &employeeID, &email,
		&externalIDs, &language, &freq, &loc, &perMin, &perHour, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return i, err
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
		i.ExternalIDs = map[string]string{}
	}
	return i, nil
}
