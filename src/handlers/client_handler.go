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

type ClientHandler struct{}

func NewClientHandler() *ClientHandler {
	return &ClientHandler{}
}

func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	rows, err := database.DB.Query(
		"SELECT id, name, id_field, column_template, created_at, updated_at FROM clients ORDER BY name ASC")
	if err != nil {
		logger.L.Error("Failed to list clients", "error", err)
		utils.SendJSONError(w, "Failed to retrieve clients", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		var c models.Client
		var template sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.IDField, &template, &c.CreatedAt, &c.UpdatedAt); err != nil {
			logger.L.Error("Client row scan error", "error", err)
			continue
		}
		c.ColumnTemplate = template.String
		clients = append(clients, c)
	}
	utils.SendJSON(w, clients, http.StatusOK)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := fetchClient(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to get client", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve client", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, c, http.StatusOK)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		IDField string `json:"idField"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.Name = validation.SanitizeText(req.Name)
	req.IDField = validation.SanitizeText(req.IDField)
	if req.Name == "" {
		utils.SendJSONError(w, "Client name is required", http.StatusBadRequest)
		return
	}
	if req.IDField == "" {
		utils.SendJSONError(w, "Client id field is required", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := database.DB.Exec(
		"INSERT INTO clients (id, name, id_field, column_template, created_at, updated_at) VALUES (?, ?, ?, '', ?, ?)",
		id, req.Name, req.IDField, now, now)
	if err != nil {
		logger.L.Error("Failed to create client", "name", req.Name, "error", err)
		utils.SendJSONError(w, "Failed to create client (name must be unique)", http.StatusInternalServerError)
		return
	}

	c, err := fetchClient(id)
	if err != nil {
		utils.SendJSONError(w, "Failed to read created client", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, c, http.StatusCreated)
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := fetchClient(id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to fetch client for update", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update client", http.StatusInternalServerError)
		return
	}

	var req struct {
		Name           *string `json:"name"`
		IDField        *string `json:"idField"`
		ColumnTemplate *string `json:"columnTemplate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Name != nil {
		existing.Name = validation.SanitizeText(*req.Name)
	}
	if req.IDField != nil {
		existing.IDField = validation.SanitizeText(*req.IDField)
	}
	if req.ColumnTemplate != nil {
		if *req.ColumnTemplate != "" && !json.Valid([]byte(*req.ColumnTemplate)) {
			utils.SendJSONError(w, "Column template must be valid JSON", http.StatusBadRequest)
			return
		}
		existing.ColumnTemplate = *req.ColumnTemplate
	}
	if existing.Name == "" || existing.IDField == "" {
		utils.SendJSONError(w, "Client name and id field cannot be empty", http.StatusBadRequest)
		return
	}

	_, err = database.DB.Exec(
		"UPDATE clients SET name = ?, id_field = ?, column_template = ?, updated_at = ? WHERE id = ?",
		existing.Name, existing.IDField, existing.ColumnTemplate, time.Now().UTC(), id)
	if err != nil {
		logger.L.Error("Failed to update client", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update client", http.StatusInternalServerError)
		return
	}

	updated, err := fetchClient(id)
	if err != nil {
		utils.SendJSONError(w, "Failed to read updated client", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, updated, http.StatusOK)
}

func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var paymentCount int
	if err := database.DB.QueryRow("SELECT COUNT(*) FROM payments WHERE client_id = ?", id).Scan(&paymentCount); err != nil {
		logger.L.Error("Failed to count client payments before delete", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete client", http.StatusInternalServerError)
		return
	}
	if paymentCount > 0 {
		utils.SendJSONError(w, "Cannot delete a client with existing payments", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec("DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		logger.L.Error("Failed to delete client", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete client", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "Client deleted"}, http.StatusOK)
}

func fetchClient(id string) (models.Client, error) {
	var c models.Client
	var template sql.NullString
	err := database.DB.QueryRow(
		"SELECT id, name, id_field, column_template, created_at, updated_at FROM clients WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.IDField, &template, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.ColumnTemplate = template.String
	return c, nil
}
