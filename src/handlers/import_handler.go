package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alfalang/alfapay/backend/src/config"
	"github.com/alfalang/alfapay/backend/src/logger"
	"github.com/alfalang/alfapay/backend/src/security/validation"
	"github.com/alfalang/alfapay/backend/src/services"
	"github.com/alfalang/alfapay/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{importService: service}
}

// HandleParse accepts a multipart report upload ('file', optional
// 'client_id'), parses it and returns the rows with mapping suggestions.
// Nothing is persisted here; the rows live in the import session only.
func (h *ImportHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		ctxLogger.Warn("Invalid client content type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		ctxLogger.Warn("File content failed magic byte validation", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientID := r.FormValue("client_id")

	result, err := h.importService.ParseReport(file, fileHeader.Filename, clientID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClientNotFound):
			utils.SendJSONError(w, "Client not found", http.StatusNotFound)
		case errors.Is(err, services.ErrParsingFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			ctxLogger.Error("Report parse failed", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "Failed to parse report", http.StatusInternalServerError)
		}
		return
	}

	ctxLogger.Info("Report parsed", "filename", fileHeader.Filename, "rows", result.RowCount, "clientID", clientID)
	utils.SendJSON(w, result, http.StatusOK)
}

// HandleReconcile runs the reconciliation pipeline over the posted rows and
// mapping, optionally persisting the batch and saving the mapping as the
// client's template.
func (h *ImportHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var req services.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.ClientID == "" {
		utils.SendJSONError(w, "Client id is required", http.StatusBadRequest)
		return
	}
	if len(req.Rows) == 0 {
		utils.SendJSONError(w, "No rows to reconcile", http.StatusBadRequest)
		return
	}

	result, err := h.importService.Reconcile(req)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			utils.SendJSONError(w, "Client not found", http.StatusNotFound)
			return
		}
		ctxLogger.Error("Reconciliation failed", "clientID", req.ClientID, "error", err)
		utils.SendJSONError(w, "Reconciliation failed", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}
