package utils

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/alfalang/alfapay/backend/src/logger"
)

// JSONErrorResponse is the error envelope every handler returns.
type JSONErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(JSONErrorResponse{Error: message}); err != nil {
		logger.L.Error("Failed to encode JSON error response", "error", err)
	}
}

// SendJSON writes any payload as a JSON response.
func SendJSON(w http.ResponseWriter, payload any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// RoundFloat rounds a value to the given number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
