package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/alfalang/alfapay/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Often used for CSV by older Excel
	"text/plain":               true, // CSVs are often plain text
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // .xlsx
	"application/octet-stream": false,
}

// xlsxSignature is the zip local-file-header magic XLSX files start with.
var xlsxSignature = []byte{0x50, 0x4B, 0x03, 0x04}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.Split(contentType, ";")[0])
	if allowed, exists := AllowedClientContentTypes[normalized]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for report upload", contentType)
	}
	return nil
}

// isBinaryContent checks if a buffer contains binary control characters (like null bytes)
// which indicate the file is likely not a valid text-based CSV.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	if !utf8.Valid(buf) {
		return true
	}
	return false
}

// ValidateFileContentByMagicBytes checks the actual file content signature
// and inspects the content to ensure it is either an XLSX workbook or a
// text-based CSV.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	// Read first 1024 bytes (1KB) for detection
	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the actual parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	// XLSX uploads are zip containers; accept them by signature before the
	// binary-content check rejects them.
	if n >= len(xlsxSignature) && bytes.Equal(buffer[:len(xlsxSignature)], xlsxSignature) {
		logger.L.Debug("File content validated as XLSX workbook")
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	}

	// 1. Strict Content Inspection: Check for binary characters
	if isBinaryContent(buffer[:n]) {
		logger.L.Warn("File rejected: Binary content detected in text upload")
		return "application/octet-stream", fmt.Errorf("file appears to be binary or executable, not a CSV/XLSX report")
	}

	// 2. HTTP Content Detection
	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not allowed", detectedContentType)
	}

	logger.L.Debug("File content type validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
