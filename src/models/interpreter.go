package models

import "time"

// Interpreter is a payee record. Each client knows the interpreter by its own
// identifier scheme; ExternalIDs maps a client id-field name (e.g.
// "cloudbreak_id") to the identifier string that client uses for this
// interpreter. Stored as a JSON object in the external_ids column.
type Interpreter struct {
	ID               string            `json:"id"`
	RecordID         string            `json:"recordId,omitempty"`
	ContactName      string            `json:"contactName"`
	LastName         string            `json:"lastName,omitempty"`
	EmployeeID       string            `json:"employeeId,omitempty"`
	Email            string            `json:"email,omitempty"`
	ExternalIDs      map[string]string `json:"externalIds"`
	Language         string            `json:"language,omitempty"`
	PaymentFrequency string            `json:"paymentFrequency,omitempty"`
	ServiceLocation  string            `json:"serviceLocation,omitempty"`
	RatePerMinute    string            `json:"ratePerMinute,omitempty"`
	RatePerHour      string            `json:"ratePerHour,omitempty"`
	CreatedAt        time.Time         `json:"createdAt,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt,omitempty"`
}

// ExternalID resolves the identifier this interpreter carries for the given
// client id-field. Missing entries resolve to the empty string.
func (i Interpreter) ExternalID(idField string) string {
	if i.ExternalIDs == nil {
		return ""
	}
	return i.ExternalIDs[idField]
}

// HasPayRate reports whether any pay rate is configured. Rates are stored as
// strings exactly as staff entered them; a non-empty string counts as a
// configured rate even if it fails to parse later.
func (i Interpreter) HasPayRate() bool {
	return i.RatePerMinute != "" || i.RatePerHour != ""
}
