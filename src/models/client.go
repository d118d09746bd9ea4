package models

import "time"

// Client is an external billing counterpart whose usage reports are imported.
// IDField names which interpreter external-ID entry is used to match rows
// from this client's reports. ColumnTemplate optionally stores a saved column
// mapping (JSON) for reuse on later imports of the same report format.
type Client struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	IDField        string    `json:"idField"`
	ColumnTemplate string    `json:"columnTemplate,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

// ClientRate is a per-language billing rate agreed with a client.
type ClientRate struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"clientId"`
	Language        string    `json:"language"`
	ServiceLocation string    `json:"serviceLocation,omitempty"` // "On-site", "Remote", "Both"
	RatePerMinute   *float64  `json:"ratePerMinute,omitempty"`
	RatePerHour     *float64  `json:"ratePerHour,omitempty"`
	RateType        string    `json:"rateType"` // "minute" or "hour"
	CreatedAt       time.Time `json:"createdAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}
