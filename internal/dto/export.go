package dto

import "time"

// ExportResult describes a stored report and the link to fetch it.
type ExportResult struct {
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
