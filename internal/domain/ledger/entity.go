package ledger

import "time"

// EntryID identifier type
type EntryID string

// Status of a recorded analysis
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is the audit record of one analysis request. It never holds the image or the result body.
type Entry struct {
	ID               EntryID   `json:"id"`
	UserID           string    `json:"user_id"`
	Status           Status    `json:"status"`
	Message          string    `json:"message,omitempty"`
	FlawCount        int       `json:"flaw_count"`
	ImprovementCount int       `json:"improvement_count"`
	ReportURL        string    `json:"report_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
