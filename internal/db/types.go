package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one form-fill session spanning one or more pages.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	ProfilePath string     `json:"profile_path"`
	StartURL    string     `json:"start_url"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// PageRecord is the ledger entry for one processed page.
type PageRecord struct {
	ID            uuid.UUID `json:"id"`
	RunID         uuid.UUID `json:"run_id"`
	URL           string    `json:"url"`
	Questions     int       `json:"questions"`
	Filled        int       `json:"filled"`
	ManualChanges int       `json:"manual_changes"`
	Accepted      bool      `json:"accepted"`
	Persisted     int       `json:"persisted"`
	CreatedAt     time.Time `json:"created_at"`
}
