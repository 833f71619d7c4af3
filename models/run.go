package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun records one aggregation pass over all categories.
type ScrapeRun struct {
	ID            int64      `json:"id" db:"id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	PagesFetched  int        `json:"pages_fetched" db:"pages_fetched"`
	PagesFailed   int        `json:"pages_failed" db:"pages_failed"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
}
