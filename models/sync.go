// models/sync.go
package models

import "time"

// Diff maps Airtable API field names to the value that must be written.
// A nil value clears the field.
type Diff map[string]any

// RecordUpdate is one entry of an Airtable batch update.
type RecordUpdate struct {
	RecordID string
	FolID    string
	Fields   Diff
}

// SyncStats are the counters of one reconciliation pass.
type SyncStats struct {
	Matched         int `json:"matched"`
	Updated         int `json:"updated"`
	Unchanged       int `json:"unchanged"`
	Errors          int `json:"errors"`
	Batches         int `json:"batches"`
	Unmatched       int `json:"unmatched"`         // local records with no building
	MissingRecordID int `json:"missing_record_id"` // building found but without an Airtable id
}

// SyncRun is a persisted record of a reconciliation pass.
type SyncRun struct {
	ID         int64     `db:"id" json:"id"`
	RunID      string    `db:"run_id" json:"run_id"` // correlates log lines of one pass
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
	DryRun     bool      `db:"dry_run" json:"dry_run"`
	SyncStats
}

// IngestStats are the counters of one extraction ingest run.
type IngestStats struct {
	Processed       int `json:"processed"`
	Inserted        int `json:"inserted"`
	Changed         int `json:"changed"`
	Unchanged       int `json:"unchanged"`
	Failed          int `json:"failed"`
	ProtocolsReused int `json:"protocols_reused"`
	ProtocolsNew    int `json:"protocols_new"`
}
