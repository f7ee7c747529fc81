// database/sync_run_store.go
package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

// SyncRunStore records when reconciliation passes ran and what they did.
type SyncRunStore struct {
	db  *DB
	log *zap.Logger
}

func NewSyncRunStore(db *DB, log *zap.Logger) *SyncRunStore {
	return &SyncRunStore{db: db, log: log}
}

// RecordSyncRun appends one run to sync_runs.
func (s *SyncRunStore) RecordSyncRun(ctx context.Context, run models.SyncRun) error {
	dryRun := 0
	if run.DryRun {
		dryRun = 1
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO sync_runs (
			run_id, started_at, finished_at, dry_run,
			matched, updated, unchanged, errors, batches, unmatched, missing_record_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.RunID, run.StartedAt.UTC(), run.FinishedAt.UTC(), dryRun,
		run.Matched, run.Updated, run.Unchanged, run.Errors, run.Batches,
		run.Unmatched, run.MissingRecordID,
	)
	if err != nil {
		s.log.Error("Database: failed to record sync run", zap.Error(err))
		return fmt.Errorf("failed to record sync run: %w", err)
	}

	s.log.Info("Database: recorded sync run",
		zap.String("run_id", run.RunID), zap.Time("started_at", run.StartedAt), zap.Bool("dry_run", run.DryRun), zap.Int("updated", run.Updated))
	return nil
}

// ListSyncRuns returns the most recent runs first. limit <= 0 returns all.
func (s *SyncRunStore) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	query := `
		SELECT id, run_id, started_at, finished_at, dry_run,
		       matched, updated, unchanged, errors, batches, unmatched, missing_record_id
		FROM sync_runs
		ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync_runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var (
			r                 models.SyncRun
			started, finished nullTime
			dryRun            int
		)
		err := rows.Scan(&r.ID, &r.RunID, &started, &finished, &dryRun,
			&r.Matched, &r.Updated, &r.Unchanged, &r.Errors, &r.Batches,
			&r.Unmatched, &r.MissingRecordID)
		if err != nil {
			s.log.Warn("Database: failed to scan sync run row", zap.Error(err))
			continue
		}
		r.StartedAt = started.Time
		r.FinishedAt = finished.Time
		r.DryRun = dryRun == 1
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync_runs rows: %w", err)
	}
	return runs, nil
}
