// services/sync_service.go
package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

// RecordUpdater pushes a batch of partial record updates to the remote
// store.
type RecordUpdater interface {
	UpdateRecords(ctx context.Context, updates []models.RecordUpdate) error
}

// SyncRunRecorder persists the outcome of a pass.
type SyncRunRecorder interface {
	RecordSyncRun(ctx context.Context, run models.SyncRun) error
}

type SyncOptions struct {
	BatchSize  int  // updates per flush, defaults to 10
	MaxRecords int  // stop after this many changed records, 0 for no limit
	DryRun     bool // compute and count, never flush
}

// RecordDiff is the pending change for one matched record.
type RecordDiff struct {
	FolID  string
	Remote models.Building
	Fields models.Diff
}

// SyncService reconciles local property records against the remote
// snapshot and pushes the differences in batches.
type SyncService struct {
	differ  *FieldDiffer
	updater RecordUpdater
	runs    SyncRunRecorder
	log     *zap.Logger
	now     func() time.Time
}

// NewSyncService wires a sync pass. runs may be nil to skip the run log.
func NewSyncService(differ *FieldDiffer, updater RecordUpdater, runs SyncRunRecorder, log *zap.Logger) *SyncService {
	return &SyncService{differ: differ, updater: updater, runs: runs, log: log, now: time.Now}
}

func sortedKeys(local map[string]models.PropertyRecord) []string {
	keys := make([]string, 0, len(local))
	for k := range local {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run walks local records in FoL-ID order, computes the diff against the
// matching remote building and flushes non-empty diffs in batches. A
// failed flush is logged and counted, its batch is dropped, and the pass
// continues. The only error returned is a cancelled context, together
// with the counters reached so far.
func (s *SyncService) Run(ctx context.Context, local map[string]models.PropertyRecord, remote map[string]models.Building, opts SyncOptions) (models.SyncStats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))
	started := s.now()
	var stats models.SyncStats
	var pending []models.RecordUpdate

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if opts.DryRun {
			pending = pending[:0]
			return
		}
		log.Info("Sync: pushing batch", zap.Int("size", len(pending)))
		if err := s.updater.UpdateRecords(ctx, pending); err != nil {
			stats.Errors++
			log.Error("Sync: batch update failed, dropping batch",
				zap.Int("size", len(pending)), zap.Error(err))
		} else {
			stats.Batches++
		}
		pending = nil
	}

	var runErr error
	for _, folID := range sortedKeys(local) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		building, ok := remote[folID]
		if !ok {
			stats.Unmatched++
			log.Warn("Sync: no building for property", zap.String("fol_id", folID))
			continue
		}
		stats.Matched++

		if building.RecordID == "" {
			stats.MissingRecordID++
			log.Warn("Sync: building has no record id", zap.String("fol_id", folID))
			continue
		}

		diff := s.differ.ComputeDiff(local[folID], building)
		if len(diff) == 0 {
			stats.Unchanged++
			continue
		}

		pending = append(pending, models.RecordUpdate{RecordID: building.RecordID, FolID: folID, Fields: diff})
		stats.Updated++

		if len(pending) >= opts.BatchSize {
			flush()
		}
		if opts.MaxRecords > 0 && stats.Updated >= opts.MaxRecords {
			log.Info("Sync: record limit reached", zap.Int("max_records", opts.MaxRecords))
			break
		}
	}
	if runErr == nil {
		flush()
	}

	logSummary(log, stats, opts.DryRun)
	s.recordRun(log, runID, started, stats, opts.DryRun)
	return stats, runErr
}

// Collect returns every matched record with a non-empty diff, in FoL-ID
// order. Nothing is pushed.
func (s *SyncService) Collect(local map[string]models.PropertyRecord, remote map[string]models.Building) []RecordDiff {
	var out []RecordDiff
	for _, folID := range sortedKeys(local) {
		building, ok := remote[folID]
		if !ok {
			continue
		}
		if diff := s.differ.ComputeDiff(local[folID], building); len(diff) > 0 {
			out = append(out, RecordDiff{FolID: folID, Remote: building, Fields: diff})
		}
	}
	return out
}

func logSummary(log *zap.Logger, stats models.SyncStats, dryRun bool) {
	log.Info("Sync: summary",
		zap.Bool("dry_run", dryRun),
		zap.Int("matched", stats.Matched),
		zap.Int("updated", stats.Updated),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("errors", stats.Errors),
		zap.Int("batches", stats.Batches),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("missing_record_id", stats.MissingRecordID),
	)
}

func (s *SyncService) recordRun(log *zap.Logger, runID string, started time.Time, stats models.SyncStats, dryRun bool) {
	if s.runs == nil {
		return
	}
	run := models.SyncRun{RunID: runID, StartedAt: started, FinishedAt: s.now(), DryRun: dryRun, SyncStats: stats}
	// The run log outlives a cancelled pass.
	if err := s.runs.RecordSyncRun(context.Background(), run); err != nil {
		log.Warn("Sync: failed to record run", zap.Error(err))
	}
}
