// services/ingest_service.go
package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hakanhakan/TelekomExpport2/models"
	"github.com/hakanhakan/TelekomExpport2/scraper"
)

// PropertyRepository is the storage the ingest needs.
type PropertyRepository interface {
	LookupExploration(ctx context.Context, folID string) (*models.ExplorationMarker, error)
	Upsert(ctx context.Context, rec models.PropertyRecord) (bool, error)
}

// IngestService stores freshly extracted properties. For every row it
// looks up the previous exploration marker, lets the gate decide whether
// the protocol is fetched again, and upserts the record.
type IngestService struct {
	repo    PropertyRepository
	gate    *ExplorationGate
	fetch   FetchFunc
	workers int
	log     *zap.Logger
}

func NewIngestService(repo PropertyRepository, gate *ExplorationGate, fetch FetchFunc, workers int, log *zap.Logger) *IngestService {
	if workers <= 0 {
		workers = 1
	}
	return &IngestService{repo: repo, gate: gate, fetch: fetch, workers: workers, log: log}
}

// Ingest processes items with a fixed number of workers. Worker w owns the
// items at positions w, w+workers, ... so no two workers touch the same
// row. Row failures are counted; only cancellation aborts the run.
func (s *IngestService) Ingest(ctx context.Context, items []scraper.ExtractedProperty) (models.IngestStats, error) {
	var (
		mu    sync.Mutex
		total models.IngestStats
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < s.workers; w++ {
		w := w
		g.Go(func() error {
			var local models.IngestStats
			defer func() {
				mu.Lock()
				total = mergeIngestStats(total, local)
				mu.Unlock()
			}()

			for i := w; i < len(items); i += s.workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.ingestOne(gctx, items[i], &local)
			}
			return nil
		})
	}
	err := g.Wait()

	s.log.Info("Service: ingest finished",
		zap.Int("processed", total.Processed),
		zap.Int("inserted", total.Inserted),
		zap.Int("changed", total.Changed),
		zap.Int("unchanged", total.Unchanged),
		zap.Int("failed", total.Failed),
		zap.Int("protocols_reused", total.ProtocolsReused),
		zap.Int("protocols_new", total.ProtocolsNew),
	)
	s.gate.LogCounts()
	return total, err
}

func (s *IngestService) ingestOne(ctx context.Context, item scraper.ExtractedProperty, stats *models.IngestStats) {
	stats.Processed++
	rec := item.PropertyRecord
	log := s.log.With(zap.String("fol_id", rec.FolID))

	prev, err := s.repo.LookupExploration(ctx, rec.FolID)
	if err != nil {
		stats.Failed++
		log.Error("Service: exploration lookup failed", zap.Error(err))
		return
	}

	fetch := s.fetch
	if item.NoProtocol || fetch == nil {
		fetch = func(context.Context, string) (string, error) { return "", scraper.ErrProtocolUnavailable }
	}
	outcome, ref := s.gate.Resolve(ctx, rec.FolID, rec.Exploration, prev, fetch)
	switch outcome {
	case OutcomeReused:
		stats.ProtocolsReused++
	case OutcomeFetched:
		stats.ProtocolsNew++
	}
	rec.ExplorationPDF = ref

	changed, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		stats.Failed++
		log.Error("Service: property upsert failed", zap.Error(err))
		return
	}
	switch {
	case prev == nil:
		stats.Inserted++
	case changed:
		stats.Changed++
		log.Info("Service: property changed")
	default:
		stats.Unchanged++
	}
}

func mergeIngestStats(a, b models.IngestStats) models.IngestStats {
	a.Processed += b.Processed
	a.Inserted += b.Inserted
	a.Changed += b.Changed
	a.Unchanged += b.Unchanged
	a.Failed += b.Failed
	a.ProtocolsReused += b.ProtocolsReused
	a.ProtocolsNew += b.ProtocolsNew
	return a
}
