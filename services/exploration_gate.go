// services/exploration_gate.go
package services

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
	"github.com/hakanhakan/TelekomExpport2/scraper"
)

// FetchDecision says whether an exploration protocol has to be downloaded.
type FetchDecision int

const (
	FetchNew FetchDecision = iota
	FetchReuse
)

func (d FetchDecision) String() string {
	if d == FetchReuse {
		return "reuse"
	}
	return "fetch"
}

// FetchOutcome is what happened to the protocol of one property.
type FetchOutcome int

const (
	OutcomeReused      FetchOutcome = iota // previous reference kept, nothing fetched
	OutcomeFetched                         // new artifact stored
	OutcomeUnavailable                     // portal offered nothing to download
	OutcomeFailed                          // download attempted and failed
)

func (o FetchOutcome) String() string {
	switch o {
	case OutcomeReused:
		return "reused"
	case OutcomeFetched:
		return "fetched"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// FetchFunc downloads the protocol for folID and returns the stored
// reference. It returns scraper.ErrProtocolUnavailable when there is
// nothing to download.
type FetchFunc func(ctx context.Context, folID string) (string, error)

// GateCounts is a snapshot of the gate counters.
type GateCounts struct {
	Skipped int64 // reused without fetching
	New     int64 // fetch attempted
}

// ExplorationGate decides per property whether the exploration protocol
// must be fetched again, based on the date text stored with the previous
// extraction. It is safe for concurrent use.
type ExplorationGate struct {
	log     *zap.Logger
	skipped atomic.Int64
	fetched atomic.Int64
}

func NewExplorationGate(log *zap.Logger) *ExplorationGate {
	return &ExplorationGate{log: log}
}

// Decide reuses the previous reference only when the current date text is
// non-empty, exactly equal to the stored one, and a reference was stored.
// A stored empty reference means the last download did not produce a file,
// so it is tried again.
func (g *ExplorationGate) Decide(current string, prev *models.ExplorationMarker) FetchDecision {
	if current == "" || prev == nil {
		return FetchNew
	}
	if current != prev.Exploration || prev.ExplorationPDF == "" {
		return FetchNew
	}
	return FetchReuse
}

// Resolve applies Decide and, when needed, calls fetch. It returns the
// outcome and the reference to persist with the record. A failed or
// unavailable fetch yields an empty reference.
func (g *ExplorationGate) Resolve(ctx context.Context, folID, current string, prev *models.ExplorationMarker, fetch FetchFunc) (FetchOutcome, string) {
	if g.Decide(current, prev) == FetchReuse {
		g.skipped.Add(1)
		g.log.Debug("Gate: exploration unchanged, reusing protocol",
			zap.String("fol_id", folID), zap.String("exploration", current), zap.String("ref", prev.ExplorationPDF))
		return OutcomeReused, prev.ExplorationPDF
	}

	g.fetched.Add(1)
	ref, err := fetch(ctx, folID)
	switch {
	case errors.Is(err, scraper.ErrProtocolUnavailable):
		g.log.Info("Gate: no exploration protocol available", zap.String("fol_id", folID))
		return OutcomeUnavailable, ""
	case err != nil:
		g.log.Warn("Gate: exploration protocol download failed", zap.String("fol_id", folID), zap.Error(err))
		return OutcomeFailed, ""
	}
	return OutcomeFetched, ref
}

// Counts returns the current counters.
func (g *ExplorationGate) Counts() GateCounts {
	return GateCounts{Skipped: g.skipped.Load(), New: g.fetched.Load()}
}

// LogCounts writes the counters as the end-of-run summary line.
func (g *ExplorationGate) LogCounts() {
	c := g.Counts()
	g.log.Info("Gate: protocol summary", zap.Int64("skipped", c.Skipped), zap.Int64("new", c.New))
}
