// services/reconciler.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

type PropertyLoader interface {
	LoadProperties(ctx context.Context) (map[string]models.PropertyRecord, error)
}

type BuildingLoader interface {
	LoadBuildings(ctx context.Context) (map[string]models.Building, error)
}

// Reconciler loads both snapshots from the local database and hands them
// to the sync pass or the report.
type Reconciler struct {
	properties PropertyLoader
	buildings  BuildingLoader
	sync       *SyncService
	log        *zap.Logger
}

func NewReconciler(properties PropertyLoader, buildings BuildingLoader, sync *SyncService, log *zap.Logger) *Reconciler {
	return &Reconciler{properties: properties, buildings: buildings, sync: sync, log: log}
}

func (r *Reconciler) load(ctx context.Context) (map[string]models.PropertyRecord, map[string]models.Building, error) {
	local, err := r.properties.LoadProperties(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load local properties: %w", err)
	}
	remote, err := r.buildings.LoadBuildings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load buildings: %w", err)
	}
	r.log.Info("Sync: snapshots loaded", zap.Int("local", len(local)), zap.Int("remote", len(remote)))
	return local, remote, nil
}

// Sync runs one reconciliation pass.
func (r *Reconciler) Sync(ctx context.Context, opts SyncOptions) (models.SyncStats, error) {
	local, remote, err := r.load(ctx)
	if err != nil {
		return models.SyncStats{}, err
	}
	return r.sync.Run(ctx, local, remote, opts)
}

// Report computes every pending diff without pushing anything.
func (r *Reconciler) Report(ctx context.Context) (DiffReport, error) {
	local, remote, err := r.load(ctx)
	if err != nil {
		return DiffReport{}, err
	}
	return DiffReport{GeneratedAt: time.Now(), Records: r.sync.Collect(local, remote)}, nil
}
