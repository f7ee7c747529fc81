// services/building_refresh.go
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

type BuildingSource interface {
	FetchBuildings(ctx context.Context, areaName string) ([]models.Building, error)
}

type BuildingSaver interface {
	SaveBuildings(ctx context.Context, buildings []models.Building) (int, error)
}

// BuildingRefresher replaces the local building snapshot of one area with
// what the remote store currently holds.
type BuildingRefresher struct {
	source BuildingSource
	store  BuildingSaver
	log    *zap.Logger
}

func NewBuildingRefresher(source BuildingSource, store BuildingSaver, log *zap.Logger) *BuildingRefresher {
	return &BuildingRefresher{source: source, store: store, log: log}
}

func (r *BuildingRefresher) Refresh(ctx context.Context, area string) (int, error) {
	if area == "" {
		return 0, fmt.Errorf("area name is required")
	}
	buildings, err := r.source.FetchBuildings(ctx, area)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch buildings for area %q: %w", area, err)
	}
	saved, err := r.store.SaveBuildings(ctx, buildings)
	if err != nil {
		return saved, err
	}
	r.log.Info("Service: buildings refreshed", zap.String("area", area), zap.Int("fetched", len(buildings)), zap.Int("saved", saved))
	return saved, nil
}
