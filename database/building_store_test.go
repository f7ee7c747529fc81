package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

func TestSaveAndLoadBuildings(t *testing.T) {
	ctx := context.Background()
	store := NewBuildingStore(newTestDB(t), zap.NewNop())

	saved, err := store.SaveBuildings(ctx, []models.Building{
		{RecordID: "rec1", ExtraField1: "100", FirstName: "Jane", Homes: "2"},
		{RecordID: "rec2", ExtraField1: "", FirstName: "No Key"},
		{RecordID: "", ExtraField1: "300"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved != 2 {
		t.Errorf("saved = %d, want 2", saved)
	}

	// Second snapshot updates in place.
	if _, err := store.SaveBuildings(ctx, []models.Building{
		{RecordID: "rec1", ExtraField1: "100", FirstName: "Janet", Homes: "3"},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadBuildings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d buildings, want 1 (rows without FoL-ID are skipped)", len(got))
	}
	b := got["100"]
	if b.RecordID != "rec1" || b.FirstName != "Janet" || b.Homes != "3" {
		t.Errorf("building = %+v", b)
	}
}

func TestFindOrphanBuildings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	buildings := NewBuildingStore(db, zap.NewNop())
	properties := NewPropertyStore(db, zap.NewNop())

	_, err := buildings.SaveBuildings(ctx, []models.Building{
		{RecordID: "a", ExtraField1: "1", FirstName: "Has Property"},
		{RecordID: "b", ExtraField1: "2", FirstName: "Orphan"},
		{RecordID: "c", ExtraField1: "3", FirstName: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := properties.Upsert(ctx, models.PropertyRecord{FolID: "1"}); err != nil {
		t.Fatal(err)
	}

	orphans, err := buildings.FindOrphanBuildings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0].ExtraField1 != "2" {
		t.Fatalf("orphans = %+v", orphans)
	}
}

func TestSyncRunLog(t *testing.T) {
	ctx := context.Background()
	store := NewSyncRunStore(newTestDB(t), zap.NewNop())

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := models.SyncRun{
			RunID:      fmt.Sprintf("run-%d", i),
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
			DryRun:     i == 1,
			SyncStats:  models.SyncStats{Matched: i, Updated: i * 2},
		}
		if err := store.RecordSyncRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.ListSyncRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Updated != 4 || runs[1].Updated != 2 {
		t.Errorf("runs not ordered newest first: %+v", runs)
	}
	if !runs[1].DryRun || runs[0].DryRun {
		t.Errorf("dry_run not round-tripped: %+v", runs)
	}
	if runs[0].RunID != "run-2" {
		t.Errorf("run_id = %q", runs[0].RunID)
	}
	if !runs[0].StartedAt.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("started_at = %v", runs[0].StartedAt)
	}
}
