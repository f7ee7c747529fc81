package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/config"
	"github.com/hakanhakan/TelekomExpport2/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background(), zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return db
}

func sampleRecord() models.PropertyRecord {
	return models.PropertyRecord{
		FolID:          "1000004314821",
		SessionID:      1,
		Page:           3,
		Street:         "Hauptstraße",
		HouseNumber:    "12",
		OwnerName:      "Jane Doe",
		OwnerEmail:     "jane@example.com",
		Status:         "ok",
		Exploration:    "5/1/2024 09:00AM",
		ExplorationPDF: "exploration_protocols/1000004314821.pdf",
		AU:             "2",
		BU:             "1",
		NVTArea:        "NVT-7",
	}
}

func TestUpsertChangeFlag(t *testing.T) {
	ctx := context.Background()
	store := NewPropertyStore(newTestDB(t), zap.NewNop())
	rec := sampleRecord()

	changed, err := store.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if changed {
		t.Errorf("first write must not be flagged as changed")
	}

	changed, err = store.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if changed {
		t.Errorf("identical re-upsert flagged as changed")
	}

	edited := rec
	edited.OwnerName = "John Doe"
	changed, err = store.Upsert(ctx, edited)
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if !changed {
		t.Errorf("owner change not flagged")
	}

	got, err := store.Get(ctx, rec.FolID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("record not found after upsert")
	}
	if got.OwnerName != "John Doe" || !got.ChangedFlag {
		t.Errorf("stored record = %+v", got)
	}
	if got.DataHash != edited.Fingerprint() {
		t.Errorf("stored hash %q, want %q", got.DataHash, edited.Fingerprint())
	}

	// Flag resets once the content settles.
	changed, err = store.Upsert(ctx, edited)
	if err != nil {
		t.Fatalf("fourth upsert: %v", err)
	}
	if changed {
		t.Errorf("unchanged re-upsert after a change still flagged")
	}
}

func TestUpsertStatusOnlyChangeRefreshesRow(t *testing.T) {
	ctx := context.Background()
	store := NewPropertyStore(newTestDB(t), zap.NewNop())
	rec := sampleRecord()

	if _, err := store.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.Status = "Owner table not found"
	rec.ExplorationPDF = "exploration_protocols/other.pdf"
	changed, err := store.Upsert(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Errorf("status and path change must not set the flag")
	}

	got, err := store.Get(ctx, rec.FolID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "Owner table not found" || got.ExplorationPDF != "exploration_protocols/other.pdf" {
		t.Errorf("mutable columns were not refreshed: %+v", got)
	}
}

func TestUpsertRequiresFolID(t *testing.T) {
	store := NewPropertyStore(newTestDB(t), zap.NewNop())
	if _, err := store.Upsert(context.Background(), models.PropertyRecord{}); err == nil {
		t.Fatal("expected error for empty fol_id")
	}
}

func TestUpsertLegacyRowWithoutHash(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewPropertyStore(db, zap.NewNop())

	_, err := db.ExecContext(ctx, "INSERT INTO property_data (fol_id, owner_name) VALUES ('42', 'Old Owner')")
	if err != nil {
		t.Fatal(err)
	}

	rec := sampleRecord()
	rec.FolID = "42"
	changed, err := store.Upsert(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Errorf("row without a stored hash should be reported as changed")
	}
}

func TestLookupExploration(t *testing.T) {
	ctx := context.Background()
	store := NewPropertyStore(newTestDB(t), zap.NewNop())

	marker, err := store.LookupExploration(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if marker != nil {
		t.Fatalf("expected nil marker for unknown key, got %+v", marker)
	}

	rec := sampleRecord()
	if _, err := store.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	marker, err = store.LookupExploration(ctx, rec.FolID)
	if err != nil {
		t.Fatal(err)
	}
	if marker == nil || marker.Exploration != rec.Exploration || marker.ExplorationPDF != rec.ExplorationPDF {
		t.Errorf("marker = %+v", marker)
	}
}

func TestLoadProperties(t *testing.T) {
	ctx := context.Background()
	store := NewPropertyStore(newTestDB(t), zap.NewNop())

	for _, id := range []string{"1", "2", "3"} {
		rec := sampleRecord()
		rec.FolID = id
		if _, err := store.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.LoadProperties(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("loaded %d records, want 3", len(all))
	}
	if all["2"].Street != "Hauptstraße" || all["2"].AU != "2" {
		t.Errorf("record 2 = %+v", all["2"])
	}
	if all["2"].LastUpdated.IsZero() {
		t.Errorf("last_updated not populated")
	}
}

func TestBuildPropertyUpsertMySQLOrdering(t *testing.T) {
	q := buildPropertyUpsert(MySQL)
	flag := strings.Index(q, "changed_flag = IF(")
	hash := strings.Index(q, "data_hash = VALUES(data_hash)")
	if flag < 0 || hash < 0 {
		t.Fatalf("unexpected statement: %s", q)
	}
	if flag > hash {
		t.Errorf("changed_flag must be assigned before data_hash")
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	if got := pg.Rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &DB{Dialect: SQLite}
	if got := lite.Rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestEnsureSchemaAddsLateColumns(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "legacy.db")}
	db, err := Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE property_data (
		fol_id TEXT PRIMARY KEY, session_id INTEGER, page INTEGER, street TEXT,
		house_number TEXT, house_appendix TEXT, owner_name TEXT, owner_email TEXT,
		owner_mobile TEXT, owner_landline TEXT, status TEXT, data_hash TEXT,
		changed_flag INTEGER DEFAULT 0, last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.EnsureSchema(ctx, zap.NewNop()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	cols, err := db.columns(ctx, "property_data")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []string{"exploration", "exploration_pdf", "au", "bu", "nvt_area"} {
		if !cols[c] {
			t.Errorf("column %s missing", c)
		}
	}
	// Running twice is a no-op.
	if err := db.EnsureSchema(ctx, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}
