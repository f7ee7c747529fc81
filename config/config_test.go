package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "ingest:\n  protocol_dir: " + filepath.Join(dir, "protocols") + "\ndatabase:\n  path: " + filepath.Join(dir, "db", "test.db") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Sync.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.Sync.BatchSize)
	}
	if cfg.Ingest.Workers != 3 || cfg.Ingest.DownloadRetries != 3 {
		t.Errorf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
	if cfg.Ingest.DownloadTimeout != 30*time.Second {
		t.Errorf("DownloadTimeout = %v", cfg.Ingest.DownloadTimeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Airtable.TableName != "Objects" {
		t.Errorf("TableName = %q", cfg.Airtable.TableName)
	}
	if _, err := os.Stat(filepath.Join(dir, "protocols")); err != nil {
		t.Errorf("protocol dir not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Errorf("database dir not created: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
airtable:
  api_key: from-file
  max_batch_size: 25
sync:
  batch_size: 4
ingest:
  protocol_dir: ` + filepath.Join(dir, "p") + `
database:
  driver: mysql
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AIRTABLE_API_KEY", "from-env")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Airtable.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.Airtable.APIKey)
	}
	if cfg.Airtable.MaxBatchSize != 25 {
		t.Errorf("MaxBatchSize = %d, want 25", cfg.Airtable.MaxBatchSize)
	}
	if cfg.Sync.BatchSize != 4 {
		t.Errorf("BatchSize = %d, want 4", cfg.Sync.BatchSize)
	}
	if cfg.Database.Path != "" {
		t.Errorf("mysql config should not get a sqlite path, got %q", cfg.Database.Path)
	}
}

func TestLoadBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "ingest:\n  download_timeout: soon\n  protocol_dir: " + filepath.Join(dir, "p") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}
