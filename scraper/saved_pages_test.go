package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestLoadSavedPages(t *testing.T) {
	dir := t.TempDir()
	search := filepath.Join(dir, "search.html")
	if err := os.WriteFile(search, []byte(searchPage), 0644); err != nil {
		t.Fatal(err)
	}
	// Only the first row has a saved detail page.
	if err := os.WriteFile(filepath.Join(dir, "1000004314821.html"), []byte(detailPage), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSavedPages(search, dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d properties, want 1", len(got))
	}
	p := got[0]
	if p.FolID != "1000004314821" || p.OwnerName != "Jane Doe" || p.Exploration != "6/1/2024 01:01AM" || p.NoProtocol {
		t.Errorf("property = %+v", p)
	}
}

func TestLoadSavedPagesMissingSearch(t *testing.T) {
	if _, err := LoadSavedPages(filepath.Join(t.TempDir(), "nope.html"), t.TempDir(), zap.NewNop()); err == nil {
		t.Error("expected error")
	}
}
