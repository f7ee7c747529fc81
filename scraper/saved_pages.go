// scraper/saved_pages.go
package scraper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LoadSavedPages reads a saved search result page and, for every row, the
// detail page saved as <fol_id>.html in detailDir. Rows whose detail page
// is missing are skipped.
func LoadSavedPages(searchPath, detailDir string, log *zap.Logger) ([]ExtractedProperty, error) {
	f, err := os.Open(searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open search page %s: %w", searchPath, err)
	}
	defer f.Close()

	rows, err := ParseSearchResults(f)
	if err != nil {
		return nil, err
	}
	log.Info("Scraper: search rows found", zap.Int("rows", len(rows)), zap.String("file", searchPath))

	var out []ExtractedProperty
	for _, row := range rows {
		detail, err := loadDetail(filepath.Join(detailDir, row.FolID+".html"))
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("Scraper: no saved detail page", zap.String("fol_id", row.FolID))
			continue
		}
		if err != nil {
			return nil, err
		}
		if detail.Status != "" {
			log.Warn("Scraper: detail page incomplete", zap.String("fol_id", row.FolID), zap.String("status", detail.Status))
		}
		out = append(out, row.Extracted(detail))
	}
	return out, nil
}

func loadDetail(path string) (*PropertyDetail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePropertyDetail(f)
}
