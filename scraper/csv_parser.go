// scraper/csv_parser.go
package scraper

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// ParseExtractionCSV reads an extraction export. The header names the
// property_data columns (fol_id, street, owner_name, ...); unknown columns
// are ignored and missing ones stay empty. Rows without a FoL-ID are
// dropped.
func ParseExtractionCSV(reader io.Reader) ([]ExtractedProperty, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(reader))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder for extraction export: %w", err)
	}

	var rows []ExtractedProperty
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode extraction CSV data: %w", err)
	}

	out := rows[:0]
	for _, r := range rows {
		r.FolID = strings.TrimSpace(r.FolID)
		if r.FolID == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
