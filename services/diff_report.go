// services/diff_report.go
package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// DiffReport is the human readable list of pending remote changes.
type DiffReport struct {
	GeneratedAt time.Time
	Records     []RecordDiff
}

// FieldCount is how many records change a given remote column.
type FieldCount struct {
	Field string
	Count int
}

// apiFieldOrder lists API names in mapping order, box type last.
func apiFieldOrder() []string {
	order := make([]string, 0, len(FieldMappings)+1)
	for _, m := range FieldMappings {
		order = append(order, m.APIName)
	}
	return append(order, BoxAPIName)
}

// orderedFields returns the API names present in fields, in mapping order.
func orderedFields(fields map[string]any) []string {
	var names []string
	for _, name := range apiFieldOrder() {
		if _, ok := fields[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// FieldCounts tallies changes per remote column, most frequent first.
func (r DiffReport) FieldCounts() []FieldCount {
	counts := map[string]int{}
	for _, rec := range r.Records {
		for name := range rec.Fields {
			counts[RemoteFieldForAPIName(name)]++
		}
	}
	out := make([]FieldCount, 0, len(counts))
	for f, c := range counts {
		out = append(out, FieldCount{Field: f, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func formatValue(v any) string {
	if v == nil {
		return "(none)"
	}
	return fmt.Sprint(v)
}

// Write renders the report as plain text.
func (r DiffReport) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 40)

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "SYNC DIFF REPORT - %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw)

	for _, rec := range r.Records {
		fmt.Fprintf(bw, "FOL-ID: %s\n", rec.FolID)
		fmt.Fprintln(bw, thin)
		for _, name := range orderedFields(rec.Fields) {
			fmt.Fprintf(bw, "  %s: %s -> %s\n",
				RemoteFieldForAPIName(name), formatValue(RemoteValue(rec.Remote, name)), formatValue(rec.Fields[name]))
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "SUMMARY: %d records with differences\n", len(r.Records))
	fmt.Fprintln(bw, thin)
	fmt.Fprintln(bw, "Field-level differences:")
	for _, fc := range r.FieldCounts() {
		fmt.Fprintf(bw, "  %s: %d\n", fc.Field, fc.Count)
	}
	fmt.Fprintln(bw, rule)
	return bw.Flush()
}

// WriteFile writes the report to path, replacing any previous report.
func (r DiffReport) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diff report %s: %w", path, err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write diff report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close diff report %s: %w", path, err)
	}
	return nil
}
