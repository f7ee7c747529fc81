package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hakanhakan/TelekomExpport2/models"
)

func sampleReport() DiffReport {
	return DiffReport{
		GeneratedAt: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		Records: []RecordDiff{
			{
				FolID:  "100",
				Remote: models.Building{FirstName: "John", Homes: "0", ExtraField3: "Exploration done: 5/1/2024"},
				Fields: models.Diff{"HOMES": 2, "First name": "Jane", "Extra field 3": nil},
			},
			{
				FolID:  "200",
				Remote: models.Building{FirstName: "A"},
				Fields: models.Diff{"First name": "B"},
			},
		},
	}
}

func TestDiffReportWrite(t *testing.T) {
	var b strings.Builder
	if err := sampleReport().Write(&b); err != nil {
		t.Fatal(err)
	}
	out := b.String()

	wantInOrder := []string{
		strings.Repeat("=", 80),
		"SYNC DIFF REPORT - 2024-06-01 09:30:00",
		"FOL-ID: 100",
		strings.Repeat("-", 40),
		"  extra_field_3: Exploration done: 5/1/2024 -> (none)",
		"  first_name: John -> Jane",
		"  homes: 0 -> 2",
		"FOL-ID: 200",
		"  first_name: A -> B",
		"SUMMARY: 2 records with differences",
		"Field-level differences:",
		"  first_name: 2",
		"  extra_field_3: 1",
		"  homes: 1",
	}
	pos := 0
	for _, want := range wantInOrder {
		i := strings.Index(out[pos:], want)
		if i < 0 {
			t.Fatalf("missing or out of order %q in report:\n%s", want, out)
		}
		pos += i + len(want)
	}
}

func TestDiffReportWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := sampleReport().WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "FOL-ID: 200") {
		t.Errorf("report file incomplete:\n%s", data)
	}
}

func TestDiffReportEmpty(t *testing.T) {
	var b strings.Builder
	if err := (DiffReport{GeneratedAt: time.Now()}).Write(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "SUMMARY: 0 records with differences") {
		t.Errorf("unexpected report:\n%s", b.String())
	}
}
