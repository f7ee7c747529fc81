package airtable

import (
	"context"
	"errors"
	"testing"

	at "github.com/mehanizm/airtable"
	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

type fakeTable struct {
	pages    [][]*at.Record
	formulas []string
	updates  [][]*at.Record
	failOn   int // 1-based update call that fails, 0 never
}

func (f *fakeTable) list(formula, offset string) ([]*at.Record, string, error) {
	f.formulas = append(f.formulas, formula)
	idx := 0
	if offset != "" {
		idx = int(offset[0] - '0')
	}
	if idx >= len(f.pages) {
		return nil, "", nil
	}
	next := ""
	if idx+1 < len(f.pages) {
		next = string(rune('0' + idx + 1))
	}
	return f.pages[idx], next, nil
}

func (f *fakeTable) updatePartial(records []*at.Record) error {
	f.updates = append(f.updates, records)
	if f.failOn == len(f.updates) {
		return errors.New("422 invalid request")
	}
	return nil
}

func TestUpdateRecordsChunks(t *testing.T) {
	objects := &fakeTable{}
	c := newClient(objects, &fakeTable{}, 25, zap.NewNop())

	var updates []models.RecordUpdate
	for i := 0; i < 23; i++ {
		updates = append(updates, models.RecordUpdate{RecordID: "rec", Fields: models.Diff{"HOMES": i}})
	}
	if err := c.UpdateRecords(context.Background(), updates); err != nil {
		t.Fatal(err)
	}
	if len(objects.updates) != 3 {
		t.Fatalf("requests = %d, want 3", len(objects.updates))
	}
	sizes := []int{len(objects.updates[0]), len(objects.updates[1]), len(objects.updates[2])}
	if sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 3 {
		t.Errorf("request sizes = %v", sizes)
	}
	if objects.updates[2][2].Fields["HOMES"] != 22 {
		t.Errorf("fields not carried: %v", objects.updates[2][2].Fields)
	}
}

func TestUpdateRecordsStopsOnError(t *testing.T) {
	objects := &fakeTable{failOn: 1}
	c := newClient(objects, &fakeTable{}, 2, zap.NewNop())
	updates := make([]models.RecordUpdate, 5)
	if err := c.UpdateRecords(context.Background(), updates); err == nil {
		t.Fatal("expected error")
	}
	if len(objects.updates) != 1 {
		t.Errorf("requests after failure = %d, want 1", len(objects.updates))
	}
}

func TestFetchBuildings(t *testing.T) {
	areas := &fakeTable{pages: [][]*at.Record{{{ID: "areaA", Fields: map[string]any{"Name": "North"}}}}}
	objects := &fakeTable{pages: [][]*at.Record{
		{
			{ID: "rec1", Fields: map[string]any{
				"Name": "Hauptstraße 12", "Area": []any{"areaA"},
				"Extra field 1": "FoL-ID: 1000004314821", "First name": "Jane",
				"HOMES": float64(3), "OFFICES": "x",
			}},
			{ID: "rec2", Fields: map[string]any{"Name": "Elsewhere", "Area": []any{"areaB"}}},
		},
		{
			{ID: "rec3", Fields: map[string]any{"Name": "", "Area": []any{"areaA"}}},
			{ID: "rec4", Fields: map[string]any{"Name": "Nebenweg 3", "Area": []any{"areaA"}, "Extra field 1": "42"}},
		},
	}}

	c := newClient(objects, areas, 10, zap.NewNop())
	got, err := c.FetchBuildings(context.Background(), `North "1"`)
	if err != nil {
		t.Fatal(err)
	}
	if areas.formulas[0] != `{Name}="North \"1\""` {
		t.Errorf("area formula = %s", areas.formulas[0])
	}
	if len(got) != 2 {
		t.Fatalf("got %d buildings, want 2: %+v", len(got), got)
	}
	first := got[0]
	if first.RecordID != "rec1" || first.ExtraField1 != "1000004314821" || first.AreaRecordID != "areaA" {
		t.Errorf("building = %+v", first)
	}
	if first.Homes != "3" || first.Offices != "0" || first.FirstName != "Jane" {
		t.Errorf("building = %+v", first)
	}
	if got[1].ExtraField1 != "42" {
		t.Errorf("plain FoL-ID should pass through: %+v", got[1])
	}
}

func TestFetchBuildingsUnknownArea(t *testing.T) {
	c := newClient(&fakeTable{}, &fakeTable{}, 10, zap.NewNop())
	if _, err := c.FetchBuildings(context.Background(), "Nowhere"); err == nil {
		t.Fatal("expected error for unknown area")
	}
}

func TestNormalizeFolID(t *testing.T) {
	tests := map[string]string{
		"FoL-ID: 1000004314821": "1000004314821",
		"FoL-ID:42":             "42",
		"1000004314821":         "1000004314821",
		"":                      "",
	}
	for in, want := range tests {
		if got := NormalizeFolID(in); got != want {
			t.Errorf("NormalizeFolID(%q) = %q, want %q", in, got, want)
		}
	}
}
