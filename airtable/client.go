// airtable/client.go
package airtable

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	at "github.com/mehanizm/airtable"
	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/config"
	"github.com/hakanhakan/TelekomExpport2/models"
)

// Airtable accepts at most this many records per write request.
const maxRecordsPerRequest = 10

var folIDRegex = regexp.MustCompile(`FoL-ID:\s*(\d+)`)

// recordTable is the part of an Airtable table the client uses.
type recordTable interface {
	list(formula, offset string) ([]*at.Record, string, error)
	updatePartial(records []*at.Record) error
}

type apiTable struct {
	t *at.Table
}

func (a apiTable) list(formula, offset string) ([]*at.Record, string, error) {
	q := a.t.GetRecords()
	if formula != "" {
		q = q.WithFilterFormula(formula)
	}
	if offset != "" {
		q = q.WithOffset(offset)
	}
	res, err := q.Do()
	if err != nil {
		return nil, "", err
	}
	return res.Records, res.Offset, nil
}

func (a apiTable) updatePartial(records []*at.Record) error {
	_, err := a.t.UpdateRecordsPartial(&at.Records{Records: records})
	return err
}

// Client writes record updates to the Objects table and reads building
// snapshots from it.
type Client struct {
	objects   recordTable
	areas     recordTable
	batchSize int
	log       *zap.Logger
}

// NewClient connects to the configured base. The API key and base id are
// required.
func NewClient(cfg config.AirtableConfig, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil, fmt.Errorf("airtable api key and base id must be configured")
	}
	api := at.NewClient(cfg.APIKey)
	return newClient(
		apiTable{api.GetTable(cfg.BaseID, cfg.TableName)},
		apiTable{api.GetTable(cfg.BaseID, cfg.AreasTable)},
		cfg.MaxBatchSize,
		log,
	), nil
}

func newClient(objects, areas recordTable, batchSize int, log *zap.Logger) *Client {
	if batchSize <= 0 || batchSize > maxRecordsPerRequest {
		batchSize = maxRecordsPerRequest
	}
	return &Client{objects: objects, areas: areas, batchSize: batchSize, log: log}
}

// UpdateRecords applies partial updates, splitting them into requests
// Airtable accepts. It stops at the first failed request.
func (c *Client) UpdateRecords(ctx context.Context, updates []models.RecordUpdate) error {
	for start := 0; start < len(updates); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+c.batchSize, len(updates))

		records := make([]*at.Record, 0, end-start)
		for _, u := range updates[start:end] {
			records = append(records, &at.Record{ID: u.RecordID, Fields: map[string]any(u.Fields)})
		}
		if err := c.objects.updatePartial(records); err != nil {
			return fmt.Errorf("failed to update %d airtable records: %w", len(records), err)
		}
		c.log.Debug("Airtable: updated records", zap.Int("count", len(records)))
	}
	return nil
}

// FetchBuildings returns the Building objects linked to the named area.
func (c *Client) FetchBuildings(ctx context.Context, areaName string) ([]models.Building, error) {
	areas, err := c.listAll(ctx, c.areas, fmt.Sprintf(`{Name}=%s`, quoteFormula(areaName)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch area %q: %w", areaName, err)
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("no area record found for %q", areaName)
	}
	areaID := areas[0].ID

	objects, err := c.listAll(ctx, c.objects, `{Type}="Building"`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch building records: %w", err)
	}

	var buildings []models.Building
	for _, rec := range objects {
		if !linksTo(rec.Fields["Area"], areaID) {
			continue
		}
		b := buildingFromRecord(rec, areaID)
		if b.RecordID == "" || b.BuildingName == "" {
			continue
		}
		buildings = append(buildings, b)
	}
	c.log.Info("Airtable: fetched buildings", zap.String("area", areaName), zap.Int("count", len(buildings)))
	return buildings, nil
}

func (c *Client) listAll(ctx context.Context, t recordTable, formula string) ([]*at.Record, error) {
	var all []*at.Record
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, next, err := t.list(formula, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		offset = next
	}
}

func quoteFormula(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func linksTo(field any, id string) bool {
	switch v := field.(type) {
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && s == id {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if s == id {
				return true
			}
		}
	}
	return false
}

func buildingFromRecord(rec *at.Record, areaID string) models.Building {
	f := rec.Fields
	return models.Building{
		RecordID:     rec.ID,
		AreaRecordID: areaID,
		BuildingName: stringField(f, "Name"),
		ExtraField1:  NormalizeFolID(stringField(f, "Extra field 1")),
		ExtraField2:  stringField(f, "Extra field 2"),
		ExtraField3:  stringField(f, "Extra field 3"),
		FirstName:    stringField(f, "First name"),
		LastName:     stringField(f, "Last name"),
		Phone1:       stringField(f, "Phone 1"),
		Phone2:       stringField(f, "Phone 2"),
		Email:        stringField(f, "Email"),
		Homes:        strconv.Itoa(intField(f, "HOMES")),
		Offices:      strconv.Itoa(intField(f, "OFFICES")),
		NVT:          stringField(f, "NVT"),
	}
}

// NormalizeFolID reduces "FoL-ID: 1000004314821" to the bare number.
// Other values are returned unchanged.
func NormalizeFolID(s string) string {
	if m := folIDRegex.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func stringField(f map[string]any, name string) string {
	switch v := f[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// intField coerces a numeric column; anything unusable is 0.
func intField(f map[string]any, name string) int {
	switch v := f[name].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
