// database/building_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

var buildingColumns = []string{
	"area_record_id", "building_name", "extra_field_1", "extra_field_2", "extra_field_3",
	"first_name", "last_name", "phone_1", "phone_2", "email", "homes", "offices", "nvt",
}

const buildingSelect = `
	SELECT b.record_id, b.area_record_id, b.building_name,
	       b.extra_field_1, b.extra_field_2, b.extra_field_3,
	       b.first_name, b.last_name, b.phone_1, b.phone_2, b.email,
	       b.homes, b.offices, b.nvt, b.last_updated
	FROM buildings b`

// BuildingStore holds the local snapshot of the Airtable building records.
type BuildingStore struct {
	db  *DB
	log *zap.Logger
}

func NewBuildingStore(db *DB, log *zap.Logger) *BuildingStore {
	return &BuildingStore{db: db, log: log}
}

func buildBuildingUpsert(dialect Dialect) string {
	cols := append([]string{"record_id"}, buildingColumns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var sets []string
	for _, c := range buildingColumns {
		if dialect == MySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	sets = append(sets, "last_updated = CURRENT_TIMESTAMP")

	conflict := " ON CONFLICT (record_id) DO UPDATE SET "
	if dialect == MySQL {
		conflict = " ON DUPLICATE KEY UPDATE "
	}
	return fmt.Sprintf("INSERT INTO buildings (%s, last_updated) VALUES (%s, CURRENT_TIMESTAMP)",
		strings.Join(cols, ", "), placeholders) + conflict + strings.Join(sets, ", ")
}

// SaveBuildings upserts a snapshot of building records by Airtable record
// id in one transaction. Records without an id cannot be stored.
func (s *BuildingStore) SaveBuildings(ctx context.Context, buildings []models.Building) (int, error) {
	if len(buildings) == 0 {
		s.log.Info("Database: no buildings provided to save")
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for buildings: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.db.Rebind(buildBuildingUpsert(s.db.Dialect)))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare building upsert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, b := range buildings {
		if b.RecordID == "" {
			s.log.Warn("Database: skipping building without record id", zap.String("fol_id", b.ExtraField1))
			continue
		}
		_, err := stmt.ExecContext(ctx,
			b.RecordID, b.AreaRecordID, b.BuildingName,
			b.ExtraField1, b.ExtraField2, b.ExtraField3,
			b.FirstName, b.LastName, b.Phone1, b.Phone2, b.Email,
			b.Homes, b.Offices, b.NVT,
		)
		if err != nil {
			return saved, fmt.Errorf("failed to save building %s: %w", b.RecordID, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit buildings: %w", err)
	}
	s.log.Info("Database: saved buildings", zap.Int("count", saved))
	return saved, nil
}

// LoadBuildings returns the snapshot keyed by FoL-ID (extra_field_1).
// Rows without a FoL-ID cannot be matched and are left out. When two rows
// share a FoL-ID the one read last wins.
func (s *BuildingStore) LoadBuildings(ctx context.Context) (map[string]models.Building, error) {
	rows, err := s.db.QueryContext(ctx, buildingSelect+" ORDER BY b.record_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Building)
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			s.log.Warn("Database: failed to scan building row", zap.Error(err))
			continue
		}
		key := strings.TrimSpace(b.ExtraField1)
		if key == "" {
			continue
		}
		if prev, dup := out[key]; dup {
			s.log.Warn("Database: duplicate FoL-ID in buildings",
				zap.String("fol_id", key), zap.String("kept", b.RecordID), zap.String("dropped", prev.RecordID))
		}
		out[key] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating building rows: %w", err)
	}
	return out, nil
}

// FindOrphanBuildings lists buildings that carry owner data in Airtable but
// have no extracted property row.
func (s *BuildingStore) FindOrphanBuildings(ctx context.Context) ([]models.Building, error) {
	rows, err := s.db.QueryContext(ctx, buildingSelect+`
		LEFT JOIN property_data p ON p.fol_id = b.extra_field_1
		WHERE b.first_name IS NOT NULL AND b.first_name <> '' AND p.fol_id IS NULL
		ORDER BY b.extra_field_1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphan buildings: %w", err)
	}
	defer rows.Close()

	var out []models.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan orphan building: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orphan buildings: %w", err)
	}
	return out, nil
}

func scanBuilding(row rowScanner) (models.Building, error) {
	var (
		b                                  models.Building
		area, name, ef1, ef2, ef3          sql.NullString
		first, last, phone1, phone2, email sql.NullString
		homes, offices, nvt                sql.NullString
		updated                            nullTime
	)
	err := row.Scan(&b.RecordID, &area, &name, &ef1, &ef2, &ef3,
		&first, &last, &phone1, &phone2, &email, &homes, &offices, &nvt, &updated)
	if err != nil {
		return b, err
	}
	b.AreaRecordID = area.String
	b.BuildingName = name.String
	b.ExtraField1 = ef1.String
	b.ExtraField2 = ef2.String
	b.ExtraField3 = ef3.String
	b.FirstName = first.String
	b.LastName = last.String
	b.Phone1 = phone1.String
	b.Phone2 = phone2.String
	b.Email = email.String
	b.Homes = homes.String
	b.Offices = offices.String
	b.NVT = nvt.String
	b.LastUpdated = updated.Time
	return b, nil
}
