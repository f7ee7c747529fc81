// database/property_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

// Mutable columns of property_data, in insert order after fol_id.
var propertyColumns = []string{
	"session_id", "page", "street", "house_number", "house_appendix",
	"owner_name", "owner_email", "owner_mobile", "owner_landline",
	"status", "exploration", "exploration_pdf", "au", "bu", "nvt_area",
}

const propertySelect = `
	SELECT fol_id, session_id, page, street, house_number, house_appendix,
	       owner_name, owner_email, owner_mobile, owner_landline,
	       status, exploration, exploration_pdf, au, bu, nvt_area,
	       data_hash, changed_flag, last_updated
	FROM property_data`

// PropertyStore persists extracted property records keyed by FoL-ID.
type PropertyStore struct {
	db        *DB
	log       *zap.Logger
	upsertSQL string
}

func NewPropertyStore(db *DB, log *zap.Logger) *PropertyStore {
	return &PropertyStore{
		db:        db,
		log:       log,
		upsertSQL: db.Rebind(buildPropertyUpsert(db.Dialect)),
	}
}

// buildPropertyUpsert renders the single insert-or-update statement.
// Every mutable column and last_updated are refreshed on conflict, and
// changed_flag is computed from the stored hash before data_hash is
// overwritten. A first insert always carries changed_flag = 0.
func buildPropertyUpsert(dialect Dialect) string {
	insertCols := append([]string{"fol_id"}, propertyColumns...)
	insertCols = append(insertCols, "data_hash", "changed_flag")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertCols)-1), ", ")

	var sets []string
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO property_data (%s, last_updated) VALUES (%s, 0, CURRENT_TIMESTAMP)",
		strings.Join(insertCols, ", "), placeholders)

	if dialect == MySQL {
		for _, c := range propertyColumns {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		}
		// MySQL evaluates assignments left to right, so the flag must be
		// computed while data_hash still holds the stored value.
		sets = append(sets,
			"changed_flag = IF(COALESCE(data_hash, '') <> VALUES(data_hash), 1, 0)",
			"data_hash = VALUES(data_hash)",
			"last_updated = CURRENT_TIMESTAMP",
		)
		b.WriteString(" ON DUPLICATE KEY UPDATE ")
	} else {
		for _, c := range propertyColumns {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
		sets = append(sets,
			"changed_flag = CASE WHEN COALESCE(property_data.data_hash, '') <> excluded.data_hash THEN 1 ELSE 0 END",
			"data_hash = excluded.data_hash",
			"last_updated = CURRENT_TIMESTAMP",
		)
		b.WriteString(" ON CONFLICT (fol_id) DO UPDATE SET ")
	}
	b.WriteString(strings.Join(sets, ", "))
	return b.String()
}

// Upsert inserts or refreshes rec and reports whether its fingerprint
// differs from the one previously stored. A record seen for the first
// time is not reported as changed.
func (s *PropertyStore) Upsert(ctx context.Context, rec models.PropertyRecord) (bool, error) {
	if rec.FolID == "" {
		return false, fmt.Errorf("cannot upsert property without fol_id")
	}
	hash := rec.Fingerprint()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for property %s: %w", rec.FolID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.upsertSQL,
		rec.FolID, rec.SessionID, rec.Page, rec.Street, rec.HouseNumber, rec.HouseAppendix,
		rec.OwnerName, rec.OwnerEmail, rec.OwnerMobile, rec.OwnerLandline,
		rec.Status, rec.Exploration, rec.ExplorationPDF, rec.AU, rec.BU, rec.NVTArea,
		hash,
	)
	if err != nil {
		s.log.Error("Database: property upsert failed", zap.String("fol_id", rec.FolID), zap.Error(err))
		return false, fmt.Errorf("failed to upsert property %s: %w", rec.FolID, err)
	}

	var flag int
	err = tx.QueryRowContext(ctx,
		s.db.Rebind("SELECT changed_flag FROM property_data WHERE fol_id = ?"), rec.FolID,
	).Scan(&flag)
	if err != nil {
		return false, fmt.Errorf("failed to read changed_flag for property %s: %w", rec.FolID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit property %s: %w", rec.FolID, err)
	}
	return flag == 1, nil
}

// LookupExploration returns the stored exploration marker for folID, or
// nil when the property has never been stored.
func (s *PropertyStore) LookupExploration(ctx context.Context, folID string) (*models.ExplorationMarker, error) {
	var exploration, pdf sql.NullString
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT exploration, exploration_pdf FROM property_data WHERE fol_id = ?"), folID,
	).Scan(&exploration, &pdf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up exploration for %s: %w", folID, err)
	}
	return &models.ExplorationMarker{
		FolID:          folID,
		Exploration:    exploration.String,
		ExplorationPDF: pdf.String,
	}, nil
}

// Get returns the full stored record, or nil if folID is unknown.
func (s *PropertyStore) Get(ctx context.Context, folID string) (*models.PropertyRecord, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(propertySelect+" WHERE fol_id = ?"), folID)
	rec, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %s: %w", folID, err)
	}
	return rec, nil
}

// LoadProperties reads every stored record keyed by FoL-ID.
func (s *PropertyStore) LoadProperties(ctx context.Context) (map[string]models.PropertyRecord, error) {
	rows, err := s.db.QueryContext(ctx, propertySelect)
	if err != nil {
		return nil, fmt.Errorf("failed to query property_data: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.PropertyRecord)
	for rows.Next() {
		rec, err := scanProperty(rows)
		if err != nil {
			s.log.Warn("Database: failed to scan property row", zap.Error(err))
			continue
		}
		out[rec.FolID] = *rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property_data rows: %w", err)
	}
	s.log.Debug("Database: loaded properties", zap.Int("count", len(out)))
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.PropertyRecord, error) {
	var (
		rec                                   models.PropertyRecord
		sessionID, page, changed              sql.NullInt64
		street, number, appendix              sql.NullString
		name, email, mobile, landline         sql.NullString
		status, exploration, pdf, au, bu, nvt sql.NullString
		hash                                  sql.NullString
		updated                               nullTime
	)
	err := row.Scan(
		&rec.FolID, &sessionID, &page, &street, &number, &appendix,
		&name, &email, &mobile, &landline,
		&status, &exploration, &pdf, &au, &bu, &nvt,
		&hash, &changed, &updated,
	)
	if err != nil {
		return nil, err
	}
	rec.SessionID = int(sessionID.Int64)
	rec.Page = int(page.Int64)
	rec.Street = street.String
	rec.HouseNumber = number.String
	rec.HouseAppendix = appendix.String
	rec.OwnerName = name.String
	rec.OwnerEmail = email.String
	rec.OwnerMobile = mobile.String
	rec.OwnerLandline = landline.String
	rec.Status = status.String
	rec.Exploration = exploration.String
	rec.ExplorationPDF = pdf.String
	rec.AU = au.String
	rec.BU = bu.String
	rec.NVTArea = nvt.String
	rec.DataHash = hash.String
	rec.ChangedFlag = changed.Int64 == 1
	rec.LastUpdated = updated.Time
	return &rec, nil
}
