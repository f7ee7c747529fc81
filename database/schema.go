// database/schema.go
package database

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Columns added after the first extraction runs. Older databases get them
// through ALTER TABLE.
var lateColumns = []struct {
	name string
	def  string
}{
	{"exploration", "VARCHAR(255)"},
	{"exploration_pdf", "VARCHAR(512)"},
	{"au", "VARCHAR(32)"},
	{"bu", "VARCHAR(32)"},
	{"nvt_area", "VARCHAR(255)"},
}

func (db *DB) schemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS property_data (
			fol_id VARCHAR(64) NOT NULL PRIMARY KEY,
			session_id INTEGER,
			page INTEGER,
			street VARCHAR(255),
			house_number VARCHAR(64),
			house_appendix VARCHAR(64),
			owner_name VARCHAR(255),
			owner_email VARCHAR(255),
			owner_mobile VARCHAR(64),
			owner_landline VARCHAR(64),
			status TEXT,
			data_hash VARCHAR(64),
			changed_flag INTEGER NOT NULL DEFAULT 0,
			last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS buildings (
			record_id VARCHAR(64) NOT NULL PRIMARY KEY,
			area_record_id VARCHAR(64),
			building_name VARCHAR(255),
			extra_field_1 VARCHAR(64),
			extra_field_2 VARCHAR(255),
			extra_field_3 VARCHAR(255),
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			phone_1 VARCHAR(64),
			phone_2 VARCHAR(64),
			email VARCHAR(255),
			homes VARCHAR(32),
			offices VARCHAR(32),
			nvt VARCHAR(255),
			last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sync_runs (
			id %s,
			run_id VARCHAR(36) NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			matched INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			unchanged INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0,
			batches INTEGER NOT NULL DEFAULT 0,
			unmatched INTEGER NOT NULL DEFAULT 0,
			missing_record_id INTEGER NOT NULL DEFAULT 0
		)`, db.autoIncrementPK()),
	}
}

// EnsureSchema creates the tables this module owns and adds late columns
// to a property_data table created by an older version.
func (db *DB) EnsureSchema(ctx context.Context, log *zap.Logger) error {
	for _, stmt := range db.schemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	existing, err := db.columns(ctx, "property_data")
	if err != nil {
		return err
	}
	for _, col := range lateColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE property_data ADD COLUMN %s %s", col.name, col.def)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
		log.Info("Database: added column to property_data", zap.String("column", col.name))
	}
	return nil
}

// columns lists the column names of table, lower-cased.
func (db *DB) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[strings.ToLower(n)] = true
	}
	return cols, nil
}
