// models/building.go
package models

import "time"

// Building is one row of the buildings table, the local snapshot of an
// Airtable "Objects" record of type Building. ExtraField1 carries the
// FoL-ID that links it to a PropertyRecord.
type Building struct {
	RecordID     string `db:"record_id" json:"record_id"` // Airtable record id, empty if unknown
	AreaRecordID string `db:"area_record_id" json:"area_record_id"`
	BuildingName string `db:"building_name" json:"building_name"`
	ExtraField1  string `db:"extra_field_1" json:"extra_field_1"` // FoL-ID
	ExtraField2  string `db:"extra_field_2" json:"extra_field_2"` // box type, derived
	ExtraField3  string `db:"extra_field_3" json:"extra_field_3"` // "Exploration done: <date>"
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Phone1       string `db:"phone_1" json:"phone_1"`
	Phone2       string `db:"phone_2" json:"phone_2"`
	Email        string `db:"email" json:"email"`
	Homes        string `db:"homes" json:"homes"`     // raw column value, coerced when compared
	Offices      string `db:"offices" json:"offices"` // raw column value, coerced when compared
	NVT          string `db:"nvt" json:"nvt"`

	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}
