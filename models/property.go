// models/property.go
package models

import (
	"time"

	"github.com/hakanhakan/TelekomExpport2/utils"
)

// PropertyRecord is one row of the property_data table: the latest
// extraction of a property from the portal, keyed by its FoL-ID.
type PropertyRecord struct {
	FolID         string `db:"fol_id" csv:"fol_id" json:"fol_id"`
	SessionID     int    `db:"session_id" csv:"session_id,omitempty" json:"session_id"`
	Page          int    `db:"page" csv:"page,omitempty" json:"page"`
	Street        string `db:"street" csv:"street" json:"street"`
	HouseNumber   string `db:"house_number" csv:"house_number" json:"house_number"`
	HouseAppendix string `db:"house_appendix" csv:"house_appendix" json:"house_appendix"`
	OwnerName     string `db:"owner_name" csv:"owner_name" json:"owner_name"`
	OwnerEmail    string `db:"owner_email" csv:"owner_email" json:"owner_email"`
	OwnerMobile   string `db:"owner_mobile" csv:"owner_mobile" json:"owner_mobile"`
	OwnerLandline string `db:"owner_landline" csv:"owner_landline" json:"owner_landline"`

	// Status is the free-text message of the last extraction attempt.
	// It never takes part in the fingerprint.
	Status string `db:"status" csv:"status" json:"status"`

	Exploration    string `db:"exploration" csv:"exploration" json:"exploration"`             // date text shown on the portal
	ExplorationPDF string `db:"exploration_pdf" csv:"exploration_pdf" json:"exploration_pdf"` // stored protocol path

	AU      string `db:"au" csv:"au" json:"au"` // accommodation units
	BU      string `db:"bu" csv:"bu" json:"bu"` // business units
	NVTArea string `db:"nvt_area" csv:"nvt_area" json:"nvt_area"`

	// Maintained by the store.
	DataHash    string    `db:"data_hash" csv:"-" json:"data_hash,omitempty"`
	ChangedFlag bool      `db:"changed_flag" csv:"-" json:"changed_flag"`
	LastUpdated time.Time `db:"last_updated" csv:"-" json:"last_updated"`
}

// HashFields returns the record's values in the fixed position scheme
// used by utils.FingerprintFields.
func (p PropertyRecord) HashFields() []string {
	return []string{
		p.FolID,
		p.Street,
		p.HouseNumber,
		p.HouseAppendix,
		p.OwnerName,
		p.OwnerEmail,
		p.OwnerMobile,
		p.OwnerLandline,
		p.Status,
		p.Exploration,
		p.ExplorationPDF,
		p.AU,
		p.BU,
		p.NVTArea,
	}
}

// Fingerprint is the content hash over the record's meaningful fields.
func (p PropertyRecord) Fingerprint() string {
	return utils.FingerprintFields(p.HashFields())
}

// ExplorationMarker is the previously stored exploration date text and
// the protocol reference that was saved for it.
type ExplorationMarker struct {
	FolID          string
	Exploration    string
	ExplorationPDF string
}
