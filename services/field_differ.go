// services/field_differ.go
package services

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
	"github.com/hakanhakan/TelekomExpport2/utils"
)

// FieldKind selects how a mapped pair of values is compared.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumeric
	KindExploration
)

// FieldMapping links a property_data column to a buildings column and the
// Airtable API name written on update.
type FieldMapping struct {
	Local   string
	Remote  string
	APIName string
	Kind    FieldKind

	local  func(models.PropertyRecord) string
	remote func(models.Building) string
}

// Remote column written for the derived box type.
const (
	BoxRemoteField = "extra_field_2"
	BoxAPIName     = "Extra field 2"
)

// FieldMappings is the ordered set of compared fields.
var FieldMappings = []FieldMapping{
	{"fol_id", "extra_field_1", "Extra field 1", KindString,
		func(p models.PropertyRecord) string { return p.FolID },
		func(b models.Building) string { return b.ExtraField1 }},
	{"exploration", "extra_field_3", "Extra field 3", KindExploration,
		func(p models.PropertyRecord) string { return p.Exploration },
		func(b models.Building) string { return b.ExtraField3 }},
	{"owner_name", "first_name", "First name", KindString,
		func(p models.PropertyRecord) string { return p.OwnerName },
		func(b models.Building) string { return b.FirstName }},
	{"owner_email", "email", "Email", KindString,
		func(p models.PropertyRecord) string { return p.OwnerEmail },
		func(b models.Building) string { return b.Email }},
	{"owner_mobile", "phone_1", "Phone 1", KindString,
		func(p models.PropertyRecord) string { return p.OwnerMobile },
		func(b models.Building) string { return b.Phone1 }},
	{"owner_landline", "phone_2", "Phone 2", KindString,
		func(p models.PropertyRecord) string { return p.OwnerLandline },
		func(b models.Building) string { return b.Phone2 }},
	{"au", "homes", "HOMES", KindNumeric,
		func(p models.PropertyRecord) string { return p.AU },
		func(b models.Building) string { return b.Homes }},
	{"bu", "offices", "OFFICES", KindNumeric,
		func(p models.PropertyRecord) string { return p.BU },
		func(b models.Building) string { return b.Offices }},
	{"nvt_area", "nvt", "NVT", KindString,
		func(p models.PropertyRecord) string { return p.NVTArea },
		func(b models.Building) string { return b.NVT }},
}

// RemoteFieldForAPIName maps an Airtable API field name back to the
// buildings column, for reporting.
func RemoteFieldForAPIName(apiName string) string {
	if apiName == BoxAPIName {
		return BoxRemoteField
	}
	for _, m := range FieldMappings {
		if m.APIName == apiName {
			return m.Remote
		}
	}
	return apiName
}

// RemoteValue returns the current buildings value behind an API field name.
func RemoteValue(b models.Building, apiName string) string {
	if apiName == BoxAPIName {
		return b.ExtraField2
	}
	for _, m := range FieldMappings {
		if m.APIName == apiName {
			return m.remote(b)
		}
	}
	return ""
}

// BoxSize is one step of the box table: totals up to MaxUnits get Label.
type BoxSize struct {
	MaxUnits int // 0 marks the unbounded last step
	Label    string
}

// BoxTable lists box types by ascending capacity. Buildings above the
// largest box get no label.
var BoxTable = []BoxSize{
	{1, "Box: G-AP OneBox XS (1WE), 10er Pack | Material Nr.:47122083"},
	{3, "Box: GI-AP OneBox  1 - 3 WE | Material Nr.:47100635"},
	{8, "Box: GI-AP OneBox  4 - 8 WE | Material Nr.:47100636"},
	{12, "Box: GI-AP OneBox  9 -12 WE | Material Nr.:47100637"},
	{20, "Box: GI-AP OneBox 13 - 20 WE | Material Nr.:47100638"},
	{32, "Box: GI-AP OneBox 21 - 32 WE | Material Nr.:47100639"},
	{0, ""},
}

// BoxLabel returns the box type for a total unit count, or "" when no box
// applies (no units, or more than the largest box holds). A negative
// total falls into the smallest box.
func BoxLabel(totalUnits int) string {
	if totalUnits == 0 {
		return ""
	}
	for _, b := range BoxTable {
		if b.MaxUnits == 0 || totalUnits <= b.MaxUnits {
			return b.Label
		}
	}
	return ""
}

const explorationPrefix = "Exploration done: "

var explorationDoneRegex = regexp.MustCompile(`Exploration done:\s*(.*)`)

// ExtractExplorationDate strips the "Exploration done:" prefix of a remote
// value. Values without the prefix are returned unchanged.
func ExtractExplorationDate(value string) string {
	if value == "" {
		return value
	}
	if m := explorationDoneRegex.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(m[1])
	}
	return value
}

// FieldDiffer computes the minimal Airtable update for one record pair.
type FieldDiffer struct {
	log *zap.Logger
}

func NewFieldDiffer(log *zap.Logger) *FieldDiffer {
	return &FieldDiffer{log: log}
}

// ComputeDiff compares a local record with its remote snapshot and
// returns the API fields that must change. A nil value clears a field.
// The result is empty when nothing differs.
func (d *FieldDiffer) ComputeDiff(local models.PropertyRecord, remote models.Building) models.Diff {
	diff := models.Diff{}

	for _, m := range FieldMappings {
		lv, rv := m.local(local), m.remote(remote)

		// au/bu always take part so a zero count can overwrite a remote one.
		if m.Kind != KindNumeric && lv == "" && rv == "" {
			continue
		}

		switch m.Kind {
		case KindNumeric:
			ln, rn := utils.ParseIntOrZero(lv), utils.ParseIntOrZero(rv)
			if ln != rn {
				diff[m.APIName] = ln
				d.debugDiff(local.FolID, m.Remote, rv, ln)
			}

		case KindExploration:
			remoteDate := ExtractExplorationDate(rv)
			if strings.TrimSpace(lv) == strings.TrimSpace(remoteDate) {
				continue
			}
			if lv != "" {
				diff[m.APIName] = explorationPrefix + lv
				d.debugDiff(local.FolID, m.Remote, rv, lv)
			} else if remoteDate != "" {
				diff[m.APIName] = nil
				d.debugDiff(local.FolID, m.Remote, rv, nil)
			}

		default:
			if utils.NormalizeText(lv) == utils.NormalizeText(rv) {
				continue
			}
			diff[m.APIName] = lv
			d.debugDiff(local.FolID, m.Remote, rv, lv)
		}
	}

	total := utils.ParseIntOrZero(local.AU) + utils.ParseIntOrZero(local.BU)
	if label := BoxLabel(total); label != "" && label != remote.ExtraField2 {
		diff[BoxAPIName] = label
		d.debugDiff(local.FolID, BoxRemoteField, remote.ExtraField2, label)
	}

	return diff
}

func (d *FieldDiffer) debugDiff(folID, field, from string, to any) {
	d.log.Debug("Differ: field differs",
		zap.String("fol_id", folID), zap.String("field", field), zap.String("from", from), zap.Any("to", to))
}
