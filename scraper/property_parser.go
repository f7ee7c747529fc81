// scraper/property_parser.go
package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hakanhakan/TelekomExpport2/models"
)

// Portal selectors.
const (
	searchResultRowsSelector = `#searchResultForm\:propertySearchSRT_data tr`
	ownerRowsSelector        = `#processPageForm\:propertyTabView\:propertyOwnerTable_data tr`
	ownerTableSelector       = `#processPageForm\:propertyTabView\:propertyOwnerTable_data`
	decisionMakerSelector    = `td:last-child span.fa-check[title='Decision Maker']`
	explorationDateSelector  = `#processPageForm\:explorationAgreementDate`
	explorationProtoSelector = `#processPageForm\:explorationProtocol`
)

// ExtractedProperty is one property as read from the portal or from an
// extraction CSV, before the protocol has been resolved.
type ExtractedProperty struct {
	models.PropertyRecord
	NoProtocol bool `csv:"no_protocol,omitempty"` // portal offers no protocol download
}

// SearchRow is one row of the portal's property search result table.
type SearchRow struct {
	RowIndex      string // data-ri attribute, used to open the detail page
	FolID         string
	Street        string
	HouseNumber   string
	HouseAppendix string
}

// PropertyDetail holds what is read from a property's detail page.
type PropertyDetail struct {
	OwnerName         string
	OwnerEmail        string
	OwnerMobile       string
	OwnerLandline     string
	Exploration       string
	ProtocolAvailable bool
	Status            string // non-empty when the owner table was missing
}

// ParseSearchResults reads the rows of a saved search result page.
func ParseSearchResults(r io.Reader) ([]SearchRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search result HTML: %w", err)
	}

	var rows []SearchRow
	doc.Find(searchResultRowsSelector).Each(func(i int, s *goquery.Selection) {
		row := SearchRow{
			RowIndex:      s.AttrOr("data-ri", ""),
			FolID:         spanText(s, "FoL-Id"),
			Street:        spanText(s, "Street"),
			HouseNumber:   spanText(s, "House number"),
			HouseAppendix: spanText(s, "House number Appndix"),
		}
		if row.FolID == "" {
			return
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func spanText(s *goquery.Selection, title string) string {
	return strings.TrimSpace(s.Find(fmt.Sprintf("span[title='%s']", title)).First().Text())
}

// ParsePropertyDetail reads the owner, exploration date and protocol
// state from a saved property detail page. Only the owner row marked as
// decision maker is used.
func ParsePropertyDetail(r io.Reader) (*PropertyDetail, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse property detail HTML: %w", err)
	}

	detail := &PropertyDetail{}

	if doc.Find(ownerTableSelector).Length() == 0 {
		detail.Status = "Owner table not found"
	} else {
		doc.Find(ownerRowsSelector).EachWithBreak(func(i int, row *goquery.Selection) bool {
			if row.Find(decisionMakerSelector).Length() == 0 {
				return true
			}
			tds := row.Find("td")
			if tds.Length() >= 4 {
				detail.OwnerName = cellText(tds.Eq(0))
				detail.OwnerEmail = cellText(tds.Eq(1))
				detail.OwnerMobile = cellText(tds.Eq(2))
				detail.OwnerLandline = cellText(tds.Eq(3))
			}
			return false
		})
	}

	detail.Exploration = strings.TrimSpace(doc.Find(explorationDateSelector).First().Text())

	if btn := doc.Find(explorationProtoSelector).First(); btn.Length() > 0 {
		_, disabled := btn.Attr("disabled")
		ariaDisabled := strings.EqualFold(btn.AttrOr("aria-disabled", ""), "true")
		detail.ProtocolAvailable = !disabled && !ariaDisabled
	}
	return detail, nil
}

func cellText(td *goquery.Selection) string {
	return strings.TrimSpace(td.Find("span").First().Text())
}

// Extracted combines a search row with its detail page.
func (row SearchRow) Extracted(d *PropertyDetail) ExtractedProperty {
	return ExtractedProperty{
		PropertyRecord: models.PropertyRecord{
			FolID:         row.FolID,
			Street:        row.Street,
			HouseNumber:   row.HouseNumber,
			HouseAppendix: row.HouseAppendix,
			OwnerName:     d.OwnerName,
			OwnerEmail:    d.OwnerEmail,
			OwnerMobile:   d.OwnerMobile,
			OwnerLandline: d.OwnerLandline,
			Status:        d.Status,
			Exploration:   d.Exploration,
		},
		NoProtocol: !d.ProtocolAvailable,
	}
}
