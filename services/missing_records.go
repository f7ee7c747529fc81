// services/missing_records.go
package services

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
)

// OrphanFinder lists buildings with owner data but no extracted property.
type OrphanFinder interface {
	FindOrphanBuildings(ctx context.Context) ([]models.Building, error)
}

// MissingRecordChecker reports buildings the extraction never reached.
type MissingRecordChecker struct {
	finder OrphanFinder
	log    *zap.Logger
}

func NewMissingRecordChecker(finder OrphanFinder, log *zap.Logger) *MissingRecordChecker {
	return &MissingRecordChecker{finder: finder, log: log}
}

func (c *MissingRecordChecker) Check(ctx context.Context) ([]models.Building, error) {
	missing, err := c.finder.FindOrphanBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for missing records: %w", err)
	}
	if len(missing) == 0 {
		c.log.Info("Service: every building with owner data has a property record")
		return nil, nil
	}
	c.log.Warn("Service: buildings without property record", zap.Int("count", len(missing)))
	for _, b := range missing {
		c.log.Debug("Service: missing property record",
			zap.String("fol_id", b.ExtraField1), zap.String("record_id", b.RecordID), zap.String("building", b.BuildingName))
	}
	return missing, nil
}

// WriteMissingTable prints the buildings as an aligned text table.
func WriteMissingTable(w io.Writer, buildings []models.Building) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FOL-ID\tRECORD ID\tBUILDING\tFIRST NAME\tLAST NAME\tEMAIL")
	for _, b := range buildings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ExtraField1, b.RecordID, b.BuildingName, b.FirstName, b.LastName, b.Email)
	}
	return tw.Flush()
}
