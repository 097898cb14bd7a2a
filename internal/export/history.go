// Package export writes the submission history to a spreadsheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"fieldreport/internal/model"
	"fieldreport/internal/util"
)

// SheetName is the worksheet holding the history rows.
const SheetName = "History"

var headers = []string{
	"Submitted At", "Delivery ID", "Purchase Order", "Status",
	"Photos", "Damaged Units", "Notes", "Error",
}

// History saves submissions to an xlsx file at path, one row each, under a
// header row.
func History(submissions []model.Submission, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, s := range submissions {
		row := []any{
			util.FormatTimestamp(s.SubmittedAt),
			string(s.DeliveryID),
			s.PurchaseOrderID,
			string(s.Status),
			s.PhotoCount,
			s.DamagedUnits,
			s.Notes,
			s.Error,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
