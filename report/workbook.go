package report

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// EncodeWorkbook writes the planned sheets into an XLSX file
func EncodeWorkbook(plan WorkbookPlan) ([]byte, error) {
	if len(plan.Sheets) == 0 {
		return nil, fmt.Errorf("workbook plan has no sheets")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("closing generated workbook", slog.String("error", err.Error()))
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range plan.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %d of sheet %s: %w", r+1, sheet.Name, err)
			}
		}
		if len(sheet.Rows) > 0 {
			if err := f.SetRowStyle(sheet.Name, 1, 1, headerStyle); err != nil {
				return nil, fmt.Errorf("failed to style header of sheet %s: %w", sheet.Name, err)
			}
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
