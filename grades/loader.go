package grades

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradestats-server-go/models"
)

// LoadWorkbook reads the first sheet of an Excel workbook. Row 1 is the header,
// every following row is a student. Rows with no content at all are dropped.
func LoadWorkbook(r io.Reader) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &UnreadableFileError{Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("closing workbook", slog.String("error", err.Error()))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &UnreadableFileError{Err: errors.New("workbook does not contain any sheets")}
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &UnreadableFileError{Err: err}
	}
	// Raw values keep full float precision for the grade column; the formatted
	// rows are what the user sees for every other field.
	rawRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &UnreadableFileError{Err: err}
	}
	if len(rows) == 0 {
		return nil, &UnreadableFileError{Err: errors.New("sheet " + sheetName + " has no header row")}
	}

	table := &models.Table{Sheet: sheetName}
	for _, h := range rows[0] {
		table.Columns = append(table.Columns, strings.TrimSpace(h))
	}

	for i := 1; i < len(rows); i++ {
		if isBlankRow(rows[i]) {
			continue
		}
		var raw []string
		if i < len(rawRows) {
			raw = rawRows[i]
		}
		table.Rows = append(table.Rows, padRow(rows[i], len(table.Columns)))
		table.RawRows = append(table.RawRows, padRow(raw, len(table.Columns)))
		table.Lines = append(table.Lines, i+1)
	}

	slog.Debug("workbook loaded",
		slog.String("sheet", sheetName),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// padRow returns a copy of row with exactly n cells. excelize trims trailing
// empty cells, and values past the header are not addressable by name.
func padRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}
