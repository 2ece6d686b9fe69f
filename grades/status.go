package grades

import (
	"math"
	"strconv"
	"strings"

	"gradestats-server-go/models"
)

// PassThreshold is the lowest passing grade.
const PassThreshold = 5.0

var (
	passedLabels = []string{"reusit", "reusita", "passed", "pass", "admis", "promovat"}
	failedLabels = []string{"nereusit", "nereusita", "failed", "fail", "respins", "nepromovat"}
)

// Classify returns the status for a grade. It is total over finite values:
// negative grades and grades above 10 follow the same threshold.
func Classify(grade float64) models.Status {
	if grade >= PassThreshold {
		return models.StatusPassed
	}
	return models.StatusFailed
}

// ParseStatus maps a status label written in a spreadsheet to the canonical
// values. Labels it does not recognize are kept as written.
func ParseStatus(label string) models.Status {
	folded := FoldName(label)
	for _, l := range passedLabels {
		if folded == l {
			return models.StatusPassed
		}
	}
	for _, l := range failedLabels {
		if folded == l {
			return models.StatusFailed
		}
	}
	return models.Status(strings.TrimSpace(label))
}

// ParseGrade reads a grade cell. A decimal comma is accepted ("7,5").
func ParseGrade(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// statusColumnIndex is the explicit presence check for a source Status column.
func statusColumnIndex(columns []string) int {
	want := FoldName(models.StatusColumn)
	for i, c := range columns {
		if FoldName(c) == want {
			return i
		}
	}
	return -1
}

// DeriveStatus resolves the grade and status of every row of a normalized
// table. A Status column present in the source is trusted and never
// recomputed; otherwise one is appended and computed from the grade.
func DeriveStatus(t *models.Table) (*models.Dataset, error) {
	gradeIdx := t.ColumnIndex(models.GradeColumn)
	if gradeIdx < 0 {
		detected := make([]string, len(t.Columns))
		copy(detected, t.Columns)
		return nil, &MissingColumnError{Detected: detected}
	}

	ds := &models.Dataset{
		GradeIndex:  gradeIdx,
		StatusIndex: statusColumnIndex(t.Columns),
		Records:     make([]models.Record, 0, len(t.Rows)),
	}
	ds.StatusFromSource = ds.StatusIndex >= 0

	ds.Columns = make([]string, len(t.Columns), len(t.Columns)+1)
	copy(ds.Columns, t.Columns)
	if !ds.StatusFromSource {
		ds.StatusIndex = len(ds.Columns)
		ds.Columns = append(ds.Columns, models.StatusColumn)
	}

	for i, row := range t.Rows {
		row = padRow(row, len(t.Columns))
		cell := row[gradeIdx]
		if i < len(t.RawRows) && gradeIdx < len(t.RawRows[i]) && t.RawRows[i][gradeIdx] != "" {
			cell = t.RawRows[i][gradeIdx]
		}
		grade, ok := ParseGrade(cell)
		if !ok {
			line := i + 2
			if i < len(t.Lines) {
				line = t.Lines[i]
			}
			return nil, &InvalidGradeError{Row: line, Value: row[gradeIdx]}
		}

		values := make([]string, len(ds.Columns))
		copy(values, row)
		rec := models.Record{Grade: grade}
		if ds.StatusFromSource {
			rec.Status = ParseStatus(row[ds.StatusIndex])
		} else {
			rec.Status = Classify(grade)
			values[ds.StatusIndex] = string(rec.Status)
		}
		rec.Values = values
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}
