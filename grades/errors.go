package grades

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDataset is returned when an upload has a header but no student rows.
// The mean of an empty set is undefined, so the run is rejected instead of
// reporting a zero or NaN mean.
var ErrEmptyDataset = errors.New("the spreadsheet contains no student records")

// MissingColumnError means no column could be recognized as the grade column
type MissingColumnError struct {
	Detected []string // Column names found in the header row, as written
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("no grade column found (expected one of %s); detected columns: [%s]",
		strings.Join(GradeColumnSynonyms, ", "), strings.Join(e.Detected, ", "))
}

// UnreadableFileError means the upload could not be parsed as a spreadsheet
type UnreadableFileError struct {
	Err error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("file is not a readable spreadsheet: %v", e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// InvalidGradeError means a grade cell is blank or not a finite number
type InvalidGradeError struct {
	Row   int // 1-based spreadsheet row, header is row 1
	Value string
}

func (e *InvalidGradeError) Error() string {
	if strings.TrimSpace(e.Value) == "" {
		return fmt.Sprintf("row %d: grade is empty", e.Row)
	}
	return fmt.Sprintf("row %d: grade %q is not a number", e.Row, e.Value)
}
