package models

import "time"

// GradeColumn is the canonical name of the grade column after normalization.
const GradeColumn = "Media"

// StatusColumn is the name of the pass/fail column, derived or read from the source.
const StatusColumn = "Status"

// Status is the pass/fail classification of a student
type Status string

const (
	StatusPassed Status = "Reușit"   // grade >= 5
	StatusFailed Status = "Nereușit" // grade < 5
)

// Table is a spreadsheet as uploaded: one header row and the data rows below it
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`  // Cells as displayed in the spreadsheet
	RawRows [][]string `json:"-"`     // Unformatted cell values, same shape as Rows
	Sheet   string     `json:"sheet"` // Name of the sheet the table was read from
	Lines   []int      `json:"-"`     // 1-based spreadsheet row number of each entry in Rows
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Record is one student row with its grade and status resolved
type Record struct {
	Values []string `json:"values"` // Aligned with Dataset.Columns, passed through unchanged
	Grade  float64  `json:"grade"`
	Status Status   `json:"status"`
}

// Dataset is the normalized table with a grade and a status for every record
type Dataset struct {
	Columns          []string `json:"columns"`
	Records          []Record `json:"records"`
	GradeIndex       int      `json:"gradeIndex"`
	StatusIndex      int      `json:"statusIndex"`
	StatusFromSource bool     `json:"statusFromSource"` // Status column was present in the upload and trusted as-is
}

// Grades returns the grade of every record, in record order
func (d *Dataset) Grades() []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Grade
	}
	return out
}

// StatusLabels returns the status of every record, in record order
func (d *Dataset) StatusLabels() []string {
	out := make([]string, len(d.Records))
	for i, r := range d.Records {
		out[i] = string(r.Status)
	}
	return out
}

// Summary holds the headline numbers of one analysis run
type Summary struct {
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Passed int     `json:"passed"`
	Failed int     `json:"failed"`
}

// Bucket is one grade interval (Lower, Upper] and the number of records in it
type Bucket struct {
	Label string  `json:"label"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Analysis is everything a renderer or exporter needs from one uploaded file
type Analysis struct {
	FileName     string    `json:"fileName,omitempty"`
	Dataset      *Dataset  `json:"dataset"`
	Summary      Summary   `json:"summary"`
	Distribution []Bucket  `json:"distribution"`
	GradeValues  []float64 `json:"gradeValues"`  // Series for the histogram
	StatusLabels []string  `json:"statusLabels"` // Series for the proportion chart
}

// Artifacts are the two downloadable outputs of one analysis run
type Artifacts struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"` // Name of the uploaded file the reports were built from
	Workbook  []byte    `json:"-"`        // XLSX bytes
	Document  []byte    `json:"-"`        // PDF bytes
	CreatedAt time.Time `json:"createdAt"`
}
