package report

import (
	"fmt"

	"gradestats-server-go/grades"
	"gradestats-server-go/models"
)

const (
	SheetStudents   = "Date elevi"
	SheetStatistics = "Statistici"

	// MaxDocumentRows is how many records the PDF table shows. Longer
	// datasets are cut, not paginated.
	MaxDocumentRows = 30

	// HistogramBinCount is the bin count of the grade histogram.
	HistogramBinCount = 10
)

// SummaryHeader is the header row of the statistics sheet
var SummaryHeader = []string{"Total elevi", "Media generală", "Reușiți", "Nereușiți"}

// SheetPlan is the content of one worksheet, header row first
type SheetPlan struct {
	Name string
	Rows [][]interface{}
}

// WorkbookPlan lists the worksheets of the tabular export in order
type WorkbookPlan struct {
	Sheets []SheetPlan
}

// ChartKind selects which renderer call draws a chart
type ChartKind int

const (
	ChartHistogram ChartKind = iota
	ChartProportion
	ChartBars
)

// ChartSpec is the data one chart receives. Histograms use Values and Bins,
// the other kinds use Labels and Counts.
type ChartSpec struct {
	Kind   ChartKind
	Title  string
	Values []float64
	Bins   int
	Labels []string
	Counts []int
}

// TableSpec is a table drawn on a document page
type TableSpec struct {
	Columns []string
	Rows    [][]string
	Total   int // Records in the dataset; more than len(Rows) when cut
}

// PagePlan is one page of the document export
type PagePlan struct {
	Heading string
	Lines   []string
	Charts  []ChartSpec
	Table   *TableSpec
}

// DocumentPlan lists the pages of the document export in order
type DocumentPlan struct {
	Title string
	Pages []PagePlan
}

// PlanWorkbook decides the sheets of the tabular export: the full record
// table including Status, then a one-row summary.
func PlanWorkbook(a *models.Analysis) WorkbookPlan {
	ds := a.Dataset

	header := make([]interface{}, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	students := SheetPlan{Name: SheetStudents, Rows: [][]interface{}{header}}
	for _, rec := range ds.Records {
		row := make([]interface{}, len(ds.Columns))
		for i := range ds.Columns {
			switch {
			case i == ds.GradeIndex:
				row[i] = rec.Grade
			case i < len(rec.Values):
				row[i] = rec.Values[i]
			default:
				row[i] = ""
			}
		}
		students.Rows = append(students.Rows, row)
	}

	summaryHeader := make([]interface{}, len(SummaryHeader))
	for i, h := range SummaryHeader {
		summaryHeader[i] = h
	}
	s := a.Summary
	statistics := SheetPlan{
		Name: SheetStatistics,
		Rows: [][]interface{}{
			summaryHeader,
			{s.Total, s.Mean, s.Passed, s.Failed},
		},
	}

	return WorkbookPlan{Sheets: []SheetPlan{students, statistics}}
}

// PlanDocument decides the pages of the document export: headline numbers
// with the histogram and the pass/fail chart, then the interval bar chart,
// then the first MaxDocumentRows records.
func PlanDocument(a *models.Analysis) DocumentPlan {
	s := a.Summary

	overview := PagePlan{Heading: "Statistici vizuale pentru elevi"}
	if a.FileName != "" {
		overview.Lines = append(overview.Lines, "Fișier: "+a.FileName)
	}
	overview.Lines = append(overview.Lines,
		fmt.Sprintf("Total elevi: %d", s.Total),
		fmt.Sprintf("Media generală: %.2f", s.Mean),
		fmt.Sprintf("Reușiți: %d", s.Passed),
		fmt.Sprintf("Nereușiți: %d", s.Failed),
	)
	labels, counts := grades.StatusCounts(a.Dataset)
	overview.Charts = []ChartSpec{
		{Kind: ChartHistogram, Title: "Distribuția mediilor elevilor", Values: a.GradeValues, Bins: HistogramBinCount},
		{Kind: ChartProportion, Title: "Reușiți vs Nereușiți", Labels: labels, Counts: counts},
	}

	intervals := PagePlan{Heading: "Intervalele mediilor"}
	bucketLabels := make([]string, len(a.Distribution))
	bucketCounts := make([]int, len(a.Distribution))
	for i, b := range a.Distribution {
		bucketLabels[i] = b.Label
		bucketCounts[i] = b.Count
	}
	intervals.Charts = []ChartSpec{
		{Kind: ChartBars, Title: "Număr elevi pe intervale de medie", Labels: bucketLabels, Counts: bucketCounts},
	}

	ds := a.Dataset
	n := len(ds.Records)
	if n > MaxDocumentRows {
		n = MaxDocumentRows
	}
	tbl := &TableSpec{Columns: ds.Columns, Rows: make([][]string, n), Total: len(ds.Records)}
	for i := 0; i < n; i++ {
		tbl.Rows[i] = ds.Records[i].Values
	}
	records := PagePlan{Heading: "Date elevi", Table: tbl}
	if tbl.Total > n {
		records.Lines = []string{fmt.Sprintf("Primele %d din %d înregistrări", n, tbl.Total)}
	}

	return DocumentPlan{
		Title: "Raport statistici elevi",
		Pages: []PagePlan{overview, intervals, records},
	}
}
