package grades

import (
	"fmt"
	"io"
	"log/slog"

	"gradestats-server-go/models"
)

// Analyzer runs the whole pipeline for one uploaded file. It holds no state
// between runs and is safe to share.
type Analyzer struct {
	Bucketizer Bucketizer
	Logger     *slog.Logger
}

// NewAnalyzer returns an Analyzer with the default grade intervals.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{Bucketizer: DefaultBucketizer(), Logger: logger}
}

// Analyze loads a workbook and derives everything the dashboard and the
// exports need. Any error aborts the run; no partial analysis is returned.
func (a *Analyzer) Analyze(r io.Reader, fileName string) (*models.Analysis, error) {
	table, err := LoadWorkbook(r)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeTable(table, fileName)
}

// AnalyzeTable runs the pipeline on an already loaded table.
func (a *Analyzer) AnalyzeTable(table *models.Table, fileName string) (*models.Analysis, error) {
	normalized, err := NormalizeColumns(table)
	if err != nil {
		a.Logger.Warn("grade column not found",
			slog.String("file", fileName),
			slog.Any("detected_columns", table.Columns))
		return nil, err
	}

	ds, err := DeriveStatus(normalized)
	if err != nil {
		return nil, fmt.Errorf("deriving status: %w", err)
	}

	summary, err := Summarize(ds)
	if err != nil {
		return nil, err
	}

	values := ds.Grades()
	analysis := &models.Analysis{
		FileName:     fileName,
		Dataset:      ds,
		Summary:      summary,
		Distribution: a.Bucketizer.Distribute(values),
		GradeValues:  values,
		StatusLabels: ds.StatusLabels(),
	}

	a.Logger.Info("analysis complete",
		slog.String("file", fileName),
		slog.Int("total", summary.Total),
		slog.Float64("mean", summary.Mean),
		slog.Int("passed", summary.Passed),
		slog.Int("failed", summary.Failed),
		slog.Bool("status_from_source", ds.StatusFromSource))
	return analysis, nil
}
