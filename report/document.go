package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"gradestats-server-go/grades"
)

const (
	pageMargin  = 15.0
	chartWidth  = 170.0
	pieWidth    = 90.0
	tableFont   = 8.0
	tableRowH   = 6.0
	textLineH   = 7.0
	headingSize = 16.0
)

// EncodeDocument lays out the planned pages as an A4 PDF. Charts are drawn
// by the renderer and embedded as PNG images.
func EncodeDocument(plan DocumentPlan, charts ChartRenderer) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(plan.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string {
		// Core fonts only cover cp1252; Romanian letters lose their marks.
		return tr(grades.StripDiacritics(s))
	}

	for p, page := range plan.Pages {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", headingSize)
		pdf.CellFormat(0, 10, text(page.Heading), "", 1, "C", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 11)
		for _, line := range page.Lines {
			pdf.CellFormat(0, textLineH, text(line), "", 1, "L", false, 0, "")
		}

		for c, spec := range page.Charts {
			img, err := RenderChart(charts, spec)
			if err != nil {
				return nil, fmt.Errorf("page %d chart %q: %w", p+1, spec.Title, err)
			}
			name := fmt.Sprintf("chart-%d-%d", p, c)
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))

			w, x := chartWidth, pageMargin
			if spec.Kind == ChartProportion {
				w = pieWidth
				x = (210 - pieWidth) / 2
			}
			pdf.Ln(3)
			pdf.ImageOptions(name, x, pdf.GetY(), w, 0, true, opts, 0, "")
		}

		if page.Table != nil {
			drawTable(pdf, page.Table, text)
		}

		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("page %d: %w", p+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderChart dispatches a chart spec to the matching renderer call
func RenderChart(charts ChartRenderer, spec ChartSpec) ([]byte, error) {
	switch spec.Kind {
	case ChartHistogram:
		return charts.Histogram(spec.Title, spec.Values, spec.Bins)
	case ChartProportion:
		return charts.Proportion(spec.Title, spec.Labels, spec.Counts)
	case ChartBars:
		return charts.Bars(spec.Title, spec.Labels, spec.Counts)
	default:
		return nil, fmt.Errorf("unknown chart kind %d", spec.Kind)
	}
}

func drawTable(pdf *fpdf.Fpdf, tbl *TableSpec, text func(string) string) {
	if len(tbl.Columns) == 0 {
		return
	}
	pageW, _ := pdf.GetPageSize()
	colW := (pageW - 2*pageMargin) / float64(len(tbl.Columns))

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", tableFont)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range tbl.Columns {
		pdf.CellFormat(colW, tableRowH, fit(pdf, text(c), colW), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", tableFont)
	for _, row := range tbl.Rows {
		for i := range tbl.Columns {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(colW, tableRowH, fit(pdf, text(cell), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit shortens s until it fits a cell of width w, marking the cut with "..".
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	// s is already single-byte encoded for the core fonts
	for len(s) > 0 && pdf.GetStringWidth(s+"..") > limit {
		s = s[:len(s)-1]
	}
	return s + ".."
}
