package report

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
)

// ChartRenderer turns data series into images. The assembler only decides
// which series go into which chart; drawing is left to the renderer.
type ChartRenderer interface {
	Histogram(title string, values []float64, bins int) ([]byte, error)
	Proportion(title string, labels []string, counts []int) ([]byte, error)
	Bars(title string, labels []string, counts []int) ([]byte, error)
}

// PNGCharts renders charts as PNG images with go-chart
type PNGCharts struct {
	Width  int
	Height int
}

// NewPNGCharts returns a renderer with the size used in the PDF report.
func NewPNGCharts() *PNGCharts {
	return &PNGCharts{Width: 1000, Height: 500}
}

// Histogram bins the values into equal-width bins between their minimum and
// maximum and draws one bar per bin.
func (c *PNGCharts) Histogram(title string, values []float64, bins int) ([]byte, error) {
	if len(values) == 0 {
		return nil, errors.New("histogram needs at least one value")
	}
	labels, counts := HistogramBins(values, bins)
	return c.Bars(title, labels, counts)
}

// Proportion draws a pie chart with one slice per label.
func (c *PNGCharts) Proportion(title string, labels []string, counts []int) ([]byte, error) {
	if len(labels) != len(counts) {
		return nil, fmt.Errorf("proportion chart: %d labels for %d counts", len(labels), len(counts))
	}
	var slices []chart.Value
	for i, l := range labels {
		if counts[i] == 0 {
			continue
		}
		slices = append(slices, chart.Value{Label: fmt.Sprintf("%s (%d)", l, counts[i]), Value: float64(counts[i])})
	}
	if len(slices) == 0 {
		return nil, errors.New("proportion chart needs at least one non-zero count")
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  c.Height,
		Height: c.Height,
		Values: slices,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Bars draws one bar per label, zero counts included.
func (c *PNGCharts) Bars(title string, labels []string, counts []int) ([]byte, error) {
	if len(labels) == 0 || len(labels) != len(counts) {
		return nil, fmt.Errorf("bar chart: %d labels for %d counts", len(labels), len(counts))
	}
	maxCount := 1
	bars := make([]chart.Value, len(labels))
	for i, l := range labels {
		bars[i] = chart.Value{Label: l, Value: float64(counts[i])}
		if counts[i] > maxCount {
			maxCount = counts[i]
		}
	}

	// leave room for the y axis labels
	slot := (c.Width - 120) / len(bars)
	if slot < 2 {
		slot = 2
	}
	barWidth := slot * 3 / 5
	graph := chart.BarChart{
		Title:      title,
		Width:      c.Width,
		Height:     c.Height,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 50}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// HistogramBins splits values into bins of equal width spanning [min, max].
// The last bin is closed on the right. All-equal values give one bin.
func HistogramBins(values []float64, bins int) ([]string, []int) {
	if len(values) == 0 {
		return nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if bins < 1 || lo == hi {
		return []string{fmt.Sprintf("%.2f", lo)}, []int{len(values)}
	}

	width := (hi - lo) / float64(bins)
	labels := make([]string, bins)
	counts := make([]int, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1f-%.1f", lo+float64(i)*width, lo+float64(i+1)*width)
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return labels, counts
}
