package handlers

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gradestats-server-go/models"
	"gradestats-server-go/report"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the embedded HTML pages
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"mean": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}).ParseFS(templateFS, "templates/*.html")
}

type indexView struct {
	Error       *APIError
	MaxUploadMB int64
}

type chartView struct {
	Title   string
	DataURI template.URL
}

type dashboardView struct {
	ReportID         string
	FileName         string
	Summary          models.Summary
	Columns          []string
	Rows             [][]string
	Distribution     []models.Bucket
	Charts           []chartView
	StatusFromSource bool
}

// Index handles GET / with the upload form
func (h *APIHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", indexView{MaxUploadMB: h.MaxUploadBytes >> 20})
}

// AnalyzeForm handles POST /analyze: runs the pipeline, stores the reports
// for download and renders the dashboard. Nothing is stored when any step
// fails.
func (h *APIHandler) AnalyzeForm(c *gin.Context) {
	a, err := h.analyzeUpload(c)
	if err != nil {
		h.renderFormError(c, err)
		return
	}

	artifacts, err := h.build(a)
	if err != nil {
		h.renderFormError(c, fmt.Errorf("building reports: %w", err))
		return
	}
	view, err := h.dashboard(a, artifacts.ID)
	if err != nil {
		h.renderFormError(c, err)
		return
	}
	if err := h.Store.Save(c.Request.Context(), artifacts); err != nil {
		h.renderFormError(c, fmt.Errorf("storing reports: %w", err))
		return
	}
	c.HTML(http.StatusOK, "dashboard.html", view)
}

func (h *APIHandler) renderFormError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.ErrorContext(c.Request.Context(), "analysis failed", slog.String("error", err.Error()))
	}
	c.HTML(apiErr.StatusCode, "index.html", indexView{Error: apiErr, MaxUploadMB: h.MaxUploadBytes >> 20})
}

// dashboard draws the same charts the PDF report carries and inlines them
func (h *APIHandler) dashboard(a *models.Analysis, reportID string) (*dashboardView, error) {
	view := &dashboardView{
		ReportID:         reportID,
		FileName:         a.FileName,
		Summary:          a.Summary,
		Columns:          a.Dataset.Columns,
		Distribution:     a.Distribution,
		StatusFromSource: a.Dataset.StatusFromSource,
	}
	for _, rec := range a.Dataset.Records {
		view.Rows = append(view.Rows, rec.Values)
	}

	for _, page := range report.PlanDocument(a).Pages {
		for _, spec := range page.Charts {
			img, err := report.RenderChart(h.Assembler.Charts, spec)
			if err != nil {
				return nil, fmt.Errorf("rendering chart %q: %w", spec.Title, err)
			}
			view.Charts = append(view.Charts, chartView{
				Title:   spec.Title,
				DataURI: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img)),
			})
		}
	}
	return view, nil
}
