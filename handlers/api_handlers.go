package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gradestats-server-go/db"
	"gradestats-server-go/grades"
	"gradestats-server-go/metrics"
	"gradestats-server-go/models"
	"gradestats-server-go/report"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// APIHandler holds the dependencies shared by every handler
type APIHandler struct {
	Analyzer       *grades.Analyzer
	Assembler      *report.Assembler
	Store          db.ReportStore
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(analyzer *grades.Analyzer, assembler *report.Assembler, store db.ReportStore, m *metrics.Metrics, maxUploadBytes int64, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		Analyzer:       analyzer,
		Assembler:      assembler,
		Store:          store,
		Metrics:        m,
		MaxUploadBytes: maxUploadBytes,
		Logger:         logger,
	}
}

// analyzeUpload reads the "file" form field and runs the pipeline on it
func (h *APIHandler) analyzeUpload(c *gin.Context) (*models.Analysis, error) {
	start := time.Now()
	a, err := h.analyze(c)
	records := 0
	if a != nil {
		records = a.Summary.Total
	}
	if h.Metrics != nil {
		h.Metrics.ObserveRun(outcome(err), time.Since(start), records)
	}
	return a, err
}

func (h *APIHandler) analyze(c *gin.Context) (*models.Analysis, error) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "error getting form file", slog.String("error", err.Error()))
		if apiErr := toAPIError(err); apiErr == errTooLarge {
			return nil, errTooLarge
		}
		return nil, errMissingFile
	}
	defer file.Close()

	h.Logger.InfoContext(c.Request.Context(), "received file upload",
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size))

	return h.Analyzer.Analyze(file, filepath.Base(header.Filename))
}

// build produces both artifacts and counts their size
func (h *APIHandler) build(a *models.Analysis) (*models.Artifacts, error) {
	artifacts, err := h.Assembler.Build(a)
	if err != nil {
		return nil, err
	}
	if h.Metrics != nil {
		h.Metrics.ObserveArtifact(string(db.KindWorkbook), len(artifacts.Workbook))
		h.Metrics.ObserveArtifact(string(db.KindDocument), len(artifacts.Document))
	}
	return artifacts, nil
}

func (h *APIHandler) abortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.ErrorContext(c.Request.Context(), "request failed", slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

// --- Analysis Handlers ---

// Analyze handles POST /api/analyze
func (h *APIHandler) Analyze(c *gin.Context) {
	a, err := h.analyzeUpload(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// ExportWorkbook handles POST /api/export/xlsx
func (h *APIHandler) ExportWorkbook(c *gin.Context) {
	a, err := h.analyzeUpload(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	data, err := h.Assembler.Workbook(a)
	if err != nil {
		h.abortWithError(c, fmt.Errorf("building workbook: %w", err))
		return
	}
	h.sendArtifact(c, data, db.KindWorkbook, a.FileName)
}

// ExportDocument handles POST /api/export/pdf
func (h *APIHandler) ExportDocument(c *gin.Context) {
	a, err := h.analyzeUpload(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	data, err := h.Assembler.Document(a)
	if err != nil {
		h.abortWithError(c, fmt.Errorf("building document: %w", err))
		return
	}
	h.sendArtifact(c, data, db.KindDocument, a.FileName)
}

// --- Download Handler ---

// DownloadReport handles GET /reports/:id/:kind
func (h *APIHandler) DownloadReport(c *gin.Context) {
	kind, ok := db.ParseArtifactKind(c.Param("kind"))
	if !ok {
		h.abortWithError(c, errBadKind)
		return
	}
	data, name, err := h.Store.Load(c.Request.Context(), c.Param("id"), kind)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.sendArtifact(c, data, kind, name)
}

func (h *APIHandler) sendArtifact(c *gin.Context, data []byte, kind db.ArtifactKind, sourceName string) {
	contentType := contentTypeXLSX
	if kind == db.KindDocument {
		contentType = contentTypePDF
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ReportFileName(sourceName, kind)))
	c.Data(http.StatusOK, contentType, data)
}

// ReportFileName derives the download name from the uploaded file's name
func ReportFileName(sourceName string, kind db.ArtifactKind) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" {
		base = "statistici"
	}
	return base + "-raport." + string(kind)
}

// --- Ping Handler ---

// Ping handles GET /api/ping and checks the report store
func (h *APIHandler) Ping(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "report store unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Report store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
