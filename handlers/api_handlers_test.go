package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gradestats-server-go/config"
	"gradestats-server-go/db"
	"gradestats-server-go/grades"
	"gradestats-server-go/metrics"
	"gradestats-server-go/models"
	"gradestats-server-go/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubCharts draws a blank image for every chart
type stubCharts struct{}

func (stubCharts) png() ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)))
	return buf.Bytes(), err
}

func (s stubCharts) Histogram(string, []float64, int) ([]byte, error) { return s.png() }
func (s stubCharts) Proportion(string, []string, []int) ([]byte, error) { return s.png() }
func (s stubCharts) Bars(string, []string, []int) ([]byte, error)      { return s.png() }

// flakyCharts draws the first ok charts and fails every later one
type flakyCharts struct {
	stubCharts
	ok    int
	calls int
}

func (f *flakyCharts) next() ([]byte, error) {
	f.calls++
	if f.calls > f.ok {
		return nil, errors.New("chart backend down")
	}
	return f.png()
}

func (f *flakyCharts) Histogram(string, []float64, int) ([]byte, error)   { return f.next() }
func (f *flakyCharts) Proportion(string, []string, []int) ([]byte, error) { return f.next() }
func (f *flakyCharts) Bars(string, []string, []int) ([]byte, error)       { return f.next() }

type testServer struct {
	router  *gin.Engine
	store   *db.MemoryStore
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, maxUpload int64, limit config.RateLimit) *testServer {
	t.Helper()
	store := db.NewMemoryStore(time.Minute)
	m := metrics.New()
	h := NewAPIHandler(grades.NewAnalyzer(nil), &report.Assembler{Charts: stubCharts{}}, store, m, maxUpload, nil)
	router, err := NewRouter(h, limit)
	require.NoError(t, err)
	return &testServer{router: router, store: store, metrics: m}
}

func defaultServer(t *testing.T) *testServer {
	return newTestServer(t, 1<<20, config.RateLimit{})
}

func workbook(t *testing.T, header []interface{}, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, f.SetSheetRow(sheet, cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func classWorkbook(t *testing.T) []byte {
	return workbook(t,
		[]interface{}{"Nume", "Medie", "Clasa"},
		[]interface{}{"Ana", 10, "9A"},
		[]interface{}{"Dan", 4, "9A"},
		[]interface{}{"Ion", 6, "9B"},
	)
}

// upload posts data as the "file" form field
func (s *testServer) upload(t *testing.T, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		part, err := w.CreateFormFile("file", "clasa 9.xlsx")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyzeAPI(t *testing.T) {
	s := defaultServer(t)
	rec := s.upload(t, "/api/analyze", classWorkbook(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a models.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "clasa 9.xlsx", a.FileName)
	assert.Equal(t, 3, a.Summary.Total)
	assert.InDelta(t, 6.67, a.Summary.Mean, 0.005)
	assert.Equal(t, 2, a.Summary.Passed)
	assert.Equal(t, 1, a.Summary.Failed)
	assert.Equal(t, []float64{10, 4, 6}, a.GradeValues)
	assert.Equal(t, []string{"Reușit", "Nereușit", "Reușit"}, a.StatusLabels)
	require.Len(t, a.Distribution, 6)
	assert.Equal(t, 1, a.Distribution[5].Count)
	assert.Equal(t, []string{"Nume", "Media", "Clasa", "Status"}, a.Dataset.Columns)
}

func TestAnalyzeAPIErrors(t *testing.T) {
	s := defaultServer(t)

	tests := []struct {
		name     string
		data     []byte
		wantCode int
		wantErr  string
	}{
		{"missing file", nil, http.StatusBadRequest, "MISSING_FILE"},
		{"unreadable", []byte("just text"), http.StatusBadRequest, "UNREADABLE_FILE"},
		{"missing column", workbook(t, []interface{}{"Nume", "Punctaj"}, []interface{}{"Ana", 9}), http.StatusUnprocessableEntity, "MISSING_GRADE_COLUMN"},
		{"empty", workbook(t, []interface{}{"Nume", "Media"}), http.StatusUnprocessableEntity, "EMPTY_DATASET"},
		{"invalid grade", workbook(t, []interface{}{"Media"}, []interface{}{"zece"}), http.StatusUnprocessableEntity, "INVALID_GRADE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.upload(t, "/api/analyze", tt.data)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec)["error_code"])
		})
	}
}

func TestAnalyzeAPIMissingColumnDetails(t *testing.T) {
	s := defaultServer(t)
	rec := s.upload(t, "/api/analyze", workbook(t, []interface{}{"Nume", "Punctaj"}, []interface{}{"Ana", 9}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	details, ok := decodeError(t, rec)["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Nume", "Punctaj"}, details["detected_columns"])
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, 512, config.RateLimit{})
	rec := s.upload(t, "/api/analyze", classWorkbook(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decodeError(t, rec)["error_code"])
}

func TestExportWorkbook(t *testing.T) {
	s := defaultServer(t)
	rec := s.upload(t, "/api/export/xlsx", classWorkbook(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="clasa 9-raport.xlsx"`)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.SheetStudents, report.SheetStatistics}, f.GetSheetList())
}

func TestExportDocument(t *testing.T) {
	s := defaultServer(t)
	rec := s.upload(t, "/api/export/pdf", classWorkbook(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypePDF, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

var reportLink = regexp.MustCompile(`/reports/([0-9a-f-]+)/xlsx`)

func TestFormFlow(t *testing.T) {
	s := defaultServer(t)

	index := s.get("/")
	require.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Body.String(), `name="file"`)

	rec := s.upload(t, "/analyze", classWorkbook(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := rec.Body.String()
	assert.Contains(t, page, "data:image/png;base64,")
	assert.Contains(t, page, "(9, 10]")

	m := reportLink.FindStringSubmatch(page)
	require.Len(t, m, 2, "dashboard links to the stored workbook")

	xlsx := s.get("/reports/" + m[1] + "/xlsx")
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Equal(t, contentTypeXLSX, xlsx.Header().Get("Content-Type"))

	pdf := s.get("/reports/" + m[1] + "/pdf")
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.True(t, bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF-")))
}

func TestFormFlowShowsDetectedColumns(t *testing.T) {
	s := defaultServer(t)
	rec := s.upload(t, "/analyze", workbook(t, []interface{}{"Nume", "Punctaj"}, []interface{}{"Ana", 9}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coloane detectate: Nume, Punctaj")
	assert.Zero(t, s.store.Len(), "nothing is stored for a failed run")
}

func TestDownloadErrors(t *testing.T) {
	s := defaultServer(t)
	assert.Equal(t, http.StatusNotFound, s.get("/reports/unknown/pdf").Code)
	assert.Equal(t, http.StatusNotFound, s.get("/reports/unknown/csv").Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 1<<20, config.RateLimit{Enabled: true, RPS: 0.001, Burst: 1})
	data := classWorkbook(t)

	assert.Equal(t, http.StatusOK, s.upload(t, "/api/analyze", data).Code)
	rec := s.upload(t, "/api/analyze", data)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestPingAndMetrics(t *testing.T) {
	s := defaultServer(t)
	s.upload(t, "/api/analyze", classWorkbook(t))

	ping := s.get("/api/ping")
	assert.Equal(t, http.StatusOK, ping.Code)
	assert.NotEmpty(t, ping.Header().Get(RequestIDHeader))

	rec := s.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gradestats_analysis_runs_total{outcome="ok"} 1`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := defaultServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "clasa-raport.pdf", ReportFileName("clasa.xlsx", db.KindDocument))
	assert.Equal(t, "statistici-raport.xlsx", ReportFileName("", db.KindWorkbook))
	assert.Equal(t, "a_b-raport.xlsx", ReportFileName(`dir/a"b.xlsx`, db.KindWorkbook))
}

func TestFormFlowStoresNothingWhenDashboardFails(t *testing.T) {
	store := db.NewMemoryStore(time.Minute)
	// The PDF export draws three charts; the dashboard's own charts then fail.
	charts := &flakyCharts{ok: 3}
	h := NewAPIHandler(grades.NewAnalyzer(nil), &report.Assembler{Charts: charts}, store, metrics.New(), 1<<20, nil)
	router, err := NewRouter(h, config.RateLimit{})
	require.NoError(t, err)
	s := &testServer{router: router, store: store}

	rec := s.upload(t, "/analyze", classWorkbook(t))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, store.Len())
	assert.Greater(t, charts.calls, 3)
}

func TestRateLimitIsSharedAcrossClients(t *testing.T) {
	s := newTestServer(t, 1<<20, config.RateLimit{Enabled: true, RPS: 0.001, Burst: 1})
	assert.Equal(t, http.StatusOK, s.get("/api/ping").Code)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, send("10.0.0.1:5000"), "first upload passes the limiter")
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.2:5000"))
}
