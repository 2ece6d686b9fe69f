package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gradestats-server-go/db"
	"gradestats-server-go/grades"
	"gradestats-server-go/metrics"
)

// APIError is the JSON body of every failed API call
type APIError struct {
	StatusCode int         `json:"-"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

var (
	errMissingFile = &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "MISSING_FILE", Message: "Upload a spreadsheet in the 'file' form field"}
	errTooLarge    = &APIError{StatusCode: http.StatusRequestEntityTooLarge, ErrorCode: "FILE_TOO_LARGE", Message: "The uploaded file is too large"}
	errBadKind     = &APIError{StatusCode: http.StatusNotFound, ErrorCode: "UNKNOWN_FORMAT", Message: "Reports are available as xlsx or pdf"}
	errRateLimited = &APIError{StatusCode: http.StatusTooManyRequests, ErrorCode: "RATE_LIMITED", Message: "Too many uploads, retry in a minute"}
)

// toAPIError maps pipeline and store errors to responses. Everything the
// user can fix is a 4xx carrying the reason.
func toAPIError(err error) *APIError {
	var (
		apiErr     *APIError
		missing    *grades.MissingColumnError
		unreadable *grades.UnreadableFileError
		invalid    *grades.InvalidGradeError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &tooLarge):
		return errTooLarge
	case errors.As(err, &missing):
		return &APIError{
			StatusCode: http.StatusUnprocessableEntity,
			ErrorCode:  "MISSING_GRADE_COLUMN",
			Message:    missing.Error(),
			Details:    gin.H{"detected_columns": missing.Detected, "accepted_names": grades.GradeColumnSynonyms},
		}
	case errors.Is(err, grades.ErrEmptyDataset):
		return &APIError{StatusCode: http.StatusUnprocessableEntity, ErrorCode: "EMPTY_DATASET", Message: err.Error()}
	case errors.As(err, &invalid):
		return &APIError{
			StatusCode: http.StatusUnprocessableEntity,
			ErrorCode:  "INVALID_GRADE",
			Message:    invalid.Error(),
			Details:    gin.H{"row": invalid.Row, "value": invalid.Value},
		}
	case errors.As(err, &unreadable):
		return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "UNREADABLE_FILE", Message: unreadable.Error()}
	case errors.Is(err, db.ErrReportNotFound):
		return &APIError{StatusCode: http.StatusNotFound, ErrorCode: "REPORT_NOT_FOUND", Message: err.Error()}
	default:
		return &APIError{StatusCode: http.StatusInternalServerError, ErrorCode: "INTERNAL_ERROR", Message: "Failed to process the spreadsheet"}
	}
}

// outcome labels a run for metrics
func outcome(err error) string {
	var (
		missing    *grades.MissingColumnError
		unreadable *grades.UnreadableFileError
		invalid    *grades.InvalidGradeError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &missing):
		return metrics.OutcomeMissingColumn
	case errors.Is(err, grades.ErrEmptyDataset):
		return metrics.OutcomeEmpty
	case errors.As(err, &invalid):
		return metrics.OutcomeInvalidGrade
	case errors.As(err, &unreadable):
		return metrics.OutcomeUnreadable
	default:
		return metrics.OutcomeError
	}
}
