package errors

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
	CodeData           ErrorCode = "DATA_ERROR"
)

var statusByCode = map[ErrorCode]int{
	CodeValidation:     http.StatusBadRequest,
	CodeBadRequest:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
	CodeData:           http.StatusUnprocessableEntity,
}

// AppError is the error every handler reports. Details carries data the
// user can act on, such as the names of missing CSV columns.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details string) *AppError {
	c := *e
	c.Details = details
	return &c
}

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError { return New(CodeInternal, message) }

func InternalWrap(err error, message string) *AppError { return Wrap(err, CodeInternal, message) }

func Validation(message string) *AppError { return New(CodeValidation, message) }

func ValidationWrap(err error, message string) *AppError { return Wrap(err, CodeValidation, message) }

func NotFound(message string) *AppError { return New(CodeNotFound, message) }

func BadRequest(message string) *AppError { return New(CodeBadRequest, message) }

func RateLimit(message string) *AppError { return New(CodeRateLimit, message) }

// ServiceUnavailable reports a data source that cannot be read right now.
func ServiceUnavailable(message string) *AppError { return New(CodeServiceUnavail, message) }

func ServiceUnavailableWrap(err error, message string) *AppError {
	return Wrap(err, CodeServiceUnavail, message)
}

// Data reports a dataset that cannot back the dashboard, such as a CSV
// missing required columns.
func Data(message string, details string) *AppError {
	return New(CodeData, message).WithDetails(details)
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

// WriteError writes err as the JSON error envelope. Errors that are not
// an AppError are reported as INTERNAL_ERROR without their text.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}

	// copy so a shared error value is never stamped with another request's id
	resp := *appErr
	resp.RequestID = requestID

	if encodeErr := writeJSON(w, resp.StatusCode, ErrorResponse{Error: &resp}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	logLevel := slog.LevelError
	if resp.StatusCode < 500 {
		logLevel = slog.LevelWarn
	}

	logger.Log(context.TODO(), logLevel, "request failed",
		"error_code", resp.Code,
		"error_message", resp.Message,
		"details", resp.Details,
		"status_code", resp.StatusCode,
		"request_id", requestID,
		"cause", resp.Cause,
	)
}

// WriteSuccess writes data inside the success envelope. Data that cannot
// be encoded, such as a NaN measure, yields a 500 envelope instead.
func WriteSuccess(w http.ResponseWriter, data any) {
	if err := writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true}); err != nil {
		WriteError(w, slog.Default(), InternalWrap(err, "Failed to encode response"), "")
	}
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}

// writeJSON encodes v before touching w, so nothing is written when
// encoding fails.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
