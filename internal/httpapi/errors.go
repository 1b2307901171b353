package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Machine-readable error codes surfaced to callers.
const (
	// CodeInvalidRequest marks malformed input.
	CodeInvalidRequest = "invalid_request"
	// CodeQuotaExhausted marks a denied daily quota check.
	CodeQuotaExhausted = "quota_exhausted"
	// CodeUpstreamBudget marks budget or rate errors reported by the upstream.
	CodeUpstreamBudget = "upstream_budget"
	// CodeUpstreamUnavailable marks upstream connectivity failures.
	CodeUpstreamUnavailable = "upstream_unavailable"
	// CodeInternal marks anything unanticipated.
	CodeInternal = "internal_error"
)

// Error is a caller-facing API error. Only Code and Message are surfaced;
// the wrapped cause stays in server logs.
type Error struct {
	Status  int    // HTTP status code.
	Code    string // Machine-readable error code.
	Message string // Human-readable message, free of internal detail.
	Err     error  // Underlying cause, logged server-side only.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Validation builds a 400 error for malformed input.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidRequest, Message: message}
}

// QuotaExceeded builds the 429 returned when the daily quota is exhausted.
func QuotaExceeded() *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Code:    CodeQuotaExhausted,
		Message: "Daily quota exhausted. Try again tomorrow.",
	}
}

// UpstreamBudget builds a 429 for upstream budget or rate limit rejections.
// Upstream 401s land here too: the gateway key itself running out of budget
// must never surface as an authentication failure to the caller.
func UpstreamBudget(err error) *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Code:    CodeUpstreamBudget,
		Message: "Budget limit exceeded. Please try again later.",
		Err:     err,
	}
}

// UpstreamUnavailable builds a 503 for upstream connectivity failures.
func UpstreamUnavailable(err error) *Error {
	return &Error{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeUpstreamUnavailable,
		Message: "AI service temporarily unavailable. Please try again.",
		Err:     err,
	}
}

// Internal builds a generic 500.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "An unexpected error occurred. Please try again.",
		Err:     err,
	}
}

// Coerce converts any error into an *Error, defaulting to Internal.
func Coerce(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// Write logs the error with request context and emits only the code and
// message to the caller.
func Write(c *gin.Context, err error) {
	apiErr := Coerce(err)
	entry := log.WithFields(log.Fields{
		"status": apiErr.Status,
		"code":   apiErr.Code,
		"path":   c.FullPath(),
	})
	if requestID := c.GetString("requestID"); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if identityKey := c.GetString("identityKey"); identityKey != "" {
		entry = entry.WithField("identity", identityKey)
	}
	if apiErr.Err != nil {
		entry = entry.WithError(apiErr.Err)
	}
	if apiErr.Status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	c.JSON(apiErr.Status, gin.H{"error": apiErr.Message, "code": apiErr.Code})
}
