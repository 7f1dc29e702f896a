package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a stable machine-readable error code carried across the API
// boundary. Codes never change once published; callers may switch on them.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeInvalidFormat Code = "INVALID_FORMAT"
	CodeFileTooLarge  Code = "FILE_TOO_LARGE"
	CodeMissingInput  Code = "MISSING_INPUT"
	CodeProvider      Code = "PROVIDER_ERROR"
	CodeTimeout       Code = "TIMEOUT"
	CodeTranscription Code = "TRANSCRIPTION_ERROR"
)

// Error is the classified failure type returned by the transcription
// pipeline. Status is a suggested HTTP status for API-facing callers.
// The retryable flag is consumed exclusively by the client's retry loop,
// never by callers.
type Error struct {
	Code    Code
	Message string
	Status  int
	Details map[string]any

	retryable bool
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the retry loop may attempt the call again.
func (e *Error) Retryable() bool {
	return e.retryable
}

// NewValidationError reports caller input rejected before any network call.
func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

// NewInvalidFormatError reports an audio format outside the supported set.
func NewInvalidFormatError(mimeType, filename string) *Error {
	return &Error{
		Code:    CodeInvalidFormat,
		Message: "unsupported audio format",
		Status:  http.StatusBadRequest,
		Details: map[string]any{"mime_type": mimeType, "filename": filename},
	}
}

// NewFileTooLargeError reports an upload exceeding the configured ceiling.
func NewFileTooLargeError(sizeBytes, maxBytes int64) *Error {
	return &Error{
		Code: CodeFileTooLarge,
		Message: fmt.Sprintf("audio file too large: %.2f MB exceeds the %.2f MB limit",
			float64(sizeBytes)/(1024*1024), float64(maxBytes)/(1024*1024)),
		Status:  http.StatusRequestEntityTooLarge,
		Details: map[string]any{"size_bytes": sizeBytes, "max_bytes": maxBytes},
	}
}

// NewMissingInputError reports a required input that was not supplied at all.
func NewMissingInputError(field string) *Error {
	return &Error{
		Code:    CodeMissingInput,
		Message: fmt.Sprintf("missing required input: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// NewProviderError classifies an upstream HTTP failure. Rate limiting (429)
// and server-side failures (5xx) are retryable; other 4xx statuses surface
// immediately with the upstream message.
func NewProviderError(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{
		Code:      CodeProvider,
		Message:   message,
		Status:    http.StatusBadGateway,
		Details:   map[string]any{"upstream_status": status},
		retryable: status == http.StatusTooManyRequests || status >= 500,
	}
}

// NewTimeoutError reports a per-attempt deadline that elapsed. Timeouts are
// always retryable up to the attempt ceiling.
func NewTimeoutError(operation string, timeoutMs int) *Error {
	return &Error{
		Code:      CodeTimeout,
		Message:   fmt.Sprintf("%s timed out after %dms", operation, timeoutMs),
		Status:    http.StatusGatewayTimeout,
		Details:   map[string]any{"operation": operation, "timeout_ms": timeoutMs},
		retryable: true,
	}
}

// NewTranscriptionError reports a 2xx upstream response with a structurally
// invalid payload. Treated as a non-transient integration fault, not retried.
func NewTranscriptionError(message string) *Error {
	return &Error{Code: CodeTranscription, Message: message, Status: http.StatusBadGateway}
}

// transientSignatures are message fragments of transport-level failures known
// to be worth retrying. This is the one documented place where errors are
// matched by message rather than by type.
var transientSignatures = []string{
	"connection reset",
	"connection refused",
	"timed out",
	"timeout",
	"no such host",
	"broken pipe",
	"unexpected EOF",
}

// classify maps an arbitrary transport error into the taxonomy. Deadline
// expiry becomes a timeout error; errors matching known transient network
// signatures become retryable provider errors; everything else is surfaced
// as-is, non-retryable.
func classify(err error, operation string, timeoutMs int) *Error {
	var terr *Error
	if errors.As(err, &terr) {
		return terr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(operation, timeoutMs)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, sig := range transientSignatures {
		if strings.Contains(lower, strings.ToLower(sig)) {
			return &Error{
				Code:      CodeProvider,
				Message:   msg,
				Status:    http.StatusBadGateway,
				retryable: true,
			}
		}
	}

	return &Error{Code: CodeProvider, Message: msg, Status: http.StatusBadGateway}
}

// Retryable reports whether err carries a retryable classification.
func Retryable(err error) bool {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Retryable()
	}
	return false
}
