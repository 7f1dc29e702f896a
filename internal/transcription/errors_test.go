package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewProviderErrorRetryability(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"rate limited", 429, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"service unavailable", 503, true},
		{"bad request", 400, false},
		{"unauthorized", 401, false},
		{"not found", 404, false},
		{"unprocessable", 422, false},
		{"just below 429", 428, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProviderError(tt.status, "upstream failed")
			if err.Retryable() != tt.wantRetryable {
				t.Errorf("NewProviderError(%d).Retryable() = %v, want %v",
					tt.status, err.Retryable(), tt.wantRetryable)
			}
			if err.Code != CodeProvider {
				t.Errorf("code = %q, want %q", err.Code, CodeProvider)
			}
			if err.Details["upstream_status"] != tt.status {
				t.Errorf("details upstream_status = %v, want %d", err.Details["upstream_status"], tt.status)
			}
		})
	}
}

func TestNewProviderErrorDefaultMessage(t *testing.T) {
	err := NewProviderError(503, "")
	if err.Message != "HTTP 503" {
		t.Errorf("message = %q, want HTTP 503", err.Message)
	}
}

func TestTimeoutErrorAlwaysRetryable(t *testing.T) {
	err := NewTimeoutError("transcription request", 60000)
	if !err.Retryable() {
		t.Error("timeout errors must be retryable")
	}
	if err.Code != CodeTimeout {
		t.Errorf("code = %q, want %q", err.Code, CodeTimeout)
	}
	if err.Status != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want %d", err.Status, http.StatusGatewayTimeout)
	}
}

func TestValidationErrorsNeverRetryable(t *testing.T) {
	errs := []*Error{
		NewValidationError("bad input"),
		NewInvalidFormatError("text/plain", "clip.txt"),
		NewFileTooLargeError(30<<20, 25<<20),
		NewMissingInputError("audio"),
		NewTranscriptionError("missing text field"),
	}
	for _, err := range errs {
		if err.Retryable() {
			t.Errorf("%s must not be retryable", err.Code)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      Code
		wantRetryable bool
	}{
		{
			name:          "deadline exceeded",
			err:           context.DeadlineExceeded,
			wantCode:      CodeTimeout,
			wantRetryable: true,
		},
		{
			name:          "wrapped deadline",
			err:           fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			wantCode:      CodeTimeout,
			wantRetryable: true,
		},
		{
			name:          "connection reset",
			err:           errors.New("read tcp 10.0.0.1:443: connection reset by peer"),
			wantCode:      CodeProvider,
			wantRetryable: true,
		},
		{
			name:          "host not found",
			err:           errors.New("dial tcp: lookup api.openai.com: no such host"),
			wantCode:      CodeProvider,
			wantRetryable: true,
		},
		{
			name:          "timed out message",
			err:           errors.New("net/http: TLS handshake timed out"),
			wantCode:      CodeProvider,
			wantRetryable: true,
		},
		{
			name:          "unknown error surfaces non-retryable",
			err:           errors.New("x509: certificate signed by unknown authority"),
			wantCode:      CodeProvider,
			wantRetryable: false,
		},
		{
			name:          "already classified passes through",
			err:           NewProviderError(404, "not found"),
			wantCode:      CodeProvider,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "transcription request", 60000)
			if got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Retryable() != tt.wantRetryable {
				t.Errorf("retryable = %v, want %v", got.Retryable(), tt.wantRetryable)
			}
		})
	}
}

func TestClassifyPreservesOriginalMessage(t *testing.T) {
	original := errors.New("x509: certificate signed by unknown authority")
	got := classify(original, "transcription request", 60000)
	if got.Message != original.Error() {
		t.Errorf("message = %q, want original %q", got.Message, original.Error())
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(NewTimeoutError("op", 100)) {
		t.Error("Retryable should report true for timeout errors")
	}
	if Retryable(errors.New("plain error")) {
		t.Error("Retryable should report false for unclassified errors")
	}
	wrapped := fmt.Errorf("attempt failed: %w", NewProviderError(500, "boom"))
	if !Retryable(wrapped) {
		t.Error("Retryable should unwrap nested classified errors")
	}
}
