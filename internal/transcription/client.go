package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/audio"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/pkg/logger"
)

// Config holds the immutable settings the client is constructed with.
type Config struct {
	APIKey            string
	BaseURL           string // without trailing slash, e.g. https://api.openai.com
	Path              string // e.g. /v1/audio/transcriptions
	Model             string
	MaxAudioSizeBytes int64
	TimeoutMs         int // per-attempt HTTP timeout
	MaxAttempts       int
	InitialBackoffMs  int
	BackoffMultiplier int
	MaxPromptLength   int
}

// Client relays audio buffers to the transcription provider. It holds only
// immutable configuration, so concurrent Transcribe calls are independent.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a transcription client. The composition root constructs
// exactly one and passes it down; there is no package-level instance.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Path == "" {
		cfg.Path = "/v1/audio/transcriptions"
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 60000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoffMs <= 0 {
		cfg.InitialBackoffMs = 1000
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2
	}

	if cfg.APIKey == "" {
		log.Warn("OpenAI API key is empty - transcription requests will fail")
	}

	return &Client{
		cfg:    cfg,
		logger: log.Named("transcription"),
		// No client-level timeout: each attempt is bounded by its own
		// context deadline so the retry loop controls timing.
		httpClient: &http.Client{},
	}
}

// Healthy reports whether the client is plausibly usable. This is a local
// sanity check on the configured API key, not a live upstream probe.
func (c *Client) Healthy() bool {
	return len(c.cfg.APIKey) >= 10
}

// attemptState drives the retry loop. Retryability is carried as data on
// the error value; the loop itself never inspects error messages.
type attemptState int

const (
	stateAttempting attemptState = iota
	stateBackoff
	stateSucceeded
	stateFailed
)

// Transcribe validates the request, relays it upstream with retries, and
// returns the assembled result. Terminal failures are always *Error values.
// Retries are sequential; each attempt is bounded by the configured
// per-attempt timeout, so the whole call can take up to roughly
// MaxAttempts x timeout plus backoff delays. Callers wanting an overall
// deadline impose it via ctx.
func (c *Client) Transcribe(ctx context.Context, req *Request) (*Result, error) {
	requestID := uuid.NewString()
	start := time.Now()

	if err := c.validateRequest(req); err != nil {
		c.logger.Warn("Rejected transcription request",
			logger.String("request_id", requestID),
			logger.Error(err))
		return nil, err
	}

	c.logger.Info("Starting transcription",
		logger.String("request_id", requestID),
		logger.String("filename", req.Filename),
		logger.String("mime_type", req.MIMEType),
		logger.Int("size_bytes", len(req.Audio)))

	var (
		state    = stateAttempting
		attempt  = 1
		response *verboseResponse
		lastErr  *Error
	)

	for {
		switch state {
		case stateAttempting:
			resp, err := c.attempt(ctx, req, requestID, attempt)
			if err == nil {
				response = resp
				state = stateSucceeded
				break
			}

			lastErr = err
			if err.Retryable() && attempt < c.cfg.MaxAttempts {
				state = stateBackoff
			} else {
				state = stateFailed
			}

		case stateBackoff:
			delay := c.backoffDelay(attempt)
			c.logger.Warn("Transcription attempt failed, retrying",
				logger.String("request_id", requestID),
				logger.Int("attempt", attempt),
				logger.Int("max_attempts", c.cfg.MaxAttempts),
				logger.Duration("backoff", delay),
				logger.Error(lastErr))

			select {
			case <-ctx.Done():
				return nil, classify(ctx.Err(), "transcription request", c.cfg.TimeoutMs)
			case <-time.After(delay):
			}
			attempt++
			state = stateAttempting

		case stateSucceeded:
			result := assembleResult(requestID, req, response, start)
			c.logger.Info("Transcription completed",
				logger.String("request_id", requestID),
				logger.String("language", result.Language),
				logger.Int64("processing_time_ms", result.ProcessingTimeMs),
				logger.Int("attempts", attempt))
			return result, nil

		case stateFailed:
			c.logger.Error("Transcription failed",
				logger.String("request_id", requestID),
				logger.Int("attempts", attempt),
				logger.String("code", string(lastErr.Code)),
				logger.Error(lastErr))
			return nil, lastErr
		}
	}
}

// validateRequest applies the pre-network checks: buffer, size ceiling,
// format support, prompt bound, and temperature range.
func (c *Client) validateRequest(req *Request) *Error {
	if req == nil {
		return NewMissingInputError("request")
	}

	if _, err := audio.Validate(req.Audio, req.MIMEType, req.Filename, c.cfg.MaxAudioSizeBytes); err != nil {
		switch verr := err.(type) {
		case *audio.TooLargeError:
			return NewFileTooLargeError(verr.SizeBytes, verr.MaxBytes)
		case *audio.UnsupportedFormatError:
			return NewInvalidFormatError(verr.MIMEType, verr.Filename)
		default:
			return NewValidationError(err.Error())
		}
	}

	if c.cfg.MaxPromptLength > 0 && len(req.Prompt) > c.cfg.MaxPromptLength {
		return NewValidationError(fmt.Sprintf("prompt exceeds maximum length of %d characters", c.cfg.MaxPromptLength))
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 1) {
		return NewValidationError(fmt.Sprintf("temperature must be between 0 and 1, got %g", *req.Temperature))
	}

	return nil
}

// attempt performs one upstream call. The context deadline covers exactly
// this attempt; the cancel func is always released.
func (c *Client) attempt(ctx context.Context, req *Request, requestID string, attempt int) (*verboseResponse, *Error) {
	body, contentType, err := c.buildMultipartBody(req)
	if err != nil {
		return nil, NewTranscriptionError(fmt.Sprintf("failed to build upstream request: %v", err))
	}

	attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	apiURL := c.cfg.BaseURL + c.cfg.Path
	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, apiURL, body)
	if err != nil {
		return nil, NewTranscriptionError(fmt.Sprintf("failed to create request: %v", err))
	}

	// Content-Type carries the boundary the multipart writer generated;
	// nothing else may set it.
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("Sending transcription request",
		logger.String("request_id", requestID),
		logger.Int("attempt", attempt),
		logger.String("url", apiURL))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeoutError("transcription request", c.cfg.TimeoutMs)
		}
		return nil, classify(err, "transcription request", c.cfg.TimeoutMs)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeoutError("transcription request", c.cfg.TimeoutMs)
		}
		return nil, classify(err, "transcription request", c.cfg.TimeoutMs)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewProviderError(resp.StatusCode, extractUpstreamMessage(resp.StatusCode, bodyBytes))
	}

	var parsed verboseResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, NewTranscriptionError(fmt.Sprintf("failed to parse transcription response: %v", err))
	}

	// The empty string is a valid transcription; a missing field is not.
	if parsed.Text == nil {
		return nil, NewTranscriptionError("transcription response missing text field")
	}

	return &parsed, nil
}

// buildMultipartBody assembles the upstream multipart payload: the audio
// bytes under a normalized filename with a matching content type, the model
// identifier, verbose structured output, and the optional tuning fields.
func (c *Client) buildMultipartBody(req *Request) (io.Reader, string, error) {
	format, ok := audio.DetectFormat(req.MIMEType, req.Filename)
	if !ok {
		// Detection failure at this stage is non-fatal; upstream tolerates
		// a best-effort label.
		format = audio.DefaultFormat
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, audio.NormalizeFilename(req.Filename, format)))
	header.Set("Content-Type", audio.MIMETypeForFormat(format))

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("model", c.cfg.Model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", fmt.Errorf("failed to write response_format field: %w", err)
	}

	if req.Language != "" && req.Language != LanguageAuto {
		if err := writer.WriteField("language", req.Language); err != nil {
			return nil, "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if req.Prompt != "" {
		if err := writer.WriteField("prompt", req.Prompt); err != nil {
			return nil, "", fmt.Errorf("failed to write prompt field: %w", err)
		}
	}
	if req.Temperature != nil {
		if err := writer.WriteField("temperature", strconv.FormatFloat(*req.Temperature, 'f', -1, 64)); err != nil {
			return nil, "", fmt.Errorf("failed to write temperature field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// backoffDelay computes the wait before the retry following failedAttempt:
// initial * multiplier^(failedAttempt-1), i.e. 1s then 2s with defaults.
func (c *Client) backoffDelay(failedAttempt int) time.Duration {
	delayMs := c.cfg.InitialBackoffMs
	for i := 1; i < failedAttempt; i++ {
		delayMs *= c.cfg.BackoffMultiplier
	}
	return time.Duration(delayMs) * time.Millisecond
}

// extractUpstreamMessage pulls a human-readable message out of an upstream
// error body: structured JSON first, raw body text next, generic last.
func extractUpstreamMessage(status int, body []byte) string {
	var envelope upstreamError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
