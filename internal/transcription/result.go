package transcription

import (
	"math"
	"strings"
	"time"
)

// assembleResult normalizes the upstream payload into the outward-facing
// result: trimmed text, resolved language (detected, else requested, else
// the auto sentinel), wall-clock elapsed milliseconds, pass-through audio
// duration, and an RFC3339 completion timestamp.
func assembleResult(requestID string, req *Request, resp *verboseResponse, start time.Time) *Result {
	language := resp.Language
	if language == "" {
		language = req.Language
	}
	if language == "" {
		language = LanguageAuto
	}

	elapsedMs := int64(math.Round(float64(time.Since(start)) / float64(time.Millisecond)))

	return &Result{
		ID:                   requestID,
		Text:                 strings.TrimSpace(*resp.Text),
		Language:             language,
		ProcessingTimeMs:     elapsedMs,
		AudioDurationSeconds: resp.Duration,
		CompletedAt:          time.Now().UTC().Format(time.RFC3339),
	}
}
