package transcription

// LanguageAuto is the sentinel for automatic language detection. A request
// carrying it sends no language hint upstream; a result falls back to it
// when neither upstream nor the caller named a language.
const LanguageAuto = "auto"

// Request is the input to Transcribe. The audio buffer is owned by the
// caller and read-only to this package; it is never retained beyond the
// duration of one call.
type Request struct {
	Audio       []byte
	Filename    string
	MIMEType    string
	Language    string   // optional; LanguageAuto or "" means detect
	Prompt      string   // optional context prompt, bounded length
	Temperature *float64 // optional sampling temperature in [0,1]
}

// Result is the outward-facing transcription outcome. Constructed once,
// immutable, never persisted.
type Result struct {
	ID                   string   `json:"id"`
	Text                 string   `json:"text"`
	Language             string   `json:"language"`
	ProcessingTimeMs     int64    `json:"processing_time_ms"`
	AudioDurationSeconds *float64 `json:"audio_duration_seconds,omitempty"`
	CompletedAt          string   `json:"completed_at"`
}

// verboseResponse is the upstream verbose_json payload. Text is a pointer so
// a missing field can be told apart from a present-but-empty transcription.
type verboseResponse struct {
	Text     *string          `json:"text"`
	Language string           `json:"language,omitempty"`
	Duration *float64         `json:"duration,omitempty"`
	Segments []verboseSegment `json:"segments,omitempty"`
}

// verboseSegment is carried through for potential pass-through; the pipeline
// itself only consumes the top-level fields.
type verboseSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// upstreamError is the JSON error envelope the provider returns on failure.
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
