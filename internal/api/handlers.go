package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/config"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/internal/transcription"
	"github.com/Hassan-nizami-coding/Whisper-Dictation/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	transcriber *transcription.Client
	config      *config.Config
	logger      *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(transcriber *transcription.Client, config *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		transcriber: transcriber,
		config:      config,
		logger:      logger.Named("api-handler"),
	}
}

// Transcribe accepts a recorded audio blob and relays it to the
// transcription service. The multipart form carries the audio under the
// "audio" field plus optional language, prompt and temperature fields.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	// Bound the multipart parse by the configured ceiling plus slack for
	// the non-file fields.
	maxBytes := h.config.MaxAudioSizeBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)

	if err := r.ParseMultipartForm(maxBytes + 64*1024); err != nil {
		h.logger.Warn("Failed to parse multipart form", logger.Error(err))
		writeError(w, transcription.NewValidationError("invalid multipart form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, transcription.NewMissingInputError("audio"))
		return
	}
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded audio", logger.Error(err))
		writeError(w, transcription.NewValidationError("failed to read uploaded audio"))
		return
	}

	req := &transcription.Request{
		Audio:    buf,
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Language: r.FormValue("language"),
		Prompt:   r.FormValue("prompt"),
	}
	if req.Language == "" {
		req.Language = h.config.Transcription.DefaultLanguage
	}

	if tempStr := r.FormValue("temperature"); tempStr != "" {
		temp, err := strconv.ParseFloat(tempStr, 64)
		if err != nil {
			writeError(w, transcription.NewValidationError("temperature must be a number"))
			return
		}
		req.Temperature = &temp
	}

	result, err := h.transcriber.Transcribe(r.Context(), req)
	if err != nil {
		var terr *transcription.Error
		if errors.As(err, &terr) {
			writeError(w, terr)
			return
		}
		h.logger.Error("Unclassified transcription failure", logger.Error(err))
		http.Error(w, "Transcription failed", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// GetHealth returns the health status of the service
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.transcriber.Healthy() {
		status = "degraded"
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	// Create a sanitized config with only public values
	publicConfig := map[string]interface{}{
		"transcription": map[string]interface{}{
			"model":             h.config.Transcription.Model,
			"default_language":  h.config.Transcription.DefaultLanguage,
			"max_audio_size_mb": h.config.Transcription.MaxAudioSizeMB,
			"max_prompt_length": h.config.Transcription.MaxPromptLength,
		},
		"rate_limit": map[string]interface{}{
			"enabled":             h.config.RateLimit.Enabled,
			"requests_per_window": h.config.RateLimit.RequestsPerWindow,
			"window_seconds":      h.config.RateLimit.WindowSeconds,
		},
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps a classified error onto the wire: the stable code, the
// message, and any structured details. Internals never cross this boundary.
func writeError(w http.ResponseWriter, terr *transcription.Error) {
	WriteJSON(w, terr.Status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    terr.Code,
			"message": terr.Message,
			"details": terr.Details,
		},
	})
}
