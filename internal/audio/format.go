package audio

import (
	"path/filepath"
	"strings"
)

// Format identifies one of the audio container/codec formats accepted by the
// transcription API. The set is closed; values are used as lookup keys only.
type Format string

const (
	FormatFLAC Format = "flac"
	FormatMP3  Format = "mp3"
	FormatMP4  Format = "mp4"
	FormatMPEG Format = "mpeg"
	FormatMPGA Format = "mpga"
	FormatOGG  Format = "ogg"
	FormatWAV  Format = "wav"
	FormatWebM Format = "webm"
)

// DefaultFormat is what browsers produce from MediaRecorder when nothing
// better can be detected. Detection failure at upload time is non-fatal
// because the upstream service tolerates a best-effort content-type label.
const DefaultFormat = FormatWebM

// mimeFormats maps normalized MIME types to formats. MIME parameters
// (e.g. ";codecs=opus") are stripped before lookup.
var mimeFormats = map[string]Format{
	"audio/flac":      FormatFLAC,
	"audio/x-flac":    FormatFLAC,
	"audio/mp3":       FormatMP3,
	"audio/mpeg":      FormatMP3,
	"audio/mpga":      FormatMPGA,
	"audio/mp4":       FormatMP4,
	"audio/m4a":       FormatMP4,
	"audio/x-m4a":     FormatMP4,
	"video/mp4":       FormatMP4,
	"audio/ogg":       FormatOGG,
	"audio/opus":      FormatOGG,
	"application/ogg": FormatOGG,
	"audio/wav":       FormatWAV,
	"audio/x-wav":     FormatWAV,
	"audio/wave":      FormatWAV,
	"audio/webm":      FormatWebM,
	"video/webm":      FormatWebM,
}

// extFormats maps filename extensions (without the dot) to formats.
// Extensions that are not 1:1 with format names are mapped explicitly.
var extFormats = map[string]Format{
	"flac": FormatFLAC,
	"mp3":  FormatMP3,
	"mpga": FormatMPGA,
	"mpeg": FormatMPEG,
	"mp4":  FormatMP4,
	"m4a":  FormatMP4,
	"ogg":  FormatOGG,
	"oga":  FormatOGG,
	"opus": FormatOGG,
	"wav":  FormatWAV,
	"webm": FormatWebM,
}

// canonicalMIME is the MIME type used when re-labeling the outbound request.
// Total over the closed format set.
var canonicalMIME = map[Format]string{
	FormatFLAC: "audio/flac",
	FormatMP3:  "audio/mpeg",
	FormatMP4:  "audio/mp4",
	FormatMPEG: "audio/mpeg",
	FormatMPGA: "audio/mpeg",
	FormatOGG:  "audio/ogg",
	FormatWAV:  "audio/wav",
	FormatWebM: "audio/webm",
}

// canonicalExt is the extension appended by NormalizeFilename. The mpeg and
// mpga formats canonically map to the "mp3" extension, not their own names.
var canonicalExt = map[Format]string{
	FormatFLAC: "flac",
	FormatMP3:  "mp3",
	FormatMP4:  "mp4",
	FormatMPEG: "mp3",
	FormatMPGA: "mp3",
	FormatOGG:  "ogg",
	FormatWAV:  "wav",
	FormatWebM: "webm",
}

// FormatFromMIMEType resolves a declared MIME type to a supported format.
// The type is lowercased and any parameter suffix (";codecs=opus" etc.) is
// stripped before the table lookup.
func FormatFromMIMEType(mimeType string) (Format, bool) {
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	format, ok := mimeFormats[normalized]
	return format, ok
}

// FormatFromFilename resolves a filename to a supported format by its final
// extension.
func FormatFromFilename(name string) (Format, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "", false
	}
	format, ok := extFormats[ext]
	return format, ok
}

// DetectFormat resolves the audio format from the declared MIME type and the
// original filename. A MIME match always takes precedence; the filename
// extension is only consulted when the MIME type is unknown.
func DetectFormat(mimeType, filename string) (Format, bool) {
	if format, ok := FormatFromMIMEType(mimeType); ok {
		return format, true
	}
	return FormatFromFilename(filename)
}

// MIMETypeForFormat returns the canonical MIME type for a supported format.
func MIMETypeForFormat(format Format) string {
	return canonicalMIME[format]
}

// NormalizeFilename strips any existing extension from name and appends the
// canonical extension for the given format.
func NormalizeFilename(name string, format Format) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "audio"
	}
	return base + "." + canonicalExt[format]
}
