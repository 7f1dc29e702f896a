package audio

import (
	"errors"
	"fmt"
)

// ErrEmptyAudio is returned when the uploaded buffer contains no data.
var ErrEmptyAudio = errors.New("audio buffer is empty")

// TooLargeError is returned when the uploaded buffer exceeds the configured
// size ceiling. Both sizes are carried for error reporting.
type TooLargeError struct {
	SizeBytes int64
	MaxBytes  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("audio file too large: %.2f MB exceeds the %.2f MB limit",
		float64(e.SizeBytes)/(1024*1024), float64(e.MaxBytes)/(1024*1024))
}

// UnsupportedFormatError is returned when neither the MIME type nor the
// filename extension maps to a supported format.
type UnsupportedFormatError struct {
	MIMEType string
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format (mime type %q, filename %q)", e.MIMEType, e.Filename)
}

// Validate checks an uploaded audio buffer before any network call is made.
// It is a pure function of its inputs: same inputs always produce the same
// outcome, and the buffer is never mutated. A buffer exactly at the size
// ceiling is valid.
func Validate(buf []byte, mimeType, filename string, maxSizeBytes int64) (Format, error) {
	if len(buf) == 0 {
		return "", ErrEmptyAudio
	}

	if int64(len(buf)) > maxSizeBytes {
		return "", &TooLargeError{SizeBytes: int64(len(buf)), MaxBytes: maxSizeBytes}
	}

	format, ok := DetectFormat(mimeType, filename)
	if !ok {
		return "", &UnsupportedFormatError{MIMEType: mimeType, Filename: filename}
	}

	return format, nil
}
