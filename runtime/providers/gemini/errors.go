package gemini

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportClosed is returned by sends after the live session closed.
	// Callers on the audio path drop it silently.
	ErrTransportClosed = errors.New("gemini: transport closed")

	// ErrRemoteUnavailable wraps failures to reach or set up the hosted model.
	ErrRemoteUnavailable = errors.New("gemini: remote unavailable")

	// ErrEmptyAudioData indicates no audio data provided.
	ErrEmptyAudioData = errors.New("empty audio data")

	// ErrMisalignedAudio indicates a PCM16 buffer with an odd byte count.
	ErrMisalignedAudio = errors.New("PCM16 data not aligned to sample size")
)

// APIError is the error object the Live endpoint may send before closing.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error (code %d, status %s): %s", e.Code, e.Status, e.Message)
}

// Unwrap lets every API error match ErrRemoteUnavailable.
func (e *APIError) Unwrap() error {
	return ErrRemoteUnavailable
}

// IsAuthError returns true if the error is authentication-related
func (e *APIError) IsAuthError() bool {
	return e.Code == 401 || e.Code == 403
}
