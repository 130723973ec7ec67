package stt

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoAPIKey is returned when no credentials are configured.
	ErrNoAPIKey = errors.New("stt: API key or credentials required")

	// ErrNoSpeech is returned when the audio decodes but nothing was recognized.
	ErrNoSpeech = errors.New("stt: no speech recognized")

	// ErrBadAudio is returned when the backend rejects the audio payload.
	ErrBadAudio = errors.New("stt: audio rejected by backend")

	// ErrProviderUnavailable is returned when the backend cannot be reached.
	ErrProviderUnavailable = errors.New("stt: provider unavailable")
)

// APIError represents an error response from a recognition API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Provider identifies which provider returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("stt [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsBadRequest returns true for HTTP 400, which Google returns for audio it cannot decode.
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsRetryable returns true if the request could succeed on a later attempt.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("stt [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// IsUnclear reports whether err means the audio itself was the problem rather
// than the backend.
func IsUnclear(err error) bool {
	if errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrBadAudio) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsBadRequest()
}
