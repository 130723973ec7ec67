package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoAPIKey is returned by Validate and NewGemini without a key.
	ErrNoAPIKey = errors.New("inference: API key required")

	// ErrNoModel is returned by Validate when no model name is set.
	ErrNoModel = errors.New("inference: model required")

	// ErrEmptyResponse marks a reply with no text. The generator retries it.
	ErrEmptyResponse = errors.New("inference: empty response")

	// ErrProviderUnavailable is returned when no model is configured.
	ErrProviderUnavailable = errors.New("inference: provider unavailable")

	// ErrInvalidRetryPolicy rejects policies with no attempts or a negative backoff.
	ErrInvalidRetryPolicy = errors.New("inference: invalid retry policy")
)

// ProviderError tags err with the model backend that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// WrapError returns nil for a nil err.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
