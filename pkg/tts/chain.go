package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Chain implements Provider by trying providers in order, typically Cloud
// TTS first and the credential-free Translate endpoint second.
//
// A provider that rejects its credentials is skipped for the rest of the
// chain's life; other failures only skip it for the current call.
type Chain struct {
	providers []Provider
	disabled  []atomic.Bool
	logger    *slog.Logger
}

// NewChain creates a provider chain. At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	return NewChainWithLogger(slog.Default(), providers...)
}

// NewChainWithLogger creates a provider chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		disabled:  make([]atomic.Bool, len(providers)),
		logger:    logger.With("component", "tts.chain"),
	}, nil
}

// Synthesize returns the first provider's audio that succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string, lang language.Tag) (*AudioResult, error) {
	var errs []error

	for i, p := range c.providers {
		if c.disabled[i].Load() {
			continue
		}

		result, err := p.Synthesize(ctx, text, lang)
		if err == nil {
			if len(errs) > 0 {
				c.logger.Info("fallback provider succeeded", "provider_index", i, "language", lang.String())
			}
			return result, nil
		}
		errs = append(errs, err)

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			c.disabled[i].Store(true)
			c.logger.Warn("provider rejected credentials, disabling", "provider_index", i, "error", err)
		} else {
			c.logger.Warn("provider failed, trying next", "provider_index", i, "error", err)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if len(errs) == 0 {
		errs = append(errs, ErrProviderUnavailable)
	}
	return nil, &ChainError{Errors: errs}
}

// Health succeeds when at least one enabled provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for i, p := range c.providers {
		if c.disabled[i].Load() {
			continue
		}
		err := p.Health(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		errs = append(errs, ErrProviderUnavailable)
	}
	return &ChainError{Errors: errs}
}

// Close closes every provider and returns the first error.
func (c *Chain) Close() error {
	var first error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ChainError collects the failure of every provider tried.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("tts: all providers failed: %s", strings.Join(msgs, "; "))
}

// Unwrap returns the collected errors.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

var _ Provider = (*Chain)(nil)
