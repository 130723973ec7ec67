package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ChainError collects the failure of every model in a Chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("inference: all models failed: %s", strings.Join(msgs, "; "))
}

// Unwrap returns the collected errors.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

// Chain tries multiple models in order until one succeeds.
// A Chain call counts as a single attempt for the ResponseGenerator.
type Chain struct {
	models []Model
	logger *slog.Logger
}

// NewChain creates a model chain.
// At least one model is required.
func NewChain(models ...Model) (*Chain, error) {
	if len(models) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		models: models,
		logger: slog.Default().With("component", "inference.chain"),
	}, nil
}

// NewChainWithLogger creates a model chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, models ...Model) (*Chain, error) {
	chain, err := NewChain(models...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "inference.chain")
	return chain, nil
}

// Generate tries each model until one succeeds.
func (c *Chain) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var errs []error

	for i, m := range c.models {
		resp, err := m.Generate(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback model succeeded", "model_index", i)
			}
			return resp, nil
		}

		errs = append(errs, err)
		c.logger.Warn("model failed, trying next",
			"model_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Close closes all models.
func (c *Chain) Close() error {
	var lastErr error
	for _, m := range c.models {
		if err := m.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Verify Chain implements Model at compile time.
var _ Model = (*Chain)(nil)
