package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// RetryPolicy bounds the number of model calls per turn.
type RetryPolicy struct {
	// Attempts is the total number of backend calls, including the first.
	Attempts int

	// Backoff is the fixed delay between attempts. It does not grow.
	Backoff time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 5 seconds between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 5 * time.Second}
}

// Validate rejects policies that could never call the backend.
func (p RetryPolicy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1, got %d", ErrInvalidRetryPolicy, p.Attempts)
	}
	if p.Backoff < 0 {
		return fmt.Errorf("%w: negative backoff %s", ErrInvalidRetryPolicy, p.Backoff)
	}
	return nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryState is the explicit state of one Generate call.
type retryState struct {
	policy  RetryPolicy
	attempt int
	lastErr error
}

func newRetryState(policy RetryPolicy) *retryState {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Backoff < 0 {
		policy.Backoff = 0
	}
	return &retryState{policy: policy}
}

// remaining reports whether another attempt is allowed.
func (s *retryState) remaining() bool {
	return s.attempt < s.policy.Attempts
}

// needsBackoff is true before every attempt except the first.
func (s *retryState) needsBackoff() bool {
	return s.attempt > 0
}

func (s *retryState) begin() int {
	s.attempt++
	return s.attempt
}

func (s *retryState) fail(err error) {
	s.lastErr = err
}

// ResponseGenerator asks a Model to answer a transcript in the target language.
type ResponseGenerator struct {
	model   Model
	config  *Config
	profile Profile
	sleep   SleepFunc
	logger  *slog.Logger
}

// NewResponseGenerator wraps m. Only the Apology, Timeout and Logger
// options apply to the generator; the backend owns its model name.
func NewResponseGenerator(m Model, opts ...Option) *ResponseGenerator {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &ResponseGenerator{
		model:   m,
		config:  cfg,
		profile: DefaultProfile(),
		sleep:   Sleep,
		logger:  cfg.Logger.With("component", "inference.generator"),
	}
}

// WithSleep replaces the backoff sleep. Tests pass a no-op to avoid waiting.
func (g *ResponseGenerator) WithSleep(fn SleepFunc) *ResponseGenerator {
	if fn != nil {
		g.sleep = fn
	}
	return g
}

// Profile returns the generation profile sent with every call.
func (g *ResponseGenerator) Profile() Profile {
	return g.profile
}

// Generate answers transcript in lang. Every attempt issues the full request
// with a fresh, history-free context. After policy.Attempts failures the
// configured apology is returned with status ReplyExhausted.
func (g *ResponseGenerator) Generate(ctx context.Context, transcript string, lang language.Tag, policy RetryPolicy) Reply {
	prompt := PromptRequest{Question: transcript, Language: lang}
	req := &GenerateRequest{
		Prompt:  prompt.String(),
		Profile: g.profile,
	}

	state := newRetryState(policy)
	for state.remaining() {
		if state.needsBackoff() {
			if err := g.sleep(ctx, state.policy.Backoff); err != nil {
				state.fail(err)
				break
			}
		}

		n := state.begin()
		resp, err := g.attempt(ctx, req)
		if err == nil {
			if n > 1 {
				g.logger.Info("generation succeeded after retry", "attempt", n)
			}
			return Reply{
				Text:     strings.TrimSpace(resp.Text),
				Status:   ReplyGenerated,
				Attempts: n,
				Model:    resp.Model,
				Usage:    resp.Usage,
			}
		}

		state.fail(err)
		g.logger.Warn("generation attempt failed",
			"attempt", n,
			"max_attempts", state.policy.Attempts,
			"error", err,
		)
	}

	g.logger.Error("generation exhausted",
		"attempts", state.attempt,
		"error", state.lastErr,
	)

	return Reply{
		Text:     g.config.Apology,
		Status:   ReplyExhausted,
		Attempts: state.attempt,
		Err:      state.lastErr,
	}
}

// attempt performs one backend call under the per-attempt timeout.
func (g *ResponseGenerator) attempt(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if g.model == nil {
		return nil, ErrProviderUnavailable
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	resp, err := g.model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}
