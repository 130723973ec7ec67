package stt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/speech/v1"

	"github.com/teslashibe/go-voicebot/internal/gcp"
)

const providerGoogle = "google"

// Google implements Recognizer with Cloud Speech-to-Text v1 synchronous recognition.
type Google struct {
	config *Config
	svc    *speech.Service
	logger *slog.Logger
}

// NewGoogle creates a Cloud Speech-to-Text recognizer.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts, err := gcp.ClientOptions(ctx, gcp.Auth{
		APIKey:          cfg.APIKey,
		CredentialsJSON: cfg.CredentialsJSON,
		Endpoint:        cfg.Endpoint,
		HTTPClient:      cfg.HTTPClient,
	})
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}

	svc, err := speech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}

	return &Google{
		config: cfg,
		svc:    svc,
		logger: cfg.Logger.With("component", "stt.google"),
	}, nil
}

// Recognize sends one synchronous recognize request.
func (g *Google) Recognize(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	call := g.svc.Speech.Recognize(&speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            int64(req.SampleRate),
			AudioChannelCount:          1,
			LanguageCode:               req.Language.String(),
			Model:                      g.config.Model,
			EnableAutomaticPunctuation: true,
			MaxAlternatives:            1,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(req.Audio),
		},
	})

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, g.translateError(err)
	}

	latency := time.Since(start).Milliseconds()

	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 || r.Alternatives[0].Transcript == "" {
			continue
		}
		best := r.Alternatives[0]
		g.logger.Debug("recognized speech",
			"language", req.Language.String(),
			"confidence", best.Confidence,
			"latency_ms", latency,
		)
		return &Result{
			Text:       best.Transcript,
			Confidence: best.Confidence,
			LatencyMs:  latency,
		}, nil
	}

	return nil, WrapError(providerGoogle, ErrNoSpeech)
}

// Health lists at most one long-running operation, which proves the
// credentials without sending audio.
func (g *Google) Health(ctx context.Context) error {
	if _, err := g.svc.Operations.List().PageSize(1).Context(ctx).Do(); err != nil {
		return g.translateError(err)
	}
	return nil
}

// Close is a no-op; the REST service holds no long-lived connections of its own.
func (g *Google) Close() error {
	return nil
}

// translateError maps googleapi errors onto APIError.
func (g *Google) translateError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Provider:   providerGoogle,
		}
	}
	return WrapError(providerGoogle, fmt.Errorf("%w: %v", ErrProviderUnavailable, err))
}

// Verify Google implements Recognizer at compile time.
var _ Recognizer = (*Google)(nil)
