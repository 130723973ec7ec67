package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/texttospeech/v1"

	"github.com/teslashibe/go-voicebot/internal/gcp"
)

const providerGoogleCloud = "google-cloud"

// GoogleCloud implements Provider with Cloud Text-to-Speech v1.
type GoogleCloud struct {
	config *Config
	svc    *texttospeech.Service
	logger *slog.Logger
}

// NewGoogleCloud creates a Cloud Text-to-Speech provider.
func NewGoogleCloud(ctx context.Context, opts ...Option) (*GoogleCloud, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts, err := gcp.ClientOptions(ctx, gcp.Auth{
		APIKey:          cfg.APIKey,
		CredentialsJSON: cfg.CredentialsJSON,
		Endpoint:        cfg.BaseURL,
		HTTPClient:      cfg.HTTPClient,
	})
	if err != nil {
		return nil, WrapError(providerGoogleCloud, err)
	}

	svc, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogleCloud, fmt.Errorf("create service: %w", err))
	}

	return &GoogleCloud{
		config: cfg,
		svc:    svc,
		logger: cfg.Logger.With("component", "tts.google"),
	}, nil
}

// Synthesize sends one synthesize request.
func (g *GoogleCloud) Synthesize(ctx context.Context, text string, lang language.Tag) (*AudioResult, error) {
	start := time.Now()

	voice := &texttospeech.VoiceSelectionParams{
		LanguageCode: lang.String(),
		Name:         g.config.VoiceName,
	}

	resp, err := g.svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: voice,
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: strings.ToUpper(string(g.config.OutputFormat)),
			SpeakingRate:  g.config.SpeakingRate,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, g.translateError(err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogleCloud, fmt.Errorf("decode audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerGoogleCloud, ErrEmptyAudio)
	}

	latency := time.Since(start).Milliseconds()
	g.logger.Debug("synthesized audio",
		"language", lang.String(),
		"voice", g.config.VoiceName,
		"bytes", len(audio),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Encoding: g.config.OutputFormat, Channels: 1},
		CharCount: utf8.RuneCountInString(text),
		LatencyMs: latency,
	}, nil
}

// Health lists voices, which exercises credentials without synthesizing.
func (g *GoogleCloud) Health(ctx context.Context) error {
	if _, err := g.svc.Voices.List().Context(ctx).Do(); err != nil {
		return g.translateError(err)
	}
	return nil
}

// Close is a no-op.
func (g *GoogleCloud) Close() error {
	return nil
}

// translateError maps googleapi errors onto APIError.
func (g *GoogleCloud) translateError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Provider:   providerGoogleCloud,
		}
	}
	return WrapError(providerGoogleCloud, err)
}

// Verify GoogleCloud implements Provider at compile time.
var _ Provider = (*GoogleCloud)(nil)
