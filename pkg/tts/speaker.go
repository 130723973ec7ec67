package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// SpeechStatus tags a SpeechArtifact as playable audio or the NoAudio sentinel.
type SpeechStatus int

const (
	// SpeechSpoken means Audio holds the synthesized reply.
	SpeechSpoken SpeechStatus = iota

	// SpeechNoAudio means synthesis was skipped or failed; Reason says why.
	// The artifact is still rendered, as silence.
	SpeechNoAudio
)

// String implements fmt.Stringer.
func (s SpeechStatus) String() string {
	switch s {
	case SpeechSpoken:
		return "spoken"
	case SpeechNoAudio:
		return "no_audio"
	default:
		return "unknown"
	}
}

// SpeechArtifact is the audio answer for one turn.
type SpeechArtifact struct {
	Status SpeechStatus

	// Audio is the encoded audio; nil for NoAudio.
	Audio []byte

	// MIME is the media type of Audio, e.g. "audio/mp3".
	MIME string

	// Base64 is the standard base64 encoding of Audio.
	Base64 string

	// Reason describes why no audio was produced.
	Reason string
}

// OK reports whether the artifact carries audio.
func (a SpeechArtifact) OK() bool {
	return a.Status == SpeechSpoken
}

// DataURI returns "data:<mime>;base64,<audio>", or "" for NoAudio.
func (a SpeechArtifact) DataURI() string {
	if !a.OK() {
		return ""
	}
	return "data:" + a.MIME + ";base64," + a.Base64
}

// HTML returns an autoplaying audio element, or an empty string for NoAudio.
func (a SpeechArtifact) HTML() string {
	if !a.OK() {
		return ""
	}
	return fmt.Sprintf(
		`<audio controls autoplay><source src="%s" type="%s"></audio>`,
		a.DataURI(), html.EscapeString(a.MIME),
	)
}

// Speaker synthesizes reply text with a single provider attempt.
type Speaker struct {
	provider Provider
	config   *Config
	logger   *slog.Logger
}

// NewSpeaker wraps p. The Timeout, TempDir and Logger options apply.
func NewSpeaker(p Provider, opts ...Option) *Speaker {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Speaker{
		provider: p,
		config:   cfg,
		logger:   cfg.Logger.With("component", "tts.speaker"),
	}
}

// Synthesize converts text to a SpeechArtifact. It never returns an error:
// failures become a NoAudio artifact with Reason set. Empty text skips the
// backend entirely.
func (s *Speaker) Synthesize(ctx context.Context, text string, lang language.Tag) SpeechArtifact {
	if strings.TrimSpace(text) == "" {
		return noAudio(ErrEmptyText)
	}
	if s.provider == nil {
		return noAudio(ErrProviderUnavailable)
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	result, err := s.provider.Synthesize(ctx, text, lang)
	if err == nil && (result == nil || len(result.Audio) == 0) {
		err = ErrEmptyAudio
	}
	if err != nil {
		s.logger.Warn("synthesis failed", "language", lang.String(), "error", err)
		return noAudio(err)
	}

	encoded, err := s.spool(result)
	if err != nil {
		s.logger.Warn("spooling audio failed", "error", err)
		return noAudio(err)
	}

	s.logger.Debug("synthesized speech",
		"bytes", len(result.Audio),
		"latency_ms", result.LatencyMs,
	)

	return SpeechArtifact{
		Status: SpeechSpoken,
		Audio:  result.Audio,
		MIME:   result.Format.Encoding.MIME(),
		Base64: encoded,
	}
}

// spool writes the audio to a temporary file and base64 encodes it back.
// The file is removed on every path.
func (s *Speaker) spool(result *AudioResult) (string, error) {
	f, err := os.CreateTemp(s.config.TempDir, "voicebot-*"+result.Format.Encoding.Extension())
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.Write(result.Audio); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read temp file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func noAudio(err error) SpeechArtifact {
	return SpeechArtifact{Status: SpeechNoAudio, Reason: err.Error()}
}
