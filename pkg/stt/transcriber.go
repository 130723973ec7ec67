package stt

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/teslashibe/go-voicebot/pkg/audio"
)

// Transcriber turns utterances into Transcripts with a single recognition attempt.
type Transcriber struct {
	recognizer Recognizer
	config     *Config
	logger     *slog.Logger
}

// NewTranscriber wraps a recognizer. Credential options are ignored here;
// only sentinel texts, timeout and logger apply.
func NewTranscriber(r Recognizer, opts ...Option) *Transcriber {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Transcriber{
		recognizer: r,
		config:     cfg,
		logger:     cfg.Logger.With("component", "stt.transcriber"),
	}
}

// Transcribe converts u to text in lang. It always returns a Transcript.
func (t *Transcriber) Transcribe(ctx context.Context, u audio.Utterance, lang language.Tag) Transcript {
	pcm, err := audio.Decode(u)
	if err != nil {
		t.logger.Warn("utterance not decodable", "utterance", u.String(), "error", err)
		return t.unclear(lang, err)
	}

	req := &Request{
		Audio:      pcm.Normalize(audio.RecognitionSampleRate),
		SampleRate: audio.RecognitionSampleRate,
		Language:   lang,
	}

	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := t.recognizer.Recognize(ctx, req)
	latency := time.Since(start)

	switch {
	case err != nil && IsUnclear(err):
		t.logger.Warn("speech not recognized", "language", lang.String(), "energy", pcm.Energy(), "error", err)
		return t.unclear(lang, err)
	case err != nil:
		t.logger.Warn("recognition backend unavailable", "error", err, "latency_ms", latency.Milliseconds())
		return t.unavailable(lang, err)
	case result == nil || strings.TrimSpace(result.Text) == "":
		t.logger.Warn("empty recognition result", "language", lang.String(), "energy", pcm.Energy())
		return t.unclear(lang, ErrNoSpeech)
	}

	t.logger.Debug("transcribed utterance",
		"chars", len(result.Text),
		"confidence", result.Confidence,
		"audio_ms", pcm.Duration().Milliseconds(),
		"latency_ms", latency.Milliseconds(),
	)

	return Transcript{
		Text:       strings.TrimSpace(result.Text),
		Language:   lang,
		Status:     StatusRecognized,
		Confidence: result.Confidence,
	}
}

func (t *Transcriber) unclear(lang language.Tag, err error) Transcript {
	return Transcript{
		Text:     t.config.UnclearText,
		Language: lang,
		Status:   StatusUnclear,
		Err:      err,
	}
}

func (t *Transcriber) unavailable(lang language.Tag, err error) Transcript {
	return Transcript{
		Text:     t.config.UnavailableText,
		Language: lang,
		Status:   StatusUnavailable,
		Err:      err,
	}
}
