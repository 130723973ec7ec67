// Package tts turns reply text into playable, embeddable audio.
//
// A Provider is a synthesis backend: the Google Translate speech endpoint
// (the default, no credentials needed), Google Cloud Text-to-Speech, or a
// Chain of both. The Speaker wraps a Provider and always returns a
// SpeechArtifact: either base64 audio ready for a data URI or a NoAudio
// sentinel carrying the failure reason.
//
// Example usage:
//
//	provider, _ := tts.NewTranslate()
//	defer provider.Close()
//
//	speaker := tts.NewSpeaker(provider)
//	artifact := speaker.Synthesize(ctx, reply.Text, language.Urdu)
//	fmt.Println(artifact.HTML())
package tts

import (
	"context"
	"time"

	"golang.org/x/text/language"
)

// Provider defines the TTS backend interface.
type Provider interface {
	// Synthesize converts text to audio in lang, returning the complete buffer.
	Synthesize(ctx context.Context, text string, lang language.Tag) (*AudioResult, error)

	// Health checks backend connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio.
	Audio []byte

	// Format describes the audio encoding.
	Format AudioFormat

	// Duration is the estimated playback duration, zero when unknown.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the total backend time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
}

// Encoding is the container/codec of synthesized audio.
type Encoding string

const (
	EncodingMP3      Encoding = "mp3"
	EncodingLinear16 Encoding = "linear16" // WAV wrapped PCM16
	EncodingOggOpus  Encoding = "ogg_opus"
)

// MIME returns the media type used in data URIs.
func (e Encoding) MIME() string {
	switch e {
	case EncodingLinear16:
		return "audio/wav"
	case EncodingOggOpus:
		return "audio/ogg"
	default:
		return "audio/mp3"
	}
}

// Extension returns the file extension for spooled audio.
func (e Encoding) Extension() string {
	switch e {
	case EncodingLinear16:
		return ".wav"
	case EncodingOggOpus:
		return ".ogg"
	default:
		return ".mp3"
	}
}
