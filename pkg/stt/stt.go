// Package stt converts a turn's utterance into a Transcript in a fixed target language.
//
// Recognition backends implement Recognizer. The Transcriber wraps one of them
// and never returns an error: undecodable or unrecognizable audio becomes the
// Unclear sentinel, and an unreachable backend becomes the Unavailable sentinel.
//
// Example usage:
//
//	recognizer, _ := stt.NewGoogle(ctx,
//	    stt.WithAPIKey(os.Getenv("GOOGLE_API_KEY")),
//	)
//	defer recognizer.Close()
//
//	transcriber := stt.NewTranscriber(recognizer)
//	transcript := transcriber.Transcribe(ctx, utterance, language.MustParse("ur-PK"))
//	if !transcript.OK() {
//	    // still valid text, forwarded downstream as-is
//	}
package stt

import (
	"context"

	"golang.org/x/text/language"
)

// Recognizer is a speech-recognition backend.
type Recognizer interface {
	// Recognize transcribes LINEAR16 mono audio. It returns ErrNoSpeech when the
	// audio decodes but nothing was recognized in the requested language.
	Recognize(ctx context.Context, req *Request) (*Result, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Request is a single recognition request.
type Request struct {
	// Audio is 16-bit little-endian mono PCM.
	Audio []byte

	// SampleRate of Audio in Hz.
	SampleRate int

	// Language the speech is expected in.
	Language language.Tag
}

// Result is the best recognition hypothesis.
type Result struct {
	Text       string
	Confidence float64
	LatencyMs  int64
}
