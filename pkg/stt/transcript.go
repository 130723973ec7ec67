package stt

import "golang.org/x/text/language"

// Status tags a Transcript as recognized text or one of the sentinels.
type Status int

const (
	// StatusRecognized means Text came from the recognizer.
	StatusRecognized Status = iota

	// StatusUnclear means the audio was undecodable or not recognizable.
	StatusUnclear

	// StatusUnavailable means the recognition backend could not be reached.
	StatusUnavailable
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusRecognized:
		return "recognized"
	case StatusUnclear:
		return "unclear"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Transcript is the text derived from one utterance. Sentinel transcripts
// carry fixed text and are valid input for the next stage.
type Transcript struct {
	Text     string
	Language language.Tag
	Status   Status

	// Confidence of the recognized hypothesis; zero for sentinels.
	Confidence float64

	// Err is the cause of a sentinel, kept for logging only.
	Err error
}

// OK reports whether the transcript holds recognized speech.
func (t Transcript) OK() bool {
	return t.Status == StatusRecognized
}

// String returns the transcript text.
func (t Transcript) String() string {
	return t.Text
}
