// Package audio accepts the recorded utterance for a turn and normalizes it
// into the PCM layout the recognition backend expects.
//
// An Utterance is the raw buffer handed over by the presentation layer. Its
// container is sniffed from the leading bytes, never trusted from the caller:
//
//	u := audio.NewUtterance(recorded)
//	pcm, err := audio.Decode(u)
//	if err != nil {
//	    // not decodable; callers treat this as unclear audio
//	}
//	linear16 := pcm.Normalize(audio.RecognitionSampleRate)
package audio

import (
	"bytes"
	"errors"
	"fmt"
)

// RecognitionSampleRate is the sample rate used for LINEAR16 recognition requests.
const RecognitionSampleRate = 16000

// Sentinel errors for ingest and decoding.
var (
	// ErrEmpty is returned for zero-length utterances.
	ErrEmpty = errors.New("audio: empty utterance")

	// ErrUnknownContainer is returned when the leading bytes match no supported container.
	ErrUnknownContainer = errors.New("audio: unknown container")

	// ErrUnsupportedEncoding is returned for containers holding non-PCM16 payloads.
	ErrUnsupportedEncoding = errors.New("audio: unsupported encoding")

	// ErrCorrupt is returned when a container header is truncated or inconsistent.
	ErrCorrupt = errors.New("audio: corrupt data")
)

// Container identifies the audio file container.
type Container string

const (
	ContainerUnknown Container = ""
	ContainerWAV     Container = "wav"
	ContainerMP3     Container = "mp3"
)

// MIME returns the container's MIME type.
func (c Container) MIME() string {
	switch c {
	case ContainerWAV:
		return "audio/wav"
	case ContainerMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// Format describes the implicit format of an utterance.
type Format struct {
	Container  Container
	SampleRate int
	Channels   int
	BitDepth   int
}

// Utterance is one turn's raw captured audio. It is immutable once created.
type Utterance struct {
	data      []byte
	container Container
}

// NewUtterance copies data into a new Utterance and sniffs its container.
func NewUtterance(data []byte) Utterance {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Utterance{data: buf, container: Sniff(buf)}
}

// Bytes returns a copy of the raw audio.
func (u Utterance) Bytes() []byte {
	buf := make([]byte, len(u.data))
	copy(buf, u.data)
	return buf
}

// Len returns the raw size in bytes.
func (u Utterance) Len() int {
	return len(u.data)
}

// Empty reports whether the utterance carries no audio.
func (u Utterance) Empty() bool {
	return len(u.data) == 0
}

// Container returns the sniffed container.
func (u Utterance) Container() Container {
	return u.container
}

// String implements fmt.Stringer for logging.
func (u Utterance) String() string {
	c := u.container
	if c == ContainerUnknown {
		c = "unknown"
	}
	return fmt.Sprintf("utterance(%s, %d bytes)", c, len(u.data))
}

// Sniff detects the container from the leading bytes.
func Sniff(data []byte) Container {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return ContainerWAV
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return ContainerMP3
	default:
		return ContainerUnknown
	}
}
