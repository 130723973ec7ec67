package audioio

import (
	"context"
	"io"
	"time"

	"github.com/teslashibe/go-voicebot/pkg/audio"
)

// AudioChunk is a run of captured PCM16 samples, interleaved by channel.
type AudioChunk struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Bytes returns the chunk as PCM16 little-endian bytes.
func (c *AudioChunk) Bytes() []byte {
	return audio.SamplesToBytes(c.Samples)
}

// FromBytes fills the chunk from PCM16 little-endian bytes.
func (c *AudioChunk) FromBytes(data []byte, sampleRate, channels int) {
	c.Samples = audio.BytesToSamples(data)
	c.SampleRate = sampleRate
	c.Channels = channels
}

// Duration returns the playback length of the chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// Source captures audio from a microphone.
type Source interface {
	// Start begins capture. Capture also ends when ctx is done.
	Start(ctx context.Context) error

	// Stop ends capture. Repeated calls are no-ops.
	Stop() error

	// Read blocks for the next chunk and returns io.EOF after Stop.
	Read(ctx context.Context) (AudioChunk, error)

	Config() Config

	// Name is the backend name, e.g. "alsa".
	Name() string

	// Close stops capture for good; a closed source cannot restart.
	io.Closer
}
