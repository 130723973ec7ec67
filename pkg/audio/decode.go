package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// PCM is decoded, interleaved 16-bit audio.
type PCM struct {
	Samples []int16
	Format  Format
}

// Duration returns the playback length.
func (p *PCM) Duration() time.Duration {
	if p.Format.SampleRate <= 0 || p.Format.Channels <= 0 {
		return 0
	}
	frames := len(p.Samples) / p.Format.Channels
	return time.Duration(frames) * time.Second / time.Duration(p.Format.SampleRate)
}

// Normalize downmixes to mono and resamples to rate, returning LINEAR16 bytes.
func (p *PCM) Normalize(rate int) []byte {
	mono := Downmix(p.Samples, p.Format.Channels)
	return SamplesToBytes(Resample(mono, p.Format.SampleRate, rate))
}

// Energy returns the mean power of the decoded audio.
func (p *PCM) Energy() float64 {
	return Energy(p.Samples)
}

// Decode turns an utterance into PCM. Errors wrap ErrEmpty, ErrUnknownContainer,
// ErrUnsupportedEncoding or ErrCorrupt.
func Decode(u Utterance) (*PCM, error) {
	if u.Empty() {
		return nil, ErrEmpty
	}

	switch u.container {
	case ContainerWAV:
		return decodeWAV(u.data)
	case ContainerMP3:
		return decodeMP3(u.data)
	default:
		return nil, ErrUnknownContainer
	}
}

// decodeMP3 decodes with go-mp3, which always yields 16-bit stereo.
func decodeMP3(data []byte) (*PCM, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrCorrupt, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrCorrupt, err)
	}
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: mp3 decoded to %d bytes", ErrCorrupt, len(raw))
	}

	return &PCM{
		Samples: BytesToSamples(raw),
		Format: Format{
			Container:  ContainerMP3,
			SampleRate: dec.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}
