package audioio

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/teslashibe/go-voicebot/pkg/audio"
)

// ErrNothingRecorded is returned when capture produced no samples.
var ErrNothingRecorded = errors.New("audioio: nothing recorded")

// Record captures d of audio from src and returns it as a WAV file.
func Record(ctx context.Context, src Source, d time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		return nil, err
	}
	defer src.Stop()

	var samples []int16
	for {
		chunk, err := src.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, err
		}
		samples = append(samples, chunk.Samples...)
	}

	if len(samples) == 0 {
		return nil, ErrNothingRecorded
	}
	cfg := src.Config()
	return audio.EncodeWAV(samples, cfg.SampleRate, cfg.Channels)
}
