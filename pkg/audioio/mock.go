package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// MockSource produces synthetic audio at real-time pace, silence unless
// a tone is configured.
type MockSource struct {
	cfg    Config
	logger *slog.Logger
	tone   func(frame int) int16

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	exited chan struct{}
	chunks chan AudioChunk
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave makes the source emit a sine tone. Amplitude is 0..1.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		rate := float64(m.cfg.SampleRate)
		m.tone = func(frame int) int16 {
			return int16(amplitude * 32767 * math.Sin(2*math.Pi*frequency*float64(frame)/rate))
		}
	}
}

// NewMockSource creates a mock source. It never fails.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MockSource{cfg: cfg, logger: logger.With("component", "audioio.mock")}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.stop != nil {
		return nil
	}

	m.stop = make(chan struct{})
	m.exited = make(chan struct{})
	m.chunks = make(chan AudioChunk, 10)
	go m.generate(ctx, m.chunks, m.stop, m.exited)

	m.logger.Debug("mock capture started", "sample_rate", m.cfg.SampleRate, "channels", m.cfg.Channels)
	return nil
}

// generate owns out and closes it on exit, so Read sees io.EOF.
func (m *MockSource) generate(ctx context.Context, out chan<- AudioChunk, stop, exited chan struct{}) {
	defer close(exited)
	defer close(out)

	ticker := time.NewTicker(m.cfg.BufferDuration)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}

		frames := m.cfg.BufferSize()
		samples := make([]int16, frames*m.cfg.Channels)
		if m.tone != nil {
			for i := 0; i < frames; i++ {
				v := m.tone(frame + i)
				for ch := 0; ch < m.cfg.Channels; ch++ {
					samples[i*m.cfg.Channels+ch] = v
				}
			}
		}
		frame += frames

		select {
		case out <- AudioChunk{Samples: samples, SampleRate: m.cfg.SampleRate, Channels: m.cfg.Channels}:
		default:
			m.logger.Debug("mock chunk dropped, reader too slow")
		}
	}
}

func (m *MockSource) Stop() error {
	m.mu.Lock()
	stop, exited := m.stop, m.exited
	m.stop = nil
	m.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-exited
	return nil
}

func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	m.mu.Lock()
	chunks := m.chunks
	m.mu.Unlock()
	if chunks == nil {
		return AudioChunk{}, io.EOF
	}

	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-chunks:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

func (m *MockSource) Config() Config { return m.cfg }

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return m.Stop()
}

var _ Source = (*MockSource)(nil)
