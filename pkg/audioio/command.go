package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// CommandSource captures audio by running a recorder that writes raw
// PCM16 little-endian samples to stdout.
type CommandSource struct {
	cfg     Config
	logger  *slog.Logger
	backend Backend
	name    string
	args    []string

	mu      sync.Mutex
	running bool
	closed  bool
	cmd     *exec.Cmd
	chunks  chan AudioChunk
	stopCh  chan struct{}
	done    chan struct{}

	chunksRead atomic.Int64
}

// recorderCommand returns the program and arguments for backend.
func recorderCommand(backend Backend, cfg Config) (string, []string) {
	rate := strconv.Itoa(cfg.SampleRate)
	channels := strconv.Itoa(cfg.Channels)

	switch backend {
	case BackendALSA:
		device := cfg.Device
		if device == "" {
			device = "default"
		}
		return "arecord", []string{
			"-q", "-D", device, "-t", "raw",
			"-f", "S16_LE", "-r", rate, "-c", channels,
		}
	case BackendCoreAudio:
		return "rec", []string{
			"-q", "-t", "raw", "-b", "16", "-e", "signed-integer",
			"-L", "-r", rate, "-c", channels, "-",
		}
	default:
		return "", nil
	}
}

// newCommandSource checks that the recorder for backend is installed.
func newCommandSource(cfg Config, logger *slog.Logger, backend Backend) (*CommandSource, error) {
	name, args := recorderCommand(backend, cfg)
	if name == "" {
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s backend requires %s: %w", backend, name, err)
	}

	return &CommandSource{
		cfg:     cfg,
		logger:  logger.With("component", "audioio."+string(backend)),
		backend: backend,
		name:    name,
		args:    args,
	}, nil
}

// Start launches the recorder.
func (s *CommandSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.name, s.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.name, err)
	}

	s.cmd = cmd
	s.running = true
	s.chunks = make(chan AudioChunk, 10)
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go func(chunks chan AudioChunk, stop, done chan struct{}) {
		defer close(done)
		defer close(chunks)
		if err := readChunks(stdout, s.cfg, chunks, stop); err != nil {
			s.logger.Warn("capture read failed", "error", err)
		}
	}(s.chunks, s.stopCh, s.done)

	s.logger.Debug("capture started", "command", s.name, "sample_rate", s.cfg.SampleRate)
	return nil
}

// readChunks splits r into chunks of cfg.BufferBytes until EOF or stop.
func readChunks(r io.Reader, cfg Config, out chan<- AudioChunk, stop <-chan struct{}) error {
	buf := make([]byte, cfg.BufferBytes())
	for {
		n, err := io.ReadFull(r, buf)
		if n >= 2 {
			var chunk AudioChunk
			chunk.FromBytes(buf[:n-n%2], cfg.SampleRate, cfg.Channels)
			select {
			case out <- chunk:
			case <-stop:
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
	}
}

// Stop kills the recorder and waits for it to exit.
func (s *CommandSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	cmd, done := s.cmd, s.done
	s.mu.Unlock()

	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
	_ = cmd.Wait()

	s.logger.Debug("capture stopped", "chunks", s.chunksRead.Load())
	return nil
}

// Read returns the next chunk, or io.EOF once the recorder has exited.
func (s *CommandSource) Read(ctx context.Context) (AudioChunk, error) {
	s.mu.Lock()
	chunks := s.chunks
	s.mu.Unlock()
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
		s.chunksRead.Add(1)
		return chunk, nil
	}
}

// Config returns the audio configuration.
func (s *CommandSource) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *CommandSource) Name() string {
	return string(s.backend)
}

// Close stops capture for good.
func (s *CommandSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.Stop()
}

var _ Source = (*CommandSource)(nil)
