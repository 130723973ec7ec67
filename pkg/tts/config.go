package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds TTS provider and speaker configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Cloud credentials. The Translate provider needs none.
	APIKey          string
	CredentialsJSON []byte

	// BaseURL overrides the backend endpoint.
	BaseURL    string
	HTTPClient *http.Client

	// Voice configuration
	VoiceName    string  // Cloud TTS voice, e.g. "ur-IN-Standard-A"; empty picks by language
	SpeakingRate float64 // Cloud TTS rate, 1.0 is normal
	Slow         bool    // Translate endpoint slow speech
	TLD          string  // Translate host top-level domain, e.g. "com" or "com.pk"

	// Audio output
	OutputFormat Encoding

	// Timeout bounds a single synthesis.
	Timeout time.Duration

	// TempDir is where the Speaker spools audio; empty uses os.TempDir.
	TempDir string

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the Cloud TTS provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithCredentialsJSON sets a service-account key for the Cloud TTS provider.
func WithCredentialsJSON(data []byte) Option {
	return func(c *Config) {
		c.CredentialsJSON = data
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithVoice sets the Cloud TTS voice name.
func WithVoice(name string) Option {
	return func(c *Config) {
		c.VoiceName = name
	}
}

// WithSpeakingRate sets the Cloud TTS speaking rate.
func WithSpeakingRate(rate float64) Option {
	return func(c *Config) {
		c.SpeakingRate = rate
	}
}

// WithSlow requests slow speech from the Translate endpoint.
func WithSlow(slow bool) Option {
	return func(c *Config) {
		c.Slow = slow
	}
}

// WithTLD sets the Translate host top-level domain.
func WithTLD(tld string) Option {
	return func(c *Config) {
		c.TLD = tld
	}
}

// WithOutputFormat sets the audio output format.
func WithOutputFormat(format Encoding) Option {
	return func(c *Config) {
		c.OutputFormat = format
	}
}

// WithTimeout sets the synthesis timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithTempDir sets the directory used for spooling audio.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		SpeakingRate: 1.0,
		TLD:          "com",
		OutputFormat: EncodingMP3,
		Timeout:      30 * time.Second,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that Cloud TTS credentials are present.
func (c *Config) Validate() error {
	if c.APIKey == "" && len(c.CredentialsJSON) == 0 && c.HTTPClient == nil {
		return ErrNoAPIKey
	}
	return nil
}
