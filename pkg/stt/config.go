package stt

import (
	"log/slog"
	"net/http"
	"time"
)

// Fixed sentinel texts. They are what the user sees when recognition fails.
const (
	DefaultUnclearText     = "آپ کی آواز واضح نہیں ہے"
	DefaultUnavailableText = "Sorry, my speech service is down"
)

// Config holds recognizer and transcriber configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey          string
	CredentialsJSON []byte
	Endpoint        string
	HTTPClient      *http.Client

	// Recognition
	Model string

	// Sentinel texts
	UnclearText     string
	UnavailableText string

	// Per-call timeout; zero leaves the caller's context untouched.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring recognizers and transcribers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithCredentialsJSON sets a service-account key used instead of an API key.
func WithCredentialsJSON(data []byte) Option {
	return func(c *Config) {
		c.CredentialsJSON = data
	}
}

// WithEndpoint overrides the default API endpoint.
func WithEndpoint(url string) Option {
	return func(c *Config) {
		c.Endpoint = url
	}
}

// WithHTTPClient sets a preconfigured HTTP client. The client must carry its own auth.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithModel sets the recognition model (e.g. "default", "latest_short").
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithSentinels overrides the Unclear and Unavailable texts.
func WithSentinels(unclear, unavailable string) Option {
	return func(c *Config) {
		if unclear != "" {
			c.UnclearText = unclear
		}
		if unavailable != "" {
			c.UnavailableText = unavailable
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
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
		Model:           "default",
		UnclearText:     DefaultUnclearText,
		UnavailableText: DefaultUnavailableText,
		Timeout:         30 * time.Second,
		Logger:          slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that credentials are present.
func (c *Config) Validate() error {
	if c.APIKey == "" && len(c.CredentialsJSON) == 0 && c.HTTPClient == nil {
		return ErrNoAPIKey
	}
	return nil
}
