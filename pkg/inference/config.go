package inference

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultApology is returned verbatim once every attempt has failed. It is
// Urdu to match the default language; set Apology when serving another.
const DefaultApology = "معذرت، میں ابھی جواب نہیں دے سکتا۔ براہ کرم دوبارہ کوشش کریں۔"

// Config holds provider and generator configuration.
type Config struct {
	// Connection
	BaseURL    string // API base URL override
	APIKey     string
	HTTPClient *http.Client

	// Model
	Model string

	// Apology is the reply after exhausted retries.
	Apology string

	// Timeout bounds a single attempt; zero leaves the caller's context untouched.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers and the generator.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithApology overrides the exhausted-retries reply.
func WithApology(text string) Option {
	return func(c *Config) {
		if text != "" {
			c.Apology = text
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults for Gemini.
func DefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		Apology: DefaultApology,
		Timeout: 60 * time.Second,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Model == "" {
		return ErrNoModel
	}
	return nil
}
