// Package config loads the voicebot configuration once at startup.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// TTS provider names.
const (
	TTSTranslate = "translate"
	TTSGoogle    = "google"
	TTSChain     = "chain"
)

// Config is the complete voicebot configuration.
type Config struct {
	Language string        `yaml:"language"`
	Server   ServerConfig  `yaml:"server"`
	STT      STTConfig     `yaml:"stt"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	Retry    RetryConfig   `yaml:"retry"`
	TTS      TTSConfig     `yaml:"tts"`
	Logging  LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr               string   `yaml:"addr"`
	MaxConcurrentTurns int      `yaml:"max_concurrent_turns"`
	MaxUtteranceBytes  int      `yaml:"max_utterance_bytes"`
	CORSOrigins        []string `yaml:"cors_origins"`
}

// STTConfig configures Cloud Speech-to-Text.
type STTConfig struct {
	APIKey          string        `yaml:"api_key"`
	CredentialsFile string        `yaml:"credentials_file"`
	Endpoint        string        `yaml:"endpoint"`
	Model           string        `yaml:"model"`
	Timeout         time.Duration `yaml:"timeout"`
	UnclearText     string        `yaml:"unclear_text"`
	UnavailableText string        `yaml:"unavailable_text"`
}

// GeminiConfig configures the generative model.
type GeminiConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	FallbackModels []string      `yaml:"fallback_models"`
	Timeout        time.Duration `yaml:"timeout"`
	Apology        string        `yaml:"apology"`
}

// RetryConfig bounds generation attempts.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"api_key"`
	CredentialsFile string        `yaml:"credentials_file"`
	Endpoint        string        `yaml:"endpoint"`
	Voice           string        `yaml:"voice"`
	SpeakingRate    float64       `yaml:"speaking_rate"`
	TLD             string        `yaml:"tld"`
	Slow            bool          `yaml:"slow"`
	Timeout         time.Duration `yaml:"timeout"`
	TempDir         string        `yaml:"temp_dir"`
}

// LoggingConfig configures internal/log.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration: Urdu, gemini-1.5-flash,
// three attempts five seconds apart, Translate TTS.
func Default() *Config {
	return &Config{
		Language: "ur-PK",
		Server: ServerConfig{
			Addr:               ":8080",
			MaxConcurrentTurns: 1,
			MaxUtteranceBytes:  10 << 20,
		},
		STT: STTConfig{
			Model:   "default",
			Timeout: 30 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-1.5-flash",
			Timeout: 60 * time.Second,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  5 * time.Second,
		},
		TTS: TTSConfig{
			Provider:     TTSTranslate,
			SpeakingRate: 1.0,
			TLD:          "com",
			Timeout:      30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path is an optional YAML file; a missing
// .env file is ignored. The result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv() error {
	setString(&c.Language, "VOICEBOT_LANGUAGE")
	setString(&c.Server.Addr, "VOICEBOT_ADDR")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.TTS.Provider, "VOICEBOT_TTS_PROVIDER")
	setString(&c.TTS.Voice, "VOICEBOT_TTS_VOICE")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.STT.APIKey = key
		c.TTS.APIKey = key
	}
	if file := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); file != "" {
		c.STT.CredentialsFile = file
		c.TTS.CredentialsFile = file
	}
	if v := os.Getenv("GEMINI_FALLBACK_MODELS"); v != "" {
		c.Gemini.FallbackModels = splitList(v)
	}

	if v := os.Getenv("VOICEBOT_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VOICEBOT_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("VOICEBOT_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VOICEBOT_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("VOICEBOT_MAX_CONCURRENT_TURNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VOICEBOT_MAX_CONCURRENT_TURNS: %w", err)
		}
		c.Server.MaxConcurrentTurns = n
	}

	return nil
}

// Validate checks that every required value is present and well formed.
func (c *Config) Validate() error {
	if _, err := c.LanguageTag(); err != nil {
		return err
	}

	if c.Gemini.APIKey == "" {
		return errors.New("gemini api_key is required (GEMINI_API_KEY)")
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini model cannot be empty")
	}

	if c.STT.APIKey == "" && c.STT.CredentialsFile == "" {
		return errors.New("stt requires api_key or credentials_file (GOOGLE_API_KEY or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.Backoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative, got %s", c.Retry.Backoff)
	}

	switch c.TTS.Provider {
	case TTSTranslate:
	case TTSGoogle, TTSChain:
		if c.TTS.APIKey == "" && c.TTS.CredentialsFile == "" {
			return fmt.Errorf("tts provider %q requires api_key or credentials_file", c.TTS.Provider)
		}
	default:
		return fmt.Errorf("tts provider must be one of [translate, google, chain], got %q", c.TTS.Provider)
	}

	if c.Server.MaxConcurrentTurns < 1 {
		return fmt.Errorf("max_concurrent_turns must be at least 1, got %d", c.Server.MaxConcurrentTurns)
	}
	if c.Server.MaxUtteranceBytes < 1 {
		return fmt.Errorf("max_utterance_bytes must be positive, got %d", c.Server.MaxUtteranceBytes)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("log level must be one of [debug, info, warn, error], got %q", c.Logging.Level)
	}

	return nil
}

// LanguageTag parses Language as a BCP 47 tag.
func (c *Config) LanguageTag() (language.Tag, error) {
	if c.Language == "" {
		return language.Und, errors.New("language cannot be empty")
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", c.Language, err)
	}
	return tag, nil
}

// ReadCredentials returns the contents of a service-account key file, or nil
// when path is empty.
func ReadCredentials(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}
	return data, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
