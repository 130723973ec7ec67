package voice

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/teslashibe/go-voicebot/pkg/inference"
)

// DefaultLanguage is Urdu as spoken in Pakistan.
var DefaultLanguage = language.MustParse("ur-PK")

// Config holds the per-turn parameters shared by all stages.
type Config struct {
	// Language is used for recognition, the prompt and synthesis.
	Language language.Tag

	// Retry bounds the generation attempts of each turn.
	Retry inference.RetryPolicy

	// HistorySize is how many turns the metrics collector averages over.
	HistorySize int

	// Recorder, when set, receives every finished turn.
	Recorder TurnRecorder

	Logger *slog.Logger
}

// DefaultConfig returns Urdu with three attempts and a five second backoff.
func DefaultConfig() Config {
	return Config{
		Language:    DefaultLanguage,
		Retry:       inference.DefaultRetryPolicy(),
		HistorySize: 100,
		Logger:      slog.Default(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Language == language.Und {
		return errors.New("voice: language required")
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("voice: %w", err)
	}
	if c.HistorySize < 0 {
		return errors.New("voice: history size must not be negative")
	}
	return nil
}
