package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VOICEBOT_LANGUAGE", "VOICEBOT_ADDR", "GEMINI_API_KEY", "GEMINI_MODEL",
		"GEMINI_FALLBACK_MODELS", "GOOGLE_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS",
		"VOICEBOT_TTS_PROVIDER", "VOICEBOT_TTS_VOICE", "VOICEBOT_RETRY_ATTEMPTS",
		"VOICEBOT_RETRY_BACKOFF", "VOICEBOT_MAX_CONCURRENT_TURNS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voicebot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("GEMINI_FALLBACK_MODELS", "gemini-1.5-pro, gemini-1.0-pro")
	t.Setenv("VOICEBOT_RETRY_BACKOFF", "250ms")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.APIKey != "gemini-key" {
		t.Errorf("unexpected gemini key %q", cfg.Gemini.APIKey)
	}
	if cfg.STT.APIKey != "google-key" || cfg.TTS.APIKey != "google-key" {
		t.Error("GOOGLE_API_KEY should apply to stt and tts")
	}
	if len(cfg.Gemini.FallbackModels) != 2 || cfg.Gemini.FallbackModels[1] != "gemini-1.0-pro" {
		t.Errorf("unexpected fallback models %v", cfg.Gemini.FallbackModels)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Backoff != 250*time.Millisecond {
		t.Errorf("unexpected retry %+v", cfg.Retry)
	}

	tag, err := cfg.LanguageTag()
	if err != nil || tag != language.MustParse("ur-PK") {
		t.Errorf("expected ur-PK, got %s (%v)", tag, err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")

	path := writeFile(t, `
language: hi-IN
server:
  addr: ":9090"
  max_concurrent_turns: 4
stt:
  api_key: stt-key
  timeout: 10s
gemini:
  api_key: file-key
  model: gemini-1.5-pro
retry:
  attempts: 5
  backoff: 2s
tts:
  provider: chain
  api_key: tts-key
  voice: hi-IN-Standard-A
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("environment should override the file, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Errorf("unexpected model %q", cfg.Gemini.Model)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.MaxConcurrentTurns != 4 {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if cfg.STT.Timeout != 10*time.Second {
		t.Errorf("unexpected stt timeout %s", cfg.STT.Timeout)
	}
	if cfg.Retry.Attempts != 5 || cfg.Retry.Backoff != 2*time.Second {
		t.Errorf("unexpected retry %+v", cfg.Retry)
	}
	if cfg.TTS.Provider != TTSChain || cfg.TTS.Voice != "hi-IN-Standard-A" {
		t.Errorf("unexpected tts %+v", cfg.TTS)
	}
	// Defaults survive for keys the file omits.
	if cfg.TTS.TLD != "com" || cfg.Server.MaxUtteranceBytes != 10<<20 {
		t.Errorf("defaults lost: %+v %+v", cfg.TTS, cfg.Server)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GOOGLE_API_KEY", "k")
	t.Setenv("VOICEBOT_RETRY_ATTEMPTS", "three")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "VOICEBOT_RETRY_ATTEMPTS") {
		t.Errorf("expected retry attempts error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Gemini.APIKey = "k"
		cfg.STT.APIKey = "k"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing gemini key", func(c *Config) { c.Gemini.APIKey = "" }, "GEMINI_API_KEY"},
		{"bad language", func(c *Config) { c.Language = "not a tag!" }, "invalid language"},
		{"empty language", func(c *Config) { c.Language = "" }, "language cannot be empty"},
		{"missing stt credentials", func(c *Config) { c.STT.APIKey = "" }, "stt requires"},
		{"zero attempts", func(c *Config) { c.Retry.Attempts = 0 }, "attempts"},
		{"negative backoff", func(c *Config) { c.Retry.Backoff = -time.Second }, "backoff"},
		{"unknown tts", func(c *Config) { c.TTS.Provider = "espeak" }, "tts provider"},
		{"google tts without key", func(c *Config) { c.TTS.Provider = TTSGoogle }, "requires api_key"},
		{"no concurrency", func(c *Config) { c.Server.MaxConcurrentTurns = 0 }, "max_concurrent_turns"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReadCredentials(t *testing.T) {
	data, err := ReadCredentials("")
	if err != nil || data != nil {
		t.Errorf("empty path should return nil, got %v %v", data, err)
	}

	path := writeFile(t, `{"type": "service_account"}`)
	data, err = ReadCredentials(path)
	if err != nil || !strings.Contains(string(data), "service_account") {
		t.Errorf("unexpected result %q %v", data, err)
	}
}
