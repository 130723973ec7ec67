// voicebot: spoken question in, spoken answer out.
// Serves the voice pipeline over HTTP and websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-voicebot/internal/config"
	"github.com/teslashibe/go-voicebot/internal/log"
	"github.com/teslashibe/go-voicebot/internal/metrics"
	"github.com/teslashibe/go-voicebot/pkg/inference"
	"github.com/teslashibe/go-voicebot/pkg/stt"
	"github.com/teslashibe/go-voicebot/pkg/tts"
	"github.com/teslashibe/go-voicebot/pkg/voice"
	"github.com/teslashibe/go-voicebot/pkg/web"
)

var (
	version    = "0.1.0"
	configPath = flag.String("config", "", "Path to a YAML config file")
	addr       = flag.String("addr", "", "Listen address (overrides config)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "voicebot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}

	log.InitWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	logger := log.L()
	logger.Info("starting voicebot", "version", version, "language", cfg.Language)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang, err := cfg.LanguageTag()
	if err != nil {
		return err
	}

	transcriber, recognizer, err := newTranscriber(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	generator, model, gemini, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer model.Close()

	speaker, provider, err := newSpeaker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	m := metrics.New()

	vcfg := voice.DefaultConfig()
	vcfg.Language = lang
	vcfg.Retry = inference.RetryPolicy{Attempts: cfg.Retry.Attempts, Backoff: cfg.Retry.Backoff}
	vcfg.Recorder = m
	vcfg.Logger = logger

	pipeline, err := voice.NewPipeline(transcriber, generator, speaker, vcfg)
	if err != nil {
		return err
	}

	server, err := web.NewServer(pipeline, web.Config{
		Addr:               cfg.Server.Addr,
		MaxConcurrentTurns: cfg.Server.MaxConcurrentTurns,
		MaxUtteranceBytes:  cfg.Server.MaxUtteranceBytes,
		CORSOrigins:        cfg.Server.CORSOrigins,
		Metrics:            m,
		Checks: map[string]web.HealthCheck{
			"stt":    recognizer.Health,
			"gemini": gemini.Health,
			"tts":    provider.Health,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	return nil
}

func newTranscriber(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stt.Transcriber, *stt.Google, error) {
	creds, err := config.ReadCredentials(cfg.STT.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}

	opts := []stt.Option{
		stt.WithAPIKey(cfg.STT.APIKey),
		stt.WithCredentialsJSON(creds),
		stt.WithModel(cfg.STT.Model),
		stt.WithTimeout(cfg.STT.Timeout),
		stt.WithSentinels(cfg.STT.UnclearText, cfg.STT.UnavailableText),
		stt.WithLogger(logger),
	}
	if cfg.STT.Endpoint != "" {
		opts = append(opts, stt.WithEndpoint(cfg.STT.Endpoint))
	}

	recognizer, err := stt.NewGoogle(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("speech recognition: %w", err)
	}
	return stt.NewTranscriber(recognizer, opts...), recognizer, nil
}

// newGenerator also returns the primary Gemini model for health checks.
func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*inference.ResponseGenerator, inference.Model, *inference.Gemini, error) {
	names := append([]string{cfg.Gemini.Model}, cfg.Gemini.FallbackModels...)

	var primary *inference.Gemini
	models := make([]inference.Model, 0, len(names))
	for _, name := range names {
		opts := []inference.Option{
			inference.WithAPIKey(cfg.Gemini.APIKey),
			inference.WithModel(name),
			inference.WithLogger(logger),
		}
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, inference.WithBaseURL(cfg.Gemini.BaseURL))
		}
		g, err := inference.NewGemini(ctx, opts...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("gemini %s: %w", name, err)
		}
		if primary == nil {
			primary = g
		}
		models = append(models, g)
	}

	var model inference.Model = models[0]
	if len(models) > 1 {
		chain, err := inference.NewChainWithLogger(logger, models...)
		if err != nil {
			return nil, nil, nil, err
		}
		model = chain
	}

	genOpts := []inference.Option{
		inference.WithTimeout(cfg.Gemini.Timeout),
		inference.WithLogger(logger),
	}
	if cfg.Gemini.Apology != "" {
		genOpts = append(genOpts, inference.WithApology(cfg.Gemini.Apology))
	}
	return inference.NewResponseGenerator(model, genOpts...), model, primary, nil
}

func newSpeaker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tts.Speaker, tts.Provider, error) {
	creds, err := config.ReadCredentials(cfg.TTS.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}

	opts := []tts.Option{
		tts.WithAPIKey(cfg.TTS.APIKey),
		tts.WithCredentialsJSON(creds),
		tts.WithVoice(cfg.TTS.Voice),
		tts.WithSpeakingRate(cfg.TTS.SpeakingRate),
		tts.WithSlow(cfg.TTS.Slow),
		tts.WithTimeout(cfg.TTS.Timeout),
		tts.WithTempDir(cfg.TTS.TempDir),
		tts.WithLogger(logger),
	}
	if cfg.TTS.TLD != "" {
		opts = append(opts, tts.WithTLD(cfg.TTS.TLD))
	}

	translate, err := tts.NewTranslate(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("translate tts: %w", err)
	}

	var provider tts.Provider
	switch cfg.TTS.Provider {
	case config.TTSTranslate:
		provider = translate
	case config.TTSGoogle, config.TTSChain:
		cloudOpts := opts
		if cfg.TTS.Endpoint != "" {
			cloudOpts = append(cloudOpts, tts.WithBaseURL(cfg.TTS.Endpoint))
		}
		cloud, err := tts.NewGoogleCloud(ctx, cloudOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("cloud tts: %w", err)
		}
		if cfg.TTS.Provider == config.TTSGoogle {
			provider = cloud
			break
		}
		provider, err = tts.NewChainWithLogger(logger, cloud, translate)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.New("unknown tts provider " + cfg.TTS.Provider)
	}

	return tts.NewSpeaker(provider, opts...), provider, nil
}
