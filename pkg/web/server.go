// Package web serves the voice pipeline over HTTP and websockets.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-voicebot/internal/metrics"
	"github.com/teslashibe/go-voicebot/pkg/hub"
	"github.com/teslashibe/go-voicebot/pkg/voice"
)

// ErrNoPipeline is returned by NewServer without a pipeline.
var ErrNoPipeline = errors.New("web: pipeline is required")

// HealthCheck tests one backend. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Config configures the server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxConcurrentTurns bounds turns in flight; extra requests get 429.
	MaxConcurrentTurns int

	// MaxUtteranceBytes caps request bodies and websocket frames.
	MaxUtteranceBytes int

	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string

	// Metrics, when set, is served on /metrics and tracks admission.
	Metrics *metrics.Metrics

	// Checks are reported by /api/health, keyed by backend name.
	Checks map[string]HealthCheck

	Logger *slog.Logger
}

// DefaultConfig returns a server config with one turn at a time.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		MaxConcurrentTurns: 1,
		MaxUtteranceBytes:  10 << 20,
	}
}

// Server is the HTTP adapter in front of a voice.Pipeline.
type Server struct {
	app      *fiber.App
	pipeline *voice.Pipeline
	events   *hub.Hub
	config   Config
	logger   *slog.Logger

	// sem holds one token per running turn.
	sem chan struct{}

	mu  sync.RWMutex
	ctx context.Context
}

// NewServer builds the routes and subscribes the event hub to the pipeline.
func NewServer(p *voice.Pipeline, cfg Config) (*Server, error) {
	if p == nil {
		return nil, ErrNoPipeline
	}
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.MaxConcurrentTurns < 1 {
		cfg.MaxConcurrentTurns = defaults.MaxConcurrentTurns
	}
	if cfg.MaxUtteranceBytes < 1 {
		cfg.MaxUtteranceBytes = defaults.MaxUtteranceBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		pipeline: p,
		events:   hub.New("events", cfg.Logger),
		config:   cfg,
		logger:   cfg.Logger.With("component", "web.server"),
		sem:      make(chan struct{}, cfg.MaxConcurrentTurns),
		ctx:      context.Background(),
	}

	p.OnEvent(func(ev voice.Event) {
		if err := s.events.BroadcastJSON(ev); err != nil {
			s.logger.Warn("failed to broadcast event", "error", err)
		}
	})

	app := fiber.New(fiber.Config{
		AppName:               "voicebot",
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxUtteranceBytes,
	})

	app.Use(recover.New())
	corsCfg := cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = strings.Join(cfg.CORSOrigins, ",")
	}
	app.Use(cors.New(corsCfg))

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/turns", s.handleTurn)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/turns", websocket.New(s.handleTurnsWS))
	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) {
		hub.Serve(s.events, c)
	}))

	s.app = app
	return s, nil
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Events returns the hub that fans pipeline events out to /ws/events.
func (s *Server) Events() *hub.Hub {
	return s.events
}

// Start runs the event hub and serves on the configured address until
// Shutdown is called. Turns started over websockets use ctx.
func (s *Server) Start(ctx context.Context) error {
	s.run(ctx)
	s.logger.Info("listening", "addr", s.config.Addr)
	return s.app.Listen(s.config.Addr)
}

// Serve is like Start but accepts connections on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.run(ctx)
	s.logger.Info("listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

func (s *Server) run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	go s.events.Run(ctx)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) baseContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// acquire takes a turn slot without waiting.
func (s *Server) acquire() bool {
	select {
	case s.sem <- struct{}{}:
		if m := s.config.Metrics; m != nil {
			m.ActiveTurns.Inc()
		}
		return true
	default:
		s.reject()
		return false
	}
}

func (s *Server) release() {
	<-s.sem
	if m := s.config.Metrics; m != nil {
		m.ActiveTurns.Dec()
	}
}

func (s *Server) reject() {
	if m := s.config.Metrics; m != nil {
		m.RejectedTurns.Inc()
	}
}
