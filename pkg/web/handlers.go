package web

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-voicebot/pkg/audio"
	"github.com/teslashibe/go-voicebot/pkg/voice"
)

const healthTimeout = 5 * time.Second

// TurnResponse is the JSON form of a finished turn.
type TurnResponse struct {
	ID         string             `json:"id"`
	Language   string             `json:"language"`
	Stage      voice.Stage        `json:"stage"`
	Transcript TranscriptResponse `json:"transcript"`
	Reply      ReplyResponse      `json:"reply"`
	Speech     SpeechResponse     `json:"speech"`
	Metrics    MetricsResponse    `json:"metrics"`
}

// TranscriptResponse describes the recognition stage.
type TranscriptResponse struct {
	Text       string  `json:"text"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ReplyResponse describes the generation stage.
type ReplyResponse struct {
	Text     string `json:"text"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Model    string `json:"model,omitempty"`
}

// SpeechResponse carries the synthesized audio as a data URI and an
// embeddable audio element.
type SpeechResponse struct {
	Status  string `json:"status"`
	MIME    string `json:"mime,omitempty"`
	DataURI string `json:"data_uri,omitempty"`
	HTML    string `json:"html,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// MetricsResponse holds stage latencies in milliseconds.
type MetricsResponse struct {
	TranscribeMS int64 `json:"transcribe_ms"`
	GenerateMS   int64 `json:"generate_ms"`
	SynthesizeMS int64 `json:"synthesize_ms"`
	TotalMS      int64 `json:"total_ms"`
}

func newMetricsResponse(m voice.Metrics) MetricsResponse {
	return MetricsResponse{
		TranscribeMS: m.ASRLatency.Milliseconds(),
		GenerateMS:   m.LLMLatency.Milliseconds(),
		SynthesizeMS: m.TTSLatency.Milliseconds(),
		TotalMS:      m.TotalLatency.Milliseconds(),
	}
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewTurnResponse converts a turn for the wire.
func NewTurnResponse(t voice.Turn) TurnResponse {
	return TurnResponse{
		ID:       t.ID,
		Language: t.Language.String(),
		Stage:    t.Stage,
		Transcript: TranscriptResponse{
			Text:       t.Transcript.Text,
			Status:     t.Transcript.Status.String(),
			Confidence: t.Transcript.Confidence,
		},
		Reply: ReplyResponse{
			Text:     t.Reply.Text,
			Status:   t.Reply.Status.String(),
			Attempts: t.Reply.Attempts,
			Model:    t.Reply.Model,
		},
		Speech: SpeechResponse{
			Status:  t.Speech.Status.String(),
			MIME:    t.Speech.MIME,
			DataURI: t.Speech.DataURI(),
			HTML:    t.Speech.HTML(),
			Reason:  t.Speech.Reason,
		},
		Metrics: newMetricsResponse(t.Metrics),
	}
}

// handleHealth reports each configured backend check.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(s.config.Checks))
	for name, check := range s.config.Checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", "backend", name, "error", err)
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":        status,
		"language":      s.pipeline.Language().String(),
		"checks":        checks,
		"active_turns":  len(s.sem),
		"event_clients": s.events.ClientCount(),
		"turns":         s.pipeline.Collector().Turns(),
		"average":       newMetricsResponse(s.pipeline.Metrics()),
	})
}

// handleTurn runs one turn from a raw audio body or a multipart "audio" field.
func (s *Server) handleTurn(c *fiber.Ctx) error {
	data, err := readUtterance(c)
	if err != nil {
		s.reject()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	if len(data) == 0 {
		s.reject()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "request carries no audio"})
	}

	if !s.acquire() {
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "a turn is already in progress"})
	}
	defer s.release()

	turn := s.pipeline.RunTurn(c.UserContext(), audio.NewUtterance(data))
	return c.JSON(NewTurnResponse(turn))
}

func readUtterance(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}

	header, err := c.FormFile("audio")
	if err != nil {
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleTurnsWS runs one turn per binary frame and answers with a
// TurnResponse. Text frames are rejected.
func (s *Server) handleTurnsWS(c *websocket.Conn) {
	c.SetReadLimit(int64(s.config.MaxUtteranceBytes))
	logger := s.logger.With("remote", c.RemoteAddr().String())
	logger.Debug("turn socket opened")

	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("turn socket closed", "error", err)
			return
		}

		var resp any
		switch {
		case mt != websocket.BinaryMessage:
			s.reject()
			resp = ErrorResponse{Error: "expected a binary audio frame"}
		case len(data) == 0:
			s.reject()
			resp = ErrorResponse{Error: "frame carries no audio"}
		case !s.acquire():
			resp = ErrorResponse{Error: "a turn is already in progress"}
		default:
			turn := s.pipeline.RunTurn(s.baseContext(), audio.NewUtterance(data))
			s.release()
			resp = NewTurnResponse(turn)
		}

		if err := c.WriteJSON(resp); err != nil {
			logger.Debug("turn socket write failed", "error", err)
			return
		}
	}
}
