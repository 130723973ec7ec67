package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/teslashibe/go-voicebot/pkg/audio"
	"github.com/teslashibe/go-voicebot/pkg/inference"
	"github.com/teslashibe/go-voicebot/pkg/stt"
	"github.com/teslashibe/go-voicebot/pkg/tts"
)

// Transcriber is the recognition stage.
type Transcriber interface {
	Transcribe(ctx context.Context, u audio.Utterance, lang language.Tag) stt.Transcript
}

// Responder is the generation stage.
type Responder interface {
	Generate(ctx context.Context, transcript string, lang language.Tag, policy inference.RetryPolicy) inference.Reply
}

// Speaker is the synthesis stage.
type Speaker interface {
	Synthesize(ctx context.Context, text string, lang language.Tag) tts.SpeechArtifact
}

// TurnRecorder receives every finished turn, e.g. to export metrics.
type TurnRecorder interface {
	RecordTurn(t Turn)
}

// Turn is the full result of one question.
type Turn struct {
	ID         string
	Language   language.Tag
	Stage      Stage
	Transcript stt.Transcript
	Reply      inference.Reply
	Speech     tts.SpeechArtifact
	Metrics    Metrics
}

// Pipeline runs turns through the three stages.
type Pipeline struct {
	transcriber Transcriber
	responder   Responder
	speaker     Speaker

	config    Config
	collector *MetricsCollector
	logger    *slog.Logger

	mu        sync.RWMutex
	observers []func(Event)
}

// NewPipeline validates cfg and wires the stages. All three stages are required.
func NewPipeline(t Transcriber, r Responder, s Speaker, cfg Config) (*Pipeline, error) {
	if t == nil || r == nil || s == nil {
		return nil, ErrMissingStage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		transcriber: t,
		responder:   r,
		speaker:     s,
		config:      cfg,
		collector:   NewMetricsCollector(cfg.HistorySize),
		logger:      cfg.Logger.With("component", "voice.pipeline"),
	}, nil
}

// OnEvent registers an observer for stage transitions. Observers run
// synchronously on the turn's goroutine and must not block.
func (p *Pipeline) OnEvent(fn func(Event)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Language returns the turn language.
func (p *Pipeline) Language() language.Tag {
	return p.config.Language
}

// Metrics returns average metrics over recent turns.
func (p *Pipeline) Metrics() Metrics {
	return p.collector.Average()
}

// Collector exposes the metrics collector.
func (p *Pipeline) Collector() *MetricsCollector {
	return p.collector
}

// RunTurn drives one utterance to DONE. Sentinel values from any stage are
// passed on as ordinary input; the transcript is always sent to the model.
func (p *Pipeline) RunTurn(ctx context.Context, u audio.Utterance) Turn {
	lang := p.config.Language
	turn := Turn{
		ID:       uuid.NewString(),
		Language: lang,
	}
	logger := p.logger.With("turn_id", turn.ID)
	clock := startStopwatch(u.Len())

	p.advance(&turn, StageCaptured, u.String())

	turn.Transcript = p.transcriber.Transcribe(ctx, u, lang)
	clock.markTranscript()
	p.advance(&turn, StageTranscribed, turn.Transcript.Status.String())

	turn.Reply = p.responder.Generate(ctx, turn.Transcript.Text, lang, p.config.Retry)
	clock.markReply(turn.Reply.Attempts)
	p.advance(&turn, StageResponded, turn.Reply.Status.String())

	turn.Speech = p.speaker.Synthesize(ctx, turn.Reply.Text, lang)
	clock.markSpeech(len(turn.Speech.Audio))
	p.advance(&turn, StageSpoken, turn.Speech.Status.String())

	turn.Metrics = clock.markDone()
	p.collector.Record(turn.Metrics)
	if p.config.Recorder != nil {
		p.config.Recorder.RecordTurn(turn)
	}
	p.advance(&turn, StageDone, turn.Metrics.FormatLatency())

	logger.Info("turn complete",
		"transcript", turn.Transcript.Status.String(),
		"reply", turn.Reply.Status.String(),
		"attempts", turn.Reply.Attempts,
		"speech", turn.Speech.Status.String(),
		"total_ms", turn.Metrics.TotalLatency.Milliseconds(),
	)

	return turn
}

// advance moves turn to next and notifies observers.
func (p *Pipeline) advance(turn *Turn, next Stage, detail string) {
	turn.Stage = next

	p.mu.RLock()
	observers := p.observers
	p.mu.RUnlock()

	if len(observers) == 0 {
		return
	}

	ev := Event{
		TurnID: turn.ID,
		Stage:  next,
		Detail: detail,
		At:     time.Now(),
	}
	switch next {
	case StageTranscribed:
		ev.Text = turn.Transcript.Text
	case StageResponded:
		ev.Text = turn.Reply.Text
	}

	for _, fn := range observers {
		fn(ev)
	}
}
