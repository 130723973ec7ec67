package voice

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/teslashibe/go-voicebot/internal/log"
	"github.com/teslashibe/go-voicebot/pkg/audio"
	"github.com/teslashibe/go-voicebot/pkg/inference"
	"github.com/teslashibe/go-voicebot/pkg/stt"
	"github.com/teslashibe/go-voicebot/pkg/tts"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

type harness struct {
	recognizer *stt.Mock
	model      *inference.Mock
	provider   *tts.Mock
	tempDir    string
	pipeline   *Pipeline
}

func newHarness(t *testing.T, recognizer *stt.Mock, model *inference.Mock, provider *tts.Mock) *harness {
	t.Helper()
	logger := log.Discard()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Retry = inference.RetryPolicy{Attempts: 3, Backoff: 0}
	cfg.Logger = logger

	p, err := NewPipeline(
		stt.NewTranscriber(recognizer, stt.WithLogger(logger)),
		inference.NewResponseGenerator(model, inference.WithLogger(logger)).WithSleep(noSleep),
		tts.NewSpeaker(provider, tts.WithTempDir(dir), tts.WithLogger(logger)),
		cfg,
	)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	return &harness{
		recognizer: recognizer,
		model:      model,
		provider:   provider,
		tempDir:    dir,
		pipeline:   p,
	}
}

func (h *harness) stages() (*[]Stage, *sync.Mutex) {
	var mu sync.Mutex
	var seen []Stage
	h.pipeline.OnEvent(func(ev Event) {
		mu.Lock()
		seen = append(seen, ev.Stage)
		mu.Unlock()
	})
	return &seen, &mu
}

func assertStages(t *testing.T, got []Stage) {
	t.Helper()
	want := []Stage{StageCaptured, StageTranscribed, StageResponded, StageSpoken, StageDone}
	if len(got) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func silence() audio.Utterance {
	return audio.NewUtterance(audio.Silence(500, 16000))
}

func TestRunTurnRecognized(t *testing.T) {
	h := newHarness(t,
		stt.NewMock("پاکستان کا دارالحکومت کیا ہے؟"),
		inference.NewMock("اسلام آباد پاکستان کا دارالحکومت ہے۔"),
		tts.NewMock(),
	)
	seen, _ := h.stages()

	turn := h.pipeline.RunTurn(context.Background(), silence())

	if turn.ID == "" {
		t.Error("expected turn id")
	}
	if !turn.Transcript.OK() || !turn.Reply.OK() || !turn.Speech.OK() {
		t.Fatalf("expected a clean turn, got %s/%s/%s",
			turn.Transcript.Status, turn.Reply.Status, turn.Speech.Status)
	}
	if turn.Stage != StageDone {
		t.Errorf("expected DONE, got %s", turn.Stage)
	}
	if turn.Language != DefaultLanguage {
		t.Errorf("expected %s, got %s", DefaultLanguage, turn.Language)
	}
	assertStages(t, *seen)

	if turn.Metrics.TotalLatency <= 0 || turn.Metrics.Attempts != 1 {
		t.Errorf("unexpected metrics: %+v", turn.Metrics)
	}
	if h.pipeline.Collector().Turns() != 1 {
		t.Errorf("expected 1 recorded turn, got %d", h.pipeline.Collector().Turns())
	}
}

// Silence is not recognizable speech: the unclear sentinel is still asked
// to the model and the answer is spoken.
func TestRunTurnSilence(t *testing.T) {
	model := inference.NewMock("معاف کیجیے، میں آپ کی بات نہیں سمجھ سکا")
	h := newHarness(t, stt.WithError(stt.WrapError("mock", stt.ErrNoSpeech)), model, tts.NewMock())
	seen, _ := h.stages()

	turn := h.pipeline.RunTurn(context.Background(), silence())

	if turn.Transcript.Status != stt.StatusUnclear {
		t.Fatalf("expected unclear transcript, got %s", turn.Transcript.Status)
	}
	if turn.Transcript.Text != stt.DefaultUnclearText {
		t.Errorf("unexpected sentinel text %q", turn.Transcript.Text)
	}
	if model.CallCount("Generate") != 1 {
		t.Fatal("sentinel transcript must reach the model")
	}
	if !strings.Contains(model.Calls()[0].Prompt, stt.DefaultUnclearText) {
		t.Error("model prompt does not contain the sentinel transcript")
	}
	if !turn.Reply.OK() {
		t.Errorf("expected model reply, got %s", turn.Reply.Status)
	}
	if !turn.Speech.OK() || len(turn.Speech.Audio) == 0 {
		t.Errorf("expected spoken reply, got %s (%s)", turn.Speech.Status, turn.Speech.Reason)
	}
	assertStages(t, *seen)
}

// Recognition and synthesis both down: the turn still finishes.
func TestRunTurnRecognitionUnavailable(t *testing.T) {
	h := newHarness(t,
		stt.WithError(errors.New("dial tcp: connection refused")),
		inference.NewMock("جواب"),
		tts.WithError(errors.New("tts down")),
	)
	seen, _ := h.stages()

	turn := h.pipeline.RunTurn(context.Background(), silence())

	if turn.Transcript.Status != stt.StatusUnavailable {
		t.Fatalf("expected unavailable transcript, got %s", turn.Transcript.Status)
	}
	if turn.Transcript.Text != stt.DefaultUnavailableText {
		t.Errorf("unexpected sentinel text %q", turn.Transcript.Text)
	}
	if turn.Reply.Text == "" {
		t.Error("expected a reply")
	}
	if turn.Speech.Status != tts.SpeechNoAudio || turn.Speech.Reason == "" {
		t.Errorf("expected NoAudio with a reason, got %+v", turn.Speech)
	}
	if turn.Stage != StageDone {
		t.Errorf("expected DONE, got %s", turn.Stage)
	}
	assertStages(t, *seen)
}

// The model fails every attempt: exactly three calls, then the apology is spoken.
func TestRunTurnGenerationExhausted(t *testing.T) {
	model := inference.WithError(errors.New("503 unavailable"))
	provider := tts.NewMock()
	h := newHarness(t, stt.NewMock("سوال"), model, provider)

	turn := h.pipeline.RunTurn(context.Background(), silence())

	if model.CallCount("Generate") != 3 {
		t.Errorf("expected exactly 3 model calls, got %d", model.CallCount("Generate"))
	}
	if turn.Reply.Status != inference.ReplyExhausted {
		t.Fatalf("expected exhausted reply, got %s", turn.Reply.Status)
	}
	if turn.Reply.Text != inference.DefaultApology {
		t.Errorf("expected apology verbatim, got %q", turn.Reply.Text)
	}
	if turn.Metrics.Attempts != 3 {
		t.Errorf("expected 3 attempts in metrics, got %d", turn.Metrics.Attempts)
	}
	calls := provider.Calls()
	if len(calls) != 1 || calls[0].Text != inference.DefaultApology {
		t.Errorf("expected the apology to be spoken, got %+v", calls)
	}
}

func TestRunTurnUndecodableAudio(t *testing.T) {
	recognizer := stt.NewMock("unused")
	h := newHarness(t, recognizer, inference.NewMock("جواب"), tts.NewMock())

	turn := h.pipeline.RunTurn(context.Background(), audio.NewUtterance([]byte("not audio at all")))

	if turn.Transcript.Status != stt.StatusUnclear {
		t.Errorf("expected unclear transcript, got %s", turn.Transcript.Status)
	}
	if recognizer.CallCount("Recognize") != 0 {
		t.Error("undecodable audio should not reach the recognizer")
	}
	if turn.Stage != StageDone {
		t.Errorf("expected DONE, got %s", turn.Stage)
	}
}

func TestRunTurnLeavesNoTempFiles(t *testing.T) {
	h := newHarness(t, stt.NewMock("سوال"), inference.NewMock("جواب"), tts.NewMock())

	for i := 0; i < 5; i++ {
		h.pipeline.RunTurn(context.Background(), silence())
	}

	entries, err := os.ReadDir(h.tempDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover files, got %d", len(entries))
	}
}

type recorder struct {
	mu    sync.Mutex
	turns []Turn
}

func (r *recorder) RecordTurn(t Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, t)
}

func TestRunTurnRecorder(t *testing.T) {
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.Recorder = rec
	cfg.Logger = log.Discard()

	p, err := NewPipeline(
		stt.NewTranscriber(stt.NewMock("سوال"), stt.WithLogger(log.Discard())),
		inference.NewResponseGenerator(inference.NewMock("جواب"), inference.WithLogger(log.Discard())),
		tts.NewSpeaker(tts.NewMock(), tts.WithLogger(log.Discard())),
		cfg,
	)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	turn := p.RunTurn(context.Background(), silence())

	if len(rec.turns) != 1 || rec.turns[0].ID != turn.ID {
		t.Errorf("recorder did not receive the turn: %+v", rec.turns)
	}
}

func TestEventText(t *testing.T) {
	h := newHarness(t, stt.NewMock("سوال"), inference.NewMock("جواب"), tts.NewMock())

	texts := map[Stage]string{}
	h.pipeline.OnEvent(func(ev Event) { texts[ev.Stage] = ev.Text })

	h.pipeline.RunTurn(context.Background(), silence())

	if texts[StageTranscribed] != "سوال" {
		t.Errorf("transcribed event text = %q", texts[StageTranscribed])
	}
	if texts[StageResponded] != "جواب" {
		t.Errorf("responded event text = %q", texts[StageResponded])
	}
}

func TestNewPipelineValidation(t *testing.T) {
	tr := stt.NewTranscriber(stt.NewMock("x"))
	gen := inference.NewResponseGenerator(inference.NewMock("y"))
	sp := tts.NewSpeaker(tts.NewMock())

	tests := []struct {
		name    string
		build   func() (*Pipeline, error)
		wantErr bool
	}{
		{"valid", func() (*Pipeline, error) { return NewPipeline(tr, gen, sp, DefaultConfig()) }, false},
		{"missing speaker", func() (*Pipeline, error) { return NewPipeline(tr, gen, nil, DefaultConfig()) }, true},
		{"undefined language", func() (*Pipeline, error) {
			cfg := DefaultConfig()
			cfg.Language = language.Und
			return NewPipeline(tr, gen, sp, cfg)
		}, true},
		{"no attempts", func() (*Pipeline, error) {
			cfg := DefaultConfig()
			cfg.Retry.Attempts = 0
			return NewPipeline(tr, gen, sp, cfg)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPipeline() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStageString(t *testing.T) {
	if StageSpoken.String() != "SPOKEN" {
		t.Errorf("unexpected %s", StageSpoken)
	}
	if Stage(42).String() != "UNKNOWN" {
		t.Errorf("unexpected %s", Stage(42))
	}
	b, _ := StageDone.MarshalText()
	if string(b) != "DONE" {
		t.Errorf("unexpected %s", b)
	}

	var s Stage
	if err := s.UnmarshalText([]byte("RESPONDED")); err != nil || s != StageResponded {
		t.Errorf("UnmarshalText = %s, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("LOST")); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestMetricsCollectorAverage(t *testing.T) {
	c := NewMetricsCollector(2)
	c.Record(Metrics{TotalLatency: 100 * time.Millisecond, Attempts: 1})
	c.Record(Metrics{TotalLatency: 200 * time.Millisecond, Attempts: 3})
	c.Record(Metrics{TotalLatency: 400 * time.Millisecond, Attempts: 1})

	avg := c.Average()
	if avg.TotalLatency != 300*time.Millisecond {
		t.Errorf("expected 300ms over the last two turns, got %s", avg.TotalLatency)
	}
	if avg.Attempts != 2 {
		t.Errorf("expected 2 average attempts, got %d", avg.Attempts)
	}
	if c.Turns() != 3 {
		t.Errorf("expected 3 turns, got %d", c.Turns())
	}
	if c.Last().TotalLatency != 400*time.Millisecond {
		t.Errorf("unexpected last turn %+v", c.Last())
	}
}

func TestFormatLatency(t *testing.T) {
	m := Metrics{ASRLatency: 120 * time.Millisecond}
	got := m.FormatLatency()
	if !strings.HasPrefix(got, "120ms ASR") || !strings.Contains(got, "---ms TOTAL") {
		t.Errorf("unexpected format %q", got)
	}
}
