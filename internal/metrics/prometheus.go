// Package metrics exports pipeline metrics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-voicebot/pkg/voice"
)

// Metrics contains all Prometheus metrics for the voicebot.
type Metrics struct {
	registry *prometheus.Registry

	// Turn metrics
	Turns         prometheus.Counter
	TurnDuration  prometheus.Histogram
	ActiveTurns   prometheus.Gauge
	RejectedTurns prometheus.Counter

	// Stage metrics
	StageDuration *prometheus.HistogramVec

	// Outcome metrics, labelled by status
	Transcripts *prometheus.CounterVec
	Replies     *prometheus.CounterVec
	Speech      *prometheus.CounterVec

	// Generation attempts per turn
	GenerationAttempts prometheus.Histogram

	// Audio sizes
	UtteranceBytes prometheus.Histogram
	SpeechBytes    prometheus.Histogram
}

// New creates the metrics on a private registry, so several instances
// can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Turns: f.NewCounter(prometheus.CounterOpts{
			Name: "voicebot_turns_total",
			Help: "Total number of turns completed",
		}),
		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebot_turn_duration_seconds",
			Help:    "End-to-end turn duration",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),
		ActiveTurns: f.NewGauge(prometheus.GaugeOpts{
			Name: "voicebot_active_turns",
			Help: "Turns currently in progress",
		}),
		RejectedTurns: f.NewCounter(prometheus.CounterOpts{
			Name: "voicebot_turns_rejected_total",
			Help: "Turns rejected because the server was busy or the request was invalid",
		}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicebot_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}, []string{"stage"}),

		Transcripts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebot_transcripts_total",
			Help: "Transcripts by status",
		}, []string{"status"}),
		Replies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebot_replies_total",
			Help: "Replies by status",
		}, []string{"status"}),
		Speech: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebot_speech_total",
			Help: "Speech artifacts by status",
		}, []string{"status"}),

		GenerationAttempts: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebot_generation_attempts",
			Help:    "Model calls made per turn",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		}),

		UtteranceBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebot_utterance_bytes",
			Help:    "Size of received utterances",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~8MB
		}),
		SpeechBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebot_speech_bytes",
			Help:    "Size of synthesized replies",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~2MB
		}),
	}
}

// RecordTurn implements voice.TurnRecorder.
func (m *Metrics) RecordTurn(t voice.Turn) {
	m.Turns.Inc()
	m.TurnDuration.Observe(t.Metrics.TotalLatency.Seconds())

	m.StageDuration.WithLabelValues("transcribe").Observe(t.Metrics.ASRLatency.Seconds())
	m.StageDuration.WithLabelValues("generate").Observe(t.Metrics.LLMLatency.Seconds())
	m.StageDuration.WithLabelValues("synthesize").Observe(t.Metrics.TTSLatency.Seconds())

	m.Transcripts.WithLabelValues(t.Transcript.Status.String()).Inc()
	m.Replies.WithLabelValues(t.Reply.Status.String()).Inc()
	m.Speech.WithLabelValues(t.Speech.Status.String()).Inc()

	m.GenerationAttempts.Observe(float64(t.Reply.Attempts))
	m.UtteranceBytes.Observe(float64(t.Metrics.AudioBytesIn))
	m.SpeechBytes.Observe(float64(t.Metrics.AudioBytesOut))
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Verify Metrics implements voice.TurnRecorder at compile time.
var _ voice.TurnRecorder = (*Metrics)(nil)
