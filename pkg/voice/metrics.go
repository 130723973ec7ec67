package voice

import (
	"sync"
	"time"
)

// Metrics tracks latency at each stage of one turn.
// All durations are measured from the moment the utterance was captured.
type Metrics struct {
	// Timestamps for key events
	CaptureTime    time.Time
	TranscriptTime time.Time
	ReplyTime      time.Time
	SpeechTime     time.Time
	DoneTime       time.Time

	// Per-stage latencies
	ASRLatency   time.Duration
	LLMLatency   time.Duration
	TTSLatency   time.Duration
	TotalLatency time.Duration

	// Attempts is the number of generation calls made.
	Attempts int

	// AudioBytesIn and AudioBytesOut size the utterance and the synthesized reply.
	AudioBytesIn  int
	AudioBytesOut int
}

// stopwatch fills one Metrics value as the turn advances. It is owned by a
// single RunTurn call and needs no locking.
type stopwatch struct {
	m Metrics
}

func startStopwatch(bytesIn int) *stopwatch {
	return &stopwatch{m: Metrics{CaptureTime: time.Now(), AudioBytesIn: bytesIn}}
}

func (s *stopwatch) markTranscript() {
	s.m.TranscriptTime = time.Now()
	s.m.ASRLatency = s.m.TranscriptTime.Sub(s.m.CaptureTime)
}

func (s *stopwatch) markReply(attempts int) {
	s.m.ReplyTime = time.Now()
	s.m.LLMLatency = s.m.ReplyTime.Sub(s.m.TranscriptTime)
	s.m.Attempts = attempts
}

func (s *stopwatch) markSpeech(bytesOut int) {
	s.m.SpeechTime = time.Now()
	s.m.TTSLatency = s.m.SpeechTime.Sub(s.m.ReplyTime)
	s.m.AudioBytesOut = bytesOut
}

func (s *stopwatch) markDone() Metrics {
	s.m.DoneTime = time.Now()
	s.m.TotalLatency = s.m.DoneTime.Sub(s.m.CaptureTime)
	return s.m
}

// MetricsCollector keeps the metrics of recent turns.
// It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	last    Metrics
	history []Metrics
	size    int
	turns   int
}

// NewMetricsCollector creates a collector that averages over size turns.
func NewMetricsCollector(size int) *MetricsCollector {
	if size <= 0 {
		size = 100
	}
	return &MetricsCollector{
		history: make([]Metrics, 0, size),
		size:    size,
	}
}

// Record archives the metrics of a finished turn.
func (m *MetricsCollector) Record(metrics Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = metrics
	m.turns++
	m.history = append(m.history, metrics)
	if len(m.history) > m.size {
		m.history = m.history[1:]
	}
}

// Last returns the metrics of the most recent turn.
func (m *MetricsCollector) Last() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Turns returns the number of turns recorded since creation.
func (m *MetricsCollector) Turns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns
}

// Average returns average metrics over recent turns.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return Metrics{}
	}

	var avg Metrics
	for _, h := range m.history {
		avg.ASRLatency += h.ASRLatency
		avg.LLMLatency += h.LLMLatency
		avg.TTSLatency += h.TTSLatency
		avg.TotalLatency += h.TotalLatency
		avg.Attempts += h.Attempts
	}

	n := time.Duration(len(m.history))
	avg.ASRLatency /= n
	avg.LLMLatency /= n
	avg.TTSLatency /= n
	avg.TotalLatency /= n
	avg.Attempts /= len(m.history)

	return avg
}

// FormatLatency returns a formatted string of the stage latencies.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.ASRLatency) + " ASR | " +
		formatDuration(m.LLMLatency) + " LLM | " +
		formatDuration(m.TTSLatency) + " TTS | " +
		formatDuration(m.TotalLatency) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
