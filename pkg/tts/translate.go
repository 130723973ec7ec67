package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/teslashibe/go-voicebot/internal/httpc"
)

const (
	providerTranslate = "translate"

	// MaxChunkRunes is the longest text the Translate endpoint accepts per request.
	MaxChunkRunes = 100
)

// Translate implements Provider with the Google Translate speech endpoint.
// It needs no credentials and always returns MP3.
type Translate struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewTranslate creates a Translate speech provider.
func NewTranslate(opts ...Option) (*Translate, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	cfg.OutputFormat = EncodingMP3

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://translate.google.%s/translate_tts", cfg.TLD)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &Translate{
		config:  cfg,
		client:  client,
		logger:  cfg.Logger.With("component", "tts.translate"),
		baseURL: baseURL,
	}, nil
}

// Synthesize splits text into chunks of at most MaxChunkRunes and
// concatenates the MP3 segments in order.
func (t *Translate) Synthesize(ctx context.Context, text string, lang language.Tag) (*AudioResult, error) {
	start := time.Now()

	chunks := SplitText(text, MaxChunkRunes)
	if len(chunks) == 0 {
		return nil, WrapError(providerTranslate, ErrEmptyText)
	}

	var buf bytes.Buffer
	for i, chunk := range chunks {
		if err := t.fetch(ctx, &buf, chunk, lang, i, len(chunks)); err != nil {
			return nil, err
		}
	}

	if buf.Len() == 0 {
		return nil, WrapError(providerTranslate, ErrEmptyAudio)
	}

	latency := time.Since(start).Milliseconds()
	t.logger.Debug("synthesized audio",
		"chars", utf8.RuneCountInString(text),
		"chunks", len(chunks),
		"bytes", buf.Len(),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio:     buf.Bytes(),
		Format:    AudioFormat{Encoding: EncodingMP3, SampleRate: 24000, Channels: 1},
		CharCount: utf8.RuneCountInString(text),
		LatencyMs: latency,
	}, nil
}

// fetch requests one chunk and appends its audio to w.
func (t *Translate) fetch(ctx context.Context, w io.Writer, chunk string, lang language.Tag, idx, total int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.requestURL(chunk, lang, idx, total), nil)
	if err != nil {
		return WrapError(providerTranslate, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := t.client.Do(req)
	if err != nil {
		return WrapError(providerTranslate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Provider:   providerTranslate,
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return WrapError(providerTranslate, fmt.Errorf("read chunk %d: %w", idx, err))
	}
	return nil
}

func (t *Translate) requestURL(chunk string, lang language.Tag, idx, total int) string {
	speed := "1"
	if t.config.Slow {
		speed = "0.3"
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", translateLang(lang))
	q.Set("q", chunk)
	q.Set("ttsspeed", speed)
	q.Set("idx", strconv.Itoa(idx))
	q.Set("total", strconv.Itoa(total))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))
	return t.baseURL + "?" + q.Encode()
}

// Health synthesizes a one-word phrase.
func (t *Translate) Health(ctx context.Context) error {
	var buf bytes.Buffer
	return t.fetch(ctx, &buf, "ok", language.English, 0, 1)
}

// Close releases idle connections.
func (t *Translate) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// translateLang returns the base language code, e.g. "ur" for ur-PK.
func translateLang(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// SplitText splits text on whitespace into chunks of at most max runes.
// Words longer than max are cut at rune boundaries.
func SplitText(text string, max int) []string {
	if max <= 0 {
		max = MaxChunkRunes
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)

		for n > max {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:max]))
			word = string(runes[max:])
			n -= max
		}
		if n == 0 {
			continue
		}

		if curLen > 0 && curLen+1+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()

	return chunks
}

// Verify Translate implements Provider at compile time.
var _ Provider = (*Translate)(nil)
