package tts_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/teslashibe/go-voicebot/internal/log"
	"github.com/teslashibe/go-voicebot/pkg/tts"
)

var urdu = language.MustParse("ur-PK")

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover files, found %d (first: %s)", len(entries), entries[0].Name())
	}
}

func TestSpeakerSynthesize(t *testing.T) {
	dir := t.TempDir()
	mock := tts.NewMock()
	speaker := tts.NewSpeaker(mock, tts.WithTempDir(dir), tts.WithLogger(log.Discard()))

	text := "خوش آمدید، آپ کا دن اچھا گزرے"
	artifact := speaker.Synthesize(context.Background(), text, urdu)

	if !artifact.OK() {
		t.Fatalf("expected spoken artifact, got %s: %s", artifact.Status, artifact.Reason)
	}
	if artifact.MIME != "audio/mp3" {
		t.Errorf("expected audio/mp3, got %s", artifact.MIME)
	}

	decoded, err := base64.StdEncoding.DecodeString(artifact.Base64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if string(decoded) != string(tts.MockAudio(text)) {
		t.Error("base64 payload does not round trip to the synthesized audio")
	}

	if !strings.HasPrefix(artifact.DataURI(), "data:audio/mp3;base64,") {
		t.Errorf("unexpected data URI prefix: %.40s", artifact.DataURI())
	}
	html := artifact.HTML()
	if !strings.HasPrefix(html, "<audio controls autoplay>") || !strings.Contains(html, artifact.DataURI()) {
		t.Errorf("unexpected HTML snippet: %.80s", html)
	}

	calls := mock.Calls()
	if len(calls) != 1 || calls[0].Language != urdu {
		t.Errorf("expected one Urdu synthesis call, got %+v", calls)
	}

	assertEmptyDir(t, dir)
}

func TestSpeakerEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		mock := tts.NewMock()
		speaker := tts.NewSpeaker(mock, tts.WithLogger(log.Discard()))

		artifact := speaker.Synthesize(context.Background(), text, urdu)

		if artifact.Status != tts.SpeechNoAudio {
			t.Errorf("%q: expected NoAudio, got %s", text, artifact.Status)
		}
		if mock.CallCount("Synthesize") != 0 {
			t.Errorf("%q: backend should not be called", text)
		}
		if artifact.DataURI() != "" || artifact.HTML() != "" {
			t.Errorf("%q: NoAudio should render nothing", text)
		}
	}
}

func TestSpeakerBackendFailure(t *testing.T) {
	dir := t.TempDir()
	mock := tts.WithError(errors.New("connection refused"))
	speaker := tts.NewSpeaker(mock, tts.WithTempDir(dir), tts.WithLogger(log.Discard()))

	artifact := speaker.Synthesize(context.Background(), "جواب", urdu)

	if artifact.Status != tts.SpeechNoAudio {
		t.Fatalf("expected NoAudio, got %s", artifact.Status)
	}
	if !strings.Contains(artifact.Reason, "connection refused") {
		t.Errorf("reason should describe the failure, got %q", artifact.Reason)
	}
	if mock.CallCount("Synthesize") != 1 {
		t.Errorf("expected a single attempt, got %d", mock.CallCount("Synthesize"))
	}
	assertEmptyDir(t, dir)
}

func TestSpeakerEmptyAudio(t *testing.T) {
	mock := tts.NewMock()
	mock.SynthesizeFunc = func(ctx context.Context, text string, lang language.Tag) (*tts.AudioResult, error) {
		return &tts.AudioResult{Format: tts.AudioFormat{Encoding: tts.EncodingMP3}}, nil
	}

	artifact := tts.NewSpeaker(mock, tts.WithLogger(log.Discard())).Synthesize(context.Background(), "جواب", urdu)
	if artifact.Status != tts.SpeechNoAudio {
		t.Errorf("expected NoAudio for empty audio, got %s", artifact.Status)
	}
}

func TestSpeakerUnwritableTempDir(t *testing.T) {
	missing := t.TempDir() + "/does-not-exist"
	speaker := tts.NewSpeaker(tts.NewMock(), tts.WithTempDir(missing), tts.WithLogger(log.Discard()))

	artifact := speaker.Synthesize(context.Background(), "جواب", urdu)
	if artifact.Status != tts.SpeechNoAudio {
		t.Errorf("expected NoAudio when spooling fails, got %s", artifact.Status)
	}
}

func TestSpeakerRepeatedLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	speaker := tts.NewSpeaker(tts.NewMock(), tts.WithTempDir(dir), tts.WithLogger(log.Discard()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a := speaker.Synthesize(context.Background(), "سلام", urdu); !a.OK() {
				t.Errorf("synthesis failed: %s", a.Reason)
			}
		}()
	}
	wg.Wait()

	assertEmptyDir(t, dir)
}

func TestSpeakerTimeout(t *testing.T) {
	mock := tts.WithLatency(tts.NewMock(), time.Second)
	speaker := tts.NewSpeaker(mock, tts.WithTimeout(20*time.Millisecond), tts.WithLogger(log.Discard()))

	artifact := speaker.Synthesize(context.Background(), "سلام", urdu)
	if artifact.Status != tts.SpeechNoAudio {
		t.Errorf("expected NoAudio on timeout, got %s", artifact.Status)
	}
}

func TestSplitText(t *testing.T) {
	long := strings.Repeat("ب", 250)

	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"empty", "", 100, nil},
		{"whitespace", "  \n ", 100, nil},
		{"short", "سلام دنیا", 100, []string{"سلام دنیا"}},
		{"word boundary", "aaa bbb ccc", 7, []string{"aaa bbb", "ccc"}},
		{"collapses spaces", "a   b\tc", 100, []string{"a b c"}},
		{"long word", long, 100, []string{long[:200], long[200:400], long[400:]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tts.SplitText(tt.text, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitTextRespectsLimit(t *testing.T) {
	text := strings.Repeat("یہ ایک لمبا جملہ ہے جو کئی حصوں میں تقسیم ہوگا۔ ", 12)
	for i, chunk := range tts.SplitText(text, tts.MaxChunkRunes) {
		if n := utf8.RuneCountInString(chunk); n > tts.MaxChunkRunes {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
}

func TestTranslateSynthesize(t *testing.T) {
	var mu sync.Mutex
	var queries []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("tl") != "ur" {
			t.Errorf("expected tl=ur, got %s", q.Get("tl"))
		}
		if q.Get("client") != "tw-ob" {
			t.Errorf("expected client=tw-ob, got %s", q.Get("client"))
		}
		mu.Lock()
		queries = append(queries, q.Get("q"))
		mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = io.WriteString(w, "["+q.Get("idx")+"]")
	}))
	defer server.Close()

	provider, err := tts.NewTranslate(
		tts.WithBaseURL(server.URL),
		tts.WithHTTPClient(server.Client()),
		tts.WithLogger(log.Discard()),
	)
	if err != nil {
		t.Fatalf("NewTranslate: %v", err)
	}
	defer provider.Close()

	text := strings.Repeat("لفظ ", 60)
	result, err := provider.Synthesize(context.Background(), text, urdu)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(queries) != 3 {
		t.Fatalf("expected 3 chunk requests, got %d", len(queries))
	}
	if string(result.Audio) != "[0][1][2]" {
		t.Errorf("segments not concatenated in order: %q", result.Audio)
	}
	if result.Format.Encoding != tts.EncodingMP3 {
		t.Errorf("expected MP3, got %s", result.Format.Encoding)
	}
}

func TestTranslateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, _ := tts.NewTranslate(tts.WithBaseURL(server.URL), tts.WithLogger(log.Discard()))

	_, err := provider.Synthesize(context.Background(), "سلام", urdu)

	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || !apiErr.IsRetryable() {
		t.Errorf("expected rate limited retryable error, got %+v", apiErr)
	}
}

func TestTranslateEmptyText(t *testing.T) {
	provider, _ := tts.NewTranslate(tts.WithLogger(log.Discard()))
	if _, err := provider.Synthesize(context.Background(), " ", urdu); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestGoogleCloudSynthesize(t *testing.T) {
	audio := []byte("ID3 cloud audio")
	var seen map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "text:synthesize") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &seen)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer server.Close()

	provider, err := tts.NewGoogleCloud(context.Background(),
		tts.WithBaseURL(server.URL+"/"),
		tts.WithHTTPClient(server.Client()),
		tts.WithVoice("ur-IN-Standard-A"),
		tts.WithLogger(log.Discard()),
	)
	if err != nil {
		t.Fatalf("NewGoogleCloud: %v", err)
	}

	result, err := provider.Synthesize(context.Background(), "سلام", urdu)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(result.Audio) != string(audio) {
		t.Errorf("unexpected audio %q", result.Audio)
	}

	voice, _ := seen["voice"].(map[string]any)
	if voice["languageCode"] != "ur-PK" || voice["name"] != "ur-IN-Standard-A" {
		t.Errorf("unexpected voice params: %v", voice)
	}
	cfg, _ := seen["audioConfig"].(map[string]any)
	if cfg["audioEncoding"] != "MP3" {
		t.Errorf("expected MP3 encoding, got %v", cfg["audioEncoding"])
	}
}

func TestGoogleCloudAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error": {"code": 403, "message": "API key not valid"}}`)
	}))
	defer server.Close()

	provider, err := tts.NewGoogleCloud(context.Background(),
		tts.WithBaseURL(server.URL+"/"),
		tts.WithHTTPClient(server.Client()),
		tts.WithLogger(log.Discard()),
	)
	if err != nil {
		t.Fatalf("NewGoogleCloud: %v", err)
	}

	_, err = provider.Synthesize(context.Background(), "سلام", urdu)

	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsUnauthorized() {
		t.Errorf("expected unauthorized, got %d", apiErr.StatusCode)
	}
}

func TestNewGoogleCloudRequiresCredentials(t *testing.T) {
	_, err := tts.NewGoogleCloud(context.Background(), tts.WithLogger(log.Discard()))
	if !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to second provider", func(t *testing.T) {
		failing := tts.WithError(errors.New("cloud down"))
		working := tts.NewMock()

		chain, err := tts.NewChainWithLogger(log.Discard(), failing, working)
		if err != nil {
			t.Fatalf("NewChain: %v", err)
		}

		result, err := chain.Synthesize(ctx, "سلام", urdu)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio")
		}
		if failing.CallCount("Synthesize") != 1 || working.CallCount("Synthesize") != 1 {
			t.Error("expected each provider to be called once")
		}
	})

	t.Run("all providers fail", func(t *testing.T) {
		chain, _ := tts.NewChainWithLogger(log.Discard(),
			tts.WithError(errors.New("a")),
			tts.WithError(errors.New("b")),
		)

		_, err := chain.Synthesize(ctx, "سلام", urdu)
		var chainErr *tts.ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("expected ChainError, got %v", err)
		}
		if len(chainErr.Errors) != 2 {
			t.Errorf("expected 2 errors, got %d", len(chainErr.Errors))
		}
	})

	t.Run("health passes with one healthy provider", func(t *testing.T) {
		chain, _ := tts.NewChainWithLogger(log.Discard(), tts.WithError(errors.New("a")), tts.NewMock())
		if err := chain.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("provider with rejected credentials is skipped afterwards", func(t *testing.T) {
		cloud := tts.WithError(&tts.APIError{StatusCode: 403, Message: "forbidden", Provider: "google-cloud"})
		translate := tts.NewMock()
		chain, _ := tts.NewChainWithLogger(log.Discard(), cloud, translate)

		for i := 0; i < 3; i++ {
			if _, err := chain.Synthesize(ctx, "سلام", urdu); err != nil {
				t.Fatalf("turn %d: unexpected error: %v", i, err)
			}
		}
		if cloud.CallCount("Synthesize") != 1 {
			t.Errorf("expected cloud to be tried once, got %d", cloud.CallCount("Synthesize"))
		}
		if translate.CallCount("Synthesize") != 3 {
			t.Errorf("expected translate on every turn, got %d", translate.CallCount("Synthesize"))
		}
	})

	t.Run("transient failures keep the provider", func(t *testing.T) {
		cloud := tts.WithError(&tts.APIError{StatusCode: 503, Message: "busy", Provider: "google-cloud"})
		chain, _ := tts.NewChainWithLogger(log.Discard(), cloud, tts.NewMock())

		chain.Synthesize(ctx, "a", urdu)
		chain.Synthesize(ctx, "b", urdu)
		if cloud.CallCount("Synthesize") != 2 {
			t.Errorf("expected cloud on both turns, got %d", cloud.CallCount("Synthesize"))
		}
	})

	t.Run("empty chain", func(t *testing.T) {
		if _, err := tts.NewChain(); !errors.Is(err, tts.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}

func TestEncodingMIME(t *testing.T) {
	tests := map[tts.Encoding]string{
		tts.EncodingMP3:      "audio/mp3",
		tts.EncodingLinear16: "audio/wav",
		tts.EncodingOggOpus:  "audio/ogg",
	}
	for enc, want := range tests {
		if got := enc.MIME(); got != want {
			t.Errorf("%s.MIME() = %s, want %s", enc, got, want)
		}
	}
}
