package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// Gemini implements Model with the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	config *Config
	logger *slog.Logger
}

// NewGemini creates a Gemini model. The API key is required.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, WrapError(providerGemini, err)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("create client: %w", err))
	}

	return &Gemini{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// Generate opens a fresh chat with no history and sends the prompt once.
func (g *Gemini) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	chat, err := g.client.Chats.Create(ctx, model, contentConfig(req.Profile), nil)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("start chat: %w", err))
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: req.Prompt})
	if err != nil {
		return nil, WrapError(providerGemini, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerGemini, ErrEmptyResponse)
	}

	out := &GenerateResponse{
		Text:      text,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	g.logger.Debug("generated reply",
		"model", model,
		"chars", len(text),
		"finish_reason", out.FinishReason,
		"latency_ms", out.LatencyMs,
	)

	return out, nil
}

// Health fetches the configured model's metadata, which checks the key and
// the model name without spending tokens.
func (g *Gemini) Health(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.config.Model, nil); err != nil {
		return WrapError(providerGemini, err)
	}
	return nil
}

// Close releases idle connections of a caller-supplied HTTP client.
func (g *Gemini) Close() error {
	if g.config.HTTPClient != nil {
		g.config.HTTPClient.CloseIdleConnections()
	}
	return nil
}

// contentConfig maps a Profile onto the SDK's generation config.
func contentConfig(p Profile) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(p.Temperature),
		TopP:             genai.Ptr(p.TopP),
		TopK:             genai.Ptr(p.TopK),
		MaxOutputTokens:  p.MaxOutputTokens,
		ResponseMIMEType: p.ResponseMIMEType,
	}
}

// Verify Gemini implements Model at compile time.
var _ Model = (*Gemini)(nil)
