// Package inference generates the spoken reply for a transcript.
//
// A Model is a generative backend (Gemini by default). The ResponseGenerator
// wraps a Model with the fixed instruction template, the fixed generation
// profile and a bounded fixed-delay retry policy. It never returns an error:
// when every attempt fails the reply is a fixed apology.
//
// Example usage:
//
//	model, _ := inference.NewGemini(ctx,
//	    inference.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	)
//	defer model.Close()
//
//	gen := inference.NewResponseGenerator(model)
//	reply := gen.Generate(ctx, transcript.Text, language.Urdu, inference.DefaultRetryPolicy())
//	fmt.Println(reply.Text)
package inference

import (
	"context"
)

// Model is a generative text backend.
type Model interface {
	// Generate runs one stateless completion of req.Prompt with req.Profile.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Close releases any resources held by the backend.
	Close() error
}

// GenerateRequest is a single-turn completion request. No history is carried.
type GenerateRequest struct {
	// Prompt is the fully rendered instruction template.
	Prompt string

	// Profile holds the sampling parameters.
	Profile Profile

	// Model overrides the backend's default model.
	Model string
}

// GenerateResponse is the backend's reply.
type GenerateResponse struct {
	Text         string
	FinishReason string
	Usage        Usage
	Model        string
	LatencyMs    int64
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Profile is the generation profile applied to every model call.
type Profile struct {
	Temperature      float32
	TopP             float32
	TopK             float32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

// DefaultProfile returns the fixed generation profile: temperature 1.0,
// nucleus 0.95, top-k 64, 8192 output tokens, plain text.
func DefaultProfile() Profile {
	return Profile{
		Temperature:      1.0,
		TopP:             0.95,
		TopK:             64,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "text/plain",
	}
}
