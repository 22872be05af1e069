// Package gemini wraps the Gemini calls of the pipeline: topic elaboration,
// scene code generation and narration speech synthesis.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Gemini model IDs used by the pipeline.
const (
	// ModelGemini25Flash is stable with balanced speed and quality.
	ModelGemini25Flash = "gemini-2.5-flash"
	// ModelGemini25Pro writes better code at higher latency.
	ModelGemini25Pro = "gemini-2.5-pro"
	// ModelGemini25FlashTTS is the speech generation model.
	ModelGemini25FlashTTS = "gemini-2.5-flash-preview-tts"
)

// DefaultModelName is the text model used when GEMINI_MODEL is unset.
const DefaultModelName = ModelGemini25Flash

// DefaultTTSModelName is the speech model used when GEMINI_TTS_MODEL is unset.
const DefaultTTSModelName = ModelGemini25FlashTTS

// GetModelName returns GEMINI_MODEL or the default text model.
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}

// ContentGenerator is the part of the genai client the pipeline uses.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

// systemInstruction wraps a prompt as a system instruction.
func systemInstruction(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}
