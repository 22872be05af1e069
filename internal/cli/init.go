package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/gemini"
)

// InitGeminiClient creates a Gemini client and checks the key with one small
// call to model. Exits on failure.
func InitGeminiClient(ctx context.Context, model string) *genai.Client {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		HandleValidationError(err)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	if err := gemini.ValidateAPIKey(ctx, client.Models, model); err != nil {
		HandleValidationError(err)
	}
	log.Debug().Str("model", model).Msg("Gemini client ready")
	return client
}
