package gemini

import (
	"context"
	"time"

	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ValidateAPIKey makes a minimal call to confirm the key works. It returns
// nil or an *auth.Error describing the failure.
func ValidateAPIKey(ctx context.Context, gen ContentGenerator, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, model, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	result := "success"
	var out error
	switch {
	case err != nil:
		classified := auth.Classify(err)
		result = classified.Kind.String()
		out = classified
	case resp == nil || len(resp.Candidates) == 0:
		result = "empty_response"
		out = &auth.Error{Kind: auth.KindUnknown, Message: "API returned empty response"}
	}

	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()

	if out != nil {
		log.Warn().Str("result", result).Dur("duration", elapsed).Msg("API key validation failed")
		return out
	}
	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}
