package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/ai-video-generator/internal/assets"
	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/llmtext"
	"github.com/fpang/ai-video-generator/internal/scene"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// CodeGenerator asks the model for Manim scene source realizing a script.
type CodeGenerator struct {
	gen           ContentGenerator
	model         string
	targetSeconds int
}

// NewCodeGenerator creates a CodeGenerator using the given model.
func NewCodeGenerator(gen ContentGenerator, model string, targetSeconds int) *CodeGenerator {
	return &CodeGenerator{gen: gen, model: model, targetSeconds: targetSeconds}
}

// GenerateCode returns the scene source taken from the response's python
// block, any fenced block, or the bare response text, in that order.
func (g *CodeGenerator) GenerateCode(ctx context.Context, elab *Elaboration, mode scene.Mode) (string, error) {
	prompt := assets.RenderCodePrompt(assets.CodeData{
		Title:          elab.Title,
		NarrationLines: elab.NarrationLines,
		VisualBeats:    elab.VisualBeats,
		BaseClass:      mode.BaseClass(),
		ThreeD:         mode == scene.Mode3D,
		TargetSeconds:  g.targetSeconds,
	})
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(assets.CodeGenerationSystemPrompt),
		Temperature:       genai.Ptr[float32](0.2),
	}

	log.Debug().
		Str("model", g.model).
		Str("mode", mode.String()).
		Int("prompt_length", len(prompt)).
		Msg("Starting Gemini API call for scene code")

	start := time.Now()
	resp, err := g.gen.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scene code call failed")
		return "", auth.Classify(err)
	}
	if resp == nil {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	code, err := llmtext.ExtractCodeBlock(resp.Text(), "python")
	if err != nil {
		return "", fmt.Errorf("no code in response: %w", err)
	}

	log.Info().
		Int("code_length", len(code)).
		Dur("duration", time.Since(start)).
		Msg("Scene code generated")
	return code, nil
}
