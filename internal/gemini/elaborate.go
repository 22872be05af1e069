package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fpang/ai-video-generator/internal/assets"
	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/llmtext"
	"github.com/fpang/ai-video-generator/internal/scene"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Elaboration is the short script produced from a topic.
type Elaboration struct {
	Title          string   `json:"title"`
	NarrationLines []string `json:"narration_lines"`
	VisualBeats    []string `json:"visual_beats"`
}

// Elaborator turns a raw topic into an Elaboration.
type Elaborator struct {
	gen           ContentGenerator
	model         string
	targetSeconds int
}

// NewElaborator creates an Elaborator using the given model.
func NewElaborator(gen ContentGenerator, model string, targetSeconds int) *Elaborator {
	return &Elaborator{gen: gen, model: model, targetSeconds: targetSeconds}
}

// Elaborate asks the model for a title, narration and visual timeline.
// The response must be JSON with at least one narration line or visual beat.
func (e *Elaborator) Elaborate(ctx context.Context, topic string, mode scene.Mode) (*Elaboration, error) {
	prompt := assets.RenderElaborationPrompt(assets.ElaborationData{
		Topic:         topic,
		ModeLabel:     mode.String(),
		ThreeD:        mode == scene.Mode3D,
		TargetSeconds: e.targetSeconds,
	})
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(assets.ElaborationSystemPrompt),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.7),
	}

	log.Debug().
		Str("model", e.model).
		Int("prompt_length", len(prompt)).
		Msg("Starting Gemini API call for topic elaboration")

	start := time.Now()
	resp, err := e.gen.GenerateContent(ctx, e.model, genai.Text(prompt), config)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Topic elaboration call failed")
		return nil, auth.Classify(err)
	}
	if resp == nil {
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	text := resp.Text()
	elab, err := llmtext.ParseJSON[Elaboration](text)
	if err != nil {
		return nil, fmt.Errorf("parse elaboration: %w", err)
	}
	elab.NarrationLines = compact(elab.NarrationLines)
	elab.VisualBeats = compact(elab.VisualBeats)
	if len(elab.NarrationLines) == 0 && len(elab.VisualBeats) == 0 {
		return nil, fmt.Errorf("elaboration has no narration or visual beats (text: %s)", llmtext.Truncate(text, 200))
	}
	if strings.TrimSpace(elab.Title) == "" {
		elab.Title = topic
	}

	log.Info().
		Str("title", elab.Title).
		Int("narration_lines", len(elab.NarrationLines)).
		Int("visual_beats", len(elab.VisualBeats)).
		Dur("duration", time.Since(start)).
		Msg("Topic elaborated")
	return &elab, nil
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
