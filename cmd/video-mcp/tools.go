package main

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/sanitize"
	"github.com/fpang/ai-video-generator/internal/scene"
)

type sanitizeInput struct {
	Code string `json:"code" jsonschema:"Manim scene source code to patch"`
}

type sanitizeOutput struct {
	Code         string   `json:"code"`
	AppliedRules []string `json:"applied_rules"`
	RulesVersion int      `json:"rules_version"`
}

type detectInput struct {
	Topic string `json:"topic" jsonschema:"topic the video will explain"`
}

type detectOutput struct {
	Mode           scene.Mode `json:"mode"`
	BaseClass      string     `json:"base_class"`
	QualityFlag    string     `json:"quality_flag"`
	TimeoutSeconds int        `json:"timeout_seconds"`
}

type generateInput struct {
	Topic string `json:"topic" jsonschema:"topic to explain, at least 10 characters"`
	Mode  string `json:"mode,omitempty" jsonschema:"2d, 3d or auto (default auto)"`
}

type generateOutput struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
	Mode       string `json:"mode"`
	VideoPath  string `json:"video_path"`
	PosterPath string `json:"poster_path,omitempty"`
	BundlePath string `json:"bundle_path,omitempty"`
}

var errGenerateDisabled = errors.New("video generation is unavailable: no Gemini API key configured")

// tools holds what the MCP tool handlers need. generator is nil when no
// Gemini client could be created.
type tools struct {
	sanitizer *sanitize.Sanitizer
	generator jobs.Generator
}

func (t *tools) register(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "sanitize_code",
		Description: "Patch Manim scene code for known API incompatibilities and return the corrected code with the rules that fired.",
	}, t.sanitizeCode)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "detect_scene_mode",
		Description: "Choose 2D or 3D rendering for a topic and return the render profile.",
	}, t.detectSceneMode)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "generate_video",
		Description: "Generate a narrated educational MP4 for a topic. Takes a few minutes.",
	}, t.generateVideo)
}

func (t *tools) sanitizeCode(ctx context.Context, req *mcp.CallToolRequest, in sanitizeInput) (*mcp.CallToolResult, sanitizeOutput, error) {
	code, applied := t.sanitizer.SanitizeReport(in.Code)
	if applied == nil {
		applied = []string{}
	}
	return nil, sanitizeOutput{Code: code, AppliedRules: applied, RulesVersion: t.sanitizer.Version()}, nil
}

func (t *tools) detectSceneMode(ctx context.Context, req *mcp.CallToolRequest, in detectInput) (*mcp.CallToolResult, detectOutput, error) {
	m := scene.Detect(in.Topic)
	p := scene.ProfileFor(m)
	return nil, detectOutput{
		Mode:           m,
		BaseClass:      m.BaseClass(),
		QualityFlag:    p.QualityFlag,
		TimeoutSeconds: int(p.Timeout.Seconds()),
	}, nil
}

func (t *tools) generateVideo(ctx context.Context, req *mcp.CallToolRequest, in generateInput) (*mcp.CallToolResult, generateOutput, error) {
	if t.generator == nil {
		return nil, generateOutput{}, errGenerateDisabled
	}
	topic, err := pipeline.ValidateTopic(in.Topic)
	if err != nil {
		return nil, generateOutput{}, err
	}
	mode, err := scene.ParseMode(in.Mode)
	if err != nil {
		return nil, generateOutput{}, err
	}

	id := jobs.NewID()
	res, err := t.generator.Run(ctx, pipeline.Request{ID: id, Topic: topic, Mode: mode}, func(s pipeline.Stage) {
		log.Info().Str("videoId", id).Str("stage", string(s)).Msg("Stage started")
	})
	if err != nil {
		return nil, generateOutput{}, err
	}
	return nil, generateOutput{
		VideoID:    res.ID,
		Title:      res.Title,
		Mode:       string(res.Mode),
		VideoPath:  res.VideoPath,
		PosterPath: res.PosterPath,
		BundlePath: res.BundlePath,
	}, nil
}
