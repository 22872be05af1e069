// Package main serves the video generator as Model Context Protocol tools
// over stdio, for use from MCP-capable assistants.
//
// Tools:
//
//	sanitize_code      apply the sanitizer rule table to scene code
//	detect_scene_mode  pick 2D or 3D and the render profile for a topic
//	generate_video     run the whole pipeline and return the MP4 path
//
// stdout carries the protocol, so logs and metrics stay on stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/cli"
	"github.com/fpang/ai-video-generator/internal/config"
	"github.com/fpang/ai-video-generator/internal/gemini"
	"github.com/fpang/ai-video-generator/internal/logging"
	"github.com/fpang/ai-video-generator/internal/metrics"
	"github.com/fpang/ai-video-generator/internal/pipeline"
)

// Set at build time via -ldflags.
var version = "dev"

func main() {
	logging.Init()
	metrics.SetOutput(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.OutputDir, err = cli.EnsureDirectory(cfg.OutputDir); err != nil {
		log.Fatal().Err(err).Msg("Output directory unusable")
	}
	sanitizer, err := cfg.Sanitizer()
	if err != nil {
		log.Fatal().Err(err).Str("rules", cfg.RulesFile).Msg("Failed to load sanitizer rules")
	}

	t := &tools{sanitizer: sanitizer}
	// Without a key the local tools still work; generate_video reports why it can't run.
	if apiKey, err := auth.GetAPIKey(); err != nil {
		log.Warn().Err(err).Msg("No Gemini API key, generate_video disabled")
	} else if client, err := gemini.NewClient(ctx, apiKey); err != nil {
		log.Warn().Err(err).Msg("Failed to create Gemini client, generate_video disabled")
	} else {
		t.generator = pipeline.New(client.Models, sanitizer, cfg.PipelineOptions())
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "ai-video-generator", Version: version}, nil)
	t.register(server)

	log.Info().Str("version", version).Bool("generate", t.generator != nil).Msg("MCP server ready on stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}
