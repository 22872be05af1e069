// Package main is the worker Lambda of the video generator.
//
// The API Lambda invokes it asynchronously (InvocationType=Event) with one
// jobs.Event per accepted topic:
//
//	{"type": "generate", "videoId": "uuid", "topic": "...", "mode": "auto"}
//
// The worker runs the full pipeline, uploads the video, poster and debug
// bundle to S3, records progress in DynamoDB and publishes a completion
// event to EventBridge when a bus is configured.
//
// Container: Heavy (Manim, LaTeX and ffmpeg)
// Memory: 4 GB
// Timeout: 10 minutes
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/config"
	"github.com/fpang/ai-video-generator/internal/gemini"
	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/lambdaboot"
	"github.com/fpang/ai-video-generator/internal/logging"
	"github.com/fpang/ai-video-generator/internal/metrics"
	"github.com/fpang/ai-video-generator/internal/pipeline"
)

// Set at build time via -ldflags.
var (
	commitHash = "unknown"
	buildTime  = "unknown"
)

// Lambda only allows writes under /tmp.
const workDir = "/tmp/videos"

var (
	coldStart = true
	runner    *jobs.Runner
)

func init() {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	cfg.OutputDir = workDir
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", workDir).Msg("Failed to create work directory")
	}

	clients := lambdaboot.InitAWS()
	apiKey := lambdaboot.LoadGeminiKey(clients.SSM, cfg.SSMAPIKeyParam)

	client, err := gemini.NewClient(context.Background(), apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	sanitizer, err := cfg.Sanitizer()
	if err != nil {
		log.Fatal().Err(err).Str("rules", cfg.RulesFile).Msg("Failed to load sanitizer rules")
	}

	runner = &jobs.Runner{
		Generator: pipeline.New(client.Models, sanitizer, cfg.PipelineOptions()),
		Store:     lambdaboot.InitJobStore(clients.Config, cfg.DynamoTable),
		Publisher: lambdaboot.InitArtifacts(clients.Config, cfg.MediaBucket),
	}
	if n := lambdaboot.InitNotifier(clients.Config, cfg.EventBus); n != nil {
		runner.Notifier = n
	}

	lambdaboot.StartupLog("worker-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		S3Bucket("media", cfg.MediaBucket).
		DynamoTable("jobs", cfg.DynamoTable).
		SSMParam("geminiKey", cfg.SSMAPIKeyParam).
		EventBus("completion", cfg.EventBus).
		Binary("manim", cfg.ManimBin).
		Binary("ffmpeg", cfg.FFmpegBin).
		Config("model", cfg.Model).
		Config("ttsModel", cfg.TTSModel).
		Feature("debugBundles", cfg.DebugBundles).
		Log()
}

func handler(ctx context.Context, ev jobs.Event) error {
	start := time.Now()
	rec := metrics.New(metrics.Namespace).Dimension("EventType", ev.Type)
	if coldStart {
		rec.Count("ColdStart")
		coldStart = false
	}

	logger := log.With().Str("videoId", ev.VideoID).Str("type", ev.Type).Logger()
	logger.Info().Str("mode", string(ev.Mode)).Msg("Worker event received")

	err := runner.Handle(ctx, ev)
	result := "success"
	if err != nil {
		result = "failed"
	}
	rec.Property("videoId", ev.VideoID).
		Property("result", result).
		Duration("WorkerMs", time.Since(start)).
		Flush()

	// Failures are recorded on the job, not returned to Lambda.
	if err != nil {
		logger.Warn().Err(err).Msg("Worker event failed")
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
