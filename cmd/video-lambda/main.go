// Package main is the API Lambda of the video generator.
//
// It serves the same routes as video-web behind API Gateway (HTTP API,
// payload v2). Jobs are stored in DynamoDB and handed to the worker Lambda
// with an asynchronous invoke; finished videos are downloaded through
// presigned S3 URLs.
//
// Container: Light (no Manim or ffmpeg)
// Memory: 256 MB
// Timeout: 30 seconds
package main

import (
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/config"
	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/lambdaboot"
	"github.com/fpang/ai-video-generator/internal/logging"
	"github.com/fpang/ai-video-generator/internal/s3util"
	"github.com/fpang/ai-video-generator/internal/server"
)

// Set at build time via -ldflags.
var (
	version    = "dev"
	commitHash = "unknown"
	buildTime  = "unknown"
)

var (
	jobStore     *jobs.DynamoStore
	dispatcher   *jobs.LambdaDispatcher
	artifacts    *s3util.Artifacts
	originSecret string
)

func init() {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	clients := lambdaboot.InitAWS()
	jobStore = lambdaboot.InitJobStore(clients.Config, cfg.DynamoTable)
	dispatcher = lambdaboot.InitDispatcher(clients.Config, cfg.WorkerLambdaARN)
	artifacts = lambdaboot.InitArtifacts(clients.Config, cfg.MediaBucket)

	originSecret = os.Getenv("ORIGIN_VERIFY_SECRET")
	if originSecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	lambdaboot.StartupLog("video-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		S3Bucket("media", cfg.MediaBucket).
		DynamoTable("jobs", cfg.DynamoTable).
		LambdaFunc("worker", cfg.WorkerLambdaARN).
		Feature("originVerify", originSecret != "").
		Log()
}

func main() {
	srv := server.New(server.Options{
		Store:        jobStore,
		Dispatcher:   dispatcher,
		Signer:       artifacts,
		Version:      version,
		Commit:       commitHash,
		OriginSecret: originSecret,
	})
	adapter := httpadapter.NewV2(srv.Router())
	lambda.Start(adapter.ProxyWithContext)
}
