// Package main runs the video generator as a local HTTP service.
//
// Jobs are kept in memory and rendered in background goroutines of this
// process. Finished videos are served from the output directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-video-generator/internal/cli"
	"github.com/fpang/ai-video-generator/internal/config"
	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/logging"
	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/server"
)

// Set at build time via -ldflags.
var (
	version    = "dev"
	commitHash = "unknown"
	buildTime  = "unknown"
)

var (
	portFlag       string
	modelFlag      string
	concurrentFlag int
)

var rootCmd = &cobra.Command{
	Use:   "video-web",
	Short: "HTTP API for generating narrated educational videos",
	Long: `video-web starts a local server that accepts topics, renders videos in the
background and serves them when they are done.

Examples:
  video-web
  video-web --port 9090 --concurrent 1
  curl -X POST localhost:8080/api/generate -d '{"text": "How a sine wave is drawn"}'`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Port to listen on (default $PORT or 8080)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model for planning and code generation")
	rootCmd.Flags().IntVar(&concurrentFlag, "concurrent", 0, "Videos rendered at once (default $VIDEO_MAX_CONCURRENT or 2)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if concurrentFlag > 0 {
		cfg.MaxConcurrent = concurrentFlag
	}
	if cfg.OutputDir, err = cli.EnsureDirectory(cfg.OutputDir); err != nil {
		log.Fatal().Err(err).Msg("Output directory unusable")
	}
	sanitizer, err := cfg.Sanitizer()
	if err != nil {
		log.Fatal().Err(err).Str("rules", cfg.RulesFile).Msg("Failed to load sanitizer rules")
	}

	// Cancelled on shutdown; running jobs stop with it.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	client := cli.InitGeminiClient(jobCtx, cfg.Model)
	store := jobs.NewMemoryStore()
	runner := &jobs.Runner{
		Generator: pipeline.New(client.Models, sanitizer, cfg.PipelineOptions()),
		Store:     store,
	}
	dispatcher := jobs.NewLocalDispatcher(jobCtx, runner, cfg.MaxConcurrent)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.New(server.Options{
			Store:      store,
			Dispatcher: dispatcher,
			Version:    version,
			Commit:     commitHash,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	logging.NewStartupLogger("video-web").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Config("port", cfg.Port).
		Config("model", cfg.Model).
		Config("ttsModel", cfg.TTSModel).
		Config("outputDir", cfg.OutputDir).
		Config("maxConcurrent", fmt.Sprint(cfg.MaxConcurrent)).
		Binary("manim", cfg.ManimBin).
		Binary("ffmpeg", cfg.FFmpegBin).
		Binary("ffprobe", cfg.FFprobeBin).
		Feature("debugBundles", cfg.DebugBundles).
		InitDuration(time.Since(initStart)).
		Log()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown incomplete")
		}
		cancelJobs()
	}()

	fmt.Printf("\n  Video API: http://localhost:%s/api/health\n\n", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	dispatcher.Wait()
	log.Info().Msg("All jobs stopped")
}
