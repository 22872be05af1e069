package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-video-generator/internal/cli"
	"github.com/fpang/ai-video-generator/internal/config"
	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/logging"
	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/scene"
)

var (
	modeFlag    string
	outFlag     string
	pickDirFlag bool
	modelFlag   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a narrated video for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&modeFlag, "mode", "auto", "Scene mode: 2d, 3d or auto")
	generateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output directory (default $VIDEO_OUTPUT_DIR or ./output)")
	generateCmd.Flags().BoolVar(&pickDirFlag, "pick-dir", false, "Choose the output directory with a dialog")
	generateCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model for planning and code generation")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logging.Init()

	topic, err := pipeline.ValidateTopic(strings.Join(args, " "))
	if err != nil {
		return err
	}
	mode, err := scene.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	outDir := cfg.OutputDir
	switch {
	case outFlag != "":
		outDir = outFlag
	case pickDirFlag:
		if outDir, err = cli.PickDirectory("Choose where to save the video"); err != nil {
			return err
		}
	}
	if cfg.OutputDir, err = cli.EnsureDirectory(outDir); err != nil {
		return err
	}

	sanitizer, err := cfg.Sanitizer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := cli.InitGeminiClient(ctx, cfg.Model)
	p := pipeline.New(client.Models, sanitizer, cfg.PipelineOptions())

	req := pipeline.Request{ID: jobs.NewID(), Topic: topic, Mode: mode}
	log.Info().Str("videoId", req.ID).Str("topic", topic).Str("mode", string(mode)).Msg("Generating video")

	start := time.Now()
	res, err := p.Run(ctx, req, func(s pipeline.Stage) {
		fmt.Fprintf(os.Stderr, "[%s] %s...\n", cli.FormatDurationShort(time.Since(start)), s)
	})
	if err != nil {
		cli.ReportPipelineError(os.Stderr, err)
		if bundle := filepath.Join(p.WorkDir(req.ID), pipeline.BundleName); fileExists(bundle) {
			fmt.Fprintf(os.Stderr, "\nDebug bundle: %s\n", bundle)
		}
		return err
	}

	fmt.Printf("%s (%s), generated in %s\n", res.Title, res.Mode, cli.FormatDurationShort(res.Duration))
	fmt.Printf("Video:  %s\n", res.VideoPath)
	if res.PosterPath != "" {
		fmt.Printf("Poster: %s\n", res.PosterPath)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
