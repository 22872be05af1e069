// Package config loads process configuration from the environment, after
// an optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/gemini"
	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/sanitize"
)

// Defaults for unset variables.
const (
	DefaultOutputDir      = "output"
	DefaultPort           = "8080"
	DefaultTargetDuration = 30 * time.Second
	DefaultSSMAPIKeyParam = "/ai-video-generator/prod/gemini-api-key"
	DefaultMaxConcurrent  = 2
)

// Config is the resolved runtime configuration shared by every binary.
type Config struct {
	APIKey         string
	SSMAPIKeyParam string
	Model          string
	TTSModel       string
	Voice          string
	Language       string

	OutputDir      string
	ManimBin       string
	FFmpegBin      string
	FFprobeBin     string
	TargetDuration time.Duration
	RulesFile      string
	DebugBundles   bool

	Port          string
	MaxConcurrent int

	MediaBucket     string
	DynamoTable     string
	WorkerLambdaARN string
	EventBus        string
}

// Load reads .env (if present) and the environment. It fails only on values
// that are set but malformed.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	cfg := &Config{
		APIKey:          os.Getenv("GEMINI_API_KEY"),
		SSMAPIKeyParam:  envOr("SSM_API_KEY_PARAM", DefaultSSMAPIKeyParam),
		Model:           gemini.GetModelName(),
		TTSModel:        envOr("GEMINI_TTS_MODEL", gemini.DefaultTTSModelName),
		Voice:           envOr("TTS_VOICE", gemini.DefaultVoice),
		Language:        envOr("TTS_LANGUAGE", gemini.DefaultLanguage),
		OutputDir:       envOr("VIDEO_OUTPUT_DIR", DefaultOutputDir),
		ManimBin:        envOr("MANIM_BIN", "manim"),
		FFmpegBin:       envOr("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:      envOr("FFPROBE_BIN", "ffprobe"),
		TargetDuration:  DefaultTargetDuration,
		RulesFile:       os.Getenv("SANITIZER_RULES_FILE"),
		DebugBundles:    true,
		Port:            envOr("PORT", DefaultPort),
		MaxConcurrent:   DefaultMaxConcurrent,
		MediaBucket:     os.Getenv("MEDIA_BUCKET_NAME"),
		DynamoTable:     os.Getenv("DYNAMO_TABLE_NAME"),
		WorkerLambdaARN: os.Getenv("WORKER_LAMBDA_ARN"),
		EventBus:        os.Getenv("EVENT_BUS_NAME"),
	}

	if v := os.Getenv("TARGET_DURATION_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("TARGET_DURATION_SECONDS must be a positive integer, got %q", v)
		}
		cfg.TargetDuration = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("VIDEO_DEBUG_BUNDLES"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("VIDEO_DEBUG_BUNDLES must be a boolean, got %q", v)
		}
		cfg.DebugBundles = on
	}
	if v := os.Getenv("VIDEO_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("VIDEO_MAX_CONCURRENT must be a positive integer, got %q", v)
		}
		cfg.MaxConcurrent = n
	}
	return cfg, nil
}

// TargetSeconds returns the target video length in whole seconds.
func (c *Config) TargetSeconds() int {
	return int(c.TargetDuration / time.Second)
}

// Sanitizer returns the sanitizer for RulesFile, or the embedded default
// table when no file is configured.
func (c *Config) Sanitizer() (*sanitize.Sanitizer, error) {
	if c.RulesFile == "" {
		return sanitize.Default()
	}
	table, err := sanitize.LoadTable(c.RulesFile)
	if err != nil {
		return nil, err
	}
	return sanitize.New(table)
}

// PipelineOptions maps the configuration onto pipeline wiring options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Model:          c.Model,
		TTSModel:       c.TTSModel,
		Voice:          c.Voice,
		Language:       c.Language,
		ManimBin:       c.ManimBin,
		FFmpegBin:      c.FFmpegBin,
		FFprobeBin:     c.FFprobeBin,
		OutputDir:      c.OutputDir,
		TargetDuration: c.TargetDuration,
		DebugBundles:   c.DebugBundles,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
