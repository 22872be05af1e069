// Package cli holds helpers shared by the command-line entry points.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/pipeline"
)

// EnsureDirectory creates dirPath if needed and returns its absolute path.
// It fails when the path exists but is not a directory.
func EnsureDirectory(dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	switch {
	case err == nil && !info.IsDir():
		return "", fmt.Errorf("%s is not a directory", dirPath)
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dirPath, err)
		}
	case err != nil:
		return "", fmt.Errorf("access %s: %w", dirPath, err)
	}

	if abs, err := filepath.Abs(dirPath); err == nil {
		dirPath = abs
	}
	return dirPath, nil
}

// HandleValidationError exits with a message matching the kind of API
// failure.
func HandleValidationError(err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case auth.KindNoKey:
			log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY in the environment or a .env file")
		case auth.KindInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case auth.KindNetwork:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.KindQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	}
	log.Fatal().Err(err).Msg("Unexpected error during API key validation")
}

// ReportPipelineError describes a failed run on w: the stage that failed
// and, for render failures, the engine output.
func ReportPipelineError(w io.Writer, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s stage failed: %s\n", perr.Stage, perr.Message)
	if perr.Err != nil {
		fmt.Fprintf(w, "  cause: %v\n", perr.Err)
	}
	if perr.Output != "" {
		fmt.Fprintf(w, "\nRenderer output:\n%s\n", perr.Output)
	}
}
