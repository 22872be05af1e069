// Package render runs the Manim CLI as a subprocess to turn scene source
// into an MP4.
package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/llmtext"
	"github.com/fpang/ai-video-generator/internal/scene"
)

// SceneClass is the class name every generated scene must use.
const SceneClass = "EducationScene"

const (
	defaultFPS = 30
	// outputTail bounds how much engine output is kept on failure.
	outputTail = 4000
	waitDelay  = 5 * time.Second
)

// ErrNoVideo is returned when the engine exits cleanly but no MP4 is found.
var ErrNoVideo = errors.New("renderer produced no video")

// Job is one render request.
type Job struct {
	ID      string
	Dir     string // request work dir; the script and media dir live here
	Code    string
	Profile scene.Profile
}

// Artifact describes a successful render.
type Artifact struct {
	VideoPath string
	ExitCode  int
	Output    string
	Elapsed   time.Duration
}

// Error reports a failed render with the tail of the engine's output.
type Error struct {
	ExitCode int
	TimedOut bool
	Output   string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.TimedOut:
		return "render timed out"
	case e.ExitCode != 0:
		return fmt.Sprintf("renderer exited with code %d", e.ExitCode)
	case e.Err != nil:
		return "render failed: " + e.Err.Error()
	default:
		return "render failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Renderer invokes the engine binary.
type Renderer struct {
	Bin string
	FPS int
}

// New creates a Renderer for the given binary ("manim" when empty).
func New(bin string) *Renderer {
	if bin == "" {
		bin = "manim"
	}
	return &Renderer{Bin: bin, FPS: defaultFPS}
}

// Args builds the engine command line.
func Args(qualityFlag, mediaDir, script string, fps int) []string {
	return []string{
		qualityFlag,
		"--format", "mp4",
		"--media_dir", mediaDir,
		"--disable_caching",
		"--fps", strconv.Itoa(fps),
		script,
		SceneClass,
	}
}

// ScriptName is the file the scene source is written to.
func ScriptName(id string) string {
	return "scene_" + id + ".py"
}

// Render writes the scene source into the job dir and runs the engine under
// the profile timeout. It is never retried.
func (r *Renderer) Render(ctx context.Context, job Job) (*Artifact, error) {
	if job.ID == "" || job.Dir == "" {
		return nil, fmt.Errorf("render job needs an ID and a work dir")
	}
	if strings.TrimSpace(job.Code) == "" {
		return nil, &Error{Err: errors.New("scene code is empty")}
	}

	dir, err := filepath.Abs(job.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	script := filepath.Join(dir, ScriptName(job.ID))
	if err := os.WriteFile(script, []byte(job.Code), 0o644); err != nil {
		return nil, fmt.Errorf("write scene file: %w", err)
	}
	mediaDir := filepath.Join(dir, "media")

	if job.Profile.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Profile.Timeout)
		defer cancel()
	}

	args := Args(job.Profile.QualityFlag, mediaDir, script, r.fps())
	log.Info().
		Str("id", job.ID).
		Str("mode", job.Profile.Mode.String()).
		Dur("timeout", job.Profile.Timeout).
		Msg("Rendering scene")
	log.Debug().Str("bin", r.Bin).Strs("args", args).Msg("Renderer command")

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.Bin, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	out := llmtext.Tail(string(output), outputTail)

	if err != nil {
		rerr := &Error{ExitCode: -1, Output: out, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			rerr.ExitCode = exitErr.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			rerr.TimedOut = true
		}
		log.Warn().
			Str("id", job.ID).
			Int("exit_code", rerr.ExitCode).
			Bool("timed_out", rerr.TimedOut).
			Dur("duration", elapsed).
			Msg("Render failed")
		return nil, rerr
	}

	video, err := FindVideo(mediaDir)
	if err != nil {
		return nil, &Error{Output: out, Err: err}
	}
	log.Info().Str("id", job.ID).Str("video", video).Dur("duration", elapsed).Msg("Render complete")
	return &Artifact{VideoPath: video, Output: out, Elapsed: elapsed}, nil
}

func (r *Renderer) fps() int {
	if r.FPS > 0 {
		return r.FPS
	}
	return defaultFPS
}

// FindVideo returns the newest MP4 under mediaDir, ignoring the engine's
// partial movie segments.
func FindVideo(mediaDir string) (string, error) {
	var best string
	var bestTime time.Time
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "partial_movie_files" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".mp4") {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = path, info.ModTime()
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("scan media dir: %w", err)
	}
	if best == "" {
		return "", ErrNoVideo
	}
	return best, nil
}
