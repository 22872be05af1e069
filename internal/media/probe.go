// Package media combines the rendered scene with its narration and derives
// the poster frame, using ffmpeg and ffprobe.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// DurationProber reports the duration of a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Prober reads container durations with ffprobe.
type Prober struct {
	Bin string
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the container duration of path.
func (p Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	d, err := parseProbeDuration(output)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	log.Debug().Str("path", path).Dur("duration", d).Msg("Probed media duration")
	return d, nil
}

func parseProbeDuration(output []byte) (time.Duration, error) {
	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("parse output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("no duration reported")
	}
	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("bad duration %q", probe.Format.Duration)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
