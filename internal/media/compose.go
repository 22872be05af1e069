package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/llmtext"
)

// syncTolerance is how far apart the two streams may be before the filter
// graph pads one of them.
const syncTolerance = time.Second

// Composer writes one MP4 combining a silent video and an audio track.
type Composer interface {
	Compose(ctx context.Context, video, audio, out string) error
}

// FilterGraphComposer lines the streams up before muxing: short audio is
// padded with silence, a short video holds its last frame, and the result is
// capped at Target.
type FilterGraphComposer struct {
	FFmpeg string
	Probe  DurationProber
	Target time.Duration
}

// Compose implements Composer.
func (c *FilterGraphComposer) Compose(ctx context.Context, video, audio, out string) error {
	vd, err := c.Probe.Duration(ctx, video)
	if err != nil {
		return fmt.Errorf("probe video: %w", err)
	}
	ad, err := c.Probe.Duration(ctx, audio)
	if err != nil {
		return fmt.Errorf("probe audio: %w", err)
	}
	log.Debug().Dur("video", vd).Dur("audio", ad).Dur("target", c.Target).Msg("Composing with filter graph")
	return runFFmpeg(ctx, c.FFmpeg, FilterGraphArgs(video, audio, out, vd, ad, c.Target))
}

// FilterGraphArgs builds the ffmpeg command line for the given durations.
func FilterGraphArgs(video, audio, out string, videoDur, audioDur, target time.Duration) []string {
	args := []string{"-y", "-i", video, "-i", audio}

	switch diff := videoDur - audioDur; {
	case diff > syncTolerance:
		args = append(args,
			"-filter_complex", "[1:a]apad=whole_dur="+seconds(videoDur)+"[a]",
			"-map", "0:v:0", "-map", "[a]",
			"-c:v", "copy", "-c:a", "aac",
		)
	case -diff > syncTolerance:
		args = append(args,
			"-filter_complex", "[0:v]tpad=stop_mode=clone:stop_duration="+seconds(-diff)+"[v]",
			"-map", "[v]", "-map", "1:a:0",
			"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p",
			"-c:a", "aac",
		)
	default:
		args = append(args,
			"-map", "0:v:0", "-map", "1:a:0",
			"-c:v", "copy", "-c:a", "aac", "-shortest",
		)
	}

	if target > 0 && max(videoDur, audioDur) > target {
		args = append(args, "-t", seconds(target))
	}
	return append(args, "-movflags", "+faststart", out)
}

// CopyComposer copies the video stream and encodes the audio, stopping at
// the shorter input.
type CopyComposer struct {
	FFmpeg string
}

// Compose implements Composer.
func (c *CopyComposer) Compose(ctx context.Context, video, audio, out string) error {
	return runFFmpeg(ctx, c.FFmpeg, CopyArgs(video, audio, out))
}

// CopyArgs builds the stream-copy command line.
func CopyArgs(video, audio, out string) []string {
	return []string{"-i", video, "-i", audio, "-c:v", "copy", "-c:a", "aac", "-shortest", "-y", out}
}

// MuxError reports that both composers failed.
type MuxError struct {
	Primary  error
	Fallback error
}

func (e *MuxError) Error() string {
	return fmt.Sprintf("mux failed: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *MuxError) Unwrap() []error { return []error{e.Primary, e.Fallback} }

// Muxer tries Primary and then Fallback, both writing the same target.
type Muxer struct {
	Primary  Composer
	Fallback Composer
}

// NewMuxer wires the filter-graph composer with the stream-copy fallback.
func NewMuxer(ffmpeg, ffprobe string, target time.Duration) *Muxer {
	return &Muxer{
		Primary:  &FilterGraphComposer{FFmpeg: ffmpeg, Probe: Prober{Bin: ffprobe}, Target: target},
		Fallback: &CopyComposer{FFmpeg: ffmpeg},
	}
}

// Mux writes out. Success means out exists and is non-empty.
func (m *Muxer) Mux(ctx context.Context, video, audio, out string) error {
	start := time.Now()
	primaryErr := compose(ctx, m.Primary, video, audio, out)
	if primaryErr == nil {
		log.Info().Str("out", out).Dur("duration", time.Since(start)).Msg("Mux complete")
		return nil
	}
	log.Warn().Err(primaryErr).Msg("Filter graph mux failed, trying stream copy")

	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", out).Msg("Failed to remove partial output")
	}
	fallbackErr := compose(ctx, m.Fallback, video, audio, out)
	if fallbackErr == nil {
		log.Info().Str("out", out).Dur("duration", time.Since(start)).Msg("Mux complete (stream copy)")
		return nil
	}
	return &MuxError{Primary: primaryErr, Fallback: fallbackErr}
}

func compose(ctx context.Context, c Composer, video, audio, out string) error {
	if c == nil {
		return errors.New("no composer configured")
	}
	if err := c.Compose(ctx, video, audio, out); err != nil {
		return err
	}
	info, err := os.Stat(out)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output is empty: %s", out)
	}
	return nil
}

func runFFmpeg(ctx context.Context, bin string, args []string) error {
	if bin == "" {
		bin = "ffmpeg"
	}
	log.Debug().Str("bin", bin).Strs("args", args).Msg("Running ffmpeg")
	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, llmtext.Tail(string(output), 2000))
	}
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
