package media

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultPosterMaxDimension bounds the poster's longer side.
const DefaultPosterMaxDimension = 640

// Poster grabs a frame from video at the one-second mark (or the first frame
// for shorter clips), scales it to fit maxDimension and writes it as JPEG.
func Poster(ctx context.Context, ffmpeg, video, out string, maxDimension int) error {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	tmp, err := os.CreateTemp("", "poster-*.png")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	output, err := exec.CommandContext(ctx, ffmpeg, frameArgs(video, tmpPath, "1")...).CombinedOutput()
	if err != nil {
		output2, err2 := exec.CommandContext(ctx, ffmpeg, frameArgs(video, tmpPath, "")...).CombinedOutput()
		if err2 != nil {
			return fmt.Errorf("ffmpeg frame extraction failed: %w: %s / %s", err2, output, output2)
		}
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("open extracted frame: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("decode extracted frame: %w", err)
	}

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create poster: %w", err)
	}
	scaled := ScaleToFit(img, maxDimension)
	if err := jpeg.Encode(dst, scaled, &jpeg.Options{Quality: 85}); err != nil {
		dst.Close()
		return fmt.Errorf("encode poster: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	log.Debug().Str("path", out).Int("width", scaled.Bounds().Dx()).Int("height", scaled.Bounds().Dy()).Msg("Poster written")
	return nil
}

func frameArgs(video, out, seek string) []string {
	args := []string{"-i", video}
	if seek != "" {
		args = append(args, "-ss", seek)
	}
	return append(args, "-vframes", "1", "-f", "image2", "-y", out)
}

// ScaleToFit returns img downscaled so neither side exceeds maxDimension.
// Smaller images are returned unchanged.
func ScaleToFit(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := fitDimensions(b.Dx(), b.Dy(), maxDimension)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func fitDimensions(width, height, maxDimension int) (int, int) {
	if maxDimension <= 0 || (width <= maxDimension && height <= maxDimension) {
		return width, height
	}
	if width >= height {
		return maxDimension, max(1, height*maxDimension/width)
	}
	return max(1, width*maxDimension/height), maxDimension
}
