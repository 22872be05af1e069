// Package main is the command-line front end of the video generator.
//
// Examples:
//
//	video-cli generate "How the Pythagorean theorem works"
//	video-cli generate "Rotating a cube in space" --mode 3d --out ./videos
//	video-cli sanitize scene.py
//	video-cli mode "Volume of a cone"
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	commitHash = "dev"
	buildTime  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "video-cli",
	Short: "Turn a topic into a short narrated educational video",
	Long: `video-cli asks Gemini to plan and script a short educational animation
for a topic, renders it with Manim, narrates it with Gemini TTS and muxes
the result into an MP4.

The sanitize and mode commands run the local stages on their own and need
no API key.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(generateCmd, sanitizeCmd, modeCmd, bundleCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
