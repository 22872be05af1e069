package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/sanitize"
	"github.com/fpang/ai-video-generator/internal/scene"
)

var rulesFlag string

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file|-]",
	Short: "Apply the sanitizer rules to scene code and print the result",
	Long: `Reads Manim scene code from a file (or stdin when the argument is "-" or
missing), applies the sanitizer rule table and writes the patched code to
stdout. The rules that changed something are listed on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSanitize,
}

var modeCmd = &cobra.Command{
	Use:   "mode <topic>",
	Short: "Show the scene mode and render profile chosen for a topic",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		topic := strings.Join(args, " ")
		m := scene.Detect(topic)
		p := scene.ProfileFor(m)
		fmt.Printf("mode:    %s\nclass:   %s\nquality: %s\ntimeout: %s\n", m, m.BaseClass(), p.QualityFlag, p.Timeout)
	},
}

var bundleCmd = &cobra.Command{
	Use:   "bundle <path>",
	Short: "List or print the files in a debug bundle",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := pipeline.ReadDebugBundle(args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			for _, f := range files {
				if f.Name == args[1] {
					_, err := os.Stdout.Write(f.Data)
					return err
				}
			}
			return fmt.Errorf("%s not found in %s", args[1], args[0])
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%d bytes\n", f.Name, len(f.Data))
		}
		return tw.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("video-cli %s (built %s)\n", commitHash, buildTime)
		if s, err := sanitize.Default(); err == nil {
			fmt.Printf("sanitizer rules v%d for %s\n", s.Version(), s.Target())
		}
	},
}

func init() {
	sanitizeCmd.Flags().StringVar(&rulesFlag, "rules", "", "Rule table YAML (default: built-in table)")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	code, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read code: %w", err)
	}

	s, err := loadSanitizer(rulesFlag)
	if err != nil {
		return err
	}
	out, applied := s.SanitizeReport(string(code))
	fmt.Print(out)
	for _, name := range applied {
		fmt.Fprintf(os.Stderr, "applied: %s\n", name)
	}
	return nil
}

func loadSanitizer(path string) (*sanitize.Sanitizer, error) {
	if path == "" {
		return sanitize.Default()
	}
	table, err := sanitize.LoadTable(path)
	if err != nil {
		return nil, err
	}
	return sanitize.New(table)
}
