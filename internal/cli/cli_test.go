package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/ai-video-generator/internal/pipeline"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "0:00"},
		{45 * time.Second, "0:45"},
		{90 * time.Second, "1:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.in); got != tt.expected {
			t.Errorf("FormatDurationShort(%v) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()

	created, err := EnsureDirectory(filepath.Join(base, "a", "b"))
	if err != nil {
		t.Fatalf("EnsureDirectory() error: %v", err)
	}
	if info, err := os.Stat(created); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	if !filepath.IsAbs(created) {
		t.Errorf("expected absolute path, got %q", created)
	}

	file := filepath.Join(base, "file.txt")
	os.WriteFile(file, []byte("x"), 0o644)
	if _, err := EnsureDirectory(file); err == nil {
		t.Error("expected error for a regular file")
	}
}

func TestPromptForDirectory(t *testing.T) {
	var out bytes.Buffer
	if got := PromptForDirectory(strings.NewReader("/tmp/videos\n"), &out); got != "/tmp/videos" {
		t.Errorf("PromptForDirectory() = %q", got)
	}
	if !strings.Contains(out.String(), "Output directory") {
		t.Errorf("prompt not written: %q", out.String())
	}

	cwd, _ := os.Getwd()
	if got := PromptForDirectory(strings.NewReader("\n"), &out); got != cwd {
		t.Errorf("empty input should give cwd, got %q", got)
	}
	if got := PromptForDirectory(strings.NewReader(""), &out); got != cwd {
		t.Errorf("EOF should give cwd, got %q", got)
	}
}

func TestReportPipelineError(t *testing.T) {
	var buf bytes.Buffer
	ReportPipelineError(&buf, &pipeline.Error{
		Stage:   pipeline.StageRender,
		Message: "scene did not render",
		Output:  "NameError: FRAME_WIDTH",
		Err:     errors.New("renderer exited with code 1"),
	})
	out := buf.String()
	for _, want := range []string{"Render stage failed", "exited with code 1", "NameError: FRAME_WIDTH"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	ReportPipelineError(&buf, errors.New("plain"))
	if buf.String() != "Error: plain\n" {
		t.Errorf("plain error output = %q", buf.String())
	}
}
