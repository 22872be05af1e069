package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestStartupLoggerEmitsOneEvent(t *testing.T) {
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = old }()

	NewStartupLogger("video-web").
		CommitHash("abc123").
		S3Bucket("media", "videos-bucket").
		S3Bucket("unused", "").
		Binary("manim", "/usr/bin/manim").
		Feature("s3", true).
		Config("port", "8080").
		Log()

	var evt map[string]any
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("expected one JSON event, got %q: %v", buf.String(), err)
	}
	if evt["message"] != "Startup complete" {
		t.Errorf("message = %v", evt["message"])
	}
	proc := evt["process"].(map[string]any)
	if proc["name"] != "video-web" || proc["commitHash"] != "abc123" {
		t.Errorf("process = %v", proc)
	}
	res := evt["resources"].(map[string]any)
	buckets := res["s3Buckets"].(map[string]any)
	if buckets["media"] != "videos-bucket" {
		t.Errorf("s3Buckets = %v", buckets)
	}
	if _, ok := buckets["unused"]; ok {
		t.Error("empty resource names should be skipped")
	}
	if res["binaries"].(map[string]any)["manim"] != "/usr/bin/manim" {
		t.Errorf("binaries = %v", res["binaries"])
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("VIDEO_TEST_SET", "value")
	if got := EnvOrDefault("VIDEO_TEST_SET", "fallback"); got != "value" {
		t.Errorf("EnvOrDefault(set) = %q", got)
	}
	if got := EnvOrDefault("VIDEO_TEST_UNSET_XYZ", "fallback"); got != "fallback" {
		t.Errorf("EnvOrDefault(unset) = %q", got)
	}
}
