package main

import (
	"context"
	"errors"
	"testing"

	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/sanitize"
	"github.com/fpang/ai-video-generator/internal/scene"
)

type fakeGenerator struct {
	req pipeline.Request
	err error
}

func (f *fakeGenerator) Run(ctx context.Context, req pipeline.Request, onStage pipeline.StageFunc) (*pipeline.Result, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	onStage(pipeline.StageRender)
	return &pipeline.Result{ID: req.ID, Title: "Cubes", Mode: scene.Mode3D, VideoPath: "/tmp/out.mp4"}, nil
}

func newTools(t *testing.T, gen *fakeGenerator) *tools {
	t.Helper()
	s, err := sanitize.Default()
	if err != nil {
		t.Fatal(err)
	}
	tl := &tools{sanitizer: s}
	if gen != nil {
		tl.generator = gen
	}
	return tl
}

func TestSanitizeCodeTool(t *testing.T) {
	tl := newTools(t, nil)
	_, out, err := tl.sanitizeCode(context.Background(), nil, sanitizeInput{Code: "self.wait(0)\n"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Code == "self.wait(0)\n" || len(out.AppliedRules) == 0 {
		t.Errorf("expected the wait clamp to fire, got %+v", out)
	}
	if out.RulesVersion != tl.sanitizer.Version() {
		t.Errorf("RulesVersion = %d", out.RulesVersion)
	}

	_, out, _ = tl.sanitizeCode(context.Background(), nil, sanitizeInput{Code: "x = 1\n"})
	if out.AppliedRules == nil || len(out.AppliedRules) != 0 {
		t.Errorf("expected empty applied list, got %#v", out.AppliedRules)
	}
}

func TestDetectSceneModeTool(t *testing.T) {
	tl := newTools(t, nil)
	_, out, err := tl.detectSceneMode(context.Background(), nil, detectInput{Topic: "volume of a sphere"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Mode != scene.Mode3D || out.BaseClass != "ThreeDScene" || out.TimeoutSeconds != 180 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestGenerateVideoTool(t *testing.T) {
	gen := &fakeGenerator{}
	tl := newTools(t, gen)
	_, out, err := tl.generateVideo(context.Background(), nil, generateInput{Topic: "  rotating cubes in space ", Mode: "3D"})
	if err != nil {
		t.Fatal(err)
	}
	if gen.req.Topic != "rotating cubes in space" || gen.req.Mode != scene.Mode3D || gen.req.ID == "" {
		t.Errorf("request = %+v", gen.req)
	}
	if out.VideoPath != "/tmp/out.mp4" || out.VideoID != gen.req.ID || out.Mode != "3d" {
		t.Errorf("output = %+v", out)
	}
}

func TestGenerateVideoToolErrors(t *testing.T) {
	if _, _, err := newTools(t, nil).generateVideo(context.Background(), nil, generateInput{Topic: "a perfectly fine topic"}); !errors.Is(err, errGenerateDisabled) {
		t.Errorf("expected disabled error, got %v", err)
	}

	tl := newTools(t, &fakeGenerator{})
	for _, in := range []generateInput{{Topic: "short"}, {Topic: "a perfectly fine topic", Mode: "4d"}} {
		if _, _, err := tl.generateVideo(context.Background(), nil, in); err == nil {
			t.Errorf("expected error for %+v", in)
		}
	}

	failing := &fakeGenerator{err: &pipeline.Error{Stage: pipeline.StageRender, Message: "boom"}}
	var perr *pipeline.Error
	if _, _, err := newTools(t, failing).generateVideo(context.Background(), nil, generateInput{Topic: "a perfectly fine topic"}); !errors.As(err, &perr) {
		t.Errorf("expected pipeline error, got %v", err)
	}
}
