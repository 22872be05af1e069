package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fpang/ai-video-generator/internal/gemini"
	"github.com/fpang/ai-video-generator/internal/narration"
	"github.com/fpang/ai-video-generator/internal/render"
	"github.com/fpang/ai-video-generator/internal/sanitize"
	"github.com/fpang/ai-video-generator/internal/scene"
)

type fakeElaborator struct {
	elab *gemini.Elaboration
	err  error
	mode scene.Mode
}

func (f *fakeElaborator) Elaborate(ctx context.Context, topic string, mode scene.Mode) (*gemini.Elaboration, error) {
	f.mode = mode
	return f.elab, f.err
}

type fakeCodeGen struct {
	code string
	err  error
}

func (f *fakeCodeGen) GenerateCode(ctx context.Context, elab *gemini.Elaboration, mode scene.Mode) (string, error) {
	return f.code, f.err
}

type fakeRenderer struct {
	err error
	job render.Job
}

func (f *fakeRenderer) Render(ctx context.Context, job render.Job) (*render.Artifact, error) {
	f.job = job
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(job.Dir, "media", "EducationScene.mp4")
	os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return nil, err
	}
	return &render.Artifact{VideoPath: path, Output: "rendered"}, nil
}

type fakeSynth struct {
	err  error
	text string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, outPath string) error {
	f.text = text
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("wav"), 0o644)
}

type fakeMuxer struct{ err error }

func (f *fakeMuxer) Mux(ctx context.Context, video, audio, out string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("final"), 0o644)
}

const generatedCode = "from manim import *\n\nclass Demo(Scene):\n    def construct(self):\n        # NARRATION: \"A square appears.\"\n        self.play(ShowCreation(Square()))\n        self.wait(0)\n"

type fakes struct {
	elab  *fakeElaborator
	code  *fakeCodeGen
	rend  *fakeRenderer
	synth *fakeSynth
	mux   *fakeMuxer
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakes) {
	t.Helper()
	s, err := sanitize.Default()
	if err != nil {
		t.Fatal(err)
	}
	f := &fakes{
		elab:  &fakeElaborator{elab: &gemini.Elaboration{Title: "Squares", NarrationLines: []string{"Fallback line."}}},
		code:  &fakeCodeGen{code: generatedCode},
		rend:  &fakeRenderer{},
		synth: &fakeSynth{},
		mux:   &fakeMuxer{},
	}
	p := &Pipeline{
		Elaborator:   f.elab,
		CodeGen:      f.code,
		Sanitizer:    s,
		Renderer:     f.rend,
		Synthesizer:  f.synth,
		Muxer:        f.mux,
		OutputDir:    t.TempDir(),
		DebugBundles: true,
	}
	return p, f
}

func TestRunSuccess(t *testing.T) {
	p, f := newTestPipeline(t)
	var stages []Stage

	res, err := p.Run(context.Background(), Request{ID: "req1", Topic: "drawing a square step by step"}, func(s Stage) {
		stages = append(stages, s)
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !reflect.DeepEqual(stages, Stages) {
		t.Errorf("stages = %v, expected %v", stages, Stages)
	}
	if res.VideoPath != filepath.Join(p.OutputDir, "req1", "video_req1.mp4") {
		t.Errorf("VideoPath = %q", res.VideoPath)
	}
	if res.Title != "Squares" || res.Mode != scene.Mode2D {
		t.Errorf("unexpected result: %+v", res)
	}
	if !strings.Contains(f.rend.job.Code, "class EducationScene(Scene)") || !strings.Contains(f.rend.job.Code, "Create(Square())") {
		t.Errorf("renderer should receive sanitized code:\n%s", f.rend.job.Code)
	}
	if f.rend.job.Profile.QualityFlag != "-qm" {
		t.Errorf("2D profile expected, got %+v", f.rend.job.Profile)
	}
	if f.synth.text != "A square appears." {
		t.Errorf("narration = %q", f.synth.text)
	}

	files, err := ReadDebugBundle(res.BundlePath)
	if err != nil {
		t.Fatalf("ReadDebugBundle() error: %v", err)
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	expected := []string{"request.json", "elaboration.json", "scene.generated.py", "scene.sanitized.py", "engine.log", "narration.txt"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("bundle entries = %v, expected %v", names, expected)
	}
}

func TestRunThreeDTopicUsesThreeDProfile(t *testing.T) {
	p, f := newTestPipeline(t)
	if _, err := p.Run(context.Background(), Request{ID: "cube", Topic: "rotating a cube in 3d space"}, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if f.elab.mode != scene.Mode3D || f.rend.job.Profile.QualityFlag != "-ql" {
		t.Errorf("expected 3D mode, got %v / %+v", f.elab.mode, f.rend.job.Profile)
	}
}

func TestRunFallsBackToDefaultNarration(t *testing.T) {
	p, f := newTestPipeline(t)
	f.elab.elab = &gemini.Elaboration{Title: "x"}
	f.code.code = "from manim import *\nclass EducationScene(Scene):\n    def construct(self):\n        self.wait(1)\n"
	if _, err := p.Run(context.Background(), Request{ID: "n", Topic: "some quiet topic"}, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if f.synth.text != narration.Default {
		t.Errorf("narration = %q, expected default", f.synth.text)
	}
}

func TestRunStageErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		setup  func(f *fakes)
		stage  Stage
	}{
		{"elaboration", func(f *fakes) { f.elab.err = boom }, StageElaboration},
		{"code generation", func(f *fakes) { f.code.err = boom }, StageCodeGeneration},
		{"empty code", func(f *fakes) { f.code.code = "  " }, StageCodeGeneration},
		{"render", func(f *fakes) { f.rend.err = &render.Error{ExitCode: 1, Output: "Traceback"} }, StageRender},
		{"audio", func(f *fakes) { f.synth.err = boom }, StageAudioSynthesis},
		{"mux", func(f *fakes) { f.mux.err = boom }, StageMux},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, f := newTestPipeline(t)
			tt.setup(f)

			_, err := p.Run(context.Background(), Request{ID: "e", Topic: "a topic that fails"}, nil)
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if perr.Stage != tt.stage {
				t.Errorf("Stage = %s, expected %s", perr.Stage, tt.stage)
			}
			if tt.stage == StageRender && perr.Output != "Traceback" {
				t.Errorf("render error should carry engine output, got %q", perr.Output)
			}
			if _, err := os.Stat(filepath.Join(p.WorkDir("e"), BundleName)); err != nil {
				t.Errorf("debug bundle should be written on failure: %v", err)
			}
		})
	}
}

func TestRunRejectsIncompleteRequests(t *testing.T) {
	p, _ := newTestPipeline(t)
	if _, err := p.Run(context.Background(), Request{Topic: "valid topic here"}, nil); err == nil {
		t.Error("expected error without ID")
	}
	if _, err := p.Run(context.Background(), Request{ID: "x", Topic: " "}, nil); err == nil {
		t.Error("expected error without topic")
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"  the pythagorean theorem  ", "the pythagorean theorem", false},
		{"short", "", true},
		{"          ", "", true},
		{"0123456789", "0123456789", false},
	}
	for _, tt := range tests {
		got, err := ValidateTopic(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ValidateTopic(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Stage: StageMux, Message: "could not combine", Err: errors.New("ffmpeg missing")}
	if got := err.Error(); got != "Mux failed: could not combine: ffmpeg missing" {
		t.Errorf("Error() = %q", got)
	}
}
