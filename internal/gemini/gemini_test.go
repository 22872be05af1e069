package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpang/ai-video-generator/internal/auth"
	"github.com/fpang/ai-video-generator/internal/scene"
	"google.golang.org/genai"
)

// fakeGenerator records the last request and replies with fixed parts.
type fakeGenerator struct {
	parts  []*genai.Part
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: f.parts}}},
	}, nil
}

func textReply(s string) *fakeGenerator {
	return &fakeGenerator{parts: []*genai.Part{{Text: s}}}
}

func TestElaborate(t *testing.T) {
	gen := textReply(`{"title": "Pythagoras", "narration_lines": ["A right triangle.", " ", "Squares on each side."], "visual_beats": ["triangle appears"]}`)
	e := NewElaborator(gen, "test-model", 30)

	elab, err := e.Elaborate(context.Background(), "pythagorean theorem", scene.Mode2D)
	if err != nil {
		t.Fatalf("Elaborate() error: %v", err)
	}
	if elab.Title != "Pythagoras" {
		t.Errorf("Title = %q", elab.Title)
	}
	if len(elab.NarrationLines) != 2 {
		t.Errorf("expected blank narration lines to be dropped, got %q", elab.NarrationLines)
	}
	if gen.model != "test-model" {
		t.Errorf("model = %q", gen.model)
	}
	if gen.config.ResponseMIMEType != "application/json" {
		t.Errorf("expected JSON response mode, got %q", gen.config.ResponseMIMEType)
	}
	if !strings.Contains(gen.prompt, "pythagorean theorem") {
		t.Errorf("prompt does not mention topic:\n%s", gen.prompt)
	}
}

func TestElaborateDefaultsTitleToTopic(t *testing.T) {
	e := NewElaborator(textReply(`{"narration_lines": ["Hello."]}`), "m", 30)
	elab, err := e.Elaborate(context.Background(), "waves", scene.Mode2D)
	if err != nil {
		t.Fatalf("Elaborate() error: %v", err)
	}
	if elab.Title != "waves" {
		t.Errorf("Title = %q, expected topic", elab.Title)
	}
}

func TestElaborateRejectsMalformedResponses(t *testing.T) {
	for _, reply := range []string{"I cannot help with that.", `{"title": "x"}`, `{"title": `} {
		e := NewElaborator(textReply(reply), "m", 30)
		if _, err := e.Elaborate(context.Background(), "topic", scene.Mode2D); err == nil {
			t.Errorf("expected error for reply %q", reply)
		}
	}
}

func TestElaborateClassifiesAPIErrors(t *testing.T) {
	gen := &fakeGenerator{err: genai.APIError{Code: 429, Message: "slow down"}}
	_, err := NewElaborator(gen, "m", 30).Elaborate(context.Background(), "topic", scene.Mode2D)
	var authErr *auth.Error
	if !errors.As(err, &authErr) || authErr.Kind != auth.KindQuotaExceeded {
		t.Errorf("expected quota error, got %v", err)
	}
}

func TestGenerateCode(t *testing.T) {
	gen := textReply("Here you go:\n```python\nfrom manim import *\n\nclass EducationScene(ThreeDScene):\n    pass\n```\n")
	g := NewCodeGenerator(gen, "m", 30)
	code, err := g.GenerateCode(context.Background(), &Elaboration{Title: "Cube", NarrationLines: []string{"A cube."}}, scene.Mode3D)
	if err != nil {
		t.Fatalf("GenerateCode() error: %v", err)
	}
	if !strings.HasPrefix(code, "from manim import *") {
		t.Errorf("unexpected code: %q", code)
	}
	if !strings.Contains(gen.prompt, "class EducationScene(ThreeDScene):") {
		t.Errorf("3D prompt should request ThreeDScene:\n%s", gen.prompt)
	}
}

func TestGenerateCodeEmptyResponse(t *testing.T) {
	g := NewCodeGenerator(textReply("```python\n```"), "m", 30)
	if _, err := g.GenerateCode(context.Background(), &Elaboration{Title: "x"}, scene.Mode2D); err == nil {
		t.Error("expected error for response without code")
	}
}

func TestSynthesizeWritesWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	gen := &fakeGenerator{parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "audio/L16;codec=pcm;rate=16000", Data: pcm}}}}
	s := NewSynthesizer(gen, "tts", "", "")
	out := filepath.Join(t.TempDir(), "narration.wav")

	if err := s.Synthesize(context.Background(), "Hello there.", out); err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+len(pcm) {
		t.Fatalf("file size = %d, expected %d", len(data), 44+len(pcm))
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, expected 16000", rate)
	}
	voice := gen.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName
	if voice != DefaultVoice || gen.config.SpeechConfig.LanguageCode != DefaultLanguage {
		t.Errorf("unexpected speech config: voice %q language %q", voice, gen.config.SpeechConfig.LanguageCode)
	}
}

func TestSynthesizeWithoutAudio(t *testing.T) {
	s := NewSynthesizer(textReply("no audio"), "tts", "Puck", "en-GB")
	if err := s.Synthesize(context.Background(), "Hello.", filepath.Join(t.TempDir(), "a.wav")); err == nil {
		t.Error("expected error when response has no audio")
	}
	if err := s.Synthesize(context.Background(), "  ", filepath.Join(t.TempDir(), "b.wav")); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestWriteWAVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, make([]byte, 100), 24000, 1); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", b[:44])
	}
	if size := binary.LittleEndian.Uint32(b[40:44]); size != 100 {
		t.Errorf("data size = %d", size)
	}
	if byteRate := binary.LittleEndian.Uint32(b[28:32]); byteRate != 48000 {
		t.Errorf("byte rate = %d", byteRate)
	}
	if err := WriteWAV(&buf, nil, 0, 1); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSampleRate(t *testing.T) {
	tests := map[string]int{
		"audio/L16;codec=pcm;rate=24000": 24000,
		"audio/L16; rate=8000":           8000,
		"audio/L16":                      defaultSampleRate,
		"":                               defaultSampleRate,
		"audio/L16;rate=abc":             defaultSampleRate,
	}
	for in, want := range tests {
		if got := sampleRate(in); got != want {
			t.Errorf("sampleRate(%q) = %d, expected %d", in, got, want)
		}
	}
}

func TestValidateAPIKey(t *testing.T) {
	if err := ValidateAPIKey(context.Background(), textReply("hello"), "m"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidateAPIKey(context.Background(), &fakeGenerator{err: genai.APIError{Code: 403}}, "m")
	var authErr *auth.Error
	if !errors.As(err, &authErr) || authErr.Kind != auth.KindInvalidKey {
		t.Errorf("expected invalid key error, got %v", err)
	}
}
